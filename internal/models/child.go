package models

import "time"

// Child is a child profile placed on the pregnancy-to-age-5 timeline.
// DueDate and DOB are calendar dates stored at UTC midnight.
type Child struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Name      string     `json:"name"`
	DueDate   *time.Time `json:"due_date"`
	DOB       *time.Time `json:"dob"`
	IsBorn    bool       `json:"is_born"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ChildWithAge is a Child plus values derived from it at read time.
// None of the derived fields are ever stored.
type ChildWithAge struct {
	Child
	AgeInWeeks int    `json:"age_in_weeks"`
	AgeLabel   string `json:"age_label"`
	Stage      string `json:"stage"`
	// AgeKnown is false when the child has neither a due date nor a birth
	// date, in which case AgeInWeeks is the newborn default of 0.
	AgeKnown bool `json:"age_known"`
}
