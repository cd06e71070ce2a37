package models

import "time"

// Preference values meaning "no opinion".
const (
	PrefUndecided      = "undecided"
	PrefPreferNotToSay = "prefer_not_to_say"
	PrefOmnivore       = "omnivore"
	PrefNoPreference   = "no_preference"
)

// UserPreferences holds a family's declared lifestyle choices. Nil fields
// were never answered.
type UserPreferences struct {
	UserID            int64     `json:"user_id"`
	BirthPreference   *string   `json:"birth_preference"`
	FeedingPreference *string   `json:"feeding_preference"`
	VaccineStance     *string   `json:"vaccine_stance"`
	DietaryPreference *string   `json:"dietary_preference"`
	ParentingStyle    *string   `json:"parenting_style"`
	Religion          *string   `json:"religion"`
	TopicsOfInterest  []string  `json:"topics_of_interest"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Allowed values per preference field.
var (
	BirthPreferences   = []string{"vaginal", "c_section", "water_birth", "home_birth", "hypnobirthing", PrefUndecided}
	FeedingPreferences = []string{"breastfeeding", "formula", "combination", "pumping", PrefUndecided}
	VaccineStances     = []string{"on_schedule", "delayed", "selective", PrefPreferNotToSay}
	DietaryPreferences = []string{"vegetarian", "vegan", "pescatarian", "halal", "kosher", "gluten_free", PrefOmnivore}
	ParentingStyles    = []string{"attachment", "gentle", "montessori", "authoritative", "free_range", PrefNoPreference}
)
