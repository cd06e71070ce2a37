package models

import "time"

// Checklist item types
const (
	ItemTypeMilestone = "milestone"
	ItemTypeCustom    = "custom"
)

// DateLayout is the calendar date format used for checklist and child dates.
const DateLayout = "2006-01-02"

// ChecklistItem is a task on a child's planning checklist. MilestoneKey is
// set only for items created from a MilestoneTemplate and never changes.
type ChecklistItem struct {
	ID            int64      `json:"id"`
	ChildID       int64      `json:"child_id"`
	UserID        int64      `json:"user_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ItemType      string     `json:"item_type"`
	MilestoneKey  *string    `json:"milestone_key"`
	SuggestedDate *time.Time `json:"suggested_date"`
	DueDate       *time.Time `json:"due_date"`
	IsCompleted   bool       `json:"is_completed"`
	CompletedAt   *time.Time `json:"completed_at"`
	SortOrder     int        `json:"sort_order"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DisplayDate returns the user's due date when set, else the suggested date.
func (i *ChecklistItem) DisplayDate() *time.Time {
	if i.DueDate != nil {
		return i.DueDate
	}
	return i.SuggestedDate
}
