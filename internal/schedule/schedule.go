// Package schedule turns milestone templates into dated checklist
// suggestions and sorts a child's checklist into time buckets.
package schedule

import (
	"sort"
	"time"

	"littlesteps/internal/models"
)

// SuggestionHorizon is how far ahead a template may fall and still be suggested.
const SuggestionHorizon = 26 * 7 * 24 * time.Hour

// Suggestion is a template paired with its resolved calendar date.
type Suggestion struct {
	Template models.MilestoneTemplate `json:"template"`
	Date     time.Time                `json:"date"`
}

// coalesce returns the first non-nil date.
func coalesce(dates ...*time.Time) *time.Time {
	for _, d := range dates {
		if d != nil {
			return d
		}
	}
	return nil
}

// referenceDate picks the anchor for a template. Due-date templates prefer
// the due date and fall back to the birth date; birth templates prefer the
// birth date and fall back to the due date.
func referenceDate(child models.Child, reference string) *time.Time {
	if reference == models.ReferenceBirth {
		return coalesce(child.DOB, child.DueDate)
	}
	return coalesce(child.DueDate, child.DOB)
}

// MilestoneDate resolves the calendar date of template for child, or nil
// when the child has no usable reference date.
func MilestoneDate(child models.Child, template models.MilestoneTemplate) *time.Time {
	ref := referenceDate(child, template.OffsetReference)
	if ref == nil {
		return nil
	}
	d := ref.AddDate(0, 0, template.OffsetWeeks*7)
	return &d
}

// RelevantMilestones returns the templates that should be offered to the
// user for child: not yet on the checklist, datable, and due no later than
// SuggestionHorizon from now. Templates whose date has already passed are
// still returned until the user acts on them. Template order is preserved.
func RelevantMilestones(child models.Child, templates []models.MilestoneTemplate, existingKeys map[string]bool, now time.Time) []Suggestion {
	horizon := now.Add(SuggestionHorizon)

	var out []Suggestion
	for _, t := range templates {
		if existingKeys[t.Key] {
			continue
		}
		date := MilestoneDate(child, t)
		if date == nil {
			continue
		}
		if date.After(horizon) {
			continue
		}
		out = append(out, Suggestion{Template: t, Date: *date})
	}
	return out
}

// ExistingKeys collects the milestone keys already instantiated in items.
func ExistingKeys(items []models.ChecklistItem) map[string]bool {
	keys := make(map[string]bool)
	for _, item := range items {
		if item.MilestoneKey != nil {
			keys[*item.MilestoneKey] = true
		}
	}
	return keys
}

// NewItemsFromSuggestions builds unsaved checklist items for suggestions.
// Both dates start at the computed date; sort orders continue from startOrder.
func NewItemsFromSuggestions(childID, userID int64, suggestions []Suggestion, startOrder int) []models.ChecklistItem {
	items := make([]models.ChecklistItem, 0, len(suggestions))
	for i, s := range suggestions {
		key := s.Template.Key
		suggested := s.Date
		due := s.Date
		items = append(items, models.ChecklistItem{
			ChildID:       childID,
			UserID:        userID,
			Title:         s.Template.Title,
			Description:   s.Template.Description,
			ItemType:      models.ItemTypeMilestone,
			MilestoneKey:  &key,
			SuggestedDate: &suggested,
			DueDate:       &due,
			SortOrder:     startOrder + i,
		})
	}
	return items
}

// Timeframes is a checklist split by urgency.
type Timeframes struct {
	Overdue   []models.ChecklistItem `json:"overdue"`
	ThisMonth []models.ChecklistItem `json:"this_month"`
	ComingUp  []models.ChecklistItem `json:"coming_up"`
	Completed []models.ChecklistItem `json:"completed"`
}

// GroupByTimeframe sorts items into buckets relative to now's calendar day
// in now's location. Completed items go to Completed whatever their date.
// Open items use their due date, else their suggested date; items with
// neither land in ComingUp. Open buckets are ordered by date ascending and
// Completed by completion time, newest first.
func GroupByTimeframe(items []models.ChecklistItem, now time.Time) Timeframes {
	today := now.Format(models.DateLayout)
	endOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Format(models.DateLayout)

	g := Timeframes{
		Overdue:   []models.ChecklistItem{},
		ThisMonth: []models.ChecklistItem{},
		ComingUp:  []models.ChecklistItem{},
		Completed: []models.ChecklistItem{},
	}

	for _, item := range items {
		if item.IsCompleted {
			g.Completed = append(g.Completed, item)
			continue
		}
		display := displayKey(item)
		switch {
		case display == "":
			g.ComingUp = append(g.ComingUp, item)
		case display < today:
			g.Overdue = append(g.Overdue, item)
		case display <= endOfMonth:
			g.ThisMonth = append(g.ThisMonth, item)
		default:
			g.ComingUp = append(g.ComingUp, item)
		}
	}

	sortByDisplayDate(g.Overdue)
	sortByDisplayDate(g.ThisMonth)
	sortByDisplayDate(g.ComingUp)
	sort.SliceStable(g.Completed, func(i, j int) bool {
		return completedAfter(g.Completed[i], g.Completed[j])
	})

	return g
}

// displayKey formats the item's display date as YYYY-MM-DD in the date's
// own zone, so stored calendar dates never shift a day. Empty when unset.
func displayKey(item models.ChecklistItem) string {
	d := item.DisplayDate()
	if d == nil {
		return ""
	}
	return d.Format(models.DateLayout)
}

// sortByDisplayDate orders ascending by date; undated items sort last.
func sortByDisplayDate(items []models.ChecklistItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := displayKey(items[i]), displayKey(items[j])
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})
}

func completedAfter(a, b models.ChecklistItem) bool {
	if a.CompletedAt == nil || b.CompletedAt == nil {
		return a.CompletedAt != nil && b.CompletedAt == nil
	}
	return a.CompletedAt.After(*b.CompletedAt)
}
