package service

import (
	"fmt"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"littlesteps/internal/catalog"
	"littlesteps/internal/models"
	"littlesteps/internal/repository"
	"littlesteps/internal/schedule"
)

// CustomItemInput is a user-written checklist entry
type CustomItemInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate implements ozzo's Validatable
func (in CustomItemInput) Validate() error {
	return ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Title, ozzo.Required, ozzo.RuneLength(1, 200)),
		ozzo.Field(&in.Description, ozzo.RuneLength(0, 2000)),
	)
}

// PlanningService manages a child's checklist and milestone suggestions
type PlanningService struct {
	childRepo     *repository.ChildRepository
	checklistRepo *repository.ChecklistRepository
	catalog       *catalog.Catalog
	now           func() time.Time
}

// NewPlanningService creates a new planning service
func NewPlanningService(childRepo *repository.ChildRepository, checklistRepo *repository.ChecklistRepository, cat *catalog.Catalog) *PlanningService {
	return &PlanningService{
		childRepo:     childRepo,
		checklistRepo: checklistRepo,
		catalog:       cat,
		now:           time.Now,
	}
}

// Checklist returns the child's items grouped by timeframe
func (s *PlanningService) Checklist(userID, childID int64) (*schedule.Timeframes, error) {
	if _, err := ownedChild(s.childRepo, userID, childID); err != nil {
		return nil, err
	}
	items, err := s.checklistRepo.GetItemsByChild(childID)
	if err != nil {
		return nil, err
	}
	grouped := schedule.GroupByTimeframe(items, s.now())
	return &grouped, nil
}

// Suggestions lists milestone templates not yet on the child's checklist
// whose dates fall inside the suggestion horizon
func (s *PlanningService) Suggestions(userID, childID int64) ([]schedule.Suggestion, error) {
	child, err := ownedChild(s.childRepo, userID, childID)
	if err != nil {
		return nil, err
	}
	items, err := s.checklistRepo.GetItemsByChild(childID)
	if err != nil {
		return nil, err
	}
	return schedule.RelevantMilestones(*child, s.catalog.Templates, schedule.ExistingKeys(items), s.now()), nil
}

// AddSuggestions puts milestone templates on the child's checklist. With no
// keys every current suggestion is added. Keys already on the checklist and
// templates whose date cannot be resolved are skipped, so repeating a call
// adds nothing.
func (s *PlanningService) AddSuggestions(userID, childID int64, keys []string) ([]models.ChecklistItem, error) {
	child, err := ownedChild(s.childRepo, userID, childID)
	if err != nil {
		return nil, err
	}
	items, err := s.checklistRepo.GetItemsByChild(childID)
	if err != nil {
		return nil, err
	}
	existing := schedule.ExistingKeys(items)

	var suggestions []schedule.Suggestion
	if len(keys) == 0 {
		suggestions = schedule.RelevantMilestones(*child, s.catalog.Templates, existing, s.now())
	} else {
		seen := make(map[string]bool, len(keys))
		for _, key := range keys {
			key = strings.TrimSpace(key)
			tpl := s.catalog.Template(key)
			if tpl == nil {
				return nil, fmt.Errorf("%w: %q", ErrUnknownMilestone, key)
			}
			if existing[key] || seen[key] {
				continue
			}
			seen[key] = true
			if date := schedule.MilestoneDate(*child, *tpl); date != nil {
				suggestions = append(suggestions, schedule.Suggestion{Template: *tpl, Date: *date})
			}
		}
	}
	if len(suggestions) == 0 {
		return []models.ChecklistItem{}, nil
	}

	startOrder, err := s.checklistRepo.NextSortOrder(childID)
	if err != nil {
		return nil, err
	}
	newItems := schedule.NewItemsFromSuggestions(childID, userID, suggestions, startOrder)
	if err := s.checklistRepo.CreateItems(newItems); err != nil {
		return nil, err
	}
	return newItems, nil
}

// AddCustomItem appends a user-written item to the child's checklist
func (s *PlanningService) AddCustomItem(userID, childID int64, in CustomItemInput) (*models.ChecklistItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := ownedChild(s.childRepo, userID, childID); err != nil {
		return nil, err
	}
	order, err := s.checklistRepo.NextSortOrder(childID)
	if err != nil {
		return nil, err
	}
	item := &models.ChecklistItem{
		ChildID:     childID,
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		ItemType:    models.ItemTypeCustom,
		DueDate:     in.DueDate,
		SortOrder:   order,
	}
	if err := s.checklistRepo.CreateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PlanningService) ownedItem(userID, itemID int64) (*models.ChecklistItem, error) {
	item, err := s.checklistRepo.GetItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID != userID {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// ToggleItem flips completion, stamping or clearing the completion time
func (s *PlanningService) ToggleItem(userID, itemID int64) (*models.ChecklistItem, error) {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}
	var completedAt *time.Time
	if !item.IsCompleted {
		now := s.now().UTC()
		completedAt = &now
	}
	if err := s.checklistRepo.SetCompleted(itemID, completedAt); err != nil {
		return nil, err
	}
	item.IsCompleted = completedAt != nil
	item.CompletedAt = completedAt
	return item, nil
}

// UpdateDueDate changes the user's date for an item; nil clears it. The
// suggested date computed from the template stays as it was.
func (s *PlanningService) UpdateDueDate(userID, itemID int64, dueDate *time.Time) (*models.ChecklistItem, error) {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.checklistRepo.UpdateDueDate(itemID, dueDate); err != nil {
		return nil, err
	}
	item.DueDate = dueDate
	return item, nil
}

// DeleteItem removes a custom item; milestone items can only be completed
func (s *PlanningService) DeleteItem(userID, itemID int64) error {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}
	if item.ItemType != models.ItemTypeCustom {
		return ErrNotCustomItem
	}
	if _, err := s.checklistRepo.DeleteCustomItem(itemID); err != nil {
		return err
	}
	return nil
}
