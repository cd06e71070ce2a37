package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"littlesteps/internal/database"
	"littlesteps/internal/models"
)

const checklistColumns = `id, child_id, user_id, title, description, item_type, milestone_key,
	suggested_date, due_date, completed_at, is_completed, sort_order, created_at, updated_at`

// ChecklistRepository handles database operations for checklist items
type ChecklistRepository struct {
	db *database.DB
}

// NewChecklistRepository creates a new checklist repository
func NewChecklistRepository(db *database.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

func scanChecklistItem(row interface{ Scan(...interface{}) error }) (*models.ChecklistItem, error) {
	var (
		item           models.ChecklistItem
		key            sql.NullString
		suggested, due sql.NullString
		completedAt    sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.ChildID,
		&item.UserID,
		&item.Title,
		&item.Description,
		&item.ItemType,
		&key,
		&suggested,
		&due,
		&completedAt,
		&item.IsCompleted,
		&item.SortOrder,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.MilestoneKey = nullString(key)
	item.CompletedAt = nullTime(completedAt)
	if item.SuggestedDate, err = parseDate(suggested); err != nil {
		return nil, err
	}
	if item.DueDate, err = parseDate(due); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemsByChild lists a child's checklist in sort order
func (r *ChecklistRepository) GetItemsByChild(childID int64) ([]models.ChecklistItem, error) {
	rows, err := r.db.Query("SELECT "+checklistColumns+" FROM checklist_items WHERE child_id = ? ORDER BY sort_order, id", childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checklist: %w", err)
	}
	defer rows.Close()

	items := []models.ChecklistItem{}
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItemByID retrieves a checklist item by ID
func (r *ChecklistRepository) GetItemByID(id int64) (*models.ChecklistItem, error) {
	item, err := scanChecklistItem(r.db.QueryRow("SELECT "+checklistColumns+" FROM checklist_items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist item: %w", err)
	}
	return item, nil
}

// NextSortOrder returns the sort order after the child's last item
func (r *ChecklistRepository) NextSortOrder(childID int64) (int, error) {
	var max sql.NullInt64
	if err := r.db.QueryRow("SELECT MAX(sort_order) FROM checklist_items WHERE child_id = ?", childID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read sort order: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

func insertItem(q database.DBTX, item *models.ChecklistItem) error {
	query := `
		INSERT INTO checklist_items
			(child_id, user_id, title, description, item_type, milestone_key, suggested_date, due_date, is_completed, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query,
		item.ChildID,
		item.UserID,
		item.Title,
		item.Description,
		item.ItemType,
		stringValue(item.MilestoneKey),
		dateValue(item.SuggestedDate),
		dateValue(item.DueDate),
		item.IsCompleted,
		item.SortOrder,
	)
	if err != nil {
		return err
	}
	now := time.Now()
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

// CreateItem inserts a single checklist item and fills in its ID
func (r *ChecklistRepository) CreateItem(item *models.ChecklistItem) error {
	if err := insertItem(r.db, item); err != nil {
		return fmt.Errorf("failed to create checklist item: %w", err)
	}
	return nil
}

// CreateItems inserts items in one transaction; either all are saved or none
func (r *ChecklistRepository) CreateItems(items []models.ChecklistItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithTx(func(tx *database.Tx) error {
		for i := range items {
			if err := insertItem(tx, &items[i]); err != nil {
				return fmt.Errorf("failed to create checklist item %q: %w", items[i].Title, err)
			}
		}
		return nil
	})
}

// SetCompleted marks an item done at completedAt, or reopens it when completedAt is nil
func (r *ChecklistRepository) SetCompleted(id int64, completedAt *time.Time) error {
	query := `
		UPDATE checklist_items
		SET is_completed = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, completedAt != nil, timeValue(completedAt), id); err != nil {
		return fmt.Errorf("failed to update completion: %w", err)
	}
	return nil
}

// UpdateDueDate changes the user-editable date. The suggested date is never touched.
func (r *ChecklistRepository) UpdateDueDate(id int64, dueDate *time.Time) error {
	query := "UPDATE checklist_items SET due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, dateValue(dueDate), id); err != nil {
		return fmt.Errorf("failed to update due date: %w", err)
	}
	return nil
}

// DeleteCustomItem deletes a custom item; milestone items are left alone.
// It reports whether a row was removed.
func (r *ChecklistRepository) DeleteCustomItem(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM checklist_items WHERE id = ? AND item_type = ?", id, models.ItemTypeCustom)
	if err != nil {
		return false, fmt.Errorf("failed to delete checklist item: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}
