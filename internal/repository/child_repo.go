package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"littlesteps/internal/database"
	"littlesteps/internal/models"
)

const childColumns = "id, user_id, name, due_date, date_of_birth, is_born, created_at, updated_at"

// ChildRepository handles database operations for child profiles
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

func scanChild(row interface{ Scan(...interface{}) error }) (*models.Child, error) {
	var (
		child    models.Child
		due, dob sql.NullString
	)
	if err := row.Scan(&child.ID, &child.UserID, &child.Name, &due, &dob, &child.IsBorn, &child.CreatedAt, &child.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if child.DueDate, err = parseDate(due); err != nil {
		return nil, err
	}
	if child.DOB, err = parseDate(dob); err != nil {
		return nil, err
	}
	return &child, nil
}

// CreateChild inserts a child and fills in its ID and timestamps
func (r *ChildRepository) CreateChild(child *models.Child) error {
	query := `
		INSERT INTO children (user_id, name, due_date, date_of_birth, is_born)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, child.UserID, child.Name, dateValue(child.DueDate), dateValue(child.DOB), child.IsBorn)
	if err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	now := time.Now()
	child.ID = id
	child.CreatedAt = now
	child.UpdatedAt = now
	return nil
}

// GetChildByID retrieves a child by ID
func (r *ChildRepository) GetChildByID(id int64) (*models.Child, error) {
	child, err := scanChild(r.db.QueryRow("SELECT "+childColumns+" FROM children WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetChildrenByUser lists a user's children in creation order
func (r *ChildRepository) GetChildrenByUser(userID int64) ([]models.Child, error) {
	rows, err := r.db.Query("SELECT "+childColumns+" FROM children WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	children := []models.Child{}
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}

// UpdateChild saves a child's name, dates and born flag
func (r *ChildRepository) UpdateChild(child *models.Child) error {
	query := `
		UPDATE children
		SET name = ?, due_date = ?, date_of_birth = ?, is_born = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, child.Name, dateValue(child.DueDate), dateValue(child.DOB), child.IsBorn, child.ID); err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	child.UpdatedAt = time.Now()
	return nil
}

// DeleteChild removes a child and, through cascading keys, its checklist
func (r *ChildRepository) DeleteChild(id int64) error {
	if _, err := r.db.Exec("DELETE FROM children WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}
