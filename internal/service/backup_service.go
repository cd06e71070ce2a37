package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"littlesteps/internal/database"
	"littlesteps/internal/logger"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete account data backup. Resources and
// settings are left out: resources are reseeded from the catalog on start.
type BackupData struct {
	Version        string              `json:"version"`
	ExportedAt     time.Time           `json:"exported_at"`
	Users          []UserBackup        `json:"users"`
	Children       []ChildBackup       `json:"children"`
	Preferences    []PreferencesBackup `json:"preferences"`
	ChecklistItems []ChecklistBackup   `json:"checklist_items"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	DigestEnabled bool      `json:"digest_enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChildBackup represents a child record. Dates keep their stored YYYY-MM-DD form.
type ChildBackup struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	DueDate   *string   `json:"due_date"`
	DOB       *string   `json:"dob"`
	IsBorn    bool      `json:"is_born"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreferencesBackup represents one user's preferences row
type PreferencesBackup struct {
	UserID            int64     `json:"user_id"`
	BirthPreference   *string   `json:"birth_preference"`
	FeedingPreference *string   `json:"feeding_preference"`
	VaccineStance     *string   `json:"vaccine_stance"`
	DietaryPreference *string   `json:"dietary_preference"`
	ParentingStyle    *string   `json:"parenting_style"`
	Religion          *string   `json:"religion"`
	TopicsOfInterest  string    `json:"topics_of_interest"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ChecklistBackup represents a checklist item
type ChecklistBackup struct {
	ID            int64      `json:"id"`
	ChildID       int64      `json:"child_id"`
	UserID        int64      `json:"user_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ItemType      string     `json:"item_type"`
	MilestoneKey  *string    `json:"milestone_key"`
	SuggestedDate *string    `json:"suggested_date"`
	DueDate       *string    `json:"due_date"`
	CompletedAt   *time.Time `json:"completed_at"`
	IsCompleted   bool       `json:"is_completed"`
	SortOrder     int        `json:"sort_order"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// backupTables lists restorable tables in dependency order
var backupTables = []string{"users", "children", "user_preferences", "checklist_items"}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *logger.Logger
	now func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log.With("component", "backup"), now: time.Now}
}

// Export writes every account, child, preference and checklist item to w as indented JSON
func (s *BackupService) Export(w io.Writer) (*BackupData, error) {
	backup := &BackupData{Version: BackupVersion, ExportedAt: s.now().UTC()}

	if err := s.exportUsers(backup); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportChildren(backup); err != nil {
		return nil, fmt.Errorf("failed to export children: %w", err)
	}
	if err := s.exportPreferences(backup); err != nil {
		return nil, fmt.Errorf("failed to export preferences: %w", err)
	}
	if err := s.exportChecklist(backup); err != nil {
		return nil, fmt.Errorf("failed to export checklist items: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("Database exported", "users", len(backup.Users), "children", len(backup.Children),
		"preferences", len(backup.Preferences), "checklist_items", len(backup.ChecklistItems))
	return backup, nil
}

// Import restores a backup read from r in a single transaction. With clearExisting
// set, existing accounts are deleted first; otherwise rows are added and any
// ID clash aborts the whole import.
func (s *BackupService) Import(r io.Reader, clearExisting bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.log.Info("Importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	err := s.db.WithTx(func(tx *database.Tx) error {
		if clearExisting {
			if err := clearTables(tx); err != nil {
				return err
			}
		}
		if err := importUsers(tx, backup.Users); err != nil {
			return fmt.Errorf("failed to import users: %w", err)
		}
		if err := importChildren(tx, backup.Children); err != nil {
			return fmt.Errorf("failed to import children: %w", err)
		}
		if err := importPreferences(tx, backup.Preferences); err != nil {
			return fmt.Errorf("failed to import preferences: %w", err)
		}
		if err := importChecklist(tx, backup.ChecklistItems); err != nil {
			return fmt.Errorf("failed to import checklist items: %w", err)
		}
		return resetSequences(tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Database import completed", "users", len(backup.Users), "children", len(backup.Children))
	return &backup, nil
}

func clearTables(tx *database.Tx) error {
	// Sessions reference users, so they go too.
	tables := append([]string{"sessions"}, backupTables...)
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.Exec("DELETE FROM " + tables[i]); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", tables[i], err)
		}
	}
	return nil
}

// resetSequences moves postgres serial counters past the imported IDs
func resetSequences(tx *database.Tx) error {
	if tx.GetDialect().MigrationsSubdir() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "children", "checklist_items"} {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func stringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	rows, err := s.db.Query("SELECT id, email, password_hash, name, digest_enabled, created_at, updated_at FROM users ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.DigestEnabled, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportChildren(backup *BackupData) error {
	rows, err := s.db.Query("SELECT id, user_id, name, due_date, date_of_birth, is_born, created_at, updated_at FROM children ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c        ChildBackup
			due, dob sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &due, &dob, &c.IsBorn, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		c.DueDate, c.DOB = nullableString(due), nullableString(dob)
		backup.Children = append(backup.Children, c)
	}
	return rows.Err()
}

func (s *BackupService) exportPreferences(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT user_id, birth_preference, feeding_preference, vaccine_stance,
		dietary_preference, parenting_style, religion, topics_of_interest, updated_at
		FROM user_preferences ORDER BY user_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                                           PreferencesBackup
			birth, feeding, vaccine, diet, style, faith sql.NullString
		)
		if err := rows.Scan(&p.UserID, &birth, &feeding, &vaccine, &diet, &style, &faith, &p.TopicsOfInterest, &p.UpdatedAt); err != nil {
			return err
		}
		p.BirthPreference = nullableString(birth)
		p.FeedingPreference = nullableString(feeding)
		p.VaccineStance = nullableString(vaccine)
		p.DietaryPreference = nullableString(diet)
		p.ParentingStyle = nullableString(style)
		p.Religion = nullableString(faith)
		backup.Preferences = append(backup.Preferences, p)
	}
	return rows.Err()
}

func (s *BackupService) exportChecklist(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, child_id, user_id, title, description, item_type, milestone_key,
		suggested_date, due_date, completed_at, is_completed, sort_order, created_at, updated_at
		FROM checklist_items ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                ChecklistBackup
			key, suggested, due sql.NullString
			completedAt         sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.ChildID, &item.UserID, &item.Title, &item.Description, &item.ItemType,
			&key, &suggested, &due, &completedAt, &item.IsCompleted, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return err
		}
		item.MilestoneKey = nullableString(key)
		item.SuggestedDate = nullableString(suggested)
		item.DueDate = nullableString(due)
		if completedAt.Valid {
			t := completedAt.Time
			item.CompletedAt = &t
		}
		backup.ChecklistItems = append(backup.ChecklistItems, item)
	}
	return rows.Err()
}

func importUsers(tx *database.Tx, users []UserBackup) error {
	for _, u := range users {
		query := "INSERT INTO users (id, email, password_hash, name, digest_enabled, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, u.DigestEnabled, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importChildren(tx *database.Tx, children []ChildBackup) error {
	for _, c := range children {
		query := "INSERT INTO children (id, user_id, name, due_date, date_of_birth, is_born, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, c.ID, c.UserID, c.Name, stringOrNil(c.DueDate), stringOrNil(c.DOB), c.IsBorn, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("child %d: %w", c.ID, err)
		}
	}
	return nil
}

func importPreferences(tx *database.Tx, prefs []PreferencesBackup) error {
	for _, p := range prefs {
		query := `INSERT INTO user_preferences (user_id, birth_preference, feeding_preference, vaccine_stance,
			dietary_preference, parenting_style, religion, topics_of_interest, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query, p.UserID, stringOrNil(p.BirthPreference), stringOrNil(p.FeedingPreference),
			stringOrNil(p.VaccineStance), stringOrNil(p.DietaryPreference), stringOrNil(p.ParentingStyle),
			stringOrNil(p.Religion), p.TopicsOfInterest, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("preferences for user %d: %w", p.UserID, err)
		}
	}
	return nil
}

func importChecklist(tx *database.Tx, items []ChecklistBackup) error {
	for _, item := range items {
		var completedAt interface{}
		if item.CompletedAt != nil {
			completedAt = item.CompletedAt.UTC()
		}
		query := `INSERT INTO checklist_items (id, child_id, user_id, title, description, item_type, milestone_key,
			suggested_date, due_date, completed_at, is_completed, sort_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query, item.ID, item.ChildID, item.UserID, item.Title, item.Description, item.ItemType,
			stringOrNil(item.MilestoneKey), stringOrNil(item.SuggestedDate), stringOrNil(item.DueDate),
			completedAt, item.IsCompleted, item.SortOrder, item.CreatedAt, item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("checklist item %d: %w", item.ID, err)
		}
	}
	return nil
}
