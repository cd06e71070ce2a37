package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"littlesteps/internal/database"
	"littlesteps/internal/models"
)

// PreferencesRepository stores one preferences row per user
type PreferencesRepository struct {
	db *database.DB
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *database.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// GetPreferences returns a user's preferences, or nil if none were saved
func (r *PreferencesRepository) GetPreferences(userID int64) (*models.UserPreferences, error) {
	query := `
		SELECT user_id, birth_preference, feeding_preference, vaccine_stance,
			dietary_preference, parenting_style, religion, topics_of_interest, updated_at
		FROM user_preferences
		WHERE user_id = ?
	`
	var (
		prefs                                models.UserPreferences
		birth, feeding, vaccine, diet, style sql.NullString
		religion                             sql.NullString
		topics                               string
	)
	err := r.db.QueryRow(query, userID).Scan(
		&prefs.UserID, &birth, &feeding, &vaccine, &diet, &style, &religion, &topics, &prefs.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	prefs.BirthPreference = nullString(birth)
	prefs.FeedingPreference = nullString(feeding)
	prefs.VaccineStance = nullString(vaccine)
	prefs.DietaryPreference = nullString(diet)
	prefs.ParentingStyle = nullString(style)
	prefs.Religion = nullString(religion)
	prefs.TopicsOfInterest = splitList(topics)
	return &prefs, nil
}

// UpsertPreferences replaces the user's preferences row
func (r *PreferencesRepository) UpsertPreferences(prefs *models.UserPreferences) error {
	columns := []string{
		"birth_preference", "feeding_preference", "vaccine_stance",
		"dietary_preference", "parenting_style", "religion", "topics_of_interest", "updated_at",
	}
	query := `
		INSERT INTO user_preferences (user_id, birth_preference, feeding_preference, vaccine_stance,
			dietary_preference, parenting_style, religion, topics_of_interest, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)` + r.db.Dialect.UpsertClause([]string{"user_id"}, columns)

	now := time.Now().UTC()
	_, err := r.db.Exec(query,
		prefs.UserID,
		stringValue(prefs.BirthPreference),
		stringValue(prefs.FeedingPreference),
		stringValue(prefs.VaccineStance),
		stringValue(prefs.DietaryPreference),
		stringValue(prefs.ParentingStyle),
		stringValue(prefs.Religion),
		joinList(prefs.TopicsOfInterest),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	prefs.UpdatedAt = now
	return nil
}
