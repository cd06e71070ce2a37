package repository

import (
	"fmt"
	"strings"

	"littlesteps/internal/database"
	"littlesteps/internal/models"
)

const resourceColumns = "id, slug, title, summary, url, age_start_weeks, age_end_weeks, topics, tags, created_at"

// ResourceRepository handles database operations for feed resources
type ResourceRepository struct {
	db *database.DB
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(db *database.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func scanResource(row interface{ Scan(...interface{}) error }) (*models.Resource, error) {
	var (
		res          models.Resource
		topics, tags string
	)
	err := row.Scan(&res.ID, &res.Slug, &res.Title, &res.Summary, &res.URL,
		&res.AgeStartWeeks, &res.AgeEndWeeks, &topics, &tags, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	res.Topics = splitList(topics)
	res.Tags = splitList(tags)
	return &res, nil
}

func (r *ResourceRepository) queryResources(query string, args ...interface{}) ([]models.Resource, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	resources := []models.Resource{}
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, *res)
	}
	return resources, rows.Err()
}

// GetAllResources lists every resource in slug order
func (r *ResourceRepository) GetAllResources() ([]models.Resource, error) {
	return r.queryResources("SELECT " + resourceColumns + " FROM resources ORDER BY slug")
}

// SearchResources matches title or summary case-insensitively, in slug order
func (r *ResourceRepository) SearchResources(term string, limit int) ([]models.Resource, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"
	query := "SELECT " + resourceColumns + ` FROM resources
		WHERE LOWER(title) LIKE ? ESCAPE '!' OR LOWER(summary) LIKE ? ESCAPE '!'
		ORDER BY slug
		LIMIT ?`
	return r.queryResources(query, pattern, pattern, limit)
}

// escapeLike neutralises LIKE wildcards in user input using "!" as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// UpsertResources inserts or refreshes resources by slug in one transaction
func (r *ResourceRepository) UpsertResources(resources []models.Resource) error {
	query := `
		INSERT INTO resources (slug, title, summary, url, age_start_weeks, age_end_weeks, topics, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)` + r.db.Dialect.UpsertClause(
		[]string{"slug"},
		[]string{"title", "summary", "url", "age_start_weeks", "age_end_weeks", "topics", "tags"},
	)

	return r.db.WithTx(func(tx *database.Tx) error {
		for _, res := range resources {
			_, err := tx.Exec(query, res.Slug, res.Title, res.Summary, res.URL,
				res.AgeStartWeeks, res.AgeEndWeeks, joinList(res.Topics), joinList(res.Tags))
			if err != nil {
				return fmt.Errorf("failed to upsert resource %s: %w", res.Slug, err)
			}
		}
		return nil
	})
}
