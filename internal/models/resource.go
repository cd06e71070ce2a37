package models

import "time"

// Resource is a content item for the personalized feed.
type Resource struct {
	ID            int64     `json:"id"`
	Slug          string    `yaml:"slug" json:"slug"`
	Title         string    `yaml:"title" json:"title"`
	Summary       string    `yaml:"summary" json:"summary"`
	URL           string    `yaml:"url" json:"url"`
	AgeStartWeeks int       `yaml:"age_start_weeks" json:"age_start_weeks"`
	AgeEndWeeks   int       `yaml:"age_end_weeks" json:"age_end_weeks"`
	Topics        []string  `yaml:"topics" json:"topics"`
	Tags          []string  `yaml:"tags" json:"tags"`
	CreatedAt     time.Time `json:"created_at"`
}

// ResourceWithMeta pairs a resource with its relevance score for one ranking call.
type ResourceWithMeta struct {
	Resource
	RelevanceScore float64 `json:"relevance_score"`
}
