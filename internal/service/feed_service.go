package service

import (
	"strings"
	"time"

	"littlesteps/internal/age"
	"littlesteps/internal/models"
	"littlesteps/internal/relevance"
	"littlesteps/internal/repository"
)

// FeedService serves the personalized resource feed and plain search
type FeedService struct {
	childRepo    *repository.ChildRepository
	prefsRepo    *repository.PreferencesRepository
	resourceRepo *repository.ResourceRepository
	ranker       relevance.Ranker
	defaultLimit int
	now          func() time.Time
}

// NewFeedService creates a feed service; defaultLimit caps results when callers ask for none or too many
func NewFeedService(childRepo *repository.ChildRepository, prefsRepo *repository.PreferencesRepository,
	resourceRepo *repository.ResourceRepository, ranker relevance.Ranker, defaultLimit int) *FeedService {
	return &FeedService{
		childRepo:    childRepo,
		prefsRepo:    prefsRepo,
		resourceRepo: resourceRepo,
		ranker:       ranker,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

func (s *FeedService) clampLimit(limit int) int {
	if limit <= 0 || limit > s.defaultLimit {
		return s.defaultLimit
	}
	return limit
}

// Feed ranks every resource for the child's current age and the user's preferences
func (s *FeedService) Feed(userID, childID int64, limit int) ([]models.ResourceWithMeta, error) {
	child, err := ownedChild(s.childRepo, userID, childID)
	if err != nil {
		return nil, err
	}
	prefs, err := s.prefsRepo.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	resources, err := s.resourceRepo.GetAllResources()
	if err != nil {
		return nil, err
	}
	return rankTop(s.ranker, resources, prefs, age.CalculateAgeInWeeks(*child, s.now()), s.clampLimit(limit)), nil
}

func rankTop(ranker relevance.Ranker, resources []models.Resource, prefs *models.UserPreferences, weeks, limit int) []models.ResourceWithMeta {
	ranked := ranker.RankResources(resources, prefs, weeks)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Search matches resources by text without ranking them
func (s *FeedService) Search(term string, limit int) ([]models.Resource, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Resource{}, nil
	}
	return s.resourceRepo.SearchResources(term, s.clampLimit(limit))
}
