package service

import (
	"fmt"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"littlesteps/internal/catalog"
	"littlesteps/internal/models"
	"littlesteps/internal/repository"
)

// PreferencesInput replaces a user's preferences. Nil or blank fields mean "not answered".
type PreferencesInput struct {
	BirthPreference   *string  `json:"birth_preference"`
	FeedingPreference *string  `json:"feeding_preference"`
	VaccineStance     *string  `json:"vaccine_stance"`
	DietaryPreference *string  `json:"dietary_preference"`
	ParentingStyle    *string  `json:"parenting_style"`
	Religion          *string  `json:"religion"`
	TopicsOfInterest  []string `json:"topics_of_interest"`
}

// PreferencesService reads and validates family preferences
type PreferencesService struct {
	prefsRepo *repository.PreferencesRepository
	topics    []interface{}
}

// NewPreferencesService creates a preferences service accepting the catalog's topics
func NewPreferencesService(prefsRepo *repository.PreferencesRepository, cat *catalog.Catalog) *PreferencesService {
	topics := make([]interface{}, len(cat.Topics))
	for i, t := range cat.Topics {
		topics[i] = t.Key
	}
	return &PreferencesService{prefsRepo: prefsRepo, topics: topics}
}

func oneOf(values []string) ozzo.Rule {
	allowed := make([]interface{}, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return ozzo.In(allowed...).Error("must be one of: " + strings.Join(values, ", "))
}

// blankToNil trims a pointer field and drops it when empty
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// GetPreferences returns the user's preferences, or an empty record if none were saved
func (s *PreferencesService) GetPreferences(userID int64) (*models.UserPreferences, error) {
	prefs, err := s.prefsRepo.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return &models.UserPreferences{UserID: userID, TopicsOfInterest: []string{}}, nil
	}
	return prefs, nil
}

// UpdatePreferences validates and stores a full replacement of the user's preferences
func (s *PreferencesService) UpdatePreferences(userID int64, in PreferencesInput) (*models.UserPreferences, error) {
	prefs := &models.UserPreferences{
		UserID:            userID,
		BirthPreference:   blankToNil(in.BirthPreference),
		FeedingPreference: blankToNil(in.FeedingPreference),
		VaccineStance:     blankToNil(in.VaccineStance),
		DietaryPreference: blankToNil(in.DietaryPreference),
		ParentingStyle:    blankToNil(in.ParentingStyle),
		Religion:          blankToNil(in.Religion),
		TopicsOfInterest:  dedupe(in.TopicsOfInterest),
	}

	err := ozzo.ValidateStruct(prefs,
		ozzo.Field(&prefs.BirthPreference, oneOf(models.BirthPreferences)),
		ozzo.Field(&prefs.FeedingPreference, oneOf(models.FeedingPreferences)),
		ozzo.Field(&prefs.VaccineStance, oneOf(models.VaccineStances)),
		ozzo.Field(&prefs.DietaryPreference, oneOf(models.DietaryPreferences)),
		ozzo.Field(&prefs.ParentingStyle, oneOf(models.ParentingStyles)),
		ozzo.Field(&prefs.Religion, ozzo.RuneLength(1, 64)),
		ozzo.Field(&prefs.TopicsOfInterest, ozzo.Each(ozzo.In(s.topics...).Error("is not a known topic"))),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.prefsRepo.UpsertPreferences(prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// dedupe trims values and drops blanks and repeats, keeping first-seen order
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
