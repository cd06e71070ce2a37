// Package relevance scores feed resources against a family's age, topics
// and lifestyle preferences and orders them for the personalized feed.
package relevance

import (
	"math"
	"sort"
	"strings"

	"littlesteps/internal/models"
)

// Weights tune the three additive terms of a relevance score.
type Weights struct {
	// AgeFit is the score of a resource centred exactly on the child's age.
	AgeFit float64
	// Topic is added per resource topic the user is interested in.
	Topic float64
	// Tag is added per resource tag matching the user's preferences.
	Tag float64
}

// DefaultWeights are the production weights.
var DefaultWeights = Weights{AgeFit: 100, Topic: 20, Tag: 15}

// Ranker scores resources with a fixed set of weights.
type Ranker struct {
	Weights Weights
}

// NewRanker creates a ranker with w.
func NewRanker(w Weights) Ranker {
	return Ranker{Weights: w}
}

var defaultRanker = Ranker{Weights: DefaultWeights}

// isSentinel reports whether a preference value means "no opinion".
func isSentinel(v string) bool {
	switch v {
	case "", models.PrefUndecided, models.PrefPreferNotToSay, models.PrefOmnivore, models.PrefNoPreference:
		return true
	}
	return false
}

// UserTags derives the namespaced tags declared by prefs. Unanswered fields
// and "no opinion" answers contribute nothing.
func UserTags(prefs *models.UserPreferences) map[string]bool {
	tags := make(map[string]bool)
	if prefs == nil {
		return tags
	}

	add := func(namespace string, value *string) {
		if value == nil {
			return
		}
		v := strings.ToLower(strings.TrimSpace(*value))
		if isSentinel(v) {
			return
		}
		tags[namespace+":"+v] = true
	}

	add("birth", prefs.BirthPreference)
	add("feeding", prefs.FeedingPreference)
	add("vaccine", prefs.VaccineStance)
	add("diet", prefs.DietaryPreference)
	add("faith", prefs.Religion)
	return tags
}

// ageFit scores how close ageInWeeks is to the centre of the resource's
// window. The window width scales the penalty, so narrow windows fall off
// faster than wide ones.
func (r Ranker) ageFit(res models.Resource, ageInWeeks int) float64 {
	center := float64(res.AgeStartWeeks+res.AgeEndWeeks) / 2
	width := math.Max(float64(res.AgeEndWeeks-res.AgeStartWeeks), 1)
	distance := math.Abs(float64(ageInWeeks) - center)
	return math.Max(0, r.Weights.AgeFit-r.Weights.AgeFit*distance/width)
}

// ScoreResource returns the relevance of res for a family with prefs and a
// child of ageInWeeks.
func (r Ranker) ScoreResource(res models.Resource, prefs *models.UserPreferences, ageInWeeks int) float64 {
	return r.score(res, topicSet(prefs), UserTags(prefs), ageInWeeks)
}

func (r Ranker) score(res models.Resource, topics, tags map[string]bool, ageInWeeks int) float64 {
	score := r.ageFit(res, ageInWeeks)
	for _, topic := range res.Topics {
		if topics[topic] {
			score += r.Weights.Topic
		}
	}
	for _, tag := range res.Tags {
		if tags[tag] {
			score += r.Weights.Tag
		}
	}
	return score
}

// RankResources scores every resource and returns them highest first.
// Equal scores keep their input order. The input slice is left untouched.
func (r Ranker) RankResources(resources []models.Resource, prefs *models.UserPreferences, ageInWeeks int) []models.ResourceWithMeta {
	topics := topicSet(prefs)
	tags := UserTags(prefs)

	ranked := make([]models.ResourceWithMeta, len(resources))
	for i, res := range resources {
		ranked[i] = models.ResourceWithMeta{
			Resource:       res,
			RelevanceScore: r.score(res, topics, tags, ageInWeeks),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}

// ScoreResource scores res with DefaultWeights.
func ScoreResource(res models.Resource, prefs *models.UserPreferences, ageInWeeks int) float64 {
	return defaultRanker.ScoreResource(res, prefs, ageInWeeks)
}

// RankResources ranks resources with DefaultWeights.
func RankResources(resources []models.Resource, prefs *models.UserPreferences, ageInWeeks int) []models.ResourceWithMeta {
	return defaultRanker.RankResources(resources, prefs, ageInWeeks)
}

func topicSet(prefs *models.UserPreferences) map[string]bool {
	set := make(map[string]bool)
	if prefs == nil {
		return set
	}
	for _, t := range prefs.TopicsOfInterest {
		set[t] = true
	}
	return set
}
