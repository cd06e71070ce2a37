// Package age derives a child's signed developmental age from their dates.
//
// Negative weeks count down to the due date (-40 is conception, -1 is the
// last week of pregnancy), 0 is the birth week and positive weeks are
// postnatal. Every function takes the reference time explicitly.
package age

import (
	"fmt"
	"math"
	"time"

	"littlesteps/internal/models"
)

// Week is the length of one age step.
const Week = 7 * 24 * time.Hour

// PregnancyWeeks is the full term used to clamp gestational age.
const PregnancyWeeks = 40

// weeksPerMonth is the average number of weeks in a calendar month. Labels
// depend on this exact value.
const weeksPerMonth = 4.345

// CalculateAgeInWeeks returns the child's age in whole weeks at now.
// A born child with a birth date counts up from it. Otherwise the due date
// counts down, clamped to [-40, 0] so that an overdue pregnancy reads as 0.
// A child with neither date is treated as 0; see HasKnownAge.
func CalculateAgeInWeeks(child models.Child, now time.Time) int {
	if child.IsBorn && child.DOB != nil {
		return int(math.Floor(float64(now.Sub(*child.DOB)) / float64(Week)))
	}
	if child.DueDate != nil {
		weeksUntilDue := int(math.Ceil(float64(child.DueDate.Sub(now)) / float64(Week)))
		return -clamp(weeksUntilDue, 0, PregnancyWeeks)
	}
	return 0
}

// HasKnownAge reports whether CalculateAgeInWeeks has a date to work from.
func HasKnownAge(child models.Child) bool {
	return (child.IsBorn && child.DOB != nil) || child.DueDate != nil
}

// FormatAgeLabel renders weeks as a short human label such as
// "32 weeks pregnant", "Newborn", "3 weeks old" or "2 years, 1 month old".
func FormatAgeLabel(weeks int) string {
	if weeks < 0 {
		return fmt.Sprintf("%d weeks pregnant", PregnancyWeeks+weeks)
	}
	if weeks == 0 {
		return "Newborn"
	}
	if weeks < 4 {
		return fmt.Sprintf("%d %s old", weeks, plural(weeks, "week"))
	}

	months := int(math.Floor(float64(weeks) / weeksPerMonth))
	if months < 24 {
		return fmt.Sprintf("%d %s old", months, plural(months, "month"))
	}

	years := months / 12
	remMonths := months % 12
	if remMonths == 0 {
		return fmt.Sprintf("%d %s old", years, plural(years, "year"))
	}
	return fmt.Sprintf("%d %s, %d %s old", years, plural(years, "year"), remMonths, plural(remMonths, "month"))
}

type stageThreshold struct {
	below int
	name  string
}

// stages is evaluated top to bottom; the first threshold above weeks wins.
var stages = []stageThreshold{
	{-26, "First Trimester"},
	{-12, "Second Trimester"},
	{0, "Third Trimester"},
	{4, "Newborn"},
	{12, "Early Infancy"},
	{26, "Infancy"},
	{52, "Late Infancy"},
	{104, "Toddler"},
	{156, "Early Preschool"},
}

// DevelopmentStage names the developmental stage for weeks.
func DevelopmentStage(weeks int) string {
	for _, s := range stages {
		if weeks < s.below {
			return s.name
		}
	}
	return "Preschool"
}

// Trimester returns 1, 2 or 3 while pregnant and 0 once born.
func Trimester(weeks int) int {
	switch {
	case weeks < -26:
		return 1
	case weeks < -12:
		return 2
	case weeks < 0:
		return 3
	default:
		return 0
	}
}

// WithAge attaches the derived age fields to child.
func WithAge(child models.Child, now time.Time) models.ChildWithAge {
	weeks := CalculateAgeInWeeks(child, now)
	return models.ChildWithAge{
		Child:      child,
		AgeInWeeks: weeks,
		AgeLabel:   FormatAgeLabel(weeks),
		Stage:      DevelopmentStage(weeks),
		AgeKnown:   HasKnownAge(child),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
