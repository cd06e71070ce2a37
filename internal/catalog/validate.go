package catalog

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"littlesteps/internal/models"
)

// Validate checks the invariants the matchers and scheduler rely on. All
// problems are reported together.
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.Milestones) == 0 {
		errs = append(errs, fmt.Errorf("milestones: %w", ErrEmptyCatalog))
	}
	if len(c.Tips) == 0 {
		errs = append(errs, fmt.Errorf("tips: %w", ErrEmptyCatalog))
	}
	if len(c.Templates) == 0 {
		errs = append(errs, fmt.Errorf("templates: %w", ErrEmptyCatalog))
	}

	seenMilestones := make(map[string]bool, len(c.Milestones))
	for i := range c.Milestones {
		m := &c.Milestones[i]
		if err := validateMilestone(m); err != nil {
			errs = append(errs, fmt.Errorf("milestone %d (%s): %w", i, m.ID, err))
		}
		if seenMilestones[m.ID] {
			errs = append(errs, fmt.Errorf("milestone %d: duplicate id %q", i, m.ID))
		}
		seenMilestones[m.ID] = true
	}

	errs = append(errs, validateTips(c.Tips)...)

	seenTemplates := make(map[string]bool, len(c.Templates))
	for i := range c.Templates {
		t := &c.Templates[i]
		if err := validateTemplate(t); err != nil {
			errs = append(errs, fmt.Errorf("template %d (%s): %w", i, t.Key, err))
		}
		if seenTemplates[t.Key] {
			errs = append(errs, fmt.Errorf("template %d: duplicate key %q", i, t.Key))
		}
		seenTemplates[t.Key] = true
	}

	topics := c.TopicKeys()
	tags := c.TagKeys()
	seenSlugs := make(map[string]bool, len(c.Resources))
	for i := range c.Resources {
		r := &c.Resources[i]
		if err := validateResource(r, topics, tags); err != nil {
			errs = append(errs, fmt.Errorf("resource %d (%s): %w", i, r.Slug, err))
		}
		if seenSlugs[r.Slug] {
			errs = append(errs, fmt.Errorf("resource %d: duplicate slug %q", i, r.Slug))
		}
		seenSlugs[r.Slug] = true
	}

	return errors.Join(errs...)
}

func validateMilestone(m *models.DevelopmentalMilestone) error {
	if err := validation.ValidateStruct(m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Domain, validation.Required, validation.In(
			models.DomainMotor, models.DomainLanguage, models.DomainCognitive, models.DomainSocial,
		)),
	); err != nil {
		return err
	}
	if m.MinWeeks > m.MaxWeeks {
		return fmt.Errorf("window [%d, %d] is inverted", m.MinWeeks, m.MaxWeeks)
	}
	return nil
}

// validateTips requires windows that are well formed, ordered and that
// leave neither gaps nor overlaps, so PostnatalTip has one answer per week.
func validateTips(tips []models.PostnatalTip) []error {
	var errs []error
	for i, t := range tips {
		if t.MinWeeks > t.MaxWeeks {
			errs = append(errs, fmt.Errorf("tip %d: window [%d, %d] is inverted", i, t.MinWeeks, t.MaxWeeks))
		}
		if t.Tip == "" {
			errs = append(errs, fmt.Errorf("tip %d: text is required", i))
		}
	}

	sorted := sort.SliceIsSorted(tips, func(i, j int) bool { return tips[i].MinWeeks < tips[j].MinWeeks })
	if !sorted {
		return append(errs, errors.New("tips: windows are not sorted by min_weeks"))
	}
	for i := 1; i < len(tips); i++ {
		prev, cur := tips[i-1], tips[i]
		switch {
		case cur.MinWeeks <= prev.MaxWeeks:
			errs = append(errs, fmt.Errorf("tips %d and %d overlap at week %d", i-1, i, cur.MinWeeks))
		case cur.MinWeeks > prev.MaxWeeks+1:
			errs = append(errs, fmt.Errorf("tips %d and %d leave weeks %d-%d uncovered", i-1, i, prev.MaxWeeks+1, cur.MinWeeks-1))
		}
	}
	return errs
}

func validateTemplate(t *models.MilestoneTemplate) error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Key, validation.Required),
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.Category, validation.Required, validation.In(
			models.CategoryPregnancy, models.CategoryPostpartum, models.CategoryDevelopment,
		)),
		validation.Field(&t.OffsetReference, validation.Required, validation.In(
			models.ReferenceDueDate, models.ReferenceBirth,
		)),
	)
}

func validateResource(r *models.Resource, topics, tags map[string]bool) error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.Slug, validation.Required),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.AgeStartWeeks, validation.Min(MinResourceWeeks), validation.Max(MaxResourceWeeks)),
		validation.Field(&r.AgeEndWeeks, validation.Min(MinResourceWeeks), validation.Max(MaxResourceWeeks)),
	); err != nil {
		return err
	}
	if r.AgeStartWeeks > r.AgeEndWeeks {
		return fmt.Errorf("window [%d, %d] is inverted", r.AgeStartWeeks, r.AgeEndWeeks)
	}
	for _, topic := range r.Topics {
		if !topics[topic] {
			return fmt.Errorf("unknown topic %q", topic)
		}
	}
	for _, tag := range r.Tags {
		if !tags[tag] {
			return fmt.Errorf("unknown tag %q", tag)
		}
	}
	return nil
}
