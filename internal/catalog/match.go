package catalog

import (
	"sort"

	"littlesteps/internal/models"
)

// DefaultUpcomingLimit is the number of upcoming milestones shown by default.
const DefaultUpcomingLimit = 5

// MilestonesForAge returns every milestone whose window contains weeks, in
// catalog order. Several domains can match the same week.
func (c *Catalog) MilestonesForAge(weeks int) []models.DevelopmentalMilestone {
	var out []models.DevelopmentalMilestone
	for _, m := range c.Milestones {
		if m.MinWeeks <= weeks && weeks <= m.MaxWeeks {
			out = append(out, m)
		}
	}
	return out
}

// UpcomingMilestones returns up to limit milestones that have not started
// yet, soonest first. Ties keep catalog order. A limit of zero or less uses
// DefaultUpcomingLimit.
func (c *Catalog) UpcomingMilestones(weeks, limit int) []models.DevelopmentalMilestone {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	var out []models.DevelopmentalMilestone
	for _, m := range c.Milestones {
		if m.MinWeeks > weeks {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinWeeks < out[j].MinWeeks
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PostnatalTip returns the first tip whose window contains weeks, or nil.
func (c *Catalog) PostnatalTip(weeks int) *models.PostnatalTip {
	for i := range c.Tips {
		if c.Tips[i].MinWeeks <= weeks && weeks <= c.Tips[i].MaxWeeks {
			tip := c.Tips[i]
			return &tip
		}
	}
	return nil
}
