package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"littlesteps/internal/models"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if len(c.Milestones) == 0 || len(c.Tips) == 0 || len(c.Templates) == 0 {
		t.Fatalf("catalog tables empty: %d milestones, %d tips, %d templates",
			len(c.Milestones), len(c.Tips), len(c.Templates))
	}
	if len(c.Topics) == 0 || len(c.Tags) == 0 || len(c.Resources) == 0 {
		t.Fatal("taxonomy or resources empty")
	}
	if c.Template("hospital_bag") == nil {
		t.Error("expected hospital_bag template")
	}
	if c.Template("missing") != nil {
		t.Error("unexpected template for unknown key")
	}
}

func TestDefaultTipsCoverFirstYear(t *testing.T) {
	c := MustDefault()
	for week := 0; week <= 52; week++ {
		if c.PostnatalTip(week) == nil {
			t.Errorf("no tip for week %d", week)
		}
	}
}

func testCatalog() *Catalog {
	return &Catalog{
		Milestones: []models.DevelopmentalMilestone{
			{ID: "a", Domain: models.DomainMotor, Title: "A", MinWeeks: 0, MaxWeeks: 8},
			{ID: "b", Domain: models.DomainSocial, Title: "B", MinWeeks: 4, MaxWeeks: 10},
			{ID: "c", Domain: models.DomainLanguage, Title: "C", MinWeeks: 12, MaxWeeks: 20},
			{ID: "d", Domain: models.DomainCognitive, Title: "D", MinWeeks: 12, MaxWeeks: 14},
			{ID: "e", Domain: models.DomainMotor, Title: "E", MinWeeks: 9, MaxWeeks: 30},
			{ID: "f", Domain: models.DomainSocial, Title: "F", MinWeeks: 30, MaxWeeks: 40},
		},
		Tips: []models.PostnatalTip{
			{MinWeeks: 0, MaxWeeks: 1, Tip: "one"},
			{MinWeeks: 2, MaxWeeks: 5, Tip: "two"},
			{MinWeeks: 6, MaxWeeks: 10, Tip: "three"},
		},
		Templates: []models.MilestoneTemplate{
			{Key: "k", Title: "K", Category: models.CategoryPregnancy, OffsetReference: models.ReferenceDueDate},
		},
	}
}

func ids(ms []models.DevelopmentalMilestone) string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return strings.Join(out, ",")
}

func TestMilestonesForAge(t *testing.T) {
	c := testCatalog()
	tests := []struct {
		weeks int
		want  string
	}{
		{-5, ""},
		{0, "a"},
		{4, "a,b"},
		{8, "a,b"},
		{9, "b,e"},
		{12, "c,d,e"},
		{30, "e,f"},
		{41, ""},
	}
	for _, tt := range tests {
		if got := ids(c.MilestonesForAge(tt.weeks)); got != tt.want {
			t.Errorf("MilestonesForAge(%d) = %q, want %q", tt.weeks, got, tt.want)
		}
	}
}

func TestUpcomingMilestones(t *testing.T) {
	c := testCatalog()
	tests := []struct {
		name  string
		weeks int
		limit int
		want  string
	}{
		{name: "sorted by start with stable ties", weeks: 0, limit: 5, want: "b,e,c,d,f"},
		{name: "truncated", weeks: 0, limit: 2, want: "b,e"},
		{name: "default limit", weeks: -1, limit: 0, want: "a,b,e,c,d"},
		{name: "only strictly later", weeks: 12, limit: 5, want: "f"},
		{name: "nothing left", weeks: 30, limit: 5, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(c.UpcomingMilestones(tt.weeks, tt.limit)); got != tt.want {
				t.Errorf("UpcomingMilestones(%d, %d) = %q, want %q", tt.weeks, tt.limit, got, tt.want)
			}
		})
	}
}

func TestPostnatalTip(t *testing.T) {
	c := testCatalog()
	tests := []struct {
		weeks int
		want  string
	}{
		{-1, ""},
		{0, "one"},
		{1, "one"},
		{2, "two"},
		{10, "three"},
		{11, ""},
	}
	for _, tt := range tests {
		tip := c.PostnatalTip(tt.weeks)
		got := ""
		if tip != nil {
			got = tip.Tip
		}
		if got != tt.want {
			t.Errorf("PostnatalTip(%d) = %q, want %q", tt.weeks, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Catalog) {},
		},
		{
			name: "inverted milestone window",
			mutate: func(c *Catalog) {
				c.Milestones[0].MinWeeks = 9
			},
			wantErr: "inverted",
		},
		{
			name: "unknown domain",
			mutate: func(c *Catalog) {
				c.Milestones[1].Domain = "emotional"
			},
			wantErr: "milestone 1",
		},
		{
			name: "overlapping tips",
			mutate: func(c *Catalog) {
				c.Tips[1].MinWeeks = 1
			},
			wantErr: "overlap",
		},
		{
			name: "gap between tips",
			mutate: func(c *Catalog) {
				c.Tips[2].MinWeeks = 8
			},
			wantErr: "uncovered",
		},
		{
			name: "unsorted tips",
			mutate: func(c *Catalog) {
				c.Tips[0], c.Tips[2] = c.Tips[2], c.Tips[0]
			},
			wantErr: "not sorted",
		},
		{
			name: "duplicate template key",
			mutate: func(c *Catalog) {
				c.Templates = append(c.Templates, c.Templates[0])
			},
			wantErr: "duplicate key",
		},
		{
			name: "bad offset reference",
			mutate: func(c *Catalog) {
				c.Templates[0].OffsetReference = "conception"
			},
			wantErr: "template 0",
		},
		{
			name: "resource outside age range",
			mutate: func(c *Catalog) {
				c.Resources = []models.Resource{{Slug: "r", Title: "R", AgeStartWeeks: -50, AgeEndWeeks: 4}}
			},
			wantErr: "resource 0",
		},
		{
			name: "resource with unknown topic",
			mutate: func(c *Catalog) {
				c.Topics = []Topic{{Key: "sleep"}}
				c.Resources = []models.Resource{{Slug: "r", Title: "R", AgeEndWeeks: 4, Topics: []string{"cooking"}}}
			},
			wantErr: "unknown topic",
		},
		{
			name: "empty milestones",
			mutate: func(c *Catalog) {
				c.Milestones = nil
			},
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCatalog()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmptyWrapsSentinel(t *testing.T) {
	c := testCatalog()
	c.Tips = nil
	if err := c.Validate(); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("Validate() error = %v, want ErrEmptyCatalog", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"data/milestones.yaml": {Data: []byte("milestones: [")},
	}
	_, err := Load(fsys)
	if err == nil || !strings.Contains(err.Error(), "milestones.yaml") {
		t.Fatalf("Load() error = %v, want parse error naming milestones.yaml", err)
	}
}

func TestLoadRejectsInvalidCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"data/milestones.yaml": {Data: []byte(`
milestones:
  - id: x
    domain: motor
    title: X
    min_weeks: 10
    max_weeks: 2
`)},
		"data/tips.yaml":      {Data: []byte("tips:\n  - min_weeks: 0\n    max_weeks: 3\n    tip: t\n")},
		"data/templates.yaml": {Data: []byte("templates:\n  - key: k\n    title: K\n    category: pregnancy\n    offset_weeks: -4\n    offset_reference: due_date\n")},
		"data/taxonomy.yaml":  {Data: []byte("topics: []\ntags: []\n")},
		"data/resources.yaml": {Data: []byte("resources: []\n")},
	}
	_, err := Load(fsys)
	if err == nil || !strings.Contains(err.Error(), "inverted") {
		t.Fatalf("Load() error = %v, want inverted window error", err)
	}
}
