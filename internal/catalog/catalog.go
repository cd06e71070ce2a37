// Package catalog holds the static developmental tables: milestones,
// postnatal tips, checklist templates, the topic and tag taxonomies and the
// seed resources for the feed.
//
// The tables ship as embedded YAML, are parsed once and validated before
// use. A Catalog is never modified after Load returns, so it can be shared
// freely between requests.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"gopkg.in/yaml.v3"

	"littlesteps/internal/models"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Resource age windows must fall inside this range.
const (
	MinResourceWeeks = -40
	MaxResourceWeeks = 260
)

// Topic is an entry of the topic taxonomy used for topics_of_interest.
type Topic struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// Tag is a namespaced lifestyle tag such as "feeding:formula".
type Tag struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// Catalog is the full set of static tables.
type Catalog struct {
	Milestones []models.DevelopmentalMilestone
	Tips       []models.PostnatalTip
	Templates  []models.MilestoneTemplate
	Topics     []Topic
	Tags       []Tag
	Resources  []models.Resource
}

type milestoneFile struct {
	Milestones []models.DevelopmentalMilestone `yaml:"milestones"`
}

type tipFile struct {
	Tips []models.PostnatalTip `yaml:"tips"`
}

type templateFile struct {
	Templates []models.MilestoneTemplate `yaml:"templates"`
}

type taxonomyFile struct {
	Topics []Topic `yaml:"topics"`
	Tags   []Tag   `yaml:"tags"`
}

type resourceFile struct {
	Resources []models.Resource `yaml:"resources"`
}

// Load parses and validates the catalog found in fsys. The filesystem must
// contain data/milestones.yaml, data/tips.yaml, data/templates.yaml,
// data/taxonomy.yaml and data/resources.yaml.
func Load(fsys fs.FS) (*Catalog, error) {
	var (
		mf  milestoneFile
		tf  tipFile
		tpf templateFile
		txf taxonomyFile
		rf  resourceFile
	)

	files := []struct {
		name   string
		target any
	}{
		{"data/milestones.yaml", &mf},
		{"data/tips.yaml", &tf},
		{"data/templates.yaml", &tpf},
		{"data/taxonomy.yaml", &txf},
		{"data/resources.yaml", &rf},
	}

	for _, f := range files {
		if err := decode(fsys, f.name, f.target); err != nil {
			return nil, err
		}
	}

	c := &Catalog{
		Milestones: mf.Milestones,
		Tips:       tf.Tips,
		Templates:  tpf.Templates,
		Topics:     txf.Topics,
		Tags:       txf.Tags,
		Resources:  rf.Resources,
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

func decode(fsys fs.FS, name string, target any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Load(dataFS)
})

// Default returns the embedded catalog, loading it on first use.
func Default() (*Catalog, error) {
	return loadDefault()
}

// MustDefault is Default for process start-up, panicking on a bad catalog.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Template returns the template with key, or nil.
func (c *Catalog) Template(key string) *models.MilestoneTemplate {
	for i := range c.Templates {
		if c.Templates[i].Key == key {
			return &c.Templates[i]
		}
	}
	return nil
}

// TopicKeys returns the set of known topic keys.
func (c *Catalog) TopicKeys() map[string]bool {
	keys := make(map[string]bool, len(c.Topics))
	for _, t := range c.Topics {
		keys[t.Key] = true
	}
	return keys
}

// TagKeys returns the set of known tag keys.
func (c *Catalog) TagKeys() map[string]bool {
	keys := make(map[string]bool, len(c.Tags))
	for _, t := range c.Tags {
		keys[t.Key] = true
	}
	return keys
}

// ErrEmptyCatalog is returned by Validate when a required table has no rows.
var ErrEmptyCatalog = errors.New("catalog table is empty")
