package models

// Milestone domains
const (
	DomainMotor     = "motor"
	DomainLanguage  = "language"
	DomainCognitive = "cognitive"
	DomainSocial    = "social"
)

// DevelopmentalMilestone is a catalog entry active for an inclusive window of weeks.
type DevelopmentalMilestone struct {
	ID          string `yaml:"id" json:"id"`
	Domain      string `yaml:"domain" json:"domain"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	MinWeeks    int    `yaml:"min_weeks" json:"min_weeks"`
	MaxWeeks    int    `yaml:"max_weeks" json:"max_weeks"`
}

// PostnatalTip is advice for the parent during an inclusive window of weeks after birth.
type PostnatalTip struct {
	MinWeeks int    `yaml:"min_weeks" json:"min_weeks"`
	MaxWeeks int    `yaml:"max_weeks" json:"max_weeks"`
	Tip      string `yaml:"tip" json:"tip"`
	SelfCare string `yaml:"self_care" json:"self_care"`
}

// Template categories
const (
	CategoryPregnancy   = "pregnancy"
	CategoryPostpartum  = "postpartum"
	CategoryDevelopment = "development"
)

// Offset references
const (
	ReferenceDueDate = "due_date"
	ReferenceBirth   = "birth"
)

// MilestoneTemplate is a schedulable checklist task positioned relative to
// either the due date or the birth date.
type MilestoneTemplate struct {
	Key             string `yaml:"key" json:"key"`
	Title           string `yaml:"title" json:"title"`
	Description     string `yaml:"description" json:"description"`
	Category        string `yaml:"category" json:"category"`
	OffsetWeeks     int    `yaml:"offset_weeks" json:"offset_weeks"`
	OffsetReference string `yaml:"offset_reference" json:"offset_reference"`
	Icon            string `yaml:"icon" json:"icon"`
}
