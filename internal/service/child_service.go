package service

import (
	"fmt"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"littlesteps/internal/age"
	"littlesteps/internal/catalog"
	"littlesteps/internal/models"
	"littlesteps/internal/repository"
)

// ChildInput is the editable part of a child profile
type ChildInput struct {
	Name    string     `json:"name"`
	DueDate *time.Time `json:"due_date"`
	DOB     *time.Time `json:"dob"`
	IsBorn  bool       `json:"is_born"`
}

// Validate checks a child profile. Birth dates cannot be after today.
func (in ChildInput) Validate(today time.Time) error {
	return ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Name, ozzo.Required, ozzo.RuneLength(1, 100)),
		ozzo.Field(&in.DOB,
			ozzo.By(func(interface{}) error {
				if in.DOB != nil && in.DOB.After(today) {
					return fmt.Errorf("cannot be in the future")
				}
				return nil
			}),
		),
	)
}

// Dashboard is the per-child overview: age, stage and what is happening now
type Dashboard struct {
	Child              models.ChildWithAge             `json:"child"`
	Trimester          int                             `json:"trimester,omitempty"`
	CurrentMilestones  []models.DevelopmentalMilestone `json:"current_milestones"`
	UpcomingMilestones []models.DevelopmentalMilestone `json:"upcoming_milestones"`
	Tip                *models.PostnatalTip            `json:"tip"`
}

// ChildService manages child profiles and their derived age data
type ChildService struct {
	childRepo *repository.ChildRepository
	catalog   *catalog.Catalog
	now       func() time.Time
}

// NewChildService creates a new child service
func NewChildService(childRepo *repository.ChildRepository, cat *catalog.Catalog) *ChildService {
	return &ChildService{childRepo: childRepo, catalog: cat, now: time.Now}
}

// today is the current calendar date at UTC midnight, the form child dates are stored in
func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *ChildService) validate(in *ChildInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(today(s.now())); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ownedChild loads a child and hides children belonging to other users
func ownedChild(repo *repository.ChildRepository, userID, childID int64) (*models.Child, error) {
	child, err := repo.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil || child.UserID != userID {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// CreateChild adds a child for userID
func (s *ChildService) CreateChild(userID int64, in ChildInput) (*models.ChildWithAge, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	child := &models.Child{UserID: userID, Name: in.Name, DueDate: in.DueDate, DOB: in.DOB, IsBorn: in.IsBorn}
	if err := s.childRepo.CreateChild(child); err != nil {
		return nil, err
	}
	withAge := age.WithAge(*child, s.now())
	return &withAge, nil
}

// UpdateChild replaces the editable fields of a child owned by userID
func (s *ChildService) UpdateChild(userID, childID int64, in ChildInput) (*models.ChildWithAge, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	child, err := ownedChild(s.childRepo, userID, childID)
	if err != nil {
		return nil, err
	}
	child.Name, child.DueDate, child.DOB, child.IsBorn = in.Name, in.DueDate, in.DOB, in.IsBorn
	if err := s.childRepo.UpdateChild(child); err != nil {
		return nil, err
	}
	withAge := age.WithAge(*child, s.now())
	return &withAge, nil
}

// GetChild returns one child with its age
func (s *ChildService) GetChild(userID, childID int64) (*models.ChildWithAge, error) {
	child, err := ownedChild(s.childRepo, userID, childID)
	if err != nil {
		return nil, err
	}
	withAge := age.WithAge(*child, s.now())
	return &withAge, nil
}

// ListChildren returns every child of userID with ages computed now
func (s *ChildService) ListChildren(userID int64) ([]models.ChildWithAge, error) {
	children, err := s.childRepo.GetChildrenByUser(userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.ChildWithAge, len(children))
	for i, c := range children {
		out[i] = age.WithAge(c, now)
	}
	return out, nil
}

// DeleteChild removes a child owned by userID
func (s *ChildService) DeleteChild(userID, childID int64) error {
	if _, err := ownedChild(s.childRepo, userID, childID); err != nil {
		return err
	}
	return s.childRepo.DeleteChild(childID)
}

// Dashboard builds the overview for one child
func (s *ChildService) Dashboard(userID, childID int64) (*Dashboard, error) {
	child, err := ownedChild(s.childRepo, userID, childID)
	if err != nil {
		return nil, err
	}
	return BuildDashboard(s.catalog, *child, s.now()), nil
}

// BuildDashboard computes a child's dashboard from the catalog at now
func BuildDashboard(cat *catalog.Catalog, child models.Child, now time.Time) *Dashboard {
	withAge := age.WithAge(child, now)
	if !withAge.AgeKnown {
		return &Dashboard{Child: withAge}
	}
	weeks := withAge.AgeInWeeks
	d := &Dashboard{
		Child:              withAge,
		Trimester:          age.Trimester(weeks),
		CurrentMilestones:  cat.MilestonesForAge(weeks),
		UpcomingMilestones: cat.UpcomingMilestones(weeks, catalog.DefaultUpcomingLimit),
	}
	if weeks >= 0 {
		d.Tip = cat.PostnatalTip(weeks)
	}
	return d
}
