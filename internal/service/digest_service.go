package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"littlesteps/internal/age"
	"littlesteps/internal/catalog"
	"littlesteps/internal/logger"
	"littlesteps/internal/models"
	"littlesteps/internal/relevance"
	"littlesteps/internal/repository"
	"littlesteps/internal/schedule"
	"littlesteps/internal/security"
)

// DigestFeedItems is how many feed entries each child section lists
const DigestFeedItems = 3

// Mailer sends a rendered message
type Mailer interface {
	SendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error
}

// DigestSection summarises one child
type DigestSection struct {
	Name              string
	AgeLabel          string
	Stage             string
	Trimester         int
	CurrentMilestones []models.DevelopmentalMilestone
	Tip               *models.PostnatalTip
	OverdueCount      int
	ThisMonthCount    int
	Feed              []models.ResourceWithMeta
}

// Digest is one user's rendered weekly email
type Digest struct {
	UserID         int64
	Email          string
	Name           string
	Sections       []DigestSection
	UnsubscribeURL string
	Subject        string
	HTML           string
	Text           string
}

// DigestReport summarises one digest pass
type DigestReport struct {
	Recipients int
	Sent       int
	Skipped    int
	Failed     int
	DryRun     bool
	Digests    []Digest
}

// DigestService builds and sends the weekly digest email
type DigestService struct {
	users      *repository.UserRepository
	children   *repository.ChildRepository
	checklists *repository.ChecklistRepository
	prefs      *repository.PreferencesRepository
	resources  *repository.ResourceRepository
	settings   *repository.SettingsRepository
	catalog    *catalog.Catalog
	ranker     relevance.Ranker
	mailer     Mailer
	links      *security.LinkSigner
	appBaseURL string
	interval   time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// DigestDeps groups the digest service's collaborators
type DigestDeps struct {
	Users      *repository.UserRepository
	Children   *repository.ChildRepository
	Checklists *repository.ChecklistRepository
	Prefs      *repository.PreferencesRepository
	Resources  *repository.ResourceRepository
	Settings   *repository.SettingsRepository
	Catalog    *catalog.Catalog
	Ranker     relevance.Ranker
	Mailer     Mailer
	Links      *security.LinkSigner
	AppBaseURL string
	Interval   time.Duration
	Log        *logger.Logger
}

// NewDigestService creates a digest service
func NewDigestService(d DigestDeps) *DigestService {
	return &DigestService{
		users:      d.Users,
		children:   d.Children,
		checklists: d.Checklists,
		prefs:      d.Prefs,
		resources:  d.Resources,
		settings:   d.Settings,
		catalog:    d.Catalog,
		ranker:     d.Ranker,
		mailer:     d.Mailer,
		links:      d.Links,
		appBaseURL: d.AppBaseURL,
		interval:   d.Interval,
		log:        d.Log.With("component", "digest"),
		now:        time.Now,
	}
}

// Due reports whether a full interval has passed since the last completed pass
func (s *DigestService) Due() (bool, error) {
	last, err := s.settings.DigestLastRun()
	if err != nil {
		return false, err
	}
	return last.IsZero() || s.now().Sub(last) >= s.interval, nil
}

// RunIfDue runs a pass when one is due
func (s *DigestService) RunIfDue(ctx context.Context) (*DigestReport, error) {
	due, err := s.Due()
	if err != nil || !due {
		return nil, err
	}
	return s.Run(ctx, false)
}

// Run builds a digest for every opted-in user. A dry run renders without
// sending and leaves the last-run time alone. Failures for one user are
// logged and counted; they do not stop the pass.
func (s *DigestService) Run(ctx context.Context, dryRun bool) (*DigestReport, error) {
	recipients, err := s.users.ListDigestRecipients()
	if err != nil {
		return nil, err
	}
	resources, err := s.resources.GetAllResources()
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &DigestReport{Recipients: len(recipients), DryRun: dryRun}
	for _, user := range recipients {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		digest, err := s.Build(user, resources, now)
		if err != nil {
			report.Failed++
			s.log.Error("Failed to build digest", "user_id", user.ID, "error", err)
			continue
		}
		if digest == nil {
			report.Skipped++
			continue
		}
		if dryRun {
			report.Digests = append(report.Digests, *digest)
			continue
		}
		if err := s.mailer.SendEmail(ctx, digest.Email, digest.Subject, digest.HTML, digest.Text); err != nil {
			report.Failed++
			s.log.Error("Failed to send digest", "user_id", user.ID, "error", err)
			continue
		}
		report.Sent++
	}

	if !dryRun {
		if err := s.settings.SetDigestLastRun(now); err != nil {
			return report, err
		}
	}
	s.log.Info("Digest pass finished", "recipients", report.Recipients, "sent", report.Sent,
		"skipped", report.Skipped, "failed", report.Failed, "dry_run", dryRun)
	return report, nil
}

// Build renders one user's digest, or returns nil when no child has a known age
func (s *DigestService) Build(user models.User, resources []models.Resource, now time.Time) (*Digest, error) {
	children, err := s.children.GetChildrenByUser(user.ID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	prefs, err := s.prefs.GetPreferences(user.ID)
	if err != nil {
		return nil, err
	}

	digest := &Digest{UserID: user.ID, Email: user.Email, Name: user.Name}
	for _, child := range children {
		// Without dates there is nothing week-specific to say.
		if !age.HasKnownAge(child) {
			continue
		}
		items, err := s.checklists.GetItemsByChild(child.ID)
		if err != nil {
			return nil, err
		}
		digest.Sections = append(digest.Sections, s.section(child, items, prefs, resources, now))
	}
	if len(digest.Sections) == 0 {
		return nil, nil
	}

	token, err := s.links.Sign(user.ID, security.PurposeUnsubscribe)
	if err != nil {
		return nil, err
	}
	digest.UnsubscribeURL = s.appBaseURL + "/digest/unsubscribe?token=" + url.QueryEscape(token)
	digest.Subject = subjectFor(digest.Sections)

	digest.HTML, digest.Text, err = renderEmail("digest", digest)
	if err != nil {
		return nil, err
	}
	return digest, nil
}

func (s *DigestService) section(child models.Child, items []models.ChecklistItem, prefs *models.UserPreferences,
	resources []models.Resource, now time.Time) DigestSection {
	dashboard := BuildDashboard(s.catalog, child, now)
	grouped := schedule.GroupByTimeframe(items, now)
	return DigestSection{
		Name:              child.Name,
		AgeLabel:          dashboard.Child.AgeLabel,
		Stage:             dashboard.Child.Stage,
		Trimester:         dashboard.Trimester,
		CurrentMilestones: dashboard.CurrentMilestones,
		Tip:               dashboard.Tip,
		OverdueCount:      len(grouped.Overdue),
		ThisMonthCount:    len(grouped.ThisMonth),
		Feed:              rankTop(s.ranker, resources, prefs, age.CalculateAgeInWeeks(child, now), DigestFeedItems),
	}
}

func subjectFor(sections []DigestSection) string {
	if len(sections) == 1 {
		return fmt.Sprintf("This week with %s: %s", sections[0].Name, sections[0].AgeLabel)
	}
	return "Your Little Steps weekly digest"
}

// Unsubscribe verifies a signed link and turns the digest off for its user
func (s *DigestService) Unsubscribe(token string) (int64, error) {
	userID, err := s.links.Verify(token, security.PurposeUnsubscribe)
	if err != nil {
		return 0, err
	}
	if err := s.users.SetDigestEnabled(userID, false); err != nil {
		return 0, err
	}
	s.log.Info("Digest unsubscribed", "user_id", userID)
	return userID, nil
}
