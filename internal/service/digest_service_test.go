package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"littlesteps/internal/relevance"
	"littlesteps/internal/security"
)

const testInterval = 7 * 24 * time.Hour

func newDigest(env *testEnv, mailer Mailer) *DigestService {
	svc := NewDigestService(DigestDeps{
		Users:      env.users,
		Children:   env.children,
		Checklists: env.checklists,
		Prefs:      env.prefs,
		Resources:  env.resources,
		Settings:   env.settings,
		Catalog:    env.catalog,
		Ranker:     relevance.NewRanker(relevance.DefaultWeights),
		Mailer:     mailer,
		Links:      security.NewLinkSigner("digest-secret", time.Hour),
		AppBaseURL: "https://littlesteps.test",
		Interval:   testInterval,
		Log:        env.log,
	})
	svc.now = fixedClock
	return svc
}

func TestDigestRun(t *testing.T) {
	env := newTestEnv(t)
	mailer := &fakeMailer{}
	svc := newDigest(env, mailer)

	parent := env.user(t, "parent@example.com")
	env.child(t, parent.ID, "Bean", day("2025-06-01"), nil)
	env.user(t, "childless@example.com")
	undated := env.user(t, "undated@example.com")
	env.child(t, undated.ID, "Mystery", nil, nil)
	optedOut := env.user(t, "quiet@example.com")
	env.child(t, optedOut.ID, "Robin", nil, day("2025-01-04"))
	if err := env.users.SetDigestEnabled(optedOut.ID, false); err != nil {
		t.Fatalf("SetDigestEnabled() error = %v", err)
	}

	report, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Recipients != 3 || report.Sent != 1 || report.Skipped != 2 || report.Failed != 0 {
		t.Errorf("Run() report = %+v", report)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.to != "parent@example.com" {
		t.Errorf("sent to %s", msg.to)
	}
	if msg.subject != "This week with Bean: 26 weeks pregnant" {
		t.Errorf("subject = %q", msg.subject)
	}
	for _, want := range []string{"Bean", "Second Trimester", "https://littlesteps.test/digest/unsubscribe?token="} {
		if !strings.Contains(msg.text, want) {
			t.Errorf("text body missing %q", want)
		}
		if !strings.Contains(msg.html, want) {
			t.Errorf("html body missing %q", want)
		}
	}

	last, err := env.settings.DigestLastRun()
	if err != nil || !last.Equal(testNow) {
		t.Errorf("DigestLastRun() = %v, %v; want %v", last, err, testNow)
	}
}

func TestDigestDryRun(t *testing.T) {
	env := newTestEnv(t)
	mailer := &fakeMailer{}
	svc := newDigest(env, mailer)
	parent := env.user(t, "parent@example.com")
	env.child(t, parent.ID, "Bean", day("2025-06-01"), nil)
	env.child(t, parent.ID, "Robin", nil, day("2023-03-01"))

	report, err := svc.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run(dry) error = %v", err)
	}
	if !report.DryRun || report.Sent != 0 || len(report.Digests) != 1 || len(mailer.sent) != 0 {
		t.Errorf("Run(dry) report = %+v, sent %d", report, len(mailer.sent))
	}
	d := report.Digests[0]
	if len(d.Sections) != 2 || d.Subject != "Your Little Steps weekly digest" {
		t.Errorf("digest = %d sections, subject %q", len(d.Sections), d.Subject)
	}
	for _, s := range d.Sections {
		if len(s.Feed) != DigestFeedItems {
			t.Errorf("section %s has %d feed items, want %d", s.Name, len(s.Feed), DigestFeedItems)
		}
	}

	due, err := svc.Due()
	if err != nil || !due {
		t.Errorf("Due() after dry run = %v, %v; want true", due, err)
	}
}

func TestDigestSendFailureIsCounted(t *testing.T) {
	env := newTestEnv(t)
	svc := newDigest(env, &fakeMailer{err: errors.New("ses unavailable")})
	parent := env.user(t, "parent@example.com")
	env.child(t, parent.ID, "Bean", day("2025-06-01"), nil)

	report, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Failed != 1 || report.Sent != 0 {
		t.Errorf("Run() report = %+v, want one failure", report)
	}
}

func TestDigestDue(t *testing.T) {
	env := newTestEnv(t)
	mailer := &fakeMailer{}
	svc := newDigest(env, mailer)
	parent := env.user(t, "parent@example.com")
	env.child(t, parent.ID, "Bean", day("2025-06-01"), nil)

	report, err := svc.RunIfDue(context.Background())
	if err != nil || report == nil || report.Sent != 1 {
		t.Fatalf("first RunIfDue() = %+v, %v", report, err)
	}

	svc.now = func() time.Time { return testNow.Add(testInterval - time.Minute) }
	report, err = svc.RunIfDue(context.Background())
	if err != nil || report != nil {
		t.Errorf("RunIfDue() before interval = %+v, %v; want nil", report, err)
	}

	svc.now = func() time.Time { return testNow.Add(testInterval) }
	if due, _ := svc.Due(); !due {
		t.Error("Due() = false after a full interval")
	}
	if len(mailer.sent) != 1 {
		t.Errorf("sent %d emails, want 1", len(mailer.sent))
	}
}

func TestDigestUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	svc := newDigest(env, &fakeMailer{})
	parent := env.user(t, "parent@example.com")
	env.child(t, parent.ID, "Bean", day("2025-06-01"), nil)

	report, err := svc.Run(context.Background(), true)
	if err != nil || len(report.Digests) != 1 {
		t.Fatalf("Run(dry) = %+v, %v", report, err)
	}
	link, err := url.Parse(report.Digests[0].UnsubscribeURL)
	if err != nil {
		t.Fatalf("UnsubscribeURL %q: %v", report.Digests[0].UnsubscribeURL, err)
	}

	userID, err := svc.Unsubscribe(link.Query().Get("token"))
	if err != nil || userID != parent.ID {
		t.Fatalf("Unsubscribe() = %d, %v; want %d", userID, err, parent.ID)
	}
	recipients, _ := env.users.ListDigestRecipients()
	if len(recipients) != 0 {
		t.Errorf("recipients after unsubscribe = %d, want 0", len(recipients))
	}

	if _, err := svc.Unsubscribe("not-a-token"); !errors.Is(err, security.ErrInvalidLink) {
		t.Errorf("Unsubscribe(garbage) error = %v, want ErrInvalidLink", err)
	}
}
