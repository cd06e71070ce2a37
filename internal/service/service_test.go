package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"littlesteps/internal/catalog"
	"littlesteps/internal/database"
	"littlesteps/internal/logger"
	"littlesteps/internal/models"
	"littlesteps/internal/repository"
)

// testNow is a fixed clock shared by service tests
var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	db         *database.DB
	catalog    *catalog.Catalog
	users      *repository.UserRepository
	children   *repository.ChildRepository
	checklists *repository.ChecklistRepository
	prefs      *repository.PreferencesRepository
	resources  *repository.ResourceRepository
	settings   *repository.SettingsRepository
	log        *logger.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(""); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	env := &testEnv{
		db:         db,
		catalog:    catalog.MustDefault(),
		users:      repository.NewUserRepository(db),
		children:   repository.NewChildRepository(db),
		checklists: repository.NewChecklistRepository(db),
		prefs:      repository.NewPreferencesRepository(db),
		resources:  repository.NewResourceRepository(db),
		settings:   repository.NewSettingsRepository(db),
		log:        logger.Nop(),
	}
	if err := env.resources.UpsertResources(env.catalog.Resources); err != nil {
		t.Fatalf("UpsertResources() error = %v", err)
	}
	return env
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.CreateUser(email, "hash", "Parent")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func (e *testEnv) child(t *testing.T, userID int64, name string, due, dob *time.Time) *models.Child {
	t.Helper()
	c := &models.Child{UserID: userID, Name: name, DueDate: due, DOB: dob, IsBorn: dob != nil}
	if err := e.children.CreateChild(c); err != nil {
		t.Fatalf("CreateChild() error = %v", err)
	}
	return c
}

func day(s string) *time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func str(s string) *string {
	return &s
}

func fixedClock() time.Time {
	return testNow
}

type sentMail struct {
	to, subject, html, text string
}

// fakeMailer records messages instead of sending them
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendEmail(ctx context.Context, to, subject, html, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html, text: text})
	return nil
}
