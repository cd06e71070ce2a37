package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"littlesteps/internal/catalog"
	"littlesteps/internal/database"
	"littlesteps/internal/logger"
	"littlesteps/internal/models"
	"littlesteps/internal/relevance"
	"littlesteps/internal/repository"
	"littlesteps/internal/security"
	"littlesteps/internal/service"
)

type testServer struct {
	handler http.Handler
	users   *repository.UserRepository
	links   *security.LinkSigner
	startup *StartupStatus
}

func newTestServer(t *testing.T, limiter *security.RateLimiter) *testServer {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(""); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	cat := catalog.MustDefault()
	log := logger.Nop()
	users := repository.NewUserRepository(db)
	children := repository.NewChildRepository(db)
	checklists := repository.NewChecklistRepository(db)
	prefs := repository.NewPreferencesRepository(db)
	resources := repository.NewResourceRepository(db)
	if err := resources.UpsertResources(cat.Resources); err != nil {
		t.Fatalf("UpsertResources() error = %v", err)
	}
	ranker := relevance.NewRanker(relevance.DefaultWeights)
	links := security.NewLinkSigner("link-secret", time.Hour)
	if limiter == nil {
		limiter = security.NewRateLimiter(100, time.Minute)
	}

	startup := NewStartupStatus()
	startup.MarkReady()
	handler := NewRouter(RouterDeps{
		Auth:        service.NewAuthService(users, time.Hour),
		Children:    service.NewChildService(children, cat),
		Planning:    service.NewPlanningService(children, checklists, cat),
		Feed:        service.NewFeedService(children, prefs, resources, ranker, 10),
		Preferences: service.NewPreferencesService(prefs, cat),
		Digest: service.NewDigestService(service.DigestDeps{
			Users: users, Children: children, Checklists: checklists, Prefs: prefs,
			Resources: resources, Settings: repository.NewSettingsRepository(db),
			Catalog: cat, Ranker: ranker, Links: links, Interval: time.Hour, Log: log,
		}),
		Catalog:     cat,
		CSRF:        security.NewCSRFGenerator("csrf-secret"),
		AuthLimiter: limiter,
		Startup:     startup,
		Log:         log,
	})
	return &testServer{handler: handler, users: users, links: links, startup: startup}
}

// client carries one user's session cookie and CSRF token between requests
type client struct {
	t      *testing.T
	srv    *testServer
	cookie *http.Cookie
	csrf   string
}

func (s *testServer) anonymous(t *testing.T) *client {
	return &client{t: t, srv: s}
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:1234"
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.csrf != "" {
		req.Header.Set(security.CSRFHeader, c.csrf)
	}
	rec := httptest.NewRecorder()
	c.srv.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// register signs up a new user and returns a client holding their session
func (s *testServer) register(t *testing.T, email string) *client {
	t.Helper()
	c := s.anonymous(t)
	rec := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "password": "password123", "name": "Alex Parent",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	decode(t, rec, &resp)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == security.SessionCookieName {
			c.cookie = ck
		}
	}
	if c.cookie == nil || resp.CSRFToken == "" {
		t.Fatalf("register did not start a session: %s", rec.Body.String())
	}
	c.csrf = resp.CSRFToken
	return c
}

func dateFromNow(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(models.DateLayout)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.anonymous(t)

	if rec := c.do(http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("ready health status = %d", rec.Code)
	}

	starting := NewStartupStatus()
	starting.CompleteStep(StepDatabase)
	rec := httptest.NewRecorder()
	starting.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp healthResponse
	decode(t, rec, &resp)
	if rec.Code != http.StatusServiceUnavailable || resp.Status != "starting" || resp.Progress != 25 {
		t.Errorf("starting health = %d %+v", rec.Code, resp)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.register(t, "Alex@Example.com")

	rec := c.do(http.MethodGet, "/api/auth/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	var me sessionResponse
	decode(t, rec, &me)
	if me.User == nil || me.User.Email != "alex@example.com" || me.CSRFToken != c.csrf {
		t.Errorf("me = %+v", me)
	}

	if rec := srv.anonymous(t).do(http.MethodGet, "/api/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous me status = %d, want 401", rec.Code)
	}

	noToken := &client{t: t, srv: srv, cookie: c.cookie}
	if rec := noToken.do(http.MethodPost, "/api/auth/logout", nil); rec.Code != http.StatusForbidden {
		t.Errorf("logout without CSRF status = %d, want 403", rec.Code)
	}

	if rec := c.do(http.MethodPost, "/api/auth/logout", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/api/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", rec.Code)
	}
}

func TestAuthErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.register(t, "taken@example.com")
	c := srv.anonymous(t)

	tests := []struct {
		name string
		path string
		body map[string]string
		want int
	}{
		{"bad email", "/api/auth/register", map[string]string{"email": "nope", "password": "password123", "name": "Al"}, http.StatusBadRequest},
		{"short password", "/api/auth/register", map[string]string{"email": "a@example.com", "password": "short", "name": "Al"}, http.StatusBadRequest},
		{"duplicate", "/api/auth/register", map[string]string{"email": "taken@example.com", "password": "password123", "name": "Al"}, http.StatusConflict},
		{"wrong password", "/api/auth/login", map[string]string{"email": "taken@example.com", "password": "wrongpass1"}, http.StatusUnauthorized},
		{"unknown user", "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "password123"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := c.do(http.MethodPost, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "taken@example.com", "password": "password123"})
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d", rec.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, security.NewRateLimiter(2, time.Minute))
	c := srv.anonymous(t)
	body := map[string]string{"email": "ghost@example.com", "password": "password123"}

	for i := 0; i < 2; i++ {
		if rec := c.do(http.MethodPost, "/api/auth/login", body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, rec.Code)
		}
	}
	rec := c.do(http.MethodPost, "/api/auth/login", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestChildAndChecklistFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.register(t, "parent@example.com")

	rec := c.do(http.MethodPost, "/api/children", map[string]interface{}{"name": "Bean", "due_date": dateFromNow(70)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create child status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var child models.ChildWithAge
	decode(t, rec, &child)
	if child.ID == 0 || child.AgeInWeeks != -10 || child.Stage != "Third Trimester" {
		t.Errorf("created child = %+v", child)
	}
	childPath := "/api/children/" + itoa(child.ID)

	if rec := c.do(http.MethodPost, "/api/children", map[string]interface{}{"name": "Bad", "due_date": "June 1st"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/api/children/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}

	var list struct {
		Children []models.ChildWithAge `json:"children"`
	}
	decode(t, c.do(http.MethodGet, "/api/children", nil), &list)
	if len(list.Children) != 1 {
		t.Errorf("children = %d, want 1", len(list.Children))
	}

	var dashboard service.Dashboard
	rec = c.do(http.MethodGet, childPath+"/dashboard", nil)
	decode(t, rec, &dashboard)
	if rec.Code != http.StatusOK || dashboard.Trimester != 3 {
		t.Errorf("dashboard = %d %+v", rec.Code, dashboard)
	}

	var added struct {
		Items []models.ChecklistItem `json:"items"`
	}
	rec = c.do(http.MethodPost, childPath+"/suggestions", nil)
	decode(t, rec, &added)
	if rec.Code != http.StatusCreated || len(added.Items) == 0 {
		t.Fatalf("add suggestions = %d, %d items", rec.Code, len(added.Items))
	}
	milestone := added.Items[0]
	decode(t, c.do(http.MethodPost, childPath+"/suggestions", nil), &added)
	if len(added.Items) != 0 {
		t.Errorf("repeat add suggestions added %d, want 0", len(added.Items))
	}
	if rec := c.do(http.MethodPost, childPath+"/suggestions", map[string][]string{"keys": {"nope"}}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown key status = %d, want 400", rec.Code)
	}

	var custom models.ChecklistItem
	rec = c.do(http.MethodPost, childPath+"/checklist", map[string]interface{}{"title": "Paint nursery", "due_date": dateFromNow(3)})
	decode(t, rec, &custom)
	if rec.Code != http.StatusCreated || custom.ItemType != models.ItemTypeCustom {
		t.Fatalf("add custom = %d %+v", rec.Code, custom)
	}

	var toggled models.ChecklistItem
	decode(t, c.do(http.MethodPost, "/api/checklist/"+itoa(custom.ID)+"/toggle", nil), &toggled)
	if !toggled.IsCompleted || toggled.CompletedAt == nil {
		t.Errorf("toggled = %+v", toggled)
	}

	var grouped struct {
		Completed []models.ChecklistItem `json:"completed"`
	}
	decode(t, c.do(http.MethodGet, childPath+"/checklist", nil), &grouped)
	if len(grouped.Completed) != 1 || grouped.Completed[0].ID != custom.ID {
		t.Errorf("completed bucket = %+v", grouped.Completed)
	}

	var moved models.ChecklistItem
	rec = c.do(http.MethodPut, "/api/checklist/"+itoa(milestone.ID)+"/due-date", map[string]string{"due_date": "2030-01-02"})
	decode(t, rec, &moved)
	if rec.Code != http.StatusOK || moved.DueDate == nil || moved.DueDate.Format(models.DateLayout) != "2030-01-02" {
		t.Errorf("update due date = %d %+v", rec.Code, moved)
	}

	if rec := c.do(http.MethodDelete, "/api/checklist/"+itoa(milestone.ID), nil); rec.Code != http.StatusConflict {
		t.Errorf("delete milestone status = %d, want 409", rec.Code)
	}
	if rec := c.do(http.MethodDelete, "/api/checklist/"+itoa(custom.ID), nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete custom status = %d, want 204", rec.Code)
	}

	other := srv.register(t, "other@example.com")
	if rec := other.do(http.MethodGet, childPath, nil); rec.Code != http.StatusNotFound {
		t.Errorf("other user get child status = %d, want 404", rec.Code)
	}
	if rec := other.do(http.MethodPost, "/api/checklist/"+itoa(milestone.ID)+"/toggle", nil); rec.Code != http.StatusNotFound {
		t.Errorf("other user toggle status = %d, want 404", rec.Code)
	}

	if rec := c.do(http.MethodDelete, childPath, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete child status = %d", rec.Code)
	}
}

func TestPreferencesAndFeed(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.register(t, "parent@example.com")

	var options preferenceOptions
	decode(t, srv.anonymous(t).do(http.MethodGet, "/api/preferences/options", nil), &options)
	if len(options.Topics) == 0 || len(options.FeedingPreferences) == 0 {
		t.Errorf("options = %+v", options)
	}

	if rec := c.do(http.MethodPut, "/api/preferences", map[string]string{"feeding_preference": "kibble"}); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid preference status = %d, want 400", rec.Code)
	}
	rec := c.do(http.MethodPut, "/api/preferences", map[string]interface{}{
		"feeding_preference": "formula",
		"topics_of_interest": []string{"feeding", "sleep"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update preferences status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var prefs models.UserPreferences
	decode(t, c.do(http.MethodGet, "/api/preferences", nil), &prefs)
	if prefs.FeedingPreference == nil || *prefs.FeedingPreference != "formula" || len(prefs.TopicsOfInterest) != 2 {
		t.Errorf("preferences = %+v", prefs)
	}

	var child models.ChildWithAge
	decode(t, c.do(http.MethodPost, "/api/children", map[string]interface{}{
		"name": "Robin", "dob": dateFromNow(-14), "is_born": true,
	}), &child)

	var feed struct {
		Resources []models.ResourceWithMeta `json:"resources"`
	}
	rec = c.do(http.MethodGet, "/api/children/"+itoa(child.ID)+"/feed?limit=4", nil)
	decode(t, rec, &feed)
	if rec.Code != http.StatusOK || len(feed.Resources) != 4 {
		t.Fatalf("feed = %d, %d resources", rec.Code, len(feed.Resources))
	}
	for i := 1; i < len(feed.Resources); i++ {
		if feed.Resources[i].RelevanceScore > feed.Resources[i-1].RelevanceScore {
			t.Errorf("feed not sorted at %d", i)
		}
	}

	var search struct {
		Resources []models.Resource `json:"resources"`
	}
	decode(t, srv.anonymous(t).do(http.MethodGet, "/api/resources/search?q=weaning", nil), &search)
	if len(search.Resources) != 1 || search.Resources[0].Slug != "vegan-weaning" {
		t.Errorf("search = %+v", search.Resources)
	}
}

func TestDigestUnsubscribeLink(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.register(t, "parent@example.com")

	rec := c.do(http.MethodPut, "/api/auth/digest", map[string]bool{"enabled": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("set digest status = %d", rec.Code)
	}
	user, _ := srv.users.GetUserByEmail("parent@example.com")
	token, err := srv.links.Sign(user.ID, security.PurposeUnsubscribe)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	rec = srv.anonymous(t).do(http.MethodGet, "/digest/unsubscribe?token="+token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe status = %d, body = %s", rec.Code, rec.Body.String())
	}
	user, _ = srv.users.GetUserByID(user.ID)
	if user.DigestEnabled {
		t.Error("digest still enabled after unsubscribe")
	}

	if rec := srv.anonymous(t).do(http.MethodGet, "/digest/unsubscribe?token=forged", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("forged token status = %d, want 400", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
