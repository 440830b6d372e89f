package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/quicknotes/internal/auth"
	"github.com/geocoder89/quicknotes/internal/cache"
	"github.com/geocoder89/quicknotes/internal/config"
	apphttp "github.com/geocoder89/quicknotes/internal/http"
	"github.com/geocoder89/quicknotes/internal/http/handlers"
	"github.com/geocoder89/quicknotes/internal/observability"
	"github.com/geocoder89/quicknotes/internal/repo/memory"
	"github.com/geocoder89/quicknotes/internal/security"
	"github.com/geocoder89/quicknotes/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTTTLDays:         30,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		MaxBodyBytes:       1 << 20,
		RequestTimeout:     2 * time.Second,
		ServiceName:        "quicknotes-test",
	}
}

func setupRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	users := memory.NewUsersRepo()
	notesRepo := memory.NewNotesRepo()

	tokens := auth.NewManager(cfg.Secret(), cfg.TokenTTL())
	authn, err := service.NewAuthenticator(users, security.NewBcryptHasher(bcrypt.MinCost), tokens, logger,
		service.WithAuthObserver(prom))
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	listCache := cache.NewNotesCache(cache.NewMemory(time.Minute), time.Minute, logger).WithObserver(prom)
	notes := service.NewNotesService(notesRepo, logger, service.WithListCache(listCache))

	return apphttp.NewRouter(apphttp.Deps{
		Log:      logger,
		Config:   cfg,
		Auth:     authn,
		Notes:    notes,
		Prom:     prom,
		Gatherer: reg,
		Checks:   map[string]handlers.Check{"store": notesRepo.Ping},
	})
}

type apiClient struct {
	t *testing.T
	r *gin.Engine
}

func (c apiClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v body=%s", err, w.Body.String())
	}
	return out
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

type noteResponse struct {
	ID        string    `json:"_id"`
	User      string    `json:"user"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

// Ann signs up, keeps notes, and Bob can neither see nor touch them.
func TestRouter_AnnScenario(t *testing.T) {
	c := apiClient{t: t, r: setupRouter(t, testConfig())}

	w := c.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Ann", "email": "Ann@X.com", "password": "pw1"})
	expectStatus(t, w, http.StatusCreated)
	ann := decode[authResponse](t, w)
	if ann.Token == "" || ann.User.Email != "ann@x.com" {
		t.Fatalf("unexpected signup response: %+v", ann)
	}

	// duplicate by normalized email
	w = c.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Imposter", "email": " ann@x.com", "password": "pw2"})
	expectStatus(t, w, http.StatusBadRequest)
	if e := decode[errorResponse](t, w); e.Error != "User already exists" {
		t.Fatalf("unexpected duplicate error: %+v", e)
	}

	w = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "pw1"})
	expectStatus(t, w, http.StatusOK)
	annToken := decode[authResponse](t, w).Token

	wrongPw := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "nope"})
	unknown := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "pw1"})
	expectStatus(t, wrongPw, http.StatusUnauthorized)
	expectStatus(t, unknown, http.StatusUnauthorized)
	if a, b := decode[errorResponse](t, wrongPw), decode[errorResponse](t, unknown); a.Error != b.Error || a.Code != b.Code {
		t.Fatalf("login failures differ: %+v vs %+v", a, b)
	}

	// empty list first
	w = c.do(http.MethodGet, "/api/notes", annToken, nil)
	expectStatus(t, w, http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", w.Body.String())
	}

	w = c.do(http.MethodPost, "/api/notes", annToken, map[string]string{"title": "  Groceries ", "body": "milk"})
	expectStatus(t, w, http.StatusCreated)
	groceries := decode[noteResponse](t, w)
	if groceries.Title != "Groceries" || groceries.User != ann.User.ID || !groceries.CreatedAt.Equal(groceries.UpdatedAt) {
		t.Fatalf("unexpected created note: %+v", groceries)
	}

	w = c.do(http.MethodPost, "/api/notes", annToken, map[string]string{"title": "Ideas"})
	expectStatus(t, w, http.StatusCreated)
	ideas := decode[noteResponse](t, w)

	w = c.do(http.MethodPost, "/api/notes", annToken, map[string]string{"title": "   "})
	expectStatus(t, w, http.StatusBadRequest)
	if e := decode[errorResponse](t, w); e.Error != "Please add a title" {
		t.Fatalf("unexpected blank title error: %+v", e)
	}

	w = c.do(http.MethodGet, "/api/notes", annToken, nil)
	expectStatus(t, w, http.StatusOK)
	list := decode[[]noteResponse](t, w)
	if len(list) != 2 || list[0].ID != ideas.ID || list[1].ID != groceries.ID {
		t.Fatalf("expected [ideas, groceries], got %+v", list)
	}

	// Bob
	w = c.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Bob", "email": "bob@x.com", "password": "pw"})
	expectStatus(t, w, http.StatusCreated)
	bobToken := decode[authResponse](t, w).Token

	w = c.do(http.MethodGet, "/api/notes", bobToken, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]noteResponse](t, w); len(got) != 0 {
		t.Fatalf("bob sees ann's notes: %+v", got)
	}

	w = c.do(http.MethodPut, "/api/notes/"+groceries.ID, bobToken, map[string]string{"body": "hacked"})
	expectStatus(t, w, http.StatusUnauthorized)
	if e := decode[errorResponse](t, w); e.Error != "User not authorized" {
		t.Fatalf("unexpected non-owner error: %+v", e)
	}
	expectStatus(t, c.do(http.MethodDelete, "/api/notes/"+groceries.ID, bobToken, nil), http.StatusUnauthorized)

	// missing note is 404 for everyone
	expectStatus(t, c.do(http.MethodPut, "/api/notes/does-not-exist", bobToken, map[string]string{"body": "x"}), http.StatusNotFound)
	expectStatus(t, c.do(http.MethodDelete, "/api/notes/does-not-exist", annToken, nil), http.StatusNotFound)

	// Ann's update
	w = c.do(http.MethodPut, "/api/notes/"+groceries.ID, annToken, map[string]string{"body": "milk, eggs"})
	expectStatus(t, w, http.StatusOK)
	updated := decode[noteResponse](t, w)
	if updated.Body != "milk, eggs" || updated.Title != "Groceries" || !updated.UpdatedAt.After(groceries.UpdatedAt) {
		t.Fatalf("unexpected update: %+v", updated)
	}

	w = c.do(http.MethodPut, "/api/notes/"+groceries.ID, annToken, map[string]string{"title": " "})
	expectStatus(t, w, http.StatusBadRequest)

	// delete and confirm
	w = c.do(http.MethodDelete, "/api/notes/"+groceries.ID, annToken, nil)
	expectStatus(t, w, http.StatusOK)
	del := decode[map[string]any](t, w)
	if del["ok"] != true || del["id"] != groceries.ID {
		t.Fatalf("unexpected delete response: %v", del)
	}
	expectStatus(t, c.do(http.MethodDelete, "/api/notes/"+groceries.ID, annToken, nil), http.StatusNotFound)

	w = c.do(http.MethodGet, "/api/notes", annToken, nil)
	if got := decode[[]noteResponse](t, w); len(got) != 1 || got[0].ID != ideas.ID {
		t.Fatalf("expected only ideas left, got %+v", got)
	}
}

func TestRouter_GateRejectsBeforeHandlers(t *testing.T) {
	c := apiClient{t: t, r: setupRouter(t, testConfig())}

	other := auth.NewManager("some-other-secret", time.Hour)
	forged, err := other.Issue("ann")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expired := auth.NewManager(testConfig().Secret(), time.Hour).WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})
	stale, err := expired.Issue("ann")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for name, token := range map[string]string{"none": "", "garbage": "abc.def.ghi", "forged": forged, "expired": stale} {
		for _, req := range []struct{ method, path string }{
			{http.MethodGet, "/api/notes"},
			{http.MethodPost, "/api/notes"},
			{http.MethodPut, "/api/notes/x"},
			{http.MethodDelete, "/api/notes/x"},
		} {
			var body any
			if req.method == http.MethodPost || req.method == http.MethodPut {
				body = map[string]string{"title": "t"}
			}
			w := c.do(req.method, req.path, token, body)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("%s token on %s %s: got %d, want 401", name, req.method, req.path, w.Code)
			}
		}
	}
}

func TestRouter_OperationalRoutes(t *testing.T) {
	c := apiClient{t: t, r: setupRouter(t, testConfig())}

	for _, path := range []string{"/", "/healthz", "/readyz", "/api/ping", "/docs", "/docs/openapi.yaml"} {
		expectStatus(t, c.do(http.MethodGet, path, "", nil), http.StatusOK)
	}

	// generate some traffic, then scrape
	c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x@x.com", "password": "y"})

	w := c.do(http.MethodGet, "/metrics", "", nil)
	expectStatus(t, w, http.StatusOK)
	for _, metric := range []string{"quicknotes_http_requests_total", "quicknotes_auth_attempts_total"} {
		if !strings.Contains(w.Body.String(), metric) {
			t.Fatalf("metrics missing %s", metric)
		}
	}

	w = c.do(http.MethodGet, "/nope", "", nil)
	expectStatus(t, w, http.StatusNotFound)
	if e := decode[errorResponse](t, w); e.Code != "not_found" || e.RequestID == "" {
		t.Fatalf("unexpected 404 body: %+v", e)
	}
}

func TestRouter_RequiresJSONOnWrites(t *testing.T) {
	r := setupRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("email=a&password=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusUnsupportedMediaType)
}

func TestRouter_GateAnswersBeforeContentTypeCheck(t *testing.T) {
	r := setupRouter(t, testConfig())

	for _, method := range []string{http.MethodPost, http.MethodPut} {
		path := "/api/notes"
		if method == http.MethodPut {
			path += "/x"
		}
		req := httptest.NewRequest(method, path, strings.NewReader("title=t"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		expectStatus(t, w, http.StatusUnauthorized)
	}

	// authenticated writes still need JSON
	c := apiClient{t: t, r: r}
	w := c.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw1"})
	expectStatus(t, w, http.StatusCreated)
	token := decode[authResponse](t, w).Token

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader("title=t"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusUnsupportedMediaType)
}

func TestRouter_PaddedLongTitleIsStoredTrimmed(t *testing.T) {
	c := apiClient{t: t, r: setupRouter(t, testConfig())}

	w := c.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw1"})
	expectStatus(t, w, http.StatusCreated)
	token := decode[authResponse](t, w).Token

	w = c.do(http.MethodPost, "/api/notes", token, map[string]string{"title": "  X" + strings.Repeat(" ", 250)})
	expectStatus(t, w, http.StatusCreated)
	created := decode[noteResponse](t, w)
	if created.Title != "X" {
		t.Fatalf("got title %q, want %q", created.Title, "X")
	}

	long := strings.Repeat("t", 201)
	w = c.do(http.MethodPost, "/api/notes", token, map[string]string{"title": long})
	expectStatus(t, w, http.StatusCreated)
	if got := decode[noteResponse](t, w).Title; got != long {
		t.Fatalf("long title was altered: %d chars", len(got))
	}

	w = c.do(http.MethodPut, "/api/notes/"+created.ID, token, map[string]string{"title": "\t" + long + "  "})
	expectStatus(t, w, http.StatusOK)
	if got := decode[noteResponse](t, w).Title; got != long {
		t.Fatalf("updated title not trimmed: %q", got)
	}
}

func TestRouter_OverlongLoginEmailIsInvalidCredentials(t *testing.T) {
	c := apiClient{t: t, r: setupRouter(t, testConfig())}

	w := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    strings.Repeat("a", 400) + "@x.com",
		"password": "pw1",
	})
	expectStatus(t, w, http.StatusUnauthorized)
	if e := decode[errorResponse](t, w); e.Error != "Invalid credentials" || e.Code != "invalid_credentials" {
		t.Fatalf("unexpected login error: %+v", e)
	}
}
