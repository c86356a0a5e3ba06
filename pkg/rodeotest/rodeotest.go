package rodeotest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
	"github.com/rodeo-sec/rodeo-go/pkg/stream"
)

// Defaults for the login attempt accounting.
const (
	DefaultMaxAttempts    = 3
	DefaultLockoutSeconds = 300
	DefaultCSRFLifetime   = 30 * time.Minute
)

// UserFixture is a test account.
type UserFixture struct {
	Password string
	User     api.User
}

// Config configures the stub backend.
type Config struct {
	// Users maps username to fixture. Empty gets one default account:
	// analyst1/secret99 with read permissions.
	Users map[string]UserFixture

	// Permissions is the full catalog served by /api/permissions.
	Permissions []string

	// MaxAttempts before lockout (default 3).
	MaxAttempts int

	// LockoutSeconds reported on 429 (default 300).
	LockoutSeconds int

	// CSRFLifetime bounds issued CSRF tokens (default 30m).
	CSRFLifetime time.Duration

	// Clock is the server's time source, for tests (default time.Now).
	Clock func() time.Time
}

// Server is an in-process RODEO backend stub. It implements the auth
// surface with real CSRF enforcement and login attempt accounting, plus
// representative resource endpoints, so client code can be tested
// end-to-end without the platform.
type Server struct {
	cfg    Config
	router chi.Router

	mu       sync.Mutex
	sessions map[string]string    // bearer token -> username
	csrf     map[string]time.Time // csrf token -> expiry
	attempts map[string]int       // username -> consecutive failures
	lockedAt map[string]time.Time // username -> lockout start
	samples  []api.Sample
	alerts   chan stream.Alert
}

// NewServer builds the stub's handler state.
func NewServer(cfg Config) *Server {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.LockoutSeconds <= 0 {
		cfg.LockoutSeconds = DefaultLockoutSeconds
	}
	if cfg.CSRFLifetime <= 0 {
		cfg.CSRFLifetime = DefaultCSRFLifetime
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if len(cfg.Users) == 0 {
		cfg.Users = map[string]UserFixture{
			"analyst1": {
				Password: "secret99",
				User: api.User{
					ID:          "usr-1",
					Username:    "analyst1",
					Email:       "analyst1@rodeo.test",
					DisplayName: "Analyst One",
					Permissions: []string{"samples:read", "intel:read"},
					Roles:       []string{"analyst"},
				},
			},
		}
	}
	if len(cfg.Permissions) == 0 {
		cfg.Permissions = []string{
			"samples:read", "samples:write", "intel:read", "policies:write",
			"edr:isolate", "users:admin",
		}
	}

	s := &Server{
		cfg:      cfg,
		sessions: make(map[string]string),
		csrf:     make(map[string]time.Time),
		attempts: make(map[string]int),
		lockedAt: make(map[string]time.Time),
		samples: []api.Sample{
			{ID: "smp-1", SHA256: strings.Repeat("a", 64), Filename: "dropper.exe", Verdict: "malicious"},
			{ID: "smp-2", SHA256: strings.Repeat("b", 64), Filename: "invoice.docm", Verdict: "suspicious"},
		},
		alerts: make(chan stream.Alert, 32),
	}
	s.router = s.routes()
	return s
}

// Start runs the stub on an httptest server and registers cleanup.
func Start(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(cfg)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// IssueToken creates a logged-in session without going through login.
func (s *Server) IssueToken(username string) string {
	token := randomToken()
	s.mu.Lock()
	s.sessions[token] = username
	s.mu.Unlock()
	return token
}

// ExpireCSRFTokens invalidates every issued CSRF token, forcing the
// next mutating request into the refresh-and-retry path.
func (s *Server) ExpireCSRFTokens() {
	s.mu.Lock()
	for token := range s.csrf {
		s.csrf[token] = time.Time{}
	}
	s.mu.Unlock()
}

// RevokeSessions invalidates every bearer token, so the next API call
// sees a 401.
func (s *Server) RevokeSessions() {
	s.mu.Lock()
	s.sessions = make(map[string]string)
	s.mu.Unlock()
}

// PushAlert queues an alert for delivery on the alert feed.
func (s *Server) PushAlert(alert stream.Alert) {
	s.alerts <- alert
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/csrf-token", s.handleCSRFToken)
		r.Post("/login", s.handleLogin)
		r.With(s.requireAuth).Post("/logout", s.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Use(s.requireCSRF)
		r.Get("/users/me", s.handleMe)
		r.Get("/permissions", s.handlePermissions)
		r.Get("/intel/lookup", s.handleIntelLookup)
		r.Get("/stream/alerts", s.handleAlertFeed)
	})

	r.Route("/arsenal", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Use(s.requireCSRF)
		r.Get("/samples", s.handleSamples)
		r.Post("/samples", s.handleSampleSubmit)
		r.Get("/samples/{id}", s.handleSample)
		r.Patch("/samples/{id}", s.handleSampleReclassify)
	})

	return r
}

// --- auth surface ---

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := randomToken()
	s.mu.Lock()
	s.csrf[token] = s.cfg.Clock().Add(s.cfg.CSRFLifetime)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": token,
		"expires_in": int(s.cfg.CSRFLifetime.Seconds()),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Malformed request body."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Clock()
	if lockedAt, ok := s.lockedAt[creds.Username]; ok {
		remaining := time.Duration(s.cfg.LockoutSeconds)*time.Second - now.Sub(lockedAt)
		if remaining > 0 {
			w.Header().Set(api.HeaderLockoutSeconds, strconv.Itoa(int(remaining.Seconds())))
			w.Header().Set(api.HeaderRetryAfter, strconv.Itoa(int(remaining.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"detail": "Too many failed login attempts.",
			})
			return
		}
		delete(s.lockedAt, creds.Username)
		s.attempts[creds.Username] = 0
	}

	fixture, ok := s.cfg.Users[creds.Username]
	if !ok || fixture.Password != creds.Password {
		s.attempts[creds.Username]++
		remaining := s.cfg.MaxAttempts - s.attempts[creds.Username]
		if remaining <= 0 {
			s.lockedAt[creds.Username] = now
			w.Header().Set(api.HeaderLockoutSeconds, strconv.Itoa(s.cfg.LockoutSeconds))
			w.Header().Set(api.HeaderRetryAfter, strconv.Itoa(s.cfg.LockoutSeconds))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"detail": "Too many failed login attempts.",
			})
			return
		}
		w.Header().Set(api.HeaderAttemptsRemaining, strconv.Itoa(remaining))
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Invalid username or password.",
		})
		return
	}

	s.attempts[creds.Username] = 0
	token := randomToken()
	s.sessions[token] = creds.Username
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		_, ok := s.sessions[bearerToken(r)]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			token := r.Header.Get("X-CSRF-Token")
			s.mu.Lock()
			expiry, ok := s.csrf[token]
			valid := ok && s.cfg.Clock().Before(expiry)
			s.mu.Unlock()
			if !valid {
				writeJSON(w, http.StatusForbidden, map[string]string{
					"detail": "CSRF token missing or expired.",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// --- resources ---

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	username := s.sessions[bearerToken(r)]
	fixture := s.cfg.Users[username]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, fixture.User)
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"permissions": s.cfg.Permissions})
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	samples := make([]api.Sample, len(s.samples))
	copy(samples, s.samples)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, samples)
}

func (s *Server) handleSampleSubmit(w http.ResponseWriter, r *http.Request) {
	var sample api.Sample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Malformed request body."})
		return
	}
	s.mu.Lock()
	if sample.ID == "" {
		sample.ID = "smp-" + strconv.Itoa(len(s.samples)+1)
	}
	if sample.SubmittedAt.IsZero() {
		sample.SubmittedAt = s.cfg.Clock().UTC()
	}
	s.samples = append(s.samples, sample)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, sample)
}

func (s *Server) handleSampleReclassify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Verdict string `json:"verdict"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Malformed request body."})
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.samples {
		if s.samples[i].ID == id {
			s.samples[i].Verdict = body.Verdict
			writeJSON(w, http.StatusOK, s.samples[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Sample not found."})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sample := range s.samples {
		if sample.ID == id {
			writeJSON(w, http.StatusOK, sample)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Sample not found."})
}

func (s *Server) handleIntelLookup(w http.ResponseWriter, r *http.Request) {
	indicator := r.URL.Query().Get("indicator")
	if indicator == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"detail": "indicator query parameter is required.",
		})
		return
	}
	writeJSON(w, http.StatusOK, api.IntelReport{
		Indicator: indicator,
		Type:      "unknown",
		Score:     0,
		Sources:   []string{"stub"},
	})
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleAlertFeed(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	for alert := range s.alerts {
		payload, err := json.Marshal(alert)
		if err != nil {
			continue
		}
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// --- helpers ---

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func randomToken() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
