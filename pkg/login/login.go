package login

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// State is the login flow's current phase.
type State string

const (
	StateIdle               State = "idle"
	StateValidating         State = "validating"
	StateSubmitting         State = "submitting"
	StateSuccess            State = "success"
	StateFieldError         State = "field-error"
	StateInvalidCredentials State = "invalid-credentials"
	StateLockedOut          State = "locked-out"
)

// Environment selects the build mode. It is injected explicitly; the
// flow never reads ambient global state.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Demo credential pair accepted when the backend is unreachable in a
// development environment. Never consulted in production.
const (
	demoUsername = "demo"
	demoPassword = "demo1234"

	// demoToken marks an offline development session.
	demoToken = "dev-offline-token"
)

// DefaultLockoutSeconds applies when a 429 carries no lockout header.
const DefaultLockoutSeconds = 300

// Remaining user-facing messages.
const (
	MsgInvalidCredentials = "Invalid username or password."
	MsgConnectivity       = "Unable to reach the authentication service. Check your connection and try again."
)

// Authenticator performs the credential exchange. *api.AuthService
// satisfies it.
type Authenticator interface {
	Login(ctx context.Context, creds api.LoginRequest) (*api.LoginResponse, error)
}

// TokenStore persists the bearer token on success.
type TokenStore interface {
	SetToken(token string) error
}

// Config wires a Flow into its host.
type Config struct {
	Auth   Authenticator
	Tokens TokenStore

	// Environment gates the offline demo fallback.
	Environment Environment

	// OnAuthenticated is the parent's authenticated flag, invoked with
	// true on success.
	OnAuthenticated func(authenticated bool)

	// Navigate performs the post-login navigation ("/" on success).
	Navigate func(path string)

	// RefreshAuth triggers the auth-state provider's refresh.
	RefreshAuth func(ctx context.Context) error

	// OnLockoutTick observes the countdown, once per interval and a
	// final time at zero. Optional.
	OnLockoutTick func(remaining time.Duration)

	Logger *slog.Logger

	// Clock and TickInterval exist for tests. Defaults: time.Now, 1s.
	Clock        func() time.Time
	TickInterval time.Duration
}

// Flow is the login page's state machine:
//
//	idle → validating → submitting → {success | field-error |
//	                                  invalid-credentials | locked-out}
//
// All login failures surface synchronously and none are retried. The
// lockout countdown is cosmetic; the server owns lockout truth.
type Flow struct {
	cfg Config

	mu              sync.Mutex
	state           State
	touched         map[Field]bool
	fieldErrors     map[Field]string
	errorMessage    string
	attemptsLeft    int
	lockoutDeadline time.Time
	countdownStop   chan struct{}
}

// New creates a Flow in the idle state.
func New(cfg Config) *Flow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvProduction
	}
	return &Flow{
		cfg:          cfg,
		state:        StateIdle,
		touched:      make(map[Field]bool),
		fieldErrors:  make(map[Field]string),
		attemptsLeft: -1,
	}
}

// State returns the current phase.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Blur validates a field after the user leaves it. Validation does not
// run on every keystroke; only on blur and on submit.
func (f *Flow) Blur(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[field] = true
	f.fieldErrors[field] = validateField(field, value)
}

// FieldError returns the inline error for a field, or "". Errors only
// show for touched fields, so an untouched form renders clean.
func (f *Flow) FieldError(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.touched[field] {
		return ""
	}
	return f.fieldErrors[field]
}

// ErrorMessage returns the form-level failure message, or "".
func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errorMessage
}

// AttemptsRemaining returns the server-reported attempts left before
// lockout, or -1 when unknown.
func (f *Flow) AttemptsRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attemptsLeft
}

// LockedOut reports whether the form is disabled by a lockout.
func (f *Flow) LockedOut() bool {
	return f.State() == StateLockedOut
}

// LockoutRemaining returns the countdown's remaining duration.
func (f *Flow) LockoutRemaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	rem := f.lockoutDeadline.Sub(f.cfg.Clock())
	if rem < 0 {
		return 0
	}
	return rem
}

// Submit validates and, if clean, performs the credential exchange.
// Validation failures set field errors and never reach the network;
// the submit affordance itself is never disabled for validation, the
// errors render inline instead.
func (f *Flow) Submit(ctx context.Context, username, password string) error {
	if f.LockedOut() {
		return nil
	}

	f.mu.Lock()
	f.state = StateValidating
	f.touched[FieldUsername] = true
	f.touched[FieldPassword] = true
	f.fieldErrors[FieldUsername] = ValidateUsername(username)
	f.fieldErrors[FieldPassword] = ValidatePassword(password)
	if f.fieldErrors[FieldUsername] != "" || f.fieldErrors[FieldPassword] != "" {
		f.state = StateFieldError
		f.mu.Unlock()
		return nil
	}
	f.state = StateSubmitting
	f.errorMessage = ""
	f.mu.Unlock()

	res, err := f.cfg.Auth.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return f.handleFailure(ctx, err, username, password)
	}
	return f.succeed(ctx, res.AccessToken)
}

func (f *Flow) succeed(ctx context.Context, token string) error {
	if err := f.cfg.Tokens.SetToken(token); err != nil {
		return fmt.Errorf("login: persist token: %w", err)
	}
	if f.cfg.RefreshAuth != nil {
		if err := f.cfg.RefreshAuth(ctx); err != nil {
			f.cfg.Logger.Warn("post-login auth refresh failed", "error", err)
		}
	}
	if f.cfg.OnAuthenticated != nil {
		f.cfg.OnAuthenticated(true)
	}
	if f.cfg.Navigate != nil {
		f.cfg.Navigate("/")
	}
	f.mu.Lock()
	f.state = StateSuccess
	f.errorMessage = ""
	f.mu.Unlock()
	return nil
}

func (f *Flow) handleFailure(ctx context.Context, err error, username, password string) error {
	apiErr, ok := transport.AsError(err)
	if !ok {
		f.setFailure(StateInvalidCredentials, MsgInvalidCredentials)
		return err
	}

	switch {
	case apiErr.IsNetwork():
		// Offline development fallback: in a development build the
		// demo pair logs in without a backend. Production shows a
		// connectivity message and never consults the pair.
		if f.cfg.Environment == EnvDevelopment &&
			username == demoUsername && password == demoPassword {
			f.cfg.Logger.Info("backend unreachable, using offline demo session")
			return f.succeed(ctx, demoToken)
		}
		f.setFailure(StateInvalidCredentials, MsgConnectivity)
		return err

	case apiErr.StatusCode == http.StatusTooManyRequests:
		seconds := headerInt(apiErr.Header.Get(api.HeaderLockoutSeconds), DefaultLockoutSeconds)
		f.beginLockout(time.Duration(seconds) * time.Second)
		return err

	case apiErr.StatusCode == http.StatusUnauthorized:
		attempts := headerInt(apiErr.Header.Get(api.HeaderAttemptsRemaining), -1)
		f.mu.Lock()
		f.attemptsLeft = attempts
		f.mu.Unlock()
		if attempts > 0 {
			f.setFailure(StateInvalidCredentials,
				fmt.Sprintf("Invalid credentials. %d attempts remaining before lockout.", attempts))
		} else if attempts == 0 && apiErr.Detail != "" {
			f.setFailure(StateInvalidCredentials, apiErr.Detail)
		} else {
			f.setFailure(StateInvalidCredentials, MsgInvalidCredentials)
		}
		return err

	default:
		f.setFailure(StateInvalidCredentials, MsgInvalidCredentials)
		return err
	}
}

func (f *Flow) setFailure(state State, message string) {
	f.mu.Lock()
	f.state = state
	f.errorMessage = message
	f.mu.Unlock()
}

func headerInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
