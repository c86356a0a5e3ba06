package rodeo

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/login"
	"github.com/rodeo-sec/rodeo-go/pkg/notify"
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// Environment selects the build mode. Development enables the offline
// demo login fallback; production never consults it.
type Environment = login.Environment

// Re-exported environment values.
const (
	EnvDevelopment = login.EnvDevelopment
	EnvProduction  = login.EnvProduction
)

// Config configures a Client.
type Config struct {
	// BaseURL is the platform origin, e.g. "https://rodeo.example.com".
	BaseURL string

	// Environment gates development-only behavior. Default production.
	Environment Environment

	// StatePath is where session state persists. Empty keeps state in
	// memory only, which is what tests and one-shot tools want.
	StatePath string

	// Timeout is the per-request timeout. Default 30s.
	Timeout time.Duration

	// Notifier receives user-facing notices from the request classifier.
	// Nil discards them.
	Notifier notify.Notifier

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Navigate performs host-side navigation ("/" after login, the
	// login surface after session expiry). Nil disables navigation.
	Navigate func(path string)

	// OnAuthenticated observes authentication flips from the login flow.
	OnAuthenticated func(authenticated bool)

	// Middleware wrap every request, first entry outermost. Use
	// pkg/middleware for metrics and tracing.
	Middleware []transport.Middleware

	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config for a local development platform.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:8000",
		Environment: EnvDevelopment,
	}
}
