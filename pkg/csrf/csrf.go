package csrf

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLifetime is assumed for tokens whose endpoint does not state a
// lifetime of its own.
const DefaultLifetime = 30 * time.Minute

// DefaultSafetyMargin is subtracted from the server-stated lifetime so
// the client refreshes before the server actually expires the token.
const DefaultSafetyMargin = 30 * time.Second

// Fetcher retrieves a fresh token from the backend. It returns the
// token and its server-stated lifetime. A zero lifetime means the
// server did not state one and DefaultLifetime applies.
type Fetcher func(ctx context.Context) (token string, lifetime time.Duration, err error)

// Cache is the single owner of the CSRF token state. All readers go
// through Get and all invalidation goes through Invalidate; nothing
// else touches the token.
//
// Concurrent callers racing an empty cache share one in-flight fetch:
// for any burst of N mutating requests issued before the first fetch
// resolves, exactly one network call happens and all N see its result.
type Cache struct {
	fetch  Fetcher
	margin time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithSafetyMargin overrides the refresh margin.
func WithSafetyMargin(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.margin = d
		}
	}
}

// WithLogger sets the logger for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cache around the given fetcher.
func New(fetch Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetch:  fetch,
		margin: DefaultSafetyMargin,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a usable token, or "" when none could be obtained.
//
// A cached, unexpired token is returned without any network call.
// Otherwise the fetcher runs (shared across concurrent callers) and the
// result is cached with an expiry a safety margin before the server's
// stated lifetime. Fetch failures are logged and yield "" — request
// flow proceeds without a token and the server enforces its policy.
func (c *Cache) Get(ctx context.Context) string {
	if tok, ok := c.cached(); ok {
		return tok
	}

	v, _, _ := c.group.Do("token", func() (any, error) {
		// A previous flight may have filled the cache while this
		// caller was queued behind the mutex.
		if tok, ok := c.cached(); ok {
			return tok, nil
		}

		token, lifetime, err := c.fetch(ctx)
		if err != nil {
			c.logger.Warn("csrf token fetch failed", "error", err)
			return "", nil
		}
		if lifetime <= 0 {
			lifetime = DefaultLifetime
		}
		if lifetime > c.margin {
			lifetime -= c.margin
		}

		c.mu.Lock()
		c.token = token
		c.expiry = c.now().Add(lifetime)
		c.mu.Unlock()

		return token, nil
	})

	tok, _ := v.(string)
	return tok
}

// Invalidate resets the cached token and expiry so the next Get is
// forced to refetch. Safe to call repeatedly; a second call on an
// already-empty cache is a no-op.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expiry) {
		return c.token, true
	}
	return "", false
}
