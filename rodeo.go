// Package rodeo is the client SDK for the RODEO security-operations
// platform. It bundles the authenticated transport, the domain API
// services, the auth-state provider and the login flow behind one
// constructor.
//
// Usage:
//
//	client, err := rodeo.New(rodeo.Config{
//	    BaseURL:   "https://rodeo.example.com",
//	    StatePath: "/var/lib/rodeo/state.json",
//	    Notifier:  notify.Slog(logger),
//	})
//	if err != nil {
//	    return err
//	}
//	samples, err := client.API.Samples.List(ctx, api.SampleFilter{})
package rodeo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
	"github.com/rodeo-sec/rodeo-go/pkg/authstate"
	"github.com/rodeo-sec/rodeo-go/pkg/csrf"
	"github.com/rodeo-sec/rodeo-go/pkg/localstore"
	"github.com/rodeo-sec/rodeo-go/pkg/login"
	"github.com/rodeo-sec/rodeo-go/pkg/stream"
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// Client is the assembled SDK: one transport, every domain service,
// shared session state.
type Client struct {
	// API exposes the domain services (samples, intel, EDR, ...).
	API *api.Client

	// Auth tracks the authenticated identity and answers permission
	// and role questions.
	Auth *authstate.Provider

	// Store holds the session token and small client-side state.
	Store *localstore.Store

	// Transport is the underlying request pipeline, for callers that
	// need raw requests.
	Transport *transport.Transport

	cfg    Config
	csrf   *csrf.Cache
	logger *slog.Logger
}

// New assembles a Client from cfg.
func New(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvProduction
	}

	var store *localstore.Store
	var err error
	if cfg.StatePath != "" {
		store, err = localstore.Open(cfg.StatePath)
		if err != nil {
			return nil, fmt.Errorf("rodeo: open state: %w", err)
		}
	} else {
		store = localstore.NewMemory()
	}

	c := &Client{
		Store:  store,
		cfg:    cfg,
		logger: logger,
	}

	// The CSRF fetcher goes through the same transport it protects.
	// That is safe: the token endpoint is a GET, and GETs never consult
	// the cache.
	c.csrf = csrf.New(func(ctx context.Context) (string, time.Duration, error) {
		return c.API.Auth.CSRFToken(ctx)
	}, csrf.WithLogger(logger))

	c.Transport = transport.New(transport.Config{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		Tokens:     store,
		CSRF:       c.csrf,
		Notifier:   cfg.Notifier,
		Logger:     logger,
		Middleware: cfg.Middleware,
		HTTPClient: cfg.HTTPClient,
		OnSessionExpired: func() {
			c.Auth.Clear()
			if cfg.Navigate != nil {
				cfg.Navigate("/login")
			}
		},
	})

	c.API = api.New(c.Transport)
	c.Auth = authstate.New(c.API.Auth, store, logger)
	return c, nil
}

// NewLoginFlow creates a login flow wired to this client's auth
// endpoints, token store and auth-state provider.
func (c *Client) NewLoginFlow() *login.Flow {
	return login.New(login.Config{
		Auth:            c.API.Auth,
		Tokens:          c.Store,
		Environment:     c.cfg.Environment,
		OnAuthenticated: c.cfg.OnAuthenticated,
		Navigate:        c.cfg.Navigate,
		RefreshAuth:     c.Auth.Refresh,
		Logger:          c.logger,
	})
}

// Alerts connects to the live alert feed using the client's session.
func (c *Client) Alerts(ctx context.Context) (*stream.Conn, error) {
	return stream.Dial(ctx, stream.Config{
		BaseURL: c.cfg.BaseURL,
		Tokens:  c.Store,
		Logger:  c.logger,
	})
}

// Logout invalidates the session server-side and clears local state.
func (c *Client) Logout(ctx context.Context) error {
	err := c.API.Auth.Logout(ctx)
	if clearErr := c.Store.ClearToken(); clearErr != nil && err == nil {
		err = clearErr
	}
	c.Auth.Clear()
	c.csrf.Invalidate()
	return err
}
