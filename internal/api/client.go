// Package api wraps the remote analysis, solution, auth and chat endpoints.
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/hamper/internal/auth"
	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/logger"
	"github.com/hpungsan/hamper/internal/metrics"
	"github.com/hpungsan/hamper/internal/resilience"
)

// Options configures a Client. Only BaseURL is required.
type Options struct {
	BaseURL string

	// Timeout bounds non-streaming calls. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient replaces the default cookie-jar client (tests).
	HTTPClient *http.Client

	// SessionPath persists session cookies across processes. Empty keeps
	// them in memory. Ignored when HTTPClient is set.
	SessionPath string

	Auth       *auth.State
	Resilience resilience.Config
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

// OptionsFromConfig fills the network settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		Resilience: resilience.DefaultConfig(),
	}
}

// Client talks to the remote service. Session cookies live in the client's
// jar; the signed-in state is mirrored into the injected auth.State.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	auth    *auth.State
	session *sessionJar
	exec    *resilience.Executor
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var session *sessionJar
	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := newSessionJar(baseURL, opts.SessionPath, log)
		if err != nil {
			return nil, err
		}
		session = jar
		httpClient = &http.Client{Jar: jar, Timeout: opts.Timeout}
	}
	// Streams share transport and cookies but are bounded only by ctx.
	stream := *httpClient
	stream.Timeout = 0

	state := opts.Auth
	if state == nil {
		state = auth.NewState()
	}

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		stream:  &stream,
		auth:    state,
		session: session,
		exec:    resilience.NewExecutor(opts.Resilience, log),
		log:     log,
		metrics: opts.Metrics,
	}, nil
}

// Auth returns the session state the client keeps current.
func (c *Client) Auth() *auth.State {
	return c.auth
}
