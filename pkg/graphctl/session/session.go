package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
	"github.com/telekom/graphctl/pkg/graphctl/client"
	"github.com/telekom/graphctl/pkg/metrics"
)

var ErrSessionNotInitialized = errors.New("session not initialized for user auth")

type Session struct {
	logger        *zap.SugaredLogger
	metrics       *metrics.Recorder
	httpClient    *http.Client
	clientOptions []client.Option

	mu       sync.RWMutex
	cfg      auth.Configuration
	provider *auth.CredentialProvider
	client   *client.Client
}

type Option func(*Session)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *Session) {
		s.metrics = recorder
	}
}

// WithHTTPClient is used both for the identity provider and for Graph requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Session) {
		s.httpClient = hc
	}
}

// WithClientOptions adds options applied to the HTTP client built on initialization.
func WithClientOptions(opts ...client.Option) Option {
	return func(s *Session) {
		s.clientOptions = append(s.clientOptions, opts...)
	}
}

func New(opts ...Option) *Session {
	s := &Session{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitializeForUserAuth builds a credential provider for cfg and an HTTP client that
// authenticates with it. No network call is made. On failure the previous state is kept;
// on success it is replaced.
func (s *Session) InitializeForUserAuth(cfg auth.Configuration, prompt auth.PromptSink) error {
	providerOpts := []auth.ProviderOption{
		auth.WithLogger(s.logger),
		auth.WithMetrics(s.metrics),
	}
	if s.httpClient != nil {
		providerOpts = append(providerOpts, auth.WithHTTPClient(s.httpClient))
	}
	provider, err := auth.NewCredentialProvider(cfg, prompt, providerOpts...)
	if err != nil {
		return err
	}
	cfg = provider.Configuration()

	clientOpts := []client.Option{
		client.WithLogger(s.logger),
		client.WithMetrics(s.metrics),
		client.WithHTTPClient(s.httpClient),
	}
	clientOpts = append(clientOpts, s.clientOptions...)
	clientOpts = append(clientOpts, client.WithRequestDecorator(WithAuth(provider, cfg.Scopes)))
	c, err := client.New(clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.provider = provider
	s.client = c
	s.mu.Unlock()

	s.logger.Debugw("Session initialized for user auth", "clientID", cfg.ClientID, "tenantID", cfg.TenantID, "scopes", cfg.Scopes)
	return nil
}

// UserToken returns an access token for the configured scopes, prompting for a device
// code login when no valid token is cached.
func (s *Session) UserToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	provider, scopes := s.provider, s.cfg.Scopes
	s.mu.RUnlock()
	if provider == nil {
		return "", ErrSessionNotInitialized
	}
	tok, err := provider.GetToken(ctx, scopes)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Token is UserToken with the expiry attached.
func (s *Session) Token(ctx context.Context) (auth.Token, error) {
	s.mu.RLock()
	provider, scopes := s.provider, s.cfg.Scopes
	s.mu.RUnlock()
	if provider == nil {
		return auth.Token{}, ErrSessionNotInitialized
	}
	return provider.GetToken(ctx, scopes)
}

func (s *Session) Client() (*client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, ErrSessionNotInitialized
	}
	return s.client, nil
}

func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider != nil
}

// Scopes returns a copy of the configured scopes, or nil before initialization.
func (s *Session) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.provider == nil {
		return nil
	}
	return append([]string(nil), s.cfg.Scopes...)
}
