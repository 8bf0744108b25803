package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/telekom/graphctl/pkg/metrics"
)

// CredentialProvider runs device-code exchanges for one application registration. Tokens
// are kept per scope set until they expire and can no longer be refreshed.
type CredentialProvider struct {
	cfg        Configuration
	prompt     PromptSink
	httpClient *http.Client
	logger     *zap.SugaredLogger
	metrics    *metrics.Recorder

	// mu serializes exchanges so concurrent callers never see two prompts for one scope set.
	mu       sync.Mutex
	endpoint *oauth2.Endpoint
	sources  map[string]oauth2.TokenSource
	ready    bool
}

type ProviderOption func(*CredentialProvider)

// WithHTTPClient sets the client used to talk to the identity provider.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *CredentialProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) ProviderOption {
	return func(p *CredentialProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(recorder *metrics.Recorder) ProviderOption {
	return func(p *CredentialProvider) {
		p.metrics = recorder
	}
}

// NewCredentialProvider validates cfg and returns a provider. It does not contact the
// identity provider; the first GetToken does.
func NewCredentialProvider(cfg Configuration, prompt PromptSink, opts ...ProviderOption) (*CredentialProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, fmt.Errorf("%w: a device code prompt is required", ErrConfig)
	}
	p := &CredentialProvider{
		cfg:        cfg.clone(),
		prompt:     prompt,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop().Sugar(),
		sources:    map[string]oauth2.TokenSource{},
		ready:      true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Configuration returns a copy of the provider configuration.
func (p *CredentialProvider) Configuration() Configuration {
	return p.cfg.clone()
}

// GetToken returns an access token for scopes. A valid token for the same scope set is
// served from memory; otherwise a new device-code exchange prompts the user once and polls
// until sign-in completes, the code expires (ErrAuthTimeout) or ctx is done.
func (p *CredentialProvider) GetToken(ctx context.Context, scopes []string) (Token, error) {
	if p == nil || !p.ready {
		return Token{}, ErrProviderUninitialized
	}
	requested, key, err := normalizeScopes(scopes)
	if err != nil {
		return Token{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if src, ok := p.sources[key]; ok {
		tok, err := src.Token()
		if err == nil && tok.Valid() {
			p.metrics.ObserveToken("cached")
			return newToken(tok), nil
		}
		p.logger.Debugw("Cached token unusable, starting a new device code exchange", "scopes", key, "error", err)
		delete(p.sources, key)
	}

	tok, src, err := p.exchange(ctx, requested)
	if err != nil {
		p.metrics.ObserveToken("error")
		return Token{}, err
	}
	p.sources[key] = src
	p.metrics.ObserveToken("exchanged")
	p.logger.Debugw("Acquired token", "scopes", key, "token", newToken(tok))
	return newToken(tok), nil
}

func (p *CredentialProvider) exchange(ctx context.Context, scopes []string) (*oauth2.Token, oauth2.TokenSource, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	endpoint, err := p.resolveEndpoint(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("device code login interrupted: %w", ctxErr)
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	conf := &oauth2.Config{
		ClientID: p.cfg.ClientID,
		Endpoint: endpoint,
		Scopes:   scopes,
	}

	da, err := conf.DeviceAuth(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("device code login interrupted: %w", ctxErr)
		}
		return nil, nil, fmt.Errorf("%w: device authorization failed: %s", ErrAuth, describeOAuthError(err))
	}

	prompt := DeviceCodePrompt{
		VerificationURI:         da.VerificationURI,
		VerificationURIComplete: da.VerificationURIComplete,
		UserCode:                da.UserCode,
	}
	if !da.Expiry.IsZero() {
		prompt.ExpiresIn = time.Until(da.Expiry).Round(time.Second)
	}
	p.metrics.ObservePrompt()
	if err := p.prompt.Show(ctx, prompt); err != nil {
		return nil, nil, fmt.Errorf("%w: device code prompt failed: %w", ErrAuth, err)
	}
	p.logger.Debugw("Waiting for device code sign-in", "scopes", strings.Join(scopes, " "), "interval", da.Interval)

	pollCtx := ctx
	if !da.Expiry.IsZero() {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithDeadline(ctx, da.Expiry)
		defer cancel()
	}
	tok, err := conf.DeviceAccessToken(pollCtx, da)
	if err != nil {
		return nil, nil, classifyPollError(ctx, da, err)
	}
	// Refreshes happen on later calls, after this request's context is gone.
	src := conf.TokenSource(context.WithoutCancel(ctx), tok)
	return tok, src, nil
}

func classifyPollError(ctx context.Context, da *oauth2.DeviceAuthResponse, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("device code login interrupted: %w", ctxErr)
	}
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		switch rErr.ErrorCode {
		case "expired_token", "code_expired":
			return fmt.Errorf("%w: %s", ErrAuthTimeout, describeOAuthError(err))
		}
		return fmt.Errorf("%w: %s", ErrAuth, describeOAuthError(err))
	}
	expired := !da.Expiry.IsZero() && !time.Now().Before(da.Expiry)
	if errors.Is(err, context.DeadlineExceeded) || expired {
		return ErrAuthTimeout
	}
	return fmt.Errorf("%w: %w", ErrAuth, err)
}

func describeOAuthError(err error) string {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) || rErr.ErrorCode == "" {
		return err.Error()
	}
	if rErr.ErrorDescription != "" {
		return rErr.ErrorCode + ": " + rErr.ErrorDescription
	}
	return rErr.ErrorCode
}
