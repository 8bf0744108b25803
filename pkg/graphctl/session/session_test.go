package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
	"github.com/telekom/graphctl/pkg/graphctl/authtest"
	"github.com/telekom/graphctl/pkg/graphctl/client"
	"github.com/telekom/graphctl/pkg/system"
)

type countingPrompt struct {
	calls atomic.Int32
}

func (c *countingPrompt) Show(context.Context, auth.DeviceCodePrompt) error {
	c.calls.Add(1)
	return nil
}

func testConfig(idp *authtest.IdP) auth.Configuration {
	return auth.Configuration{
		ClientID:  "client-id",
		TenantID:  "tenant-id",
		Scopes:    []string{"user.read", "mail.read", "mail.send"},
		Authority: idp.URL(),
	}
}

func TestSessionNotInitialized(t *testing.T) {
	s := New()

	assert.False(t, s.Initialized())
	assert.Nil(t, s.Scopes())

	_, err := s.UserToken(context.Background())
	require.ErrorIs(t, err, ErrSessionNotInitialized)

	_, err = s.Token(context.Background())
	require.ErrorIs(t, err, ErrSessionNotInitialized)

	_, err = s.Client()
	require.ErrorIs(t, err, ErrSessionNotInitialized)
}

func TestInitializeForUserAuth_InvalidConfigKeepsState(t *testing.T) {
	idp := authtest.NewIdP(t)
	s := New(WithHTTPClient(idp.Client()))

	err := s.InitializeForUserAuth(auth.Configuration{TenantID: "tenant", Scopes: []string{"user.read"}}, &countingPrompt{})
	require.ErrorIs(t, err, auth.ErrConfig)
	assert.False(t, s.Initialized())

	require.NoError(t, s.InitializeForUserAuth(testConfig(idp), &countingPrompt{}))
	c, err := s.Client()
	require.NoError(t, err)

	err = s.InitializeForUserAuth(auth.Configuration{ClientID: "x", TenantID: "y"}, &countingPrompt{})
	require.ErrorIs(t, err, auth.ErrConfig)

	again, err := s.Client()
	require.NoError(t, err)
	assert.Same(t, c, again, "failed re-initialization must not replace the client")
	assert.Equal(t, []string{"user.read", "mail.read", "mail.send"}, s.Scopes())
}

func TestInitializeForUserAuth_NoNetwork(t *testing.T) {
	idp := authtest.NewIdP(t)
	prompt := &countingPrompt{}
	s := New(WithHTTPClient(idp.Client()))

	require.NoError(t, s.InitializeForUserAuth(testConfig(idp), prompt))
	assert.True(t, s.Initialized())
	assert.Zero(t, idp.TotalCalls.Load())
	assert.Zero(t, prompt.calls.Load())
}

func TestUserToken(t *testing.T) {
	idp := authtest.NewIdP(t)
	prompt := &countingPrompt{}
	s := New(WithHTTPClient(idp.Client()), WithLogger(system.NewTestLogger()))
	require.NoError(t, s.InitializeForUserAuth(testConfig(idp), prompt))

	tok, err := s.UserToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-token-value", tok)
	assert.Equal(t, "user.read mail.read mail.send", idp.LastScope())

	full, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, full.Value)
	assert.Equal(t, int32(1), prompt.calls.Load(), "second call is served from cache")
}

func TestUserToken_PropagatesAuthErrors(t *testing.T) {
	idp := authtest.NewIdP(t)
	idp.PollError = "access_denied"
	s := New(WithHTTPClient(idp.Client()))
	require.NoError(t, s.InitializeForUserAuth(testConfig(idp), &countingPrompt{}))

	_, err := s.UserToken(context.Background())
	require.ErrorIs(t, err, auth.ErrAuth)
}

func TestClientAuthenticatesRequests(t *testing.T) {
	idp := authtest.NewIdP(t)
	var gotAuth atomic.Value
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer graph.Close()

	prompt := &countingPrompt{}
	s := New(WithHTTPClient(idp.Client()), WithClientOptions(client.WithBaseURL(graph.URL)))
	require.NoError(t, s.InitializeForUserAuth(testConfig(idp), prompt))
	assert.Zero(t, idp.TotalCalls.Load())

	c, err := s.Client()
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = c.Do(context.Background(), client.Request{Path: "/me"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer access-token-value", gotAuth.Load())
	}
	assert.Equal(t, int32(1), prompt.calls.Load())
}

func TestConcurrentInitialization(t *testing.T) {
	idp := authtest.NewIdP(t)
	s := New(WithHTTPClient(idp.Client()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.InitializeForUserAuth(testConfig(idp), &countingPrompt{}))
			_, _ = s.Client()
			_ = s.Scopes()
		}()
	}
	wg.Wait()
	assert.True(t, s.Initialized())
}

type stubSource struct {
	token auth.Token
	err   error
	calls atomic.Int32
	seen  []string
}

func (s *stubSource) GetToken(_ context.Context, scopes []string) (auth.Token, error) {
	s.calls.Add(1)
	s.seen = scopes
	return s.token, s.err
}

func TestWithAuth(t *testing.T) {
	src := &stubSource{token: auth.Token{Value: "abc"}}
	scopes := []string{"user.read"}
	decorate := WithAuth(src, scopes)
	scopes[0] = "mutated"

	req := resty.New().R().SetContext(context.Background())
	require.NoError(t, decorate(req))
	assert.Equal(t, "abc", req.Token)
	assert.Equal(t, []string{"user.read"}, src.seen)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestWithAuth_Error(t *testing.T) {
	sentinel := errors.New("boom")
	decorate := WithAuth(&stubSource{err: sentinel}, []string{"user.read"})

	req := resty.New().R()
	require.ErrorIs(t, decorate(req), sentinel)
	assert.Empty(t, req.Token)
}
