// Package authtest provides an in-memory OAuth 2.0 identity provider for tests that need
// to run the device authorization grant end to end.
package authtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const (
	UserCode        = "ABCD-EFGH"
	VerificationURI = "https://microsoft.com/devicelogin"
)

// IdP serves OIDC discovery, device authorization and a token endpoint. Point
// auth.Configuration.Authority at URL(). Fields must be set before the first request.
type IdP struct {
	server *httptest.Server

	// PendingPolls is the number of token polls answered with authorization_pending.
	PendingPolls int32
	// PollError, when set, is returned as the OAuth error of every device code poll.
	PollError   string
	ExpiresIn   int
	TokenTTL    int
	AccessToken string

	DeviceCalls atomic.Int32
	TokenCalls  atomic.Int32
	TotalCalls  atomic.Int32
	lastScope   atomic.Value
}

func NewIdP(t testing.TB) *IdP {
	t.Helper()
	idp := &IdP{ExpiresIn: 60, TokenTTL: 3600, AccessToken: "access-token-value"}
	idp.server = httptest.NewServer(http.HandlerFunc(idp.handle))
	t.Cleanup(idp.server.Close)
	return idp
}

func (f *IdP) URL() string {
	return f.server.URL
}

func (f *IdP) Client() *http.Client {
	return f.server.Client()
}

// LastScope returns the scope parameter of the most recent device authorization request.
func (f *IdP) LastScope() string {
	s, _ := f.lastScope.Load().(string)
	return s
}

func (f *IdP) handle(w http.ResponseWriter, r *http.Request) {
	f.TotalCalls.Add(1)
	// x/oauth2 parses form-encoded bodies unless told otherwise.
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/.well-known/openid-configuration":
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                        f.server.URL,
			"authorization_endpoint":        f.server.URL + "/authorize",
			"token_endpoint":                f.server.URL + "/token",
			"device_authorization_endpoint": f.server.URL + "/device",
			"jwks_uri":                      f.server.URL + "/keys",
		})
	case "/device":
		f.DeviceCalls.Add(1)
		_ = r.ParseForm()
		f.lastScope.Store(r.PostForm.Get("scope"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"device_code":      "device-code",
			"user_code":        UserCode,
			"verification_uri": VerificationURI,
			"expires_in":       f.ExpiresIn,
			"interval":         1,
		})
	case "/token":
		call := f.TokenCalls.Add(1)
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") == "urn:ietf:params:oauth:grant-type:device_code" {
			if f.PollError != "" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": f.PollError})
				return
			}
			if call <= f.PendingPolls {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": f.AccessToken,
			"token_type":   "Bearer",
			"expires_in":   f.TokenTTL,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
