package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telekom/graphctl/pkg/graphctl/authtest"
	"github.com/telekom/graphctl/pkg/graphctl/config"
)

type cliEnv struct {
	idp        *authtest.IdP
	graph      *httptest.Server
	dir        string
	configPath string
	input      string

	mu       sync.Mutex
	photo    []byte
	sentMail []byte
}

func clearGraphctlEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvConfig, config.EnvClientID, config.EnvTenantID, config.EnvScopes,
		config.EnvAuthority, config.EnvGraphEndpoint,
		"GRAPHCTL_OUTPUT", "GRAPHCTL_VERBOSE", "GRAPHCTL_NON_INTERACTIVE",
	} {
		t.Setenv(key, "")
	}
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	clearGraphctlEnv(t)
	env := &cliEnv{idp: authtest.NewIdP(t), dir: t.TempDir(), photo: []byte("remote-photo")}
	env.graph = httptest.NewServer(http.HandlerFunc(env.handleGraph))
	t.Cleanup(env.graph.Close)

	env.configPath = filepath.Join(env.dir, "config.yaml")
	cfg := config.DefaultConfig()
	cfg.ClientID = "client-id"
	cfg.TenantID = "tenant-id"
	cfg.Authority = env.idp.URL()
	cfg.GraphEndpoint = env.graph.URL
	cfg.ArtifactsDir = filepath.Join(env.dir, "artifacts")
	require.NoError(t, config.Save(env.configPath, &cfg))
	return env
}

func (e *cliEnv) handleGraph(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w.Header().Set("request-id", "graph-request-id")
	switch {
	case r.URL.Path == "/me":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"displayName":"Adele Vance","mail":"adele@contoso.com","userPrincipalName":"adele@contoso.onmicrosoft.com"}`)
	case r.URL.Path == "/me/mailFolders/inbox/messages":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"value": []map[string]any{
			{"subject": "Older", "isRead": true, "receivedDateTime": "2024-03-01T10:00:00Z",
				"from": map[string]any{"emailAddress": map[string]string{"name": "Alex Wilber"}}},
			{"subject": "Newer", "isRead": false, "receivedDateTime": "2024-03-01T11:00:00Z"},
		}})
	case r.URL.Path == "/me/sendMail" && r.Method == http.MethodPost:
		e.sentMail, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	case r.URL.Path == "/me/photo/$value" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(e.photo)
	case r.URL.Path == "/me/photo/$value" && r.Method == http.MethodPut:
		e.photo, _ = io.ReadAll(r.Body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cfg := Config{
		ConfigPath:   e.configPath,
		OutputWriter: &out,
		ErrWriter:    &errOut,
		InputReader:  strings.NewReader(e.input),
	}
	if e.idp != nil {
		cfg.HTTPClient = e.idp.Client()
	}
	err := Execute(cfg, args)
	return out.String(), errOut.String(), err
}
