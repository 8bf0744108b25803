package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderObserveRequest(t *testing.T) {
	r := NewRecorder()

	r.ObserveRequest("inbox", 200, 20*time.Millisecond)
	r.ObserveRequest("inbox", 200, 30*time.Millisecond)
	r.ObserveRequest("sendMail", 0, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.GraphRequests.WithLabelValues("inbox", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.GraphRequests.WithLabelValues("sendMail", "none")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.GraphDuration))
}

func TestRecorderTokenAndPrompt(t *testing.T) {
	r := NewRecorder()

	r.ObservePrompt()
	r.ObserveToken("exchanged")
	r.ObserveToken("cached")
	r.ObserveToken("cached")

	assert.Equal(t, float64(1), testutil.ToFloat64(r.DeviceCodePrompts))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.TokenAcquisitions.WithLabelValues("cached")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObservePrompt()
	r.ObserveToken("cached")
	r.ObserveRequest("me", 200, time.Second)
	require.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRequest("me", 200, time.Millisecond)

	path := filepath.Join(t.TempDir(), "graphctl.prom")
	require.NoError(t, r.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `graphctl_graph_requests_total{code="200",operation="me"} 1`)
}
