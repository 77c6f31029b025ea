package monitoring

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"churnguard/inference"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readResult(t *testing.T, conn *websocket.Conn) inference.Result {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, PredictionMessage, msg.Type)

	var r inference.Result
	require.NoError(t, json.Unmarshal(msg.Data, &r))
	return r
}

func TestHubBroadcastsPublishedResults(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(inference.Result{Label: 1, Probability: 0.75})
	got := readResult(t, conn)
	assert.Equal(t, 1, got.Label)
	assert.InDelta(t, 0.75, got.Probability, 1e-9)
}

func TestHubSendsLatestOnConnect(t *testing.T) {
	cache := inference.NewCache()
	cache.Store(inference.Result{Label: 0, Probability: 0.25})

	hub := NewHub(cache.Latest, zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	got := readResult(t, dial(t, srv))
	assert.Equal(t, 0, got.Label)
	assert.InDelta(t, 0.25, got.Probability, 1e-9)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservePrediction(inference.Result{Label: 1, Probability: 0.9}, time.Millisecond)
	m.ObservePrediction(inference.Result{Label: 0, Probability: 0.2}, time.Millisecond)
	m.ObserveDefaulted([]string{"Contract", "Contract"})
	m.ObserveError("empty_input")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("0")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.defaulted.WithLabelValues("Contract")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("empty_input")))
	assert.Equal(t, 0.2, testutil.ToFloat64(m.latest))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}
