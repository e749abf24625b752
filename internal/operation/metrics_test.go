package operation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/soarbridge/internal/operation/transport"
)

// stubTransport returns a fixed response and error.
type stubTransport struct {
	resp *transport.Response
	err  error
}

func (s *stubTransport) Execute(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return s.resp, s.err
}

func (s *stubTransport) Name() string { return "stub" }

func (s *stubTransport) SetRateLimiter(limiter transport.RateLimiter) {}

func TestMetrics_RecordCommand(t *testing.T) {
	m := NewMetrics()

	m.RecordCommand("scim-prod", "iam", "iam-disable-user", OutcomeSuccess, 120*time.Millisecond)
	m.RecordCommand("scim-prod", "iam", "iam-disable-user", OutcomeSuccess, 80*time.Millisecond)
	m.RecordCommand("scim-prod", "iam", "iam-disable-user", OutcomeFailed, 10*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.commands.WithLabelValues("scim-prod", "iam", "iam-disable-user", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.commands.WithLabelValues("scim-prod", "iam", "iam-disable-user", OutcomeFailed)))
	assert.Greater(t, testutil.ToFloat64(m.lastRun.WithLabelValues("scim-prod", "iam-disable-user")), float64(0))
}

func TestMetrics_Instrument(t *testing.T) {
	m := NewMetrics()

	ok := m.Instrument("rank", &stubTransport{resp: &transport.Response{StatusCode: 200}})
	_, err := ok.Execute(context.Background(), &transport.Request{Method: "GET", URL: "https://example.com"})
	require.NoError(t, err)

	failing := m.Instrument("rank", &stubTransport{err: &transport.TransportError{Type: transport.ErrorTypeAuth, StatusCode: 403}})
	_, err = failing.Execute(context.Background(), &transport.Request{Method: "GET", URL: "https://example.com"})
	require.Error(t, err)

	offline := m.Instrument("rank", &stubTransport{err: &transport.TransportError{Type: transport.ErrorTypeConnection}})
	_, _ = offline.Execute(context.Background(), &transport.Request{Method: "GET", URL: "https://example.com"})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.vendorRequests.WithLabelValues("rank", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.vendorRequests.WithLabelValues("rank", "403")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.vendorRequests.WithLabelValues("rank", "0")))
	assert.Equal(t, "stub", ok.Name())
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordCommand("penfield", "assignee", "penfield-get-assignee", OutcomeSuccess, time.Second)

	path := filepath.Join(t.TempDir(), "soarbridge.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `soarbridge_commands_total{command="penfield-get-assignee",instance="penfield",outcome="success",vendor="assignee"} 1`), text)
	assert.Contains(t, text, "soarbridge_command_duration_seconds_bucket")
}
