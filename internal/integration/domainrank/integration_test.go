package domainrank

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/operation/transport"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// mockTransport answers every request with one canned response and records
// what was sent.
type mockTransport struct {
	response *transport.Response
	err      error
	requests []*transport.Request
}

func (m *mockTransport) Execute(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	m.requests = append(m.requests, req)
	return m.response, m.err
}

func (m *mockTransport) Name() string {
	return "mock"
}

func (m *mockTransport) SetRateLimiter(limiter transport.RateLimiter) {
	// no-op for mock
}

func rankBody(dataURL, rank string) []byte {
	traffic := `"DataUrl":"` + dataURL + `"`
	if rank != "" {
		traffic += `,"Rank":"` + rank + `"`
	}
	return []byte(`{"Awis":{"Results":{"Result":{"Alexa":{"TrafficData":{` + traffic + `}}}}}}`)
}

func newTestIntegration(t *testing.T, mt *mockTransport, params config.Params) *DomainRankIntegration {
	t.Helper()
	if params == nil {
		params = config.Params{"benign": 100, "threshold": 1000}
	}
	p, err := NewDomainRankIntegration(&api.ProviderConfig{
		Transport: mt,
		Instance: &config.InstanceConfig{
			Name:    "alexa",
			Type:    "domainrank",
			BaseURL: "https://awis.example.com/api",
			Params:  params,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p.(*DomainRankIntegration)
}

func TestNewDomainRankIntegration_Params(t *testing.T) {
	tests := []struct {
		name    string
		params  config.Params
		wantErr string
	}{
		{name: "valid", params: config.Params{"benign": 0, "threshold": "1000"}},
		{name: "missing benign", params: config.Params{"threshold": 10}, wantErr: "benign is required"},
		{name: "negative threshold", params: config.Params{"benign": 1, "threshold": -5}, wantErr: "threshold must be a non-negative number"},
		{name: "non numeric", params: config.Params{"benign": "lots", "threshold": 1}, wantErr: "not a number"},
		{name: "bad reliability", params: config.Params{"benign": 1, "threshold": 1, "reliability": "Z"}, wantErr: "valid value for the Source Reliability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDomainRankIntegration(&api.ProviderConfig{
				Transport: &mockTransport{},
				Instance: &config.InstanceConfig{
					BaseURL: "https://awis.example.com/api",
					Params:  tt.params,
				},
			})
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
			if !soarerrors.IsConfig(err) {
				t.Errorf("expected a config error, got %T", err)
			}
		})
	}
}

func TestDomain_Request(t *testing.T) {
	mt := &mockTransport{response: &transport.Response{StatusCode: 200, Body: rankBody("example.com", "42")}}
	c := newTestIntegration(t, mt, nil)

	if _, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": "example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mt.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(mt.requests))
	}
	req := mt.requests[0]
	if req.Method != "GET" {
		t.Errorf("expected GET, got %s", req.Method)
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("bad URL: %v", err)
	}
	if u.Path != "/api" {
		t.Errorf("unexpected path %s", u.Path)
	}
	q := u.Query()
	for key, want := range map[string]string{"Action": "UrlInfo", "ResponseGroup": "Rank", "Url": "example.com", "Output": "json"} {
		if got := q.Get(key); got != want {
			t.Errorf("query %s = %q, want %q", key, got, want)
		}
	}
}

func TestDomain_Scores(t *testing.T) {
	tests := []struct {
		name      string
		rank      string
		wantScore operation.Score
		wantRank  interface{}
	}{
		{name: "popular", rank: "42", wantScore: operation.ScoreGood, wantRank: "42"},
		{name: "middle", rank: "500", wantScore: operation.ScoreNone, wantRank: "500"},
		{name: "obscure", rank: "5000", wantScore: operation.ScoreSuspicious, wantRank: "5000"},
		{name: "no rank", rank: "", wantScore: operation.ScoreNone, wantRank: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := &mockTransport{response: &transport.Response{StatusCode: 200, Body: rankBody("example.com", tt.rank)}}
			c := newTestIntegration(t, mt, nil)

			result, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": "example.com"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(result.Entries))
			}
			entry := result.Entries[0]

			if entry.Indicator == nil {
				t.Fatal("expected indicator")
			}
			if entry.Indicator.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", entry.Indicator.Score, tt.wantScore)
			}
			if entry.Indicator.Type != operation.IndicatorDomain {
				t.Errorf("indicator type = %s", entry.Indicator.Type)
			}
			if entry.Indicator.Reliability != operation.ReliabilityA {
				t.Errorf("reliability = %s", entry.Indicator.Reliability)
			}

			outputs := entry.Outputs.(map[string]interface{})
			if outputs["Rank"] != tt.wantRank {
				t.Errorf("Rank = %v, want %v", outputs["Rank"], tt.wantRank)
			}
			if outputs["Name"] != "example.com" {
				t.Errorf("Name = %v", outputs["Name"])
			}
			if entry.OutputsPrefix != OutputsPrefix || entry.OutputsKeyField != "Name" {
				t.Errorf("unexpected prefix/key %s/%s", entry.OutputsPrefix, entry.OutputsKeyField)
			}
			if !strings.Contains(entry.ReadableOutput, "Alexa Rank for example.com") {
				t.Errorf("readable output missing title: %s", entry.ReadableOutput)
			}
			if !strings.Contains(entry.ReadableOutput, tt.wantScore.Verdict()) {
				t.Errorf("readable output missing verdict: %s", entry.ReadableOutput)
			}
		})
	}
}

func TestDomain_MultipleDomains(t *testing.T) {
	mt := &mockTransport{response: &transport.Response{StatusCode: 200, Body: rankBody("", "7")}}
	c := newTestIntegration(t, mt, nil)

	result, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": "a.com, b.com,c.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(result.Entries))
	}
	if len(mt.requests) != 3 {
		t.Errorf("expected 3 requests, got %d", len(mt.requests))
	}
	for i, want := range []string{"a.com", "b.com", "c.com"} {
		entry := result.Entries[i]
		if entry.Indicator.Indicator != want {
			t.Errorf("entry %d indicator = %s, want %s", i, entry.Indicator.Indicator, want)
		}
		if entry.Indicator.Score != operation.ScoreGood {
			t.Errorf("entry %d score = %d", i, entry.Indicator.Score)
		}
	}
}

func TestDomain_Errors(t *testing.T) {
	t.Run("no domain", func(t *testing.T) {
		mt := &mockTransport{}
		c := newTestIntegration(t, mt, nil)
		_, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": " , "})
		if !operation.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if len(mt.requests) != 0 {
			t.Error("no request should be sent")
		}
	})

	t.Run("url not found", func(t *testing.T) {
		mt := &mockTransport{response: &transport.Response{StatusCode: 200, Body: rankBody("404", "")}}
		c := newTestIntegration(t, mt, nil)
		_, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": "nope.invalid"})
		if !errors.Is(err, ErrURLNotFound) {
			t.Fatalf("expected ErrURLNotFound, got %v", err)
		}
	})

	t.Run("negative rank", func(t *testing.T) {
		mt := &mockTransport{response: &transport.Response{StatusCode: 200, Body: rankBody("x.com", "-3")}}
		c := newTestIntegration(t, mt, nil)
		_, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": "x.com"})
		if !soarerrors.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("non numeric rank", func(t *testing.T) {
		mt := &mockTransport{response: &transport.Response{StatusCode: 200, Body: rankBody("x.com", "n/a")}}
		c := newTestIntegration(t, mt, nil)
		_, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": "x.com"})
		var opErr *operation.Error
		if !errors.As(err, &opErr) || opErr.Type != operation.ErrorTypeTransform {
			t.Fatalf("expected transform error, got %v", err)
		}
		if !strings.Contains(opErr.Message, `rank "n/a" is not a number`) {
			t.Errorf("unexpected message %q", opErr.Message)
		}
	})

	t.Run("vendor status", func(t *testing.T) {
		mt := &mockTransport{err: &transport.TransportError{
			Type:       transport.ErrorTypeServer,
			StatusCode: 503,
			Message:    "HTTP 503",
			Body:       []byte("maintenance"),
		}}
		c := newTestIntegration(t, mt, nil)
		_, err := c.Execute(context.Background(), "domain", map[string]interface{}{"domain": "x.com"})
		var opErr *operation.Error
		if !errors.As(err, &opErr) {
			t.Fatalf("expected operation.Error, got %T", err)
		}
		if opErr.StatusCode != 503 || opErr.Message != "maintenance" {
			t.Errorf("unexpected error %+v", opErr)
		}
	})
}

func TestTestModule(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		mt := &mockTransport{response: &transport.Response{StatusCode: 200, Body: rankBody("google.com", "1")}}
		c := newTestIntegration(t, mt, nil)
		result, err := c.Execute(context.Background(), "test-module", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Entries[0].ReadableOutput != "ok" {
			t.Errorf("expected ok, got %q", result.Entries[0].ReadableOutput)
		}
		if !strings.Contains(mt.requests[0].URL, "Url=google.com") {
			t.Errorf("expected google.com lookup, got %s", mt.requests[0].URL)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		mt := &mockTransport{err: &transport.TransportError{
			Type:       transport.ErrorTypeAuth,
			StatusCode: 403,
			Message:    "HTTP 403",
			Body:       []byte(`{"message":"Forbidden"}`),
		}}
		c := newTestIntegration(t, mt, nil)
		_, err := c.Execute(context.Background(), "test-module", nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "Authorization Error: make sure API Key is correctly set") {
			t.Errorf("unexpected error: %v", err)
		}
		if !strings.Contains(err.Error(), "403") {
			t.Errorf("status code missing from %v", err)
		}
	})
}

func TestExecute_UnknownCommand(t *testing.T) {
	mt := &mockTransport{}
	c := newTestIntegration(t, mt, nil)

	_, err := c.Execute(context.Background(), "ip", nil)
	if !errors.Is(err, operation.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if len(mt.requests) != 0 {
		t.Error("unknown command must not reach the vendor")
	}
}

func TestOperations(t *testing.T) {
	c := newTestIntegration(t, &mockTransport{}, nil)
	for _, op := range c.Operations() {
		if c.OperationSchema(op.Name) == nil {
			t.Errorf("missing schema for %s", op.Name)
		}
	}
	if c.OperationSchema("nope") != nil {
		t.Error("expected nil schema for unknown command")
	}
}
