package operation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/operation/transport"
)

func testInstance(auth config.AuthConfig, secret string) *config.InstanceConfig {
	inst := &config.InstanceConfig{
		Name:    "test",
		BaseURL: "https://api.example.com",
		Timeout: 10 * time.Second,
		Auth:    auth,
	}
	return inst.WithSecret(secret)
}

func TestTransportConfigFor_HTTP(t *testing.T) {
	tests := []struct {
		name     string
		auth     config.AuthConfig
		opts     TransportOptions
		wantAuth *transport.AuthConfig
	}{
		{
			name:     "adapter default bearer",
			opts:     TransportOptions{DefaultAuth: config.AuthBearer},
			wantAuth: &transport.AuthConfig{Type: transport.AuthBearer, Token: "s3cret"},
		},
		{
			name:     "no default falls back to bearer",
			wantAuth: &transport.AuthConfig{Type: transport.AuthBearer, Token: "s3cret"},
		},
		{
			name:     "api key adapter header",
			opts:     TransportOptions{DefaultAuth: config.AuthAPIKey, APIKeyHeader: "x-api-key"},
			wantAuth: &transport.AuthConfig{Type: transport.AuthAPIKey, HeaderName: "x-api-key", HeaderValue: "s3cret"},
		},
		{
			name:     "api key instance header wins",
			auth:     config.AuthConfig{Type: config.AuthAPIKey, Header: "Authorization"},
			opts:     TransportOptions{APIKeyHeader: "x-api-key"},
			wantAuth: &transport.AuthConfig{Type: transport.AuthAPIKey, HeaderName: "Authorization", HeaderValue: "s3cret"},
		},
		{
			name:     "basic",
			auth:     config.AuthConfig{Type: config.AuthBasic, Username: "svc"},
			wantAuth: &transport.AuthConfig{Type: transport.AuthBasic, Username: "svc", Password: "s3cret"},
		},
		{
			name: "none",
			auth: config.AuthConfig{Type: config.AuthNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := TransportConfigFor(testInstance(tt.auth, "s3cret"), tt.opts)
			require.NoError(t, err)

			httpCfg, ok := tc.(*transport.HTTPTransportConfig)
			require.True(t, ok, "expected HTTP config, got %T", tc)
			assert.Equal(t, "https://api.example.com", httpCfg.BaseURL)
			assert.Equal(t, 10*time.Second, httpCfg.Timeout)
			assert.Equal(t, tt.wantAuth, httpCfg.Auth)
		})
	}
}

func TestTransportConfigFor_OAuth2(t *testing.T) {
	inst := testInstance(config.AuthConfig{
		Type:     config.AuthOAuth2,
		TokenURL: "https://auth.example.com/token",
		ClientID: "client",
		Scopes:   []string{"scim"},
	}, "client-secret")

	tc, err := TransportConfigFor(inst, TransportOptions{Headers: map[string]string{"Accept": "application/json"}})
	require.NoError(t, err)

	oauthCfg, ok := tc.(*transport.OAuth2TransportConfig)
	require.True(t, ok)
	assert.Equal(t, "client", oauthCfg.ClientID)
	assert.Equal(t, "client-secret", oauthCfg.ClientSecret)
	assert.Equal(t, []string{"scim"}, oauthCfg.Scopes)
	assert.Equal(t, "application/json", oauthCfg.Headers["Accept"])
}

func TestTransportConfigFor_AWS(t *testing.T) {
	t.Run("static credentials", func(t *testing.T) {
		inst := testInstance(config.AuthConfig{Type: config.AuthAWS, Region: "us-east-1"}, "AKID:SECRET")

		tc, err := TransportConfigFor(inst, TransportOptions{})
		require.NoError(t, err)

		awsCfg, ok := tc.(*transport.AWSTransportConfig)
		require.True(t, ok)
		assert.Equal(t, "execute-api", awsCfg.Service)
		assert.Equal(t, "AKID", awsCfg.AccessKeyID)
		assert.Equal(t, "SECRET", awsCfg.SecretAccessKey)
	})

	t.Run("malformed credentials", func(t *testing.T) {
		inst := testInstance(config.AuthConfig{Type: config.AuthAWS, Region: "us-east-1"}, "no-colon")

		_, err := TransportConfigFor(inst, TransportOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ACCESS_KEY_ID:SECRET_ACCESS_KEY")
	})
}

func TestNewTransport_RateLimit(t *testing.T) {
	inst := testInstance(config.AuthConfig{}, "token")
	inst.RateLimit = &config.RateLimitConfig{RequestsPerSecond: 5, Burst: 2}

	tr, err := NewTransport(context.Background(), transport.NewDefaultRegistry(), inst, TransportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "http", tr.Name())
}

func TestNewTransport_MissingSecret(t *testing.T) {
	inst := testInstance(config.AuthConfig{Type: config.AuthBearer}, "")

	_, err := NewTransport(context.Background(), transport.NewDefaultRegistry(), inst, TransportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

type identityTransport struct {
	transport.Transport
}

func (identityTransport) VerifyIdentity(ctx context.Context) (string, error) {
	return "arn:aws:iam::123456789012:user/soar", nil
}

func TestAsIdentityVerifier(t *testing.T) {
	metrics := NewMetrics()

	wrapped := metrics.Instrument("test", identityTransport{})
	v, ok := AsIdentityVerifier(wrapped)
	require.True(t, ok)
	id, err := v.VerifyIdentity(context.Background())
	require.NoError(t, err)
	assert.Contains(t, id, "user/soar")

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{BaseURL: "https://api.example.com"})
	require.NoError(t, err)
	_, ok = AsIdentityVerifier(metrics.Instrument("test", tr))
	assert.False(t, ok)
}
