package operation

import (
	"context"
	"fmt"
	"strings"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/operation/transport"
)

// TransportOptions are adapter defaults applied when building a transport.
type TransportOptions struct {
	// DefaultAuth is used when the instance leaves auth.type empty
	DefaultAuth string

	// APIKeyHeader is the header name used for api_key auth when the
	// instance does not set auth.header
	APIKeyHeader string

	// Headers are sent with every request
	Headers map[string]string
}

// TransportConfigFor converts an instance configuration into the
// transport configuration matching its auth type. The instance secret must
// already be resolved.
func TransportConfigFor(inst *config.InstanceConfig, opts TransportOptions) (transport.TransportConfig, error) {
	client := transport.ClientOptions{
		Timeout:     inst.Timeout,
		TLSInsecure: inst.Insecure,
		Proxy:       inst.Proxy,
	}

	authType := inst.Auth.Type
	if authType == "" {
		authType = opts.DefaultAuth
	}
	if authType == "" {
		authType = config.AuthBearer
	}
	secret := inst.Secret()

	switch authType {
	case config.AuthOAuth2:
		return &transport.OAuth2TransportConfig{
			BaseURL:       inst.BaseURL,
			ClientID:      inst.Auth.ClientID,
			ClientSecret:  secret,
			TokenURL:      inst.Auth.TokenURL,
			Scopes:        inst.Auth.Scopes,
			Headers:       opts.Headers,
			ClientOptions: client,
		}, nil

	case config.AuthAWS:
		awsCfg := &transport.AWSTransportConfig{
			BaseURL:       inst.BaseURL,
			Service:       inst.Auth.Service,
			Region:        inst.Auth.Region,
			Headers:       opts.Headers,
			ClientOptions: client,
		}
		if awsCfg.Service == "" {
			awsCfg.Service = "execute-api"
		}
		if secret != "" {
			keyID, secretKey, ok := strings.Cut(secret, ":")
			if !ok {
				return nil, fmt.Errorf("aws credentials must have the form ACCESS_KEY_ID:SECRET_ACCESS_KEY")
			}
			awsCfg.AccessKeyID = keyID
			awsCfg.SecretAccessKey = secretKey
		}
		return awsCfg, nil
	}

	httpCfg := &transport.HTTPTransportConfig{
		BaseURL:       inst.BaseURL,
		Headers:       opts.Headers,
		ClientOptions: client,
	}

	switch authType {
	case config.AuthNone:
	case config.AuthBearer:
		httpCfg.Auth = &transport.AuthConfig{Type: transport.AuthBearer, Token: secret}
	case config.AuthBasic:
		httpCfg.Auth = &transport.AuthConfig{Type: transport.AuthBasic, Username: inst.Auth.Username, Password: secret}
	case config.AuthAPIKey:
		header := inst.Auth.Header
		if header == "" {
			header = opts.APIKeyHeader
		}
		if header == "" {
			header = "x-api-key"
		}
		httpCfg.Auth = &transport.AuthConfig{Type: transport.AuthAPIKey, HeaderName: header, HeaderValue: secret}
	default:
		return nil, fmt.Errorf("unsupported auth type %q", authType)
	}

	return httpCfg, nil
}

// NewTransport builds the transport for inst through registry and attaches
// the instance rate limiter when one is configured.
func NewTransport(ctx context.Context, registry *transport.Registry, inst *config.InstanceConfig, opts TransportOptions) (transport.Transport, error) {
	tc, err := TransportConfigFor(inst, opts)
	if err != nil {
		return nil, err
	}

	t, err := registry.Create(ctx, tc)
	if err != nil {
		return nil, err
	}

	if rl := inst.RateLimit; rl != nil && rl.RequestsPerSecond > 0 {
		t.SetRateLimiter(transport.NewRateLimiter(rl.RequestsPerSecond, rl.Burst))
	}

	return t, nil
}

// IdentityVerifier is implemented by transports that can confirm their
// credentials with the identity provider, such as AWS STS.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context) (string, error)
}

// AsIdentityVerifier finds an IdentityVerifier in t or the transports it wraps.
func AsIdentityVerifier(t transport.Transport) (IdentityVerifier, bool) {
	for t != nil {
		if v, ok := t.(IdentityVerifier); ok {
			return v, true
		}
		u, ok := t.(interface{ Unwrap() transport.Transport })
		if !ok {
			return nil, false
		}
		t = u.Unwrap()
	}
	return nil, false
}
