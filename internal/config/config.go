// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the soarbridge configuration file: logging and
// metrics settings plus one entry per configured integration instance.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	soarerrors "github.com/tombee/soarbridge/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

const (
	// DefaultPath is used when neither --config nor SOARBRIDGE_CONFIG is set.
	DefaultPath = "soarbridge.yaml"

	// EnvConfigPath names the environment variable holding the config path.
	EnvConfigPath = "SOARBRIDGE_CONFIG"

	// DefaultRequestTimeout bounds a single vendor request.
	DefaultRequestTimeout = 60 * time.Second
)

// Auth types accepted in an instance's auth block.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api_key"
	AuthOAuth2 = "oauth2"
	AuthAWS    = "aws"
)

// Config represents the complete soarbridge configuration.
type Config struct {
	Log          LogConfig                  `yaml:"log"`
	Metrics      MetricsConfig              `yaml:"metrics"`
	Integrations map[string]*InstanceConfig `yaml:"integrations" validate:"required,min=1,dive,required"`

	// path is the file the configuration was read from.
	path string
}

// LogConfig configures logging. Environment variables take precedence.
type LogConfig struct {
	// Level is the log level (trace, debug, info, warn, error).
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error"`

	// Format is the log format (json, text).
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=json text"`
}

// MetricsConfig configures invocation metrics.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile collector path. Metrics are
	// written there after every invocation when set.
	Textfile string `yaml:"textfile,omitempty"`
}

// InstanceConfig configures one integration instance.
type InstanceConfig struct {
	// Name is the instance key under integrations. Set by Load.
	Name string `yaml:"-"`

	// Type selects the adapter (iam, domainrank, assignee).
	Type string `yaml:"type" validate:"required"`

	// BaseURL is the vendor API root. Environment references are expanded.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// Credentials is a secret reference (${VAR}, env:VAR, keychain:key) or a
	// literal value. Its meaning depends on Auth.Type.
	Credentials string `yaml:"credentials,omitempty"`

	// Auth selects how Credentials are presented to the vendor.
	Auth AuthConfig `yaml:"auth,omitempty"`

	// Insecure disables TLS certificate verification.
	Insecure bool `yaml:"insecure,omitempty"`

	// Proxy honours HTTP(S)_PROXY environment variables when true.
	Proxy bool `yaml:"proxy,omitempty"`

	// Timeout bounds each vendor request. Default: 60s.
	Timeout time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`

	// RateLimit throttles requests from this instance.
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`

	// Params holds adapter-specific tunables.
	Params Params `yaml:"params,omitempty"`

	// Fields overrides the jq expressions used to read vendor responses.
	Fields map[string]string `yaml:"fields,omitempty"`

	// secret is the resolved value of Credentials.
	secret string
}

// AuthConfig configures vendor authentication.
type AuthConfig struct {
	// Type is one of none, bearer, basic, api_key, oauth2, aws. Empty
	// selects the adapter's default.
	Type string `yaml:"type,omitempty" validate:"omitempty,oneof=none bearer basic api_key oauth2 aws"`

	// Header names the header carrying an api_key credential.
	Header string `yaml:"header,omitempty"`

	// Username is the basic-auth user; Credentials hold the password.
	Username string `yaml:"username,omitempty" validate:"required_if=Type basic"`

	// TokenURL, ClientID and Scopes configure the oauth2 client-credentials
	// flow; Credentials hold the client secret.
	TokenURL string   `yaml:"token_url,omitempty" validate:"required_if=Type oauth2"`
	ClientID string   `yaml:"client_id,omitempty" validate:"required_if=Type oauth2"`
	Scopes   []string `yaml:"scopes,omitempty"`

	// Region and Service configure AWS SigV4 signing. Credentials, when
	// set, hold "ACCESS_KEY_ID:SECRET_ACCESS_KEY"; otherwise the default
	// AWS credential chain is used.
	Region  string `yaml:"region,omitempty" validate:"required_if=Type aws"`
	Service string `yaml:"service,omitempty"`

	// VerifyIdentity calls STS GetCallerIdentity during test-module.
	VerifyIdentity bool `yaml:"verify_identity,omitempty"`
}

// RateLimitConfig configures a token bucket for an instance.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`
	Burst             int     `yaml:"burst,omitempty" validate:"gte=0"`
}

// SecretResolver resolves credential references.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ResolvePath picks the configuration path: explicit flag value, then
// SOARBRIDGE_CONFIG, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads, expands and validates the configuration file at configPath.
func Load(configPath string) (*Config, error) {
	path, err := expandHome(configPath)
	if err != nil {
		return nil, &soarerrors.ConfigError{Key: "config_file", Reason: "cannot resolve path", Cause: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &soarerrors.ConfigError{
			Key:    "config_file",
			Reason: fmt.Sprintf("failed to load from %s", configPath),
			Cause:  err,
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes and validates configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &soarerrors.ConfigError{
			Key:    "config_file",
			Reason: "failed to parse YAML",
			Cause:  err,
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &soarerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults names instances and fills zero values.
func (c *Config) applyDefaults() {
	for name, inst := range c.Integrations {
		if inst == nil {
			continue
		}
		inst.Name = name
		inst.BaseURL = os.ExpandEnv(strings.TrimSpace(inst.BaseURL))
		inst.Type = strings.ToLower(strings.TrimSpace(inst.Type))
		if inst.Timeout == 0 {
			inst.Timeout = DefaultRequestTimeout
		}
		if inst.Params == nil {
			inst.Params = Params{}
		}
	}
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Instance returns the named integration instance.
func (c *Config) Instance(name string) (*InstanceConfig, error) {
	inst, ok := c.Integrations[name]
	if !ok || inst == nil {
		return nil, &soarerrors.NotFoundError{Resource: "integration instance", ID: name}
	}
	return inst, nil
}

// InstanceNames returns the configured instance names in sorted order.
func (c *Config) InstanceNames() []string {
	names := make([]string, 0, len(c.Integrations))
	for name := range c.Integrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveSecrets resolves the instance's credential reference. It must be
// called before Secret is read.
func (i *InstanceConfig) ResolveSecrets(ctx context.Context, resolver SecretResolver) error {
	value, err := resolver.Resolve(ctx, i.Credentials)
	if err != nil {
		return &soarerrors.ConfigError{
			Key:    fmt.Sprintf("integrations.%s.credentials", i.Name),
			Reason: "failed to resolve credentials",
			Cause:  err,
		}
	}
	i.secret = value
	return nil
}

// Secret returns the resolved credential.
func (i *InstanceConfig) Secret() string {
	return i.secret
}

// WithSecret sets the resolved credential directly. Used by tests and by
// callers that obtain credentials out of band.
func (i *InstanceConfig) WithSecret(secret string) *InstanceConfig {
	i.secret = secret
	return i
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
