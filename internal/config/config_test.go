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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

const sampleConfig = `
log:
  level: debug
  format: text
metrics:
  textfile: /tmp/soarbridge.prom
integrations:
  alexa:
    type: domainrank
    base_url: https://awis.api.alexa.com/api
    credentials: ${ALEXA_API_KEY}
    rate_limit:
      requests_per_second: 5
      burst: 5
    params:
      benign: 1000
      threshold: "1000000"
      reliability: A - Completely reliable
  scim:
    type: IAM
    base_url: ${SCIM_URL}
    credentials: keychain:scim-token
    timeout: 15s
    params:
      tenant_id: t1
      disable_user_enabled: true
    fields:
      search_result: .Resources[0]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soarbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("SCIM_URL", "https://scim.example.com")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/tmp/soarbridge.prom", cfg.Metrics.Textfile)
	assert.Equal(t, []string{"alexa", "scim"}, cfg.InstanceNames())

	alexa, err := cfg.Instance("alexa")
	require.NoError(t, err)
	assert.Equal(t, "alexa", alexa.Name)
	assert.Equal(t, "domainrank", alexa.Type)
	assert.Equal(t, DefaultRequestTimeout, alexa.Timeout)
	require.NotNil(t, alexa.RateLimit)
	assert.Equal(t, 5.0, alexa.RateLimit.RequestsPerSecond)

	benign, ok, err := alexa.Params.Float("benign")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1000.0, benign)

	threshold, ok, err := alexa.Params.Float("threshold")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1000000.0, threshold)

	scim, err := cfg.Instance("scim")
	require.NoError(t, err)
	assert.Equal(t, "iam", scim.Type, "type should be normalized to lower case")
	assert.Equal(t, "https://scim.example.com", scim.BaseURL)
	assert.Equal(t, 15*time.Second, scim.Timeout)
	assert.Equal(t, ".Resources[0]", scim.Fields["search_result"])

	enabled, err := scim.Params.Bool("disable_user_enabled", false)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	var cfgErr *soarerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config_file", cfgErr.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "integrations: [unclosed"))
	require.Error(t, err)
	assert.True(t, soarerrors.IsConfig(err))
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, `
integrations:
  alexa:
    type: domainrank
    base_url: https://example.com
    verify: false
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no integrations",
			yaml:    "log: {level: info}",
			wantErr: "integrations is required",
		},
		{
			name: "missing type",
			yaml: `
integrations:
  x:
    base_url: https://example.com
`,
			wantErr: "integrations[x].type is required",
		},
		{
			name: "bad url",
			yaml: `
integrations:
  x:
    type: assignee
    base_url: not a url
`,
			wantErr: "integrations[x].base_url must be a valid URL",
		},
		{
			name: "bad log level",
			yaml: `
log: {level: loud}
integrations:
  x: {type: assignee, base_url: https://example.com}
`,
			wantErr: "log.level must be one of",
		},
		{
			name: "bad auth type",
			yaml: `
integrations:
  x:
    type: iam
    base_url: https://example.com
    auth: {type: kerberos}
`,
			wantErr: "integrations[x].auth.type must be one of",
		},
		{
			name: "oauth2 without token url",
			yaml: `
integrations:
  x:
    type: iam
    base_url: https://example.com
    auth: {type: oauth2, client_id: abc}
`,
			wantErr: "integrations[x].auth.token_url is required",
		},
		{
			name: "api key without credentials",
			yaml: `
integrations:
  x:
    type: domainrank
    base_url: https://example.com
    auth: {type: api_key}
`,
			wantErr: "credentials is required for api_key auth",
		},
		{
			name: "non-positive rate limit",
			yaml: `
integrations:
  x:
    type: domainrank
    base_url: https://example.com
    rate_limit: {requests_per_second: 0}
`,
			wantErr: "requests_per_second must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "expected ErrInvalidConfig, got %v", err)
			assert.Contains(t, errors.Unwrap(err).Error(), tt.wantErr)
		})
	}
}

func TestInstanceNotFound(t *testing.T) {
	cfg, err := Parse([]byte("integrations:\n  a: {type: assignee, base_url: https://example.com}\n"))
	require.NoError(t, err)

	_, err = cfg.Instance("b")
	var nf *soarerrors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "b", nf.ID)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultPath, ResolvePath(""))

	t.Setenv(EnvConfigPath, "/etc/soarbridge.yaml")
	assert.Equal(t, "/etc/soarbridge.yaml", ResolvePath(""))
	assert.Equal(t, "./local.yaml", ResolvePath("./local.yaml"))
}

type stubResolver map[string]string

func (s stubResolver) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := s[ref]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestResolveSecrets(t *testing.T) {
	inst := &InstanceConfig{Name: "scim", Credentials: "keychain:scim-token"}

	require.NoError(t, inst.ResolveSecrets(context.Background(), stubResolver{"keychain:scim-token": "tok"}))
	assert.Equal(t, "tok", inst.Secret())

	inst.Credentials = "keychain:other"
	err := inst.ResolveSecrets(context.Background(), stubResolver{})
	var cfgErr *soarerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "integrations.scim.credentials", cfgErr.Key)
}
