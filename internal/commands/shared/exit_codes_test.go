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

package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/transport"
	pkgerrors "github.com/tombee/soarbridge/pkg/errors"
)

// mockUserVisibleError is a test implementation of UserVisibleError
type mockUserVisibleError struct {
	message    string
	suggestion string
	visible    bool
}

func (e *mockUserVisibleError) Error() string {
	return e.message
}

func (e *mockUserVisibleError) IsUserVisible() bool {
	return e.visible
}

func (e *mockUserVisibleError) UserMessage() string {
	return e.message
}

func (e *mockUserVisibleError) Suggestion() string {
	return e.suggestion
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "explicit exit error", err: &ExitError{Code: ExitActionFailed}, want: ExitActionFailed},
		{name: "wrapped exit error", err: fmt.Errorf("outer: %w", NewConfigError("bad", nil)), want: ExitInvalidConfig},
		{name: "config", err: &pkgerrors.ConfigError{Key: "params.benign", Reason: "negative"}, want: ExitInvalidConfig},
		{name: "validation", err: &pkgerrors.ValidationError{Field: "rank", Message: "Rank should be positive"}, want: ExitInvalidArgument},
		{name: "missing argument", err: &operation.Error{Type: operation.ErrorTypeValidation, Message: "missing required argument: email"}, want: ExitInvalidArgument},
		{name: "unknown command", err: fmt.Errorf("%w: ip", operation.ErrUnknownCommand), want: ExitInvalidArgument},
		{name: "vendor status", err: operation.ErrorFromHTTPStatus(400, "bad filter", ""), want: ExitVendorError},
		{name: "transport", err: &transport.TransportError{Type: transport.ErrorTypeConnection, Message: "refused"}, want: ExitVendorError},
		{name: "vendor error", err: &pkgerrors.VendorError{Vendor: "iam", Message: "x"}, want: ExitVendorError},
		{name: "other", err: errors.New("boom"), want: ExitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestExitError_Error(t *testing.T) {
	assert.Equal(t, "load failed: boom", NewExecutionError("load failed", errors.New("boom")).Error())
	assert.Equal(t, "boom", (&ExitError{Cause: errors.New("boom")}).Error())
	assert.Equal(t, "plain", (&ExitError{Message: "plain"}).Error())
}

func TestSuggestion(t *testing.T) {
	visible := &mockUserVisibleError{message: "auth failed", suggestion: "Check the instance credentials", visible: true}
	assert.Equal(t, "Check the instance credentials", Suggestion(fmt.Errorf("wrapped: %w", visible)))

	hidden := &mockUserVisibleError{message: "internal", suggestion: "nope", visible: false}
	assert.Empty(t, Suggestion(hidden))

	assert.Empty(t, Suggestion(errors.New("plain")))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &pkgerrors.NotFoundError{Resource: "integration instance", ID: "x"}, want: ErrorCodeInstanceNotFound},
		{err: fmt.Errorf("%w: ip", operation.ErrUnknownCommand), want: ErrorCodeUnknownCommand},
		{err: operation.ErrorFromHTTPStatus(403, "forbidden", ""), want: ErrorCodeVendorAuth},
		{err: operation.ErrorFromHTTPStatus(404, "gone", ""), want: ErrorCodeVendorNotFound},
		{err: operation.ErrorFromHTTPStatus(500, "boom", ""), want: ErrorCodeVendor},
		{err: operation.NewConnectionError(errors.New("dial")), want: ErrorCodeVendorConnection},
		{err: &pkgerrors.ConfigError{Reason: "bad"}, want: ErrorCodeInvalidConfig},
		{err: &pkgerrors.ValidationError{Message: "bad"}, want: ErrorCodeInvalidArgument},
		{err: errors.New("boom"), want: ErrorCodeExecutionFailed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), tt.err.Error())
	}
}

func TestJSONErrors(t *testing.T) {
	errs := JSONErrors(&pkgerrors.CommandError{
		Command: "domain",
		Cause:   &operation.Error{Type: operation.ErrorTypeValidation, Message: "domain doesn't exist", SuggestText: "pass --arg domain=<value>"},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorCodeInvalidArgument, errs[0].Code)
	assert.Equal(t, "Failed to execute domain command.\nError:\ndomain doesn't exist", errs[0].Message)
	assert.Equal(t, "pass --arg domain=<value>", errs[0].Suggestion)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SOARBRIDGE_TEST_BASE=https://rank.example.com\n"), 0o600))
	configFile := filepath.Join(dir, "soarbridge.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
integrations:
  alexa:
    type: domainrank
    base_url: ${SOARBRIDGE_TEST_BASE}
    credentials: literal-key
    params: {benign: 0, threshold: 1000}
`), 0o600))

	t.Cleanup(func() {
		SetConfigPathForTest("")
		SetEnvFileForTest("")
		os.Unsetenv("SOARBRIDGE_TEST_BASE")
	})
	SetConfigPathForTest(configFile)
	SetEnvFileForTest(envFile)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	inst, err := cfg.Instance("alexa")
	require.NoError(t, err)
	assert.Equal(t, "https://rank.example.com", inst.BaseURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Cleanup(func() {
		SetConfigPathForTest("")
		SetEnvFileForTest("")
	})

	SetEnvFileForTest(filepath.Join(t.TempDir(), "missing.env"))
	_, err := LoadConfig()
	assert.Equal(t, ExitInvalidConfig, ExitCodeFor(err))

	SetEnvFileForTest("")
	SetConfigPathForTest(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig()
	assert.Equal(t, ExitInvalidConfig, ExitCodeFor(err))
}
