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

// Package errors defines the error types shared by the adapters, the
// configuration layer and the CLI.
package errors

import (
	"fmt"
	"strings"
)

// ValidationError represents an invalid command argument or configuration value.
// Validation errors are raised before any request is sent to a vendor.
type ValidationError struct {
	// Field identifies the argument or parameter that failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// SuggestText provides actionable guidance for fixing the error
	SuggestText string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// IsUserVisible implements UserVisibleError.
func (e *ValidationError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ValidationError) UserMessage() string { return e.Message }

// Suggestion implements UserVisibleError.
func (e *ValidationError) Suggestion() string { return e.SuggestText }

// NotFoundError represents a missing resource, such as an unknown
// integration instance or a vendor object that does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "integration", "user", "command")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// VendorError represents a failure reported by a third-party vendor API.
type VendorError struct {
	// Vendor is the adapter type that made the call (e.g., "iam", "domainrank")
	Vendor string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Message is the parsed vendor message, or the raw body when unparseable
	Message string

	// RequestID correlates this error with vendor logs
	RequestID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *VendorError) Error() string {
	msg := fmt.Sprintf("vendor %s error", e.Vendor)

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	msg = fmt.Sprintf("%s: %s", msg, e.Message)

	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *VendorError) Unwrap() error {
	return e.Cause
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "integrations.alexa.params.benign")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// CommandError is the standardized report for a command that could not be
// executed. Its message is what the hosting platform shows to analysts.
type CommandError struct {
	// Command is the platform command that was attempted
	Command string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	detail := "unknown error"
	if e.Cause != nil {
		detail = strings.TrimSpace(e.Cause.Error())
	}
	return fmt.Sprintf("Failed to execute %s command.\nError:\n%s", e.Command, detail)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CommandError) Unwrap() error {
	return e.Cause
}
