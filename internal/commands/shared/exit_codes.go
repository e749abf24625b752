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

	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/transport"
	"github.com/tombee/soarbridge/internal/output"
	pkgerrors "github.com/tombee/soarbridge/pkg/errors"
)

// Exit codes for soarbridge commands
const (
	ExitSuccess         = 0
	ExitFailed          = 1
	ExitInvalidConfig   = 2
	ExitInvalidArgument = 3
	ExitVendorError     = 4
	ExitActionFailed    = 5 // an action result reported success=false
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error

	// Reported is set when the command already wrote the error to stdout,
	// so HandleExitError only exits.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExecutionError creates an error for command execution failures
func NewExecutionError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitFailed,
		Message: msg,
		Cause:   cause,
	}
}

// NewConfigError creates an error for invalid configuration
func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidConfig,
		Message: msg,
		Cause:   cause,
	}
}

// NewArgumentError creates an error for missing or invalid arguments
func NewArgumentError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidArgument,
		Message: msg,
		Cause:   cause,
	}
}

// ExitCodeFor classifies err into an exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case pkgerrors.IsConfig(err):
		return ExitInvalidConfig
	case pkgerrors.IsValidation(err), operation.IsValidation(err), errors.Is(err, operation.ErrUnknownCommand):
		return ExitInvalidArgument
	case isVendorFailure(err):
		return ExitVendorError
	default:
		return ExitFailed
	}
}

func isVendorFailure(err error) bool {
	if pkgerrors.IsVendor(err) {
		return true
	}
	if _, ok := transport.AsTransportError(err); ok {
		return true
	}
	var opErr *operation.Error
	return errors.As(err, &opErr)
}

// HandleExitError prints err to stderr, unless the command already
// reported it, and exits with the matching code.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		os.Exit(exitErr.Code)
	}

	if GetJSON() {
		_ = output.EmitJSONError("", JSONErrors(err))
		os.Exit(ExitCodeFor(err))
	}

	fmt.Fprintln(os.Stderr, RenderError(err.Error()))
	if suggestion := Suggestion(err); suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", suggestion)
	}

	os.Exit(ExitCodeFor(err))
}

// Suggestion returns the suggestion of the first user-visible error in
// err's chain.
func Suggestion(err error) string {
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				return userErr.Suggestion()
			}
			return ""
		}
		err = errors.Unwrap(err)
	}
	return ""
}
