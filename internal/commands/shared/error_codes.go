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

	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/output"
	pkgerrors "github.com/tombee/soarbridge/pkg/errors"
)

// Error codes for structured JSON output
const (
	// Execution errors (E100-E199)
	ErrorCodeExecutionFailed = "E101" // Command failed
	ErrorCodeActionFailed    = "E102" // Vendor action reported failure

	// Configuration errors (E200-E299)
	ErrorCodeInvalidConfig    = "E201" // Invalid configuration
	ErrorCodeInstanceNotFound = "E202" // Unknown integration instance

	// Argument errors (E300-E399)
	ErrorCodeInvalidArgument = "E301" // Missing or invalid argument
	ErrorCodeUnknownCommand  = "E302" // Command not implemented by the adapter

	// Vendor errors (E400-E499)
	ErrorCodeVendorAuth       = "E401" // Vendor rejected credentials
	ErrorCodeVendorNotFound   = "E402" // Vendor resource not found
	ErrorCodeVendorRateLimit  = "E403" // Vendor rate limit
	ErrorCodeVendorTimeout    = "E404" // Vendor did not answer in time
	ErrorCodeVendorConnection = "E405" // Vendor unreachable
	ErrorCodeVendor           = "E499" // Other vendor failure
)

// ErrorCode maps err to a JSON error code.
func ErrorCode(err error) string {
	var notFound *pkgerrors.NotFoundError
	if errors.As(err, &notFound) && notFound.Resource == "integration instance" {
		return ErrorCodeInstanceNotFound
	}
	if errors.Is(err, operation.ErrUnknownCommand) {
		return ErrorCodeUnknownCommand
	}

	var opErr *operation.Error
	if errors.As(err, &opErr) && !operation.IsValidation(err) {
		switch opErr.Type {
		case operation.ErrorTypeAuth:
			return ErrorCodeVendorAuth
		case operation.ErrorTypeNotFound:
			return ErrorCodeVendorNotFound
		case operation.ErrorTypeRateLimit:
			return ErrorCodeVendorRateLimit
		case operation.ErrorTypeTimeout:
			return ErrorCodeVendorTimeout
		case operation.ErrorTypeConnection:
			return ErrorCodeVendorConnection
		}
	}

	switch ExitCodeFor(err) {
	case ExitInvalidConfig:
		return ErrorCodeInvalidConfig
	case ExitInvalidArgument:
		return ErrorCodeInvalidArgument
	case ExitVendorError:
		return ErrorCodeVendor
	case ExitActionFailed:
		return ErrorCodeActionFailed
	default:
		return ErrorCodeExecutionFailed
	}
}

// JSONErrors builds the error list reported for err.
func JSONErrors(err error) []output.JSONError {
	return []output.JSONError{{
		Code:       ErrorCode(err),
		Message:    err.Error(),
		Suggestion: Suggestion(err),
	}}
}
