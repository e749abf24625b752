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

// Package output renders command results for the hosting platform: a JSON
// envelope on stdout, or the readable markdown of each entry.
package output

import (
	"encoding/json"
	"io"
	"os"
)

// Version is the envelope schema version.
const Version = "1.0"

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// JSONError represents a structured error with code, message and suggestion
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// EmitJSON marshals a response to JSON and outputs it to stdout.
func EmitJSON(response interface{}) error {
	return WriteJSON(os.Stdout, response)
}

// WriteJSON marshals a response as indented JSON to w.
func WriteJSON(w io.Writer, response interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(response)
}

// ErrorResponse is the envelope written when a command cannot complete.
type ErrorResponse struct {
	JSONResponse
	Instance string      `json:"instance,omitempty"`
	Errors   []JSONError `json:"errors"`
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(command, instance string, errors []JSONError) ErrorResponse {
	return ErrorResponse{
		JSONResponse: JSONResponse{
			Version: Version,
			Command: command,
			Success: false,
		},
		Instance: instance,
		Errors:   errors,
	}
}

// EmitJSONError creates and emits a JSON error response
func EmitJSONError(command string, errors []JSONError) error {
	return EmitJSON(NewErrorResponse(command, "", errors))
}
