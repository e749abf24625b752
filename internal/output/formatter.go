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

package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tombee/soarbridge/internal/operation"
)

// ResultResponse is the envelope written for a completed command.
type ResultResponse struct {
	JSONResponse
	Instance string             `json:"instance"`
	Entries  []*operation.Entry `json:"entries"`
}

// NewResultResponse builds the envelope for result. Success is false when
// any entry reports a failed action.
func NewResultResponse(command, instance string, result *operation.Result) ResultResponse {
	entries := []*operation.Entry{}
	if result != nil && result.Entries != nil {
		entries = result.Entries
	}
	return ResultResponse{
		JSONResponse: JSONResponse{
			Version: Version,
			Command: command,
			Success: result == nil || !result.Failed(),
		},
		Instance: instance,
		Entries:  entries,
	}
}

// Formatter defines the interface for output formatting.
type Formatter interface {
	// FormatResult formats a completed command result
	FormatResult(command, instance string, result *operation.Result) error

	// FormatError formats an error response
	FormatError(command, instance string, errors []JSONError) error

	// SetOutput sets the output writer
	SetOutput(w io.Writer)
}

// DefaultFormatter returns a formatter based on the JSON mode flag
func DefaultFormatter(jsonMode bool) Formatter {
	if jsonMode {
		return &JSONFormatter{out: os.Stdout}
	}
	return &TextFormatter{out: os.Stdout}
}

// JSONFormatter implements Formatter for JSON output
type JSONFormatter struct {
	out io.Writer
}

// FormatResult outputs the result envelope.
func (f *JSONFormatter) FormatResult(command, instance string, result *operation.Result) error {
	return WriteJSON(f.writer(), NewResultResponse(command, instance, result))
}

// FormatError outputs the error envelope.
func (f *JSONFormatter) FormatError(command, instance string, errors []JSONError) error {
	return WriteJSON(f.writer(), NewErrorResponse(command, instance, errors))
}

// SetOutput sets the output writer
func (f *JSONFormatter) SetOutput(w io.Writer) {
	f.out = w
}

func (f *JSONFormatter) writer() io.Writer {
	if f.out == nil {
		return os.Stdout
	}
	return f.out
}

// TextFormatter implements Formatter for human-readable text output
type TextFormatter struct {
	out io.Writer
}

// FormatResult writes the readable output of each entry, separated by a
// blank line.
func (f *TextFormatter) FormatResult(command, instance string, result *operation.Result) error {
	if result == nil {
		return nil
	}
	parts := make([]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		if text := strings.TrimRight(e.ReadableOutput, "\n"); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(f.writer(), strings.Join(parts, "\n\n"))
	return err
}

// FormatError writes each error message, followed by its suggestion.
func (f *TextFormatter) FormatError(command, instance string, errors []JSONError) error {
	w := f.writer()
	for _, e := range errors {
		if _, err := fmt.Fprintln(w, e.Message); err != nil {
			return err
		}
		if e.Suggestion != "" {
			if _, err := fmt.Fprintf(w, "Suggestion: %s\n", e.Suggestion); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetOutput sets the output writer
func (f *TextFormatter) SetOutput(w io.Writer) {
	f.out = w
}

func (f *TextFormatter) writer() io.Writer {
	if f.out == nil {
		return os.Stdout
	}
	return f.out
}
