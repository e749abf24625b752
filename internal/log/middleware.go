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

package log

import (
	"context"
	"log/slog"
	"time"
)

// CommandCall describes one dispatched platform command for logging purposes.
type CommandCall struct {
	// Instance is the configured integration instance name.
	Instance string

	// Vendor is the adapter type.
	Vendor string

	// Command is the platform command name.
	Command string

	// ArgNames lists the supplied argument names. Values are never logged.
	ArgNames []string
}

// CommandOutcome describes how a dispatched command finished.
type CommandOutcome struct {
	// Success indicates whether the command returned without error.
	Success bool

	// Error is the error message if the command failed.
	Error string

	// DurationMs is the duration of the command in milliseconds.
	DurationMs int64

	// Entries is the number of result entries produced.
	Entries int
}

// LogCommandStart logs the dispatch of a command.
func LogCommandStart(logger *slog.Logger, call *CommandCall) {
	logger.Debug("command being called is "+call.Command,
		EventKey, "command_start",
		VendorKey, call.Vendor,
		"args", call.ArgNames,
	)
}

// LogCommandEnd logs the completion of a command.
func LogCommandEnd(logger *slog.Logger, call *CommandCall, out *CommandOutcome) {
	attrs := []any{
		EventKey, "command_end",
		VendorKey, call.Vendor,
		"success", out.Success,
		DurationKey, out.DurationMs,
		"entries", out.Entries,
	}

	level := slog.LevelInfo
	message := "command completed"
	if !out.Success {
		level = slog.LevelError
		message = "command failed"
		attrs = append(attrs, "error", out.Error)
	}

	logger.Log(context.Background(), level, message, attrs...)
}

// CommandMiddleware wraps command dispatch with start/end logging.
type CommandMiddleware struct {
	logger *slog.Logger
}

// NewCommandMiddleware creates a new command logging middleware.
func NewCommandMiddleware(logger *slog.Logger) *CommandMiddleware {
	return &CommandMiddleware{logger: logger}
}

// Handle runs handler, logging the call before and the outcome after.
// The handler reports how many result entries it produced.
func (m *CommandMiddleware) Handle(call *CommandCall, handler func() (int, error)) error {
	start := time.Now()
	LogCommandStart(m.logger, call)

	entries, err := handler()

	out := &CommandOutcome{
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
		Entries:    entries,
	}
	if err != nil {
		out.Error = err.Error()
	}
	LogCommandEnd(m.logger, call, out)

	return err
}
