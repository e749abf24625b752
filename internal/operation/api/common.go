// Package api provides common types and utilities for vendor REST adapters.
package api

import (
	"log/slog"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation/transport"
)

// ProviderConfig holds what an adapter factory needs to build a provider.
type ProviderConfig struct {
	// Transport is the authenticated transport for vendor requests
	Transport transport.Transport

	// Instance is the instance configuration with its secret resolved
	Instance *config.InstanceConfig

	// JQ evaluates field expressions; nil selects a default executor
	JQ *jq.Executor

	// Logger is the invocation logger; nil selects slog.Default()
	Logger *slog.Logger
}

// OperationInfo provides metadata about an adapter command.
type OperationInfo struct {
	// Name is the command name (e.g., "iam-get-user")
	Name string

	// Description is a human-readable description
	Description string

	// Category groups related commands (e.g., "users", "reputation")
	Category string

	// Tags classify commands (e.g., "read", "write", "connectivity")
	Tags []string
}

// OperationSchema describes a command's arguments and outputs.
type OperationSchema struct {
	// Description is a human-readable description
	Description string

	// Parameters describes the command arguments
	Parameters []ParameterInfo

	// ResponseFields describes the outputs
	ResponseFields []ResponseFieldInfo
}

// ParameterInfo describes a command argument.
type ParameterInfo struct {
	// Name is the argument name
	Name string `json:"name"`

	// Type is the argument type (string, number, boolean, array, object)
	Type string `json:"type"`

	// Description is a human-readable description
	Description string `json:"description"`

	// Required indicates if the argument is required
	Required bool `json:"required"`

	// Default is the default value (nil if no default)
	Default interface{} `json:"default,omitempty"`
}

// ResponseFieldInfo describes an output field.
type ResponseFieldInfo struct {
	// Name is the output path (e.g., "Alexa.Domain.Rank")
	Name string `json:"name"`

	// Type is the field type (string, number, boolean, array, object)
	Type string `json:"type"`

	// Description is a human-readable description
	Description string `json:"description"`
}

// TypedProvider extends operation.Provider with command metadata.
// All built-in adapters implement this interface.
type TypedProvider interface {
	// Operations returns the list of available commands with metadata.
	Operations() []OperationInfo

	// OperationSchema returns the command description and argument information.
	// Returns nil if the command doesn't exist.
	OperationSchema(command string) *OperationSchema
}

// FindOperation returns the named command from ops.
func FindOperation(ops []OperationInfo, name string) (OperationInfo, bool) {
	for _, op := range ops {
		if op.Name == name {
			return op, true
		}
	}
	return OperationInfo{}, false
}
