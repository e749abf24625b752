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

package integrations

import (
	"fmt"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/integration"
	"github.com/tombee/soarbridge/internal/output"
	"github.com/tombee/soarbridge/internal/secrets"
)

// authType returns the auth scheme an instance will use, falling back to
// the adapter default.
func authType(inst *config.InstanceConfig) string {
	if inst.Auth.Type != "" {
		return inst.Auth.Type
	}
	if builtin, ok := integration.BuiltinRegistry[inst.Type]; ok && builtin.Transport.DefaultAuth != "" {
		return builtin.Transport.DefaultAuth
	}
	return config.AuthNone
}

// redactAuth returns a human-readable description of auth without exposing secrets.
func redactAuth(inst *config.InstanceConfig) string {
	kind := authType(inst)
	switch {
	case kind == config.AuthNone:
		return kind
	case inst.Credentials == "" && kind == config.AuthAWS:
		return kind + " (default chain)"
	case inst.Credentials == "":
		return kind + " (not configured)"
	case secrets.IsReference(inst.Credentials):
		return fmt.Sprintf("%s (%s)", kind, inst.Credentials)
	default:
		return kind + " (inline)"
	}
}

func envelope(command string) output.JSONResponse {
	return output.JSONResponse{Version: output.Version, Command: command, Success: true}
}

// truncate truncates a string to the specified length.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
