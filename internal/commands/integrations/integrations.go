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

// Package integrations provides CLI commands for inspecting configured
// integration instances.
package integrations

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the integrations command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrations",
		Short: "Inspect configured integrations",
		Long: `Inspect the integration instances defined in the configuration file.

Each instance consists of:
  - Type (iam, domainrank, assignee)
  - Base URL of the vendor API
  - Authentication and a credential reference
  - Adapter parameters

Credentials are never shown; only the reference they are read from.

Examples:
  # List configured instances and built-in adapter types
  soarbridge integrations list

  # Show the commands an instance accepts
  soarbridge integrations show scim-prod

  # Check connectivity and credentials
  soarbridge integrations test scim-prod`,
	}

	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewTestCommand())

	return cmd
}
