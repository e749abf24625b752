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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/soarbridge/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for soarbridge
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "soarbridge",
		Short: "soarbridge - SOAR integration adapters",
		Long: `soarbridge runs security-orchestration commands against vendor APIs:
identity lifecycle over SCIM, domain reputation from traffic rank and
analyst assignment from an assignee recommendation service.

Each configured integration instance names an adapter type, a base URL and
a credential reference. Results are written as a JSON envelope for the
hosting platform or as readable markdown tables.

Run 'soarbridge integrations list' to see configured instances.
Run 'soarbridge integrations show <instance>' to see the commands an
instance accepts.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	flags := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(flags.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(flags.Quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().BoolVar(flags.JSON, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(flags.Config, "config", "", "Path to config file (default: $SOARBRIDGE_CONFIG or ./soarbridge.yaml)")
	cmd.PersistentFlags().StringVar(flags.EnvFile, "env-file", "", "Load environment variables from a dotenv file before reading config")

	cmd.SetHelpCommand(NewHelpCommand(cmd))

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
