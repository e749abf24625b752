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

package run

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/soarbridge/internal/config"
)

// Output formats accepted by --format.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"
)

// options holds the run command flags.
type options struct {
	args     []string
	argsFile string
	timeout  time.Duration
	format   string
}

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run <instance> <command>",
		Short: "Execute an integration command",
		Annotations: map[string]string{
			"group": "execution",
		},
		Long: `Run executes one platform command against a configured integration
instance and writes the result to stdout.

Arguments:
  --arg key=value     Command argument (repeatable). Repeating a key builds
                      a list; values starting with { or [ are parsed as JSON.
  --args-file <file>  JSON object of arguments ('-' for stdin). --arg values
                      take precedence.

Output:
  --format json       Result envelope with entries (default when piped)
  --format text       Readable markdown of each entry (default on a terminal)

Exit codes:
  0  success
  1  command failed
  2  invalid configuration
  3  missing or invalid argument
  4  vendor error
  5  an action reported failure

Examples:
  soarbridge run alexa domain --arg domain=example.com --arg domain=example.org
  soarbridge run scim iam-disable-user --arg user-profile='{"email":"jane@example.com"}'
  soarbridge run penfield test-module`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, args[0], args[1], opts)
		},
	}

	addFlags(cmd.Flags(), opts)

	return cmd
}

func addFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringArrayVarP(&opts.args, "arg", "a", nil, "Command argument in key=value format")
	fs.StringVar(&opts.argsFile, "args-file", "", "JSON file with arguments (use '-' for stdin)")
	fs.DurationVar(&opts.timeout, "timeout", config.DefaultRequestTimeout, "Overall deadline for the command")
	fs.StringVar(&opts.format, "format", FormatAuto, "Output format (auto, json, text)")
}
