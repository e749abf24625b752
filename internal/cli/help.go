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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/soarbridge/internal/commands/shared"
	"github.com/tombee/soarbridge/internal/output"
)

// CommandMetadata represents metadata about a command for JSON output
type CommandMetadata struct {
	Name        string         `json:"name"`
	Short       string         `json:"short"`
	Long        string         `json:"long,omitempty"`
	Usage       string         `json:"usage"`
	Flags       []FlagMetadata `json:"flags,omitempty"`
	Examples    string         `json:"examples,omitempty"`
	Subcommands []string       `json:"subcommands,omitempty"`
	Aliases     []string       `json:"aliases,omitempty"`
}

// FlagMetadata represents metadata about a flag
type FlagMetadata struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
	Type      string `json:"type"`
}

// HelpResponse is the JSON response for help command
type HelpResponse struct {
	output.JSONResponse
	Commands    []CommandMetadata `json:"commands,omitempty"`
	Command     *CommandMetadata  `json:"command,omitempty"`
	GlobalFlags []FlagMetadata    `json:"global_flags,omitempty"`
}

// NewHelpCommand creates the help command
func NewHelpCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Long: `Help provides detailed information about commands and their usage.

With --json the command tree is written as machine-readable metadata, which
platform wrappers use to discover flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if shared.GetJSON() {
					return writeHelp(cmd, "help", &HelpResponse{
						Commands:    childMetadata(rootCmd),
						GlobalFlags: extractGlobalFlags(rootCmd),
					})
				}
				return rootCmd.Help()
			}

			target, _, err := rootCmd.Find(args)
			if err != nil || target == rootCmd {
				return shared.NewArgumentError(fmt.Sprintf("command %q not found", args[0]), err)
			}

			if shared.GetJSON() {
				metadata := extractCommandMetadata(target)
				return writeHelp(cmd, "help "+target.Name(), &HelpResponse{
					Command:     &metadata,
					GlobalFlags: extractGlobalFlags(rootCmd),
				})
			}
			return target.Help()
		},
	}
}

func writeHelp(cmd *cobra.Command, command string, resp *HelpResponse) error {
	resp.JSONResponse = output.JSONResponse{
		Version: output.Version,
		Command: command,
		Success: true,
	}
	return output.WriteJSON(cmd.OutOrStdout(), resp)
}

func childMetadata(parent *cobra.Command) []CommandMetadata {
	commands := []CommandMetadata{}
	for _, c := range parent.Commands() {
		if c.Hidden || c.Name() == "help" {
			continue
		}
		commands = append(commands, extractCommandMetadata(c))
	}
	return commands
}

// extractCommandMetadata extracts metadata from a cobra command
func extractCommandMetadata(cmd *cobra.Command) CommandMetadata {
	metadata := CommandMetadata{
		Name:     cmd.Name(),
		Short:    cmd.Short,
		Long:     cmd.Long,
		Usage:    cmd.UseLine(),
		Examples: cmd.Example,
		Aliases:  cmd.Aliases,
	}

	cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Hidden {
			metadata.Flags = append(metadata.Flags, flagMetadata(flag))
		}
	})

	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			metadata.Subcommands = append(metadata.Subcommands, sub.Name())
		}
	}

	return metadata
}

// extractGlobalFlags extracts global flags from root command
func extractGlobalFlags(rootCmd *cobra.Command) []FlagMetadata {
	flags := []FlagMetadata{}
	rootCmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Hidden {
			flags = append(flags, flagMetadata(flag))
		}
	})
	return flags
}

func flagMetadata(flag *pflag.Flag) FlagMetadata {
	return FlagMetadata{
		Name:      flag.Name,
		Shorthand: flag.Shorthand,
		Usage:     flag.Usage,
		Default:   flag.DefValue,
		Type:      flag.Value.Type(),
	}
}
