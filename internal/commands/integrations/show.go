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
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/soarbridge/internal/commands/shared"
	"github.com/tombee/soarbridge/internal/integration"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/output"
)

// CommandDetail describes one adapter command in show output.
type CommandDetail struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Category    string                  `json:"category"`
	Tags        []string                `json:"tags"`
	Arguments   []api.ParameterInfo     `json:"arguments,omitempty"`
	Outputs     []api.ResponseFieldInfo `json:"outputs,omitempty"`
}

// ShowResponse is the JSON output of integrations show.
type ShowResponse struct {
	output.JSONResponse
	Instance InstanceSummary `json:"instance"`
	Commands []CommandDetail `json:"commands"`
}

// NewShowCommand creates the integrations show command.
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <instance>",
		Short: "Show the commands an instance accepts",
		Long: `Show an instance's configuration and the commands its adapter accepts,
with their arguments and output paths.

No vendor request is made and credentials are not resolved.

Examples:
  soarbridge integrations show scim-prod
  soarbridge integrations show alexa --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}
			inst, err := cfg.Instance(args[0])
			if err != nil {
				return shared.NewConfigError("", err)
			}

			typed, err := integration.Describe(inst)
			if err != nil {
				return shared.NewConfigError(fmt.Sprintf("cannot describe %s", inst.Name), err)
			}

			resp := ShowResponse{
				JSONResponse: envelope("integrations show"),
				Instance: InstanceSummary{
					Name:    inst.Name,
					Type:    inst.Type,
					BaseURL: inst.BaseURL,
					Auth:    redactAuth(inst),
					Known:   true,
				},
				Commands: commandDetails(typed),
			}

			if shared.GetJSON() {
				return output.WriteJSON(cmd.OutOrStdout(), resp)
			}
			renderShow(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func commandDetails(typed api.TypedProvider) []CommandDetail {
	ops := typed.Operations()
	details := make([]CommandDetail, 0, len(ops))
	for _, op := range ops {
		d := CommandDetail{
			Name:        op.Name,
			Description: op.Description,
			Category:    op.Category,
			Tags:        op.Tags,
		}
		if schema := typed.OperationSchema(op.Name); schema != nil {
			d.Arguments = schema.Parameters
			d.Outputs = schema.ResponseFields
		}
		details = append(details, d)
	}
	return details
}

func renderShow(w io.Writer, resp ShowResponse) {
	inst := resp.Instance
	fmt.Fprintf(w, "%s %s\n\n", shared.Header.Render("Integration:"), shared.Bold.Render(inst.Name))
	fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Type:    "), inst.Type)
	fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Base URL:"), inst.BaseURL)
	fmt.Fprintf(w, "%s %s\n", shared.RenderLabel("Auth:    "), inst.Auth)

	fmt.Fprintf(w, "\n%s\n", shared.Header.Render("Commands"))
	for _, c := range resp.Commands {
		fmt.Fprintf(w, "\n  %s %s\n", shared.Bold.Render(c.Name), shared.Muted.Render("["+c.Category+": "+strings.Join(c.Tags, ", ")+"]"))
		fmt.Fprintf(w, "    %s\n", c.Description)
		for _, arg := range c.Arguments {
			marker := ""
			if arg.Required {
				marker = shared.StatusWarn.Render(" (required)")
			}
			fmt.Fprintf(w, "    %s %-20s %-8s %s%s\n", shared.SymbolInfo, arg.Name, arg.Type, arg.Description, marker)
		}
		for _, out := range c.Outputs {
			fmt.Fprintf(w, "    %s %s\n", shared.RenderLabel("->"), out.Name)
		}
	}
}
