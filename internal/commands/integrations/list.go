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

	"github.com/spf13/cobra"

	"github.com/tombee/soarbridge/internal/commands/shared"
	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/integration"
	"github.com/tombee/soarbridge/internal/output"
)

// InstanceSummary is one configured instance in list output.
type InstanceSummary struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	BaseURL string `json:"base_url"`
	Auth    string `json:"auth"`
	Known   bool   `json:"known_type"`
}

// TypeSummary is one built-in adapter in list output.
type TypeSummary struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	DefaultAuth string `json:"default_auth"`
}

// ListResponse is the JSON output of integrations list.
type ListResponse struct {
	output.JSONResponse
	Config    string            `json:"config"`
	Instances []InstanceSummary `json:"instances"`
	Types     []TypeSummary     `json:"types"`
}

// NewListCommand creates the integrations list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List integration instances",
		Long: `List configured integration instances and the built-in adapter types.

Displays instance name, type, base URL and how credentials are supplied.
Credential values are never shown.

Examples:
  soarbridge integrations list
  soarbridge integrations list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}

			resp := buildList(cfg)
			if shared.GetJSON() {
				return output.WriteJSON(cmd.OutOrStdout(), resp)
			}
			renderList(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func buildList(cfg *config.Config) ListResponse {
	resp := ListResponse{
		JSONResponse: envelope("integrations list"),
		Config:       cfg.Path(),
		Instances:    []InstanceSummary{},
	}

	for _, name := range cfg.InstanceNames() {
		inst := cfg.Integrations[name]
		_, known := integration.BuiltinRegistry[inst.Type]
		resp.Instances = append(resp.Instances, InstanceSummary{
			Name:    name,
			Type:    inst.Type,
			BaseURL: inst.BaseURL,
			Auth:    redactAuth(inst),
			Known:   known,
		})
	}

	for _, t := range integration.Types() {
		builtin := integration.BuiltinRegistry[t]
		resp.Types = append(resp.Types, TypeSummary{
			Type:        t,
			Description: builtin.Description,
			DefaultAuth: builtin.Transport.DefaultAuth,
		})
	}
	return resp
}

func renderList(w io.Writer, resp ListResponse) {
	fmt.Fprintf(w, "%s %s\n\n",
		shared.Header.Render("Integrations"),
		shared.Muted.Render("(config: "+resp.Config+")"))

	if len(resp.Instances) == 0 {
		fmt.Fprintf(w, "%s No integration instances configured\n", shared.Muted.Render(shared.SymbolInfo))
	} else {
		fmt.Fprintf(w, "%s %s %s %s\n",
			shared.Bold.Render(fmt.Sprintf("%-20s", "NAME")),
			shared.Bold.Render(fmt.Sprintf("%-12s", "TYPE")),
			shared.Bold.Render(fmt.Sprintf("%-40s", "BASE URL")),
			shared.Bold.Render("AUTH"))
		for _, inst := range resp.Instances {
			typ := shared.Muted.Render(fmt.Sprintf("%-12s", truncate(inst.Type, 12)))
			if !inst.Known {
				typ = shared.StatusError.Render(fmt.Sprintf("%-12s", truncate(inst.Type, 12)))
			}
			fmt.Fprintf(w, "%s %s %-40s %s\n",
				shared.Bold.Render(fmt.Sprintf("%-20s", truncate(inst.Name, 20))),
				typ,
				truncate(inst.BaseURL, 40),
				inst.Auth)
		}
	}

	fmt.Fprintf(w, "\n%s\n", shared.Header.Render("Adapter types"))
	for _, t := range resp.Types {
		fmt.Fprintf(w, "  %s %s %s\n",
			shared.Bold.Render(fmt.Sprintf("%-12s", t.Type)),
			t.Description,
			shared.RenderLabel("(default auth: "+t.DefaultAuth+")"))
	}
}
