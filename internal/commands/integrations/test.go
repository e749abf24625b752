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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tombee/soarbridge/internal/commands/shared"
	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/integration"
	"github.com/tombee/soarbridge/internal/log"
	"github.com/tombee/soarbridge/internal/output"
	"github.com/tombee/soarbridge/internal/secrets"
	pkgsecrets "github.com/tombee/soarbridge/pkg/secrets"
)

// newResolver builds the credential resolver. Replaced in tests.
var newResolver = func() config.SecretResolver {
	return secrets.NewDefaultResolver()
}

// TestResponse is the JSON output of integrations test.
type TestResponse struct {
	output.JSONResponse
	Instance string `json:"instance"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
}

// NewTestCommand creates the integrations test command.
func NewTestCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "test <instance>",
		Short: "Test integration connectivity",
		Long: `Test connectivity to an instance's vendor API by running its
test-module command.

This validates that:
  - The instance is configured correctly
  - Its credential reference resolves
  - The API endpoint is reachable and accepts the credentials

Examples:
  soarbridge integrations test scim-prod
  soarbridge integrations test alexa --timeout 10s`,
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

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := inst.ResolveSecrets(ctx, newResolver()); err != nil {
				return shared.NewConfigError("", err)
			}
			masker := pkgsecrets.NewMasker(inst.Secret())

			logger := log.WithVendor(log.WithInvocation(shared.NewLogger(cfg), uuid.NewString(), inst.Name, "test-module"), inst.Type)
			provider, err := integration.New(ctx, inst, integration.Deps{Logger: logger})
			if err != nil {
				return shared.NewConfigError("", err)
			}

			start := time.Now()
			_, execErr := provider.Execute(ctx, "test-module", nil)

			resp := TestResponse{
				JSONResponse: envelope("integrations test"),
				Instance:     inst.Name,
				Type:         inst.Type,
				Status:       "ok",
				Message:      "connectivity and credentials verified",
				Duration:     time.Since(start).Round(time.Millisecond).String(),
			}
			if execErr != nil {
				execErr = masker.MaskError(execErr)
				resp.Success = false
				resp.Status = "failed"
				resp.Message = execErr.Error()
			}

			if shared.GetJSON() {
				if err := output.WriteJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Testing integration '%s' (%s)\n\n", inst.Name, inst.Type)
				fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Base URL:"), inst.BaseURL)
				fmt.Fprintf(out, "%s %s\n\n", shared.RenderLabel("Auth:    "), redactAuth(inst))
				fmt.Fprintf(out, "%s %s\n", shared.RenderStatus(execErr == nil, strings.ToUpper(resp.Status)), resp.Message)
				fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Duration:"), resp.Duration)
			}

			if execErr != nil {
				return &shared.ExitError{Code: shared.ExitCodeFor(execErr), Cause: execErr, Reported: true}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Maximum time to wait for the vendor")

	return cmd
}
