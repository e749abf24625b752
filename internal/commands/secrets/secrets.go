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

// Package secrets provides the CLI commands that store integration
// credentials in the system keychain.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/soarbridge/internal/commands/shared"
	"github.com/tombee/soarbridge/internal/output"
	"github.com/tombee/soarbridge/internal/secrets"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// backendName is the only writable backend.
const backendName = "keychain"

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// newResolver builds the resolver the commands operate on. Replaced in tests.
var newResolver = func() *secrets.Resolver {
	return secrets.NewDefaultResolver()
}

// SecretResponse is the JSON output of the secrets commands.
type SecretResponse struct {
	output.JSONResponse
	Key       string `json:"key"`
	Backend   string `json:"backend"`
	Reference string `json:"reference"`
	Masked    string `json:"masked,omitempty"`
}

// NewCommand creates the secrets command for secret management.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage integration credentials in the system keychain",
		Long: `Store integration credentials in the system keychain so that the
configuration file only holds a reference to them.

Supported keychains:
  - macOS Keychain
  - Linux Secret Service (GNOME Keyring, KWallet)
  - Windows Credential Manager

Reference a stored credential from an instance with:

  integrations:
    scim-prod:
      credentials: keychain:scim-prod

Examples:
  soarbridge secrets set scim-prod
  echo "$TOKEN" | soarbridge secrets set scim-prod
  soarbridge secrets get scim-prod
  soarbridge secrets delete scim-prod`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newDeleteCommand())

	return cmd
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key>",
		Short: "Store a credential",
		Long: `Store a credential in the keychain.

The value is read from standard input when it is piped, otherwise it is
prompted for with hidden input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := validateKey(key); err != nil {
				return err
			}

			value, err := readSecretValue(cmd)
			if err != nil {
				return shared.NewExecutionError("failed to read secret value", err)
			}
			if value == "" {
				return shared.NewArgumentError("", &soarerrors.ValidationError{Field: "value", Message: "secret value cannot be empty"})
			}

			if err := newResolver().Set(cmd.Context(), backendName, key, value); err != nil {
				return storeError(err)
			}

			return report(cmd, key, "", fmt.Sprintf("Secret stored in %s as %s", backendName, reference(key)))
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Check that a credential is stored",
		Long: `Look up a stored credential. Only a masked form of the value is shown.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := validateKey(key); err != nil {
				return err
			}

			value, err := newResolver().Resolve(cmd.Context(), reference(key))
			if err != nil {
				return storeError(err)
			}

			masked := maskSecret(value)
			return report(cmd, key, masked, fmt.Sprintf("%s = %s", reference(key), masked))
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := validateKey(key); err != nil {
				return err
			}

			if err := newResolver().Delete(cmd.Context(), backendName, key); err != nil {
				return storeError(err)
			}

			return report(cmd, key, "", fmt.Sprintf("Secret %s deleted", reference(key)))
		},
	}
}

func report(cmd *cobra.Command, key, masked, message string) error {
	if shared.GetJSON() {
		return output.WriteJSON(cmd.OutOrStdout(), SecretResponse{
			JSONResponse: output.JSONResponse{Version: output.Version, Command: cmd.CommandPath(), Success: true},
			Key:          key,
			Backend:      backendName,
			Reference:    reference(key),
			Masked:       masked,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(message))
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, secrets.ErrSecretNotFound):
		return shared.NewArgumentError("", err)
	case errors.Is(err, secrets.ErrBackendUnavailable):
		return shared.NewExecutionError("keychain unavailable; reference credentials with ${VAR} instead", err)
	default:
		return shared.NewExecutionError("", err)
	}
}

func reference(key string) string {
	return backendName + ":" + key
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return shared.NewArgumentError("", &soarerrors.ValidationError{
			Field:       "key",
			Message:     fmt.Sprintf("invalid key %q", key),
			SuggestText: "use letters, digits and . _ / - (for example scim-prod)",
		})
	}
	return nil
}

// readSecretValue reads piped input, or prompts without echo on a terminal.
func readSecretValue(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Enter secret value (hidden): ")
		value, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(value), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
