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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/tombee/soarbridge/internal/commands/shared"
)

func testTree() *cobra.Command {
	root := NewRootCommand()
	run := &cobra.Command{
		Use:     "run <instance> <command>",
		Short:   "Run a command",
		Example: "  soarbridge run alexa domain --arg domain=example.com",
		RunE:    func(*cobra.Command, []string) error { return nil },
	}
	run.Flags().StringArrayP("arg", "a", nil, "Command argument")
	run.Flags().String("format", "auto", "Output format")
	root.AddCommand(run)

	group := &cobra.Command{Use: "integrations", Short: "Inspect integrations"}
	group.AddCommand(&cobra.Command{Use: "list", Short: "List", RunE: func(*cobra.Command, []string) error { return nil }})
	root.AddCommand(group)

	root.AddCommand(&cobra.Command{Use: "internal", Hidden: true})
	return root
}

func runHelp(t *testing.T, jsonMode bool, args ...string) (string, error) {
	t.Helper()
	// Building the tree rebinds the global flags to their defaults.
	root := testTree()
	shared.SetJSONForTest(jsonMode)
	t.Cleanup(func() { shared.SetJSONForTest(false) })

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"help"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestHelpCommandJSON(t *testing.T) {
	out, err := runHelp(t, true)
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}

	var resp HelpResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if resp.Version != "1.0" || resp.JSONResponse.Command != "help" || !resp.Success {
		t.Errorf("unexpected envelope %+v", resp.JSONResponse)
	}

	names := map[string]bool{}
	for _, c := range resp.Commands {
		names[c.Name] = true
	}
	if !names["run"] || !names["integrations"] {
		t.Errorf("expected run and integrations, got %v", names)
	}
	if names["internal"] || names["help"] {
		t.Errorf("hidden and help commands must not be listed: %v", names)
	}

	var globals []string
	for _, f := range resp.GlobalFlags {
		globals = append(globals, f.Name)
	}
	if !strings.Contains(strings.Join(globals, ","), "env-file") {
		t.Errorf("global flags missing env-file: %v", globals)
	}
}

func TestHelpCommandJSONSingle(t *testing.T) {
	out, err := runHelp(t, true, "run")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}

	var resp HelpResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Command == nil || resp.Command.Name != "run" {
		t.Fatalf("expected run metadata, got %+v", resp.Command)
	}
	if resp.Command.Examples == "" {
		t.Error("expected examples")
	}

	var arg *FlagMetadata
	for i := range resp.Command.Flags {
		if resp.Command.Flags[i].Name == "arg" {
			arg = &resp.Command.Flags[i]
		}
	}
	if arg == nil || arg.Shorthand != "a" || arg.Type != "stringArray" {
		t.Errorf("unexpected arg flag %+v", arg)
	}
}

func TestHelpCommandHumanOutput(t *testing.T) {
	out, err := runHelp(t, false, "integrations")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out, "Inspect integrations") || !strings.Contains(out, "list") {
		t.Errorf("unexpected help output:\n%s", out)
	}
}

func TestHelpCommandUnknown(t *testing.T) {
	_, err := runHelp(t, true, "frobnicate")
	var exitErr *shared.ExitError
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.As(err, &exitErr) || exitErr.Code != shared.ExitInvalidArgument {
		t.Errorf("expected invalid argument exit, got %v", err)
	}
}

func TestExtractCommandMetadata(t *testing.T) {
	root := testTree()
	group, _, err := root.Find([]string{"integrations"})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}

	md := extractCommandMetadata(group)
	if md.Name != "integrations" || md.Short != "Inspect integrations" {
		t.Errorf("unexpected metadata %+v", md)
	}
	if len(md.Subcommands) != 1 || md.Subcommands[0] != "list" {
		t.Errorf("unexpected subcommands %v", md.Subcommands)
	}
}
