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

package version

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/soarbridge/internal/commands/shared"
	"github.com/tombee/soarbridge/internal/integration"
	"github.com/tombee/soarbridge/internal/output"
)

// VersionInfo contains version metadata
type VersionInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	Adapters  []string `json:"adapters"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and the built-in adapter types.`,
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

// Info returns the version metadata of this build.
func Info() VersionInfo {
	v, c, b := shared.GetVersion()
	return VersionInfo{
		Version:   v,
		Commit:    c,
		BuildDate: b,
		GoVersion: runtime.Version(),
		Adapters:  integration.Types(),
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := Info()

	if shared.GetJSON() {
		return output.WriteJSON(cmd.OutOrStdout(), info)
	}

	cmd.Printf("soarbridge version %s\n", info.Version)
	cmd.Printf("  commit:     %s\n", info.Commit)
	cmd.Printf("  build date: %s\n", info.BuildDate)
	cmd.Printf("  go:         %s\n", info.GoVersion)
	cmd.Printf("  adapters:   %s\n", strings.Join(info.Adapters, ", "))

	return nil
}
