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

package shared

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/log"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// LoadConfig loads the --env-file dotenv file, if any, and then the
// configuration file. Variables already set in the environment are not
// overridden by the dotenv file.
func LoadConfig() (*config.Config, error) {
	if path := GetEnvFile(); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, NewConfigError("failed to load env file", &soarerrors.ConfigError{
				Key:    "env_file",
				Reason: fmt.Sprintf("cannot read %s", path),
				Cause:  err,
			})
		}
	}

	cfg, err := config.Load(config.ResolvePath(GetConfigPath()))
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// NewLogger builds the invocation logger. Environment settings are
// overlaid by the config file, then by --verbose and --quiet.
func NewLogger(cfg *config.Config) *slog.Logger {
	lc := log.FromEnv()
	if cfg != nil {
		lc.Merge(cfg.Log.Level, cfg.Log.Format)
	}
	if GetVerbose() {
		lc.Level = "debug"
	}
	if GetQuiet() {
		lc.Level = "error"
	}
	return log.New(lc)
}
