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
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tombee/soarbridge/internal/commands/shared"
	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/integration"
	"github.com/tombee/soarbridge/internal/log"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/output"
	"github.com/tombee/soarbridge/internal/secrets"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
	pkgsecrets "github.com/tombee/soarbridge/pkg/secrets"
)

// newResolver builds the credential resolver. Replaced in tests.
var newResolver = func() config.SecretResolver {
	return secrets.NewDefaultResolver()
}

// invocation carries the state of one run.
type invocation struct {
	id        string
	instance  string
	command   string
	logger    *slog.Logger
	formatter output.Formatter
	masker    *pkgsecrets.Masker
}

func runCommand(cmd *cobra.Command, instanceName, command string, opts *options) error {
	formatter, err := newFormatter(opts.format)
	if err != nil {
		return shared.NewArgumentError("invalid --format", err)
	}
	formatter.SetOutput(cmd.OutOrStdout())

	inv := &invocation{
		id:        uuid.NewString(),
		instance:  instanceName,
		command:   command,
		formatter: formatter,
	}

	cfg, err := shared.LoadConfig()
	if err != nil {
		inv.logger = log.WithInvocation(shared.NewLogger(nil), inv.id, instanceName, command)
		return inv.fail(err)
	}
	inv.logger = log.WithInvocation(shared.NewLogger(cfg), inv.id, instanceName, command)

	args, err := parseArgs(opts.args, opts.argsFile, cmd.InOrStdin())
	if err != nil {
		return inv.fail(shared.NewArgumentError("", err))
	}

	inst, err := cfg.Instance(instanceName)
	if err != nil {
		return inv.fail(shared.NewConfigError("", err))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	if err := inst.ResolveSecrets(ctx, newResolver()); err != nil {
		return inv.fail(err)
	}
	inv.masker = newMasker(inst)
	if inst.Secret() != "" {
		inv.logger.Debug("credentials resolved", slog.String("credential", log.SanitizeAPIKey(inst.Secret())))
	}

	metrics := operation.NewMetrics()
	provider, err := integration.New(ctx, inst, integration.Deps{
		Metrics: metrics,
		Logger:  inv.logger,
	})
	if err != nil {
		return inv.fail(err)
	}

	var result *operation.Result
	start := time.Now()
	mw := log.NewCommandMiddleware(inv.logger)
	execErr := mw.Handle(&log.CommandCall{
		Instance: instanceName,
		Vendor:   inst.Type,
		Command:  command,
		ArgNames: argNames(args),
	}, func() (int, error) {
		var err error
		result, err = provider.Execute(ctx, command, args)
		if err != nil {
			return 0, err
		}
		return len(result.Entries), nil
	})

	if execErr == nil && result == nil {
		result = operation.NewResult()
	}

	outcome := operation.OutcomeSuccess
	switch {
	case execErr != nil:
		outcome = operation.OutcomeError
	case result.Failed():
		outcome = operation.OutcomeFailed
	}
	metrics.RecordCommand(instanceName, inst.Type, command, outcome, time.Since(start))
	inv.writeMetrics(metrics, cfg.Metrics.Textfile)

	if execErr != nil {
		return inv.fail(execErr)
	}

	if err := formatter.FormatResult(command, instanceName, result); err != nil {
		return shared.NewExecutionError("failed to write result", err)
	}
	if result.Failed() {
		return &shared.ExitError{
			Code:     shared.ExitActionFailed,
			Message:  fmt.Sprintf("%s reported a failed action", command),
			Reported: true,
		}
	}
	return nil
}

// fail logs err, reports it in the standard command failure form and
// returns an exit error carrying its code.
func (inv *invocation) fail(err error) error {
	err = inv.masker.MaskError(err)
	cmdErr := &soarerrors.CommandError{Command: inv.command, Cause: err}
	inv.logger.Error("command failed", log.Error(err))

	if ferr := inv.formatter.FormatError(inv.command, inv.instance, shared.JSONErrors(cmdErr)); ferr != nil {
		return shared.NewExecutionError("failed to write error", ferr)
	}
	return &shared.ExitError{
		Code:     shared.ExitCodeFor(err),
		Cause:    cmdErr,
		Reported: true,
	}
}

func (inv *invocation) writeMetrics(metrics *operation.Metrics, path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		inv.logger.Warn("failed to write metrics textfile", slog.String("path", path), log.Error(err))
	}
}

// newMasker registers the instance credential and credential-looking
// environment variables for redaction.
func newMasker(inst *config.InstanceConfig) *pkgsecrets.Masker {
	m := pkgsecrets.NewMasker(inst.Secret())
	if inst.Auth.Type == config.AuthAWS {
		if id, key, ok := strings.Cut(inst.Secret(), ":"); ok {
			m.Add(id)
			m.Add(key)
		}
	}
	m.AddFromEnviron(os.Environ())
	return m
}

func newFormatter(format string) (output.Formatter, error) {
	switch format {
	case FormatJSON:
		return output.DefaultFormatter(true), nil
	case FormatText:
		return output.DefaultFormatter(false), nil
	case FormatAuto, "":
		return output.DefaultFormatter(shared.GetJSON() || !output.IsTTY()), nil
	default:
		return nil, &soarerrors.ValidationError{
			Field:   "format",
			Message: fmt.Sprintf("unknown format %q", format),
		}
	}
}

func argNames(args map[string]interface{}) []string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
