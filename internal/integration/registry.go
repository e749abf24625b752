package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/integration/assignee"
	"github.com/tombee/soarbridge/internal/integration/domainrank"
	"github.com/tombee/soarbridge/internal/integration/iam"
	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/operation/transport"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// Factory builds a provider from an instance configuration and its
// authenticated transport.
type Factory func(config *api.ProviderConfig) (operation.Provider, error)

// Builtin describes a built-in adapter type.
type Builtin struct {
	// Factory creates the provider
	Factory Factory

	// Transport holds the adapter's auth and header defaults
	Transport operation.TransportOptions

	// Description is shown by "integrations list"
	Description string
}

var jsonHeaders = map[string]string{
	"Accept":       "application/json",
	"Content-Type": "application/json",
}

// BuiltinRegistry holds all built-in adapters keyed by instance type.
var BuiltinRegistry = map[string]Builtin{
	"iam": {
		Factory:     iam.NewIAMIntegration,
		Transport:   operation.TransportOptions{DefaultAuth: config.AuthBearer, Headers: jsonHeaders},
		Description: "SCIM 2.0 user lifecycle (get, create, update, enable, disable)",
	},
	"domainrank": {
		Factory:     domainrank.NewDomainRankIntegration,
		Transport:   operation.TransportOptions{DefaultAuth: config.AuthAPIKey, APIKeyHeader: "x-api-key"},
		Description: "Domain reputation from popularity rank",
	},
	"assignee": {
		Factory:     assignee.NewAssigneeIntegration,
		Transport:   operation.TransportOptions{DefaultAuth: config.AuthBearer},
		Description: "Analyst assignment recommendation",
	},
}

// Types returns the registered adapter types in sorted order.
func Types() []string {
	types := make([]string, 0, len(BuiltinRegistry))
	for name := range BuiltinRegistry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Deps are the shared services used to build providers. Zero values select
// defaults.
type Deps struct {
	Transports *transport.Registry
	Metrics    *operation.Metrics
	JQ         *jq.Executor
	Logger     *slog.Logger
}

// New builds the provider for inst. The instance secret must already be
// resolved. No vendor request is made.
func New(ctx context.Context, inst *config.InstanceConfig, deps Deps) (operation.Provider, error) {
	builtin, err := lookup(inst)
	if err != nil {
		return nil, err
	}

	registry := deps.Transports
	if registry == nil {
		registry = transport.NewDefaultRegistry()
	}

	t, err := operation.NewTransport(ctx, registry, inst, builtin.Transport)
	if err != nil {
		return nil, &soarerrors.ConfigError{
			Key:    fmt.Sprintf("integrations.%s", inst.Name),
			Reason: err.Error(),
			Cause:  err,
		}
	}
	if deps.Metrics != nil {
		t = deps.Metrics.Instrument(inst.Name, t)
	}

	return builtin.Factory(&api.ProviderConfig{
		Transport: t,
		Instance:  inst,
		JQ:        deps.JQ,
		Logger:    deps.Logger,
	})
}

func lookup(inst *config.InstanceConfig) (Builtin, error) {
	builtin, ok := BuiltinRegistry[inst.Type]
	if !ok {
		return Builtin{}, &soarerrors.ConfigError{
			Key:    fmt.Sprintf("integrations.%s.type", inst.Name),
			Reason: fmt.Sprintf("unknown integration type %q (known: %s)", inst.Type, strings.Join(Types(), ", ")),
		}
	}
	return builtin, nil
}

// ErrOffline is returned by providers built with Describe when a command
// tries to reach the vendor.
var ErrOffline = errors.New("integration: provider built for description only")

// Describe builds the provider for inst without credentials or a network
// transport, so that its command catalogue can be listed.
func Describe(inst *config.InstanceConfig) (api.TypedProvider, error) {
	builtin, err := lookup(inst)
	if err != nil {
		return nil, err
	}

	provider, err := builtin.Factory(&api.ProviderConfig{
		Transport: offlineTransport{},
		Instance:  inst,
	})
	if err != nil {
		return nil, err
	}
	typed, ok := provider.(api.TypedProvider)
	if !ok {
		return nil, fmt.Errorf("%s integration does not describe its commands", inst.Type)
	}
	return typed, nil
}

type offlineTransport struct{}

func (offlineTransport) Execute(context.Context, *transport.Request) (*transport.Response, error) {
	return nil, ErrOffline
}

func (offlineTransport) Name() string { return "offline" }

func (offlineTransport) SetRateLimiter(transport.RateLimiter) {}
