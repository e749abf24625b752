// Package iam manages user accounts in a SCIM 2.0 identity provider.
//
// The lifecycle commands (get, create, update, enable, disable) never fail
// the invocation for vendor errors: each produces a UserResult whose
// success flag, error code and message describe the outcome. A configurable
// skip rule turns selected vendor errors into successful no-ops.
package iam

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tombee/soarbridge/internal/config"
	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/output"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// ProfileTypeName names the schema returned by get-mapping-fields.
const ProfileTypeName = "User Profile"

var commandActions = map[string]Action{
	"iam-get-user":     ActionGet,
	"iam-create-user":  ActionCreate,
	"iam-update-user":  ActionUpdate,
	"iam-enable-user":  ActionEnable,
	"iam-disable-user": ActionDisable,
}

// IAMIntegration implements the user lifecycle commands.
type IAMIntegration struct {
	*api.BaseProvider
	client   UserClient
	commands *Commands
	brand    string
	instance string
}

// NewIAMIntegration creates an IAM provider. The tenant_id param is
// appended to the base URL.
func NewIAMIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.Instance == nil {
		return nil, fmt.Errorf("iam integration requires an instance configuration")
	}
	inst := config.Instance
	params := inst.Params

	baseURL := strings.TrimRight(inst.BaseURL, "/")
	if tenant := params.String("tenant_id"); tenant != "" {
		baseURL = baseURL + "/" + strings.Trim(tenant, "/")
	}
	base := api.NewBaseProvider("iam", baseURL, config)

	fields, err := jq.NewExtractor(base.JQ(), DefaultFields, inst.Fields)
	if err != nil {
		return nil, &soarerrors.ConfigError{Key: "fields", Reason: err.Error(), Cause: err}
	}

	mapper, err := NewMapper(base.JQ(), params.String("mapper_out"), params.String("mapper_in"))
	if err != nil {
		return nil, &soarerrors.ConfigError{Key: "params", Reason: err.Error(), Cause: err}
	}

	rule, err := NewSkipRule(params.String("skip_rule"))
	if err != nil {
		return nil, &soarerrors.ConfigError{Key: "params.skip_rule", Reason: err.Error(), Cause: err}
	}

	settings, err := loadSettings(params)
	if err != nil {
		return nil, err
	}

	brand := params.String("brand")
	if brand == "" {
		brand = inst.Type
	}

	client := NewSCIMClient(base, fields, params.String("api_version"))

	return &IAMIntegration{
		BaseProvider: base,
		client:       client,
		commands:     NewCommands(client, mapper, rule, fields, settings, base.Logger()),
		brand:        brand,
		instance:     inst.Name,
	}, nil
}

// loadSettings reads the command switches. Every command is enabled unless
// turned off; create_if_not_exists defaults to false.
func loadSettings(params config.Params) (Settings, error) {
	var s Settings
	for _, p := range []struct {
		key string
		dst *bool
	}{
		{"create_user_enabled", &s.CreateEnabled},
		{"update_user_enabled", &s.UpdateEnabled},
		{"enable_user_enabled", &s.EnableEnabled},
		{"disable_user_enabled", &s.DisableEnabled},
		{"create_if_not_exists", &s.CreateIfNotExists},
	} {
		def := p.key != "create_if_not_exists"
		v, err := params.Bool(p.key, def)
		if err != nil {
			return s, &soarerrors.ConfigError{Key: "params." + p.key, Reason: err.Error(), Cause: err}
		}
		*p.dst = v
	}
	return s, nil
}

// Execute runs a named command with the given arguments.
func (c *IAMIntegration) Execute(ctx context.Context, command string, args map[string]interface{}) (*operation.Result, error) {
	switch command {
	case "test-module":
		return c.testModule(ctx)
	case "get-mapping-fields":
		return c.getMappingFields(ctx)
	}

	action, ok := commandActions[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", operation.ErrUnknownCommand, command)
	}

	res, err := c.commands.Run(ctx, action, args)
	if err != nil {
		return nil, err
	}
	res.Brand = c.brand
	res.Instance = c.instance
	return operation.NewResult(res.Entry()), nil
}

func (c *IAMIntegration) testModule(ctx context.Context) (*operation.Result, error) {
	if err := c.CheckIdentity(ctx); err != nil {
		return nil, err
	}
	if err := c.client.Test(ctx); err != nil {
		return nil, err
	}
	return operation.TextResult("ok"), nil
}

func (c *IAMIntegration) getMappingFields(ctx context.Context) (*operation.Result, error) {
	fields, err := c.client.GetAppFields(ctx)
	if err != nil {
		return nil, operation.FromTransportError(err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, fields[name]})
	}

	return operation.NewResult(&operation.Entry{
		ReadableOutput: output.MarkdownTable(ProfileTypeName, []string{"Field", "Description"}, rows),
		Outputs: map[string]interface{}{
			"type_name": ProfileTypeName,
			"fields":    fields,
		},
	}), nil
}

// Operations returns the list of available commands.
func (c *IAMIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "test-module", Description: "List users to check connectivity", Category: "connectivity", Tags: []string{"read", "connectivity"}},
		{Name: "iam-get-user", Description: "Look up a user by email", Category: "users", Tags: []string{"read"}},
		{Name: "iam-create-user", Description: "Create a user, or update it if it exists", Category: "users", Tags: []string{"write"}},
		{Name: "iam-update-user", Description: "Update a user", Category: "users", Tags: []string{"write"}},
		{Name: "iam-enable-user", Description: "Enable a user", Category: "users", Tags: []string{"write"}},
		{Name: "iam-disable-user", Description: "Disable a user", Category: "users", Tags: []string{"write"}},
		{Name: "get-mapping-fields", Description: "List the vendor user schema fields", Category: "schema", Tags: []string{"read"}},
	}
}

var (
	profileParam = api.ParameterInfo{Name: "user-profile", Type: "object", Description: "Platform user profile; must contain email", Required: true}
	emailParam   = api.ParameterInfo{Name: "email", Type: "string", Description: "Email used when user-profile has none"}

	resultFields = []api.ResponseFieldInfo{
		{Name: OutputsPrefix + ".action", Type: "string", Description: "The action taken"},
		{Name: OutputsPrefix + ".success", Type: "boolean", Description: "Whether the action succeeded"},
		{Name: OutputsPrefix + ".active", Type: "boolean", Description: "Whether the user is active"},
		{Name: OutputsPrefix + ".id", Type: "string", Description: "Vendor user ID"},
		{Name: OutputsPrefix + ".username", Type: "string", Description: "Vendor user name"},
		{Name: OutputsPrefix + ".email", Type: "string", Description: "User email"},
		{Name: OutputsPrefix + ".errorCode", Type: "number", Description: "HTTP status of a failed action"},
		{Name: OutputsPrefix + ".errorMessage", Type: "string", Description: "Vendor error message"},
		{Name: OutputsPrefix + ".details", Type: "object", Description: "Vendor user record"},
		{Name: OutputsPrefix + ".skipped", Type: "boolean", Description: "Whether the action was skipped"},
		{Name: OutputsPrefix + ".reason", Type: "string", Description: "Why the action was skipped"},
	}
)

// OperationSchema returns the schema for a command.
func (c *IAMIntegration) OperationSchema(command string) *api.OperationSchema {
	op, ok := api.FindOperation(c.Operations(), command)
	if !ok {
		return nil
	}

	schema := &api.OperationSchema{Description: op.Description}
	switch command {
	case "iam-update-user":
		schema.Parameters = []api.ParameterInfo{
			profileParam, emailParam,
			{Name: "allow-enable", Type: "boolean", Description: "Enable the user before updating if it is disabled", Default: false},
		}
		schema.ResponseFields = resultFields
	case "iam-get-user", "iam-create-user", "iam-enable-user", "iam-disable-user":
		schema.Parameters = []api.ParameterInfo{profileParam, emailParam}
		schema.ResponseFields = resultFields
	case "get-mapping-fields":
		schema.ResponseFields = []api.ResponseFieldInfo{
			{Name: "type_name", Type: "string", Description: "Schema type name"},
			{Name: "fields", Type: "object", Description: "Field name to description"},
		}
	}
	return schema
}
