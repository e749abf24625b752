// Package assignee asks an analyst-recommendation service which analyst
// should own an incident.
package assignee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/operation/transport"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

const (
	// OutputsPrefix is the context path the recommendation is stored under.
	OutputsPrefix = "Penfield.Recommended"

	liveAssignPath = "/api/v1/xsoar_live_assign/"
	healthyBody    = "healthy"
)

// FieldAnalyst names the recommended-analyst field.
const FieldAnalyst = "analyst"

// DefaultFields are the jq expressions used to read recommendations.
var DefaultFields = map[string]string{
	FieldAnalyst: ".analyst",
}

// incidentArgs are forwarded to the vendor as query parameters.
var incidentArgs = []string{"analyst_ids", "category", "created", "id", "name", "severity"}

// ErrUnreachable is returned by test-module when the health check does not
// report healthy.
var ErrUnreachable = errors.New("Penfield API cannot be reached")

// AssigneeIntegration implements analyst recommendation.
type AssigneeIntegration struct {
	*api.BaseProvider
	fields *jq.Extractor
}

// NewAssigneeIntegration creates an assignee provider.
func NewAssigneeIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.Instance == nil {
		return nil, fmt.Errorf("assignee integration requires an instance configuration")
	}

	base := api.NewBaseProvider("assignee", config.Instance.BaseURL, config)

	fields, err := jq.NewExtractor(base.JQ(), DefaultFields, config.Instance.Fields)
	if err != nil {
		return nil, &soarerrors.ConfigError{Key: "fields", Reason: err.Error(), Cause: err}
	}

	return &AssigneeIntegration{
		BaseProvider: base,
		fields:       fields,
	}, nil
}

// Execute runs a named command with the given arguments.
func (c *AssigneeIntegration) Execute(ctx context.Context, command string, args map[string]interface{}) (*operation.Result, error) {
	switch command {
	case "test-module":
		return c.testModule(ctx)
	case "penfield-get-assignee":
		return c.getAssignee(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", operation.ErrUnknownCommand, command)
	}
}

// Operations returns the list of available commands.
func (c *AssigneeIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "test-module", Description: "Check the recommendation service health endpoint", Category: "connectivity", Tags: []string{"read", "connectivity"}},
		{Name: "penfield-get-assignee", Description: "Recommend an analyst for an incident", Category: "assignment", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for a command.
func (c *AssigneeIntegration) OperationSchema(command string) *api.OperationSchema {
	switch command {
	case "test-module":
		return &api.OperationSchema{Description: "Check the recommendation service health endpoint"}
	case "penfield-get-assignee":
		return &api.OperationSchema{
			Description: "Recommend an analyst for an incident",
			Parameters: []api.ParameterInfo{
				{Name: "analyst_ids", Type: "array", Description: "Candidate analyst IDs"},
				{Name: "category", Type: "string", Description: "Incident category"},
				{Name: "created", Type: "string", Description: "Incident creation time"},
				{Name: "id", Type: "string", Description: "Incident ID"},
				{Name: "name", Type: "string", Description: "Incident name"},
				{Name: "severity", Type: "string", Description: "Incident severity"},
			},
			ResponseFields: []api.ResponseFieldInfo{
				{Name: OutputsPrefix, Type: "string", Description: "The recommended analyst"},
			},
		}
	}
	return nil
}

// getAssignee posts the incident attributes and returns the recommended
// analyst.
func (c *AssigneeIntegration) getAssignee(ctx context.Context, args map[string]interface{}) (*operation.Result, error) {
	query := make(map[string]interface{}, len(incidentArgs))
	for _, name := range incidentArgs {
		if v, ok := args[name]; ok {
			query[name] = v
		}
	}

	url := c.BaseURL() + liveAssignPath + c.BuildQueryString(query, nil)
	resp, err := c.ExecuteRequest(ctx, http.MethodPost, url, nil, nil)
	if err != nil {
		return nil, operation.FromTransportError(err)
	}

	var raw interface{}
	if err := c.ParseJSONResponse(resp, &raw); err != nil {
		return nil, err
	}

	analyst, ok, err := c.fields.Value(ctx, FieldAnalyst, raw)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldAnalyst), err)
	}
	if !ok || analyst == nil {
		return nil, &operation.Error{
			Type:       operation.ErrorTypeTransform,
			Message:    "response has no analyst",
			StatusCode: resp.StatusCode,
		}
	}

	return operation.NewResult(&operation.Entry{
		ReadableOutput: jq.Stringify(analyst),
		OutputsPrefix:  OutputsPrefix,
		Outputs:        analyst,
		RawResponse:    raw,
		StatusCode:     resp.StatusCode,
	}), nil
}

// testModule checks that the service reports itself healthy.
func (c *AssigneeIntegration) testModule(ctx context.Context) (*operation.Result, error) {
	if err := c.CheckIdentity(ctx); err != nil {
		return nil, err
	}

	resp, err := c.ExecuteRequest(ctx, http.MethodGet, c.BaseURL()+liveAssignPath, nil, nil)
	if err != nil {
		if te, ok := transport.AsTransportError(err); ok && te.StatusCode != 0 {
			return nil, fmt.Errorf("%w [HTTP %d]", ErrUnreachable, te.StatusCode)
		}
		return nil, operation.FromTransportError(err)
	}

	if !isHealthy(resp.Body) {
		return nil, ErrUnreachable
	}
	return operation.TextResult("ok"), nil
}

// isHealthy accepts both a JSON string and a bare text body.
func isHealthy(body []byte) bool {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s == healthyBody
	}
	return strings.TrimSpace(string(body)) == healthyBody
}
