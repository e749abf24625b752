package iam

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/operation/transport"
)

const (
	usersPath  = "/scim/v2/Users/"
	userPath   = "/scim/v2/Users/{id}"
	schemaPath = "/schema"
)

// Field names for response extraction.
const (
	FieldTotal        = "total"
	FieldSearchResult = "search_result"
	FieldWriteResult  = "write_result"
	FieldID           = "id"
	FieldUsername     = "username"
	FieldActive       = "active"
	FieldErrorMessage = "error_message"
	FieldErrorDetail  = "error_detail"
	FieldSchema       = "schema_fields"
)

// DefaultFields are the jq expressions used to read SCIM responses.
var DefaultFields = map[string]string{
	FieldTotal:        ".totalResults",
	FieldSearchResult: ".Resources[0]",
	FieldWriteResult:  ".",
	FieldID:           ".id",
	FieldUsername:     ".userName",
	FieldActive:       ".active",
	FieldErrorMessage: ".error.message",
	FieldErrorDetail:  ".error.detail",
	FieldSchema:       ".result",
}

// SCIMClient implements UserClient against a SCIM 2.0 user endpoint.
// Vendor errors are returned as transport errors so that HandleError can
// read the status and body.
type SCIMClient struct {
	*api.BaseProvider
	fields     *jq.Extractor
	apiVersion string
}

// NewSCIMClient creates a SCIM client on top of base.
func NewSCIMClient(base *api.BaseProvider, fields *jq.Extractor, apiVersion string) *SCIMClient {
	return &SCIMClient{
		BaseProvider: base,
		fields:       fields,
		apiVersion:   apiVersion,
	}
}

// Test lists users to check connectivity. Only a 200 counts as success.
func (c *SCIMClient) Test(ctx context.Context) error {
	query := c.BuildQueryString(map[string]interface{}{"version": c.apiVersion}, nil)

	resp, err := c.ExecuteRequest(ctx, http.MethodGet, c.BaseURL()+usersPath+query, nil, nil)
	if err != nil {
		te, ok := transport.AsTransportError(err)
		if !ok || te.StatusCode == 0 {
			return operation.FromTransportError(err)
		}
		return testError(te.StatusCode, te.Body, te.RequestID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return testError(resp.StatusCode, resp.Body, "", nil)
	}
	return nil
}

func testError(status int, body []byte, requestID string, cause error) error {
	return &operation.Error{
		Type:       operation.ClassifyHTTPError(status),
		StatusCode: status,
		Message:    fmt.Sprintf("Error testing [%d] - %s", status, strings.TrimSpace(string(body))),
		RequestID:  requestID,
		Cause:      cause,
	}
}

// GetUser finds a user by email through the userName filter.
func (c *SCIMClient) GetUser(ctx context.Context, email string) (*UserAppData, error) {
	query := c.BuildQueryString(map[string]interface{}{
		"filter": fmt.Sprintf("userName eq %q", email),
	}, nil)

	raw, err := c.do(ctx, http.MethodGet, c.BaseURL()+usersPath+query, nil)
	if err != nil {
		return nil, err
	}

	total, ok, err := c.fields.Number(ctx, FieldTotal, raw)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldTotal), err)
	}
	if !ok || total <= 0 {
		return nil, nil
	}

	user, ok, err := c.fields.Value(ctx, FieldSearchResult, raw)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldSearchResult), err)
	}
	if !ok || user == nil {
		return nil, nil
	}

	return c.appData(ctx, user)
}

// CreateUser creates a user from a vendor-shaped payload.
func (c *SCIMClient) CreateUser(ctx context.Context, data map[string]interface{}) (*UserAppData, error) {
	return c.write(ctx, http.MethodPost, c.BaseURL()+usersPath, data)
}

// UpdateUser patches a user with a vendor-shaped payload.
func (c *SCIMClient) UpdateUser(ctx context.Context, id string, data map[string]interface{}) (*UserAppData, error) {
	url, err := c.BuildURL(userPath, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	return c.write(ctx, http.MethodPatch, url, data)
}

// EnableUser sets the user active through the update endpoint.
func (c *SCIMClient) EnableUser(ctx context.Context, id string) (*UserAppData, error) {
	return c.UpdateUser(ctx, id, map[string]interface{}{"active": true})
}

// DisableUser sets the user inactive through the update endpoint.
func (c *SCIMClient) DisableUser(ctx context.Context, id string) (*UserAppData, error) {
	return c.UpdateUser(ctx, id, map[string]interface{}{"active": false})
}

// GetAppFields returns the vendor user schema as field name to description.
func (c *SCIMClient) GetAppFields(ctx context.Context) (map[string]string, error) {
	raw, err := c.do(ctx, http.MethodGet, c.BaseURL()+schemaPath, nil)
	if err != nil {
		return nil, err
	}

	v, ok, err := c.fields.Value(ctx, FieldSchema, raw)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldSchema), err)
	}

	fields := make(map[string]string)
	if !ok || v == nil {
		return fields, nil
	}
	list, isList := v.([]interface{})
	if !isList {
		return nil, operation.NewTransformError(c.fields.Expression(FieldSchema), fmt.Errorf("expected a list, got %T", v))
	}
	for _, item := range list {
		field, isObject := item.(map[string]interface{})
		if !isObject {
			continue
		}
		name := jq.Stringify(field["name"])
		if name == "" {
			continue
		}
		fields[name] = jq.Stringify(field["description"])
	}
	return fields, nil
}

func (c *SCIMClient) write(ctx context.Context, method, url string, data map[string]interface{}) (*UserAppData, error) {
	raw, err := c.do(ctx, method, url, data)
	if err != nil {
		return nil, err
	}

	user, ok, err := c.fields.Value(ctx, FieldWriteResult, raw)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldWriteResult), err)
	}
	if !ok || user == nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldWriteResult), fmt.Errorf("no user in response"))
	}
	return c.appData(ctx, user)
}

// do sends one request and decodes the JSON response.
func (c *SCIMClient) do(ctx context.Context, method, url string, data map[string]interface{}) (interface{}, error) {
	var body []byte
	if data != nil {
		b, err := c.BuildRequestBody(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = b
	}

	resp, err := c.ExecuteRequest(ctx, method, url, nil, body)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := c.ParseJSONResponse(resp, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// appData reads the identifying fields out of a vendor user record.
func (c *SCIMClient) appData(ctx context.Context, v interface{}) (*UserAppData, error) {
	record, ok := v.(map[string]interface{})
	if !ok {
		return nil, operation.NewTransformError(c.fields.Expression(FieldSearchResult), fmt.Errorf("expected a user object, got %T", v))
	}

	id, err := c.fields.String(ctx, FieldID, record)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldID), err)
	}
	username, err := c.fields.String(ctx, FieldUsername, record)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldUsername), err)
	}
	active, _, err := c.fields.Bool(ctx, FieldActive, record)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldActive), err)
	}

	return &UserAppData{
		ID:       id,
		Username: username,
		Active:   active,
		Data:     record,
	}, nil
}
