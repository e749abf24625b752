package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/log"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/transport"
)

// BaseProvider provides common functionality for vendor adapters.
type BaseProvider struct {
	name      string
	transport transport.Transport
	baseURL   string
	jq        *jq.Executor
	logger    *slog.Logger
	validator *operation.Validator

	verifyIdentity bool
}

// NewBaseProvider creates a new base provider. baseURL is normally the
// instance base URL; adapters that scope requests (e.g., by tenant) pass a
// longer one.
func NewBaseProvider(name, baseURL string, config *ProviderConfig) *BaseProvider {
	exec := config.JQ
	if exec == nil {
		exec = jq.NewExecutor(0, 0)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &BaseProvider{
		name:      name,
		transport: config.Transport,
		baseURL:   strings.TrimRight(baseURL, "/"),
		jq:        exec,
		logger:    logger.With(slog.String("vendor", name)),
		validator: operation.NewValidator(),
	}
	if config.Instance != nil {
		p.verifyIdentity = config.Instance.Auth.VerifyIdentity
	}
	return p
}

// Name returns the adapter identifier.
func (c *BaseProvider) Name() string {
	return c.name
}

// BaseURL returns the URL requests are built against.
func (c *BaseProvider) BaseURL() string {
	return c.baseURL
}

// Logger returns the adapter logger.
func (c *BaseProvider) Logger() *slog.Logger {
	return c.logger
}

// JQ returns the expression executor.
func (c *BaseProvider) JQ() *jq.Executor {
	return c.jq
}

// Transport returns the underlying transport.
func (c *BaseProvider) Transport() transport.Transport {
	return c.transport
}

// Validator returns the argument validator.
func (c *BaseProvider) Validator() *operation.Validator {
	return c.validator
}

// CheckIdentity confirms the transport credentials with the identity
// provider when the instance sets auth.verify_identity. Transports that
// cannot verify identity are reported as a configuration problem.
func (c *BaseProvider) CheckIdentity(ctx context.Context) error {
	if !c.verifyIdentity {
		return nil
	}
	verifier, ok := operation.AsIdentityVerifier(c.transport)
	if !ok {
		return fmt.Errorf("auth.verify_identity is set but transport %s cannot verify identity", c.transport.Name())
	}
	identity, err := verifier.VerifyIdentity(ctx)
	if err != nil {
		return operation.FromTransportError(err)
	}
	c.logger.Debug("credentials verified", slog.String("identity", identity))
	return nil
}

// BuildURL constructs a full URL from a path template and inputs.
// Path templates use {param} syntax (e.g., "/Users/{id}"). Values are
// path-escaped.
func (c *BaseProvider) BuildURL(pathTemplate string, inputs map[string]interface{}) (string, error) {
	path := pathTemplate

	for key, value := range inputs {
		placeholder := fmt.Sprintf("{%s}", key)
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(fmt.Sprint(value)))
		}
	}

	// Check for unreplaced parameters
	if start := strings.Index(path, "{"); start >= 0 {
		if end := strings.Index(path[start:], "}"); end > 0 {
			return "", fmt.Errorf("missing required parameter: %s", path[start+1:start+end])
		}
	}

	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path, nil
}

// BuildQueryString constructs a query string from inputs. Nil and empty
// string values are dropped, as are keys listed in exclude. List values
// repeat the key once per element.
func (c *BaseProvider) BuildQueryString(inputs map[string]interface{}, exclude []string) string {
	values := url.Values{}

	excludeSet := make(map[string]bool, len(exclude))
	for _, param := range exclude {
		excludeSet[param] = true
	}

	for key, value := range inputs {
		if excludeSet[key] || value == nil {
			continue
		}
		for _, s := range queryValues(value) {
			values.Add(key, s)
		}
	}

	if len(values) == 0 {
		return ""
	}

	return "?" + values.Encode()
}

// queryValues renders an argument as query values. Lists become one value
// per element so the key repeats; empty values are dropped.
func queryValues(value interface{}) []string {
	var items []interface{}
	switch v := value.(type) {
	case []interface{}:
		items = v
	case []string:
		for _, item := range v {
			items = append(items, item)
		}
	default:
		items = []interface{}{v}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := ArgString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BuildRequestBody marshals body as JSON. A nil body yields no bytes.
func (c *BaseProvider) BuildRequestBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}

// ExecuteRequest sends an HTTP request and returns the response.
// Authentication is applied by the transport.
func (c *BaseProvider) ExecuteRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) (*transport.Response, error) {
	req := &transport.Request{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}

	c.logger.Debug("vendor request", slog.String("method", method), slog.String("url", url))

	resp, err := c.transport.Execute(ctx, req)
	if resp != nil {
		log.Trace(c.logger, "vendor response",
			slog.Int("status", resp.StatusCode),
			slog.Int("bytes", len(resp.Body)),
		)
	}
	return resp, err
}

// ParseJSONResponse parses a JSON response into a target value.
func (c *BaseProvider) ParseJSONResponse(resp *transport.Response, target interface{}) error {
	if len(resp.Body) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, target); err != nil {
		return &operation.Error{
			Type:       operation.ErrorTypeTransform,
			Message:    fmt.Sprintf("vendor returned invalid JSON: %v", err),
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}
	return nil
}

// ValidateRequired checks that all required arguments are present.
func (c *BaseProvider) ValidateRequired(args map[string]interface{}, required []string) error {
	return c.validator.ValidateRequired(args, required...)
}

// ArgString renders an argument value as a string. Slices are joined with
// commas.
func ArgString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, ArgString(item))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	default:
		return jq.Stringify(v)
	}
}

// ArgToList converts an argument to a list of strings. Strings are split on
// commas and entries are trimmed; empty entries are dropped.
func ArgToList(value interface{}) []string {
	var raw []string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []interface{}:
		for _, item := range v {
			raw = append(raw, ArgString(item))
		}
	default:
		raw = []string{ArgString(v)}
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ArgToBool converts an argument to a boolean. Missing values yield def.
func ArgToBool(value interface{}, def bool) (bool, error) {
	switch v := value.(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%v is not a boolean", v)
	}
}

// ArgToNumber converts an argument to a number. ok is false when value is
// missing or empty.
func ArgToNumber(value interface{}) (n float64, ok bool, err error) {
	if value == nil {
		return 0, false, nil
	}
	if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
		return 0, false, nil
	}
	if s, isString := value.(string); isString {
		value = strings.TrimSpace(s)
	}
	n, ok = jq.ToFloat(value)
	if !ok {
		return 0, false, fmt.Errorf("%v is not a number", value)
	}
	return n, true, nil
}

// ArgToObject converts an argument to a JSON object. Strings are parsed as
// JSON.
func ArgToObject(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			return nil, fmt.Errorf("expected a JSON object: %w", err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("expected a JSON object, got %T", value)
	}
}

// SortedKeys returns the keys of m in sorted order.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
