package iam

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation/transport"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// DefaultSkipRule treats disabling a user the vendor does not know as done.
const DefaultSkipRule = `action == "disable" && status_code == 404`

// SkipRule decides whether a vendor error turns an action into a no-op.
// The expression sees two variables: action (string) and status_code (int).
type SkipRule struct {
	expression string
	program    *vm.Program
}

func skipEnv(action Action, statusCode int) map[string]interface{} {
	return map[string]interface{}{
		"action":      string(action),
		"status_code": statusCode,
	}
}

// NewSkipRule compiles expression. An empty expression selects
// DefaultSkipRule.
func NewSkipRule(expression string) (*SkipRule, error) {
	if expression == "" {
		expression = DefaultSkipRule
	}

	program, err := expr.Compile(expression,
		expr.Env(skipEnv("", 0)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &soarerrors.ValidationError{
			Field:       "skip_rule",
			Message:     fmt.Sprintf("failed to compile expression: %s", err.Error()),
			SuggestText: "use action and status_code, e.g. " + DefaultSkipRule,
		}
	}

	return &SkipRule{expression: expression, program: program}, nil
}

// String returns the rule source.
func (r *SkipRule) String() string {
	return r.expression
}

// Match evaluates the rule for an action that failed with statusCode.
func (r *SkipRule) Match(action Action, statusCode int) (bool, error) {
	out, err := expr.Run(r.program, skipEnv(action, statusCode))
	if err != nil {
		return false, fmt.Errorf("skip rule evaluation failed: %w", err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("skip rule must return boolean, got %T", out)
	}
	return matched, nil
}

// HandleError translates a failed vendor call into a user result. Errors
// carrying an HTTP status that match rule become successful skips; other
// status errors fail with the vendor message parsed from the body. Errors
// without a status fail with an empty code and the error text.
func HandleError(ctx context.Context, err error, action Action, rule *SkipRule, fields *jq.Extractor) *UserResult {
	te, ok := transport.AsTransportError(err)
	if !ok || te.StatusCode == 0 {
		return &UserResult{
			Action:       action,
			Success:      false,
			ErrorMessage: err.Error(),
		}
	}

	if rule != nil {
		if matched, rerr := rule.Match(action, te.StatusCode); rerr == nil && matched {
			return skip(action, ReasonAlreadyDisabled)
		}
	}

	return &UserResult{
		Action:       action,
		Success:      false,
		ErrorCode:    te.StatusCode,
		ErrorMessage: vendorMessage(ctx, fields, te.Body, te.Message),
	}
}

// vendorMessage renders "<message>: <detail>" from a JSON error body, or
// fallback when the body is not a JSON object or carries neither field.
func vendorMessage(ctx context.Context, fields *jq.Extractor, body []byte, fallback string) string {
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback
	}
	if _, isObject := parsed.(map[string]interface{}); !isObject {
		return fallback
	}

	message, _ := fields.String(ctx, FieldErrorMessage, parsed)
	detail, _ := fields.String(ctx, FieldErrorDetail, parsed)
	if message == "" && detail == "" {
		return fallback
	}
	return message + ": " + detail
}
