package jq

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// Extractor reads named fields out of vendor responses. Each field name maps
// to a jq expression; instance configuration may override any default.
type Extractor struct {
	exec   *Executor
	fields map[string]string
}

// NewExtractor builds an extractor from defaults overlaid with overrides.
// Every resulting expression is validated up front.
func NewExtractor(exec *Executor, defaults, overrides map[string]string) (*Extractor, error) {
	if exec == nil {
		exec = NewExecutor(0, 0)
	}

	fields := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		fields[k] = v
	}
	for k, v := range overrides {
		if _, known := defaults[k]; !known {
			return nil, fmt.Errorf("unknown field %q (known: %v)", k, sortedKeys(defaults))
		}
		fields[k] = v
	}

	for name, expr := range fields {
		if err := exec.Validate(expr); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
	}

	return &Extractor{exec: exec, fields: fields}, nil
}

// Expression returns the jq expression configured for field.
func (x *Extractor) Expression(field string) string {
	return x.fields[field]
}

// Value evaluates field against data. ok is false when the field is absent.
func (x *Extractor) Value(ctx context.Context, field string, data interface{}) (interface{}, bool, error) {
	expr, known := x.fields[field]
	if !known {
		return nil, false, fmt.Errorf("unknown field %q", field)
	}
	return x.exec.First(ctx, expr, data)
}

// String evaluates field and renders scalars as strings.
func (x *Extractor) String(ctx context.Context, field string, data interface{}) (string, error) {
	v, ok, err := x.Value(ctx, field, data)
	if err != nil || !ok {
		return "", err
	}
	return Stringify(v), nil
}

// Bool evaluates field as a boolean. Strings "true"/"false" are accepted.
func (x *Extractor) Bool(ctx context.Context, field string, data interface{}) (bool, bool, error) {
	v, ok, err := x.Value(ctx, field, data)
	if err != nil || !ok {
		return false, false, err
	}
	switch b := v.(type) {
	case bool:
		return b, true, nil
	case string:
		parsed, perr := strconv.ParseBool(b)
		if perr != nil {
			return false, false, nil
		}
		return parsed, true, nil
	default:
		return false, false, nil
	}
}

// Number evaluates field as a number. Numeric strings are accepted.
func (x *Extractor) Number(ctx context.Context, field string, data interface{}) (float64, bool, error) {
	v, ok, err := x.Value(ctx, field, data)
	if err != nil || !ok {
		return 0, false, err
	}
	n, isNum := ToFloat(v)
	return n, isNum, nil
}

// Stringify renders a jq scalar result as plain text.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ToFloat converts numeric jq results and numeric strings to float64.
func ToFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
