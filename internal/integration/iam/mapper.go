package iam

import (
	"context"
	"fmt"

	"github.com/tombee/soarbridge/internal/jq"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// Mapper converts between the platform user profile and the vendor user
// record with two jq expressions. The identity expression "." passes the
// object through unchanged.
type Mapper struct {
	exec *jq.Executor
	out  string
	in   string
}

// NewMapper validates the outgoing and incoming expressions. Empty
// expressions default to ".".
func NewMapper(exec *jq.Executor, out, in string) (*Mapper, error) {
	if out == "" {
		out = "."
	}
	if in == "" {
		in = "."
	}
	if err := exec.Validate(out); err != nil {
		return nil, soarerrors.Wrap(err, "mapper_out")
	}
	if err := exec.Validate(in); err != nil {
		return nil, soarerrors.Wrap(err, "mapper_in")
	}
	return &Mapper{exec: exec, out: out, in: in}, nil
}

// ToVendor maps a platform profile to the vendor payload.
func (m *Mapper) ToVendor(ctx context.Context, profile map[string]interface{}) (map[string]interface{}, error) {
	return m.apply(ctx, "mapper_out", m.out, profile)
}

// FromVendor maps a vendor record back to a platform profile.
func (m *Mapper) FromVendor(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	return m.apply(ctx, "mapper_in", m.in, data)
}

func (m *Mapper) apply(ctx context.Context, name, expression string, data map[string]interface{}) (map[string]interface{}, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	v, ok, err := m.exec.First(ctx, expression, data)
	if err != nil {
		return nil, soarerrors.Wrap(err, name)
	}
	if !ok || v == nil {
		return map[string]interface{}{}, nil
	}
	obj, isObject := v.(map[string]interface{})
	if !isObject {
		return nil, fmt.Errorf("%s must produce an object, got %T", name, v)
	}
	return obj, nil
}
