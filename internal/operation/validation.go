package operation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Source reliability tags accepted by the platform.
const (
	ReliabilityAPlus = "A+ - 3rd party enrichment"
	ReliabilityA     = "A - Completely reliable"
	ReliabilityB     = "B - Usually reliable"
	ReliabilityC     = "C - Fairly reliable"
	ReliabilityD     = "D - Not usually reliable"
	ReliabilityE     = "E - Unreliable"
	ReliabilityF     = "F - Reliability cannot be judged"
)

var reliabilityTags = map[string]bool{
	ReliabilityAPlus: true,
	ReliabilityA:     true,
	ReliabilityB:     true,
	ReliabilityC:     true,
	ReliabilityD:     true,
	ReliabilityE:     true,
	ReliabilityF:     true,
}

// ReliabilityTags returns the accepted reliability tags in order.
func ReliabilityTags() []string {
	tags := make([]string, 0, len(reliabilityTags))
	for tag := range reliabilityTags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Validator provides parameter and argument validation for adapters.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateReliability checks that tag is a known reliability tag.
func (v *Validator) ValidateReliability(tag string) error {
	if !reliabilityTags[tag] {
		return &Error{
			Type:        ErrorTypeValidation,
			Message:     fmt.Sprintf("invalid reliability %q", tag),
			SuggestText: "use one of: " + strings.Join(ReliabilityTags(), ", "),
		}
	}
	return nil
}

// ValidateNonNegative checks that a numeric parameter is present and not
// negative.
func (v *Validator) ValidateNonNegative(name string, value float64, present bool) error {
	if !present {
		return &Error{
			Type:        ErrorTypeValidation,
			Message:     fmt.Sprintf("%s is required", name),
			SuggestText: fmt.Sprintf("set params.%s for the instance", name),
		}
	}
	if value < 0 {
		return &Error{
			Type:        ErrorTypeValidation,
			Message:     fmt.Sprintf("%s must be a non-negative number, got %v", name, value),
			SuggestText: fmt.Sprintf("set params.%s to zero or greater", name),
		}
	}
	return nil
}

// ValidateRequired checks that every name is present in args with a
// non-empty value.
func (v *Validator) ValidateRequired(args map[string]interface{}, names ...string) error {
	for _, name := range names {
		value, ok := args[name]
		if !ok || value == nil {
			return missingArgument(name)
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			return missingArgument(name)
		}
	}
	return nil
}

func missingArgument(name string) *Error {
	return &Error{
		Type:        ErrorTypeValidation,
		Message:     fmt.Sprintf("missing required argument: %s", name),
		SuggestText: fmt.Sprintf("pass --arg %s=<value>", name),
	}
}

// IsValidation reports whether err is an operation validation error.
func IsValidation(err error) bool {
	var opErr *Error
	if !errors.As(err, &opErr) {
		return false
	}
	return opErr.Type == ErrorTypeValidation && opErr.StatusCode == 0
}
