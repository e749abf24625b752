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

package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report yaml keys rather than Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	for _, name := range c.InstanceNames() {
		inst := c.Integrations[name]
		if inst == nil {
			continue
		}
		if inst.Auth.Type == AuthAPIKey && inst.Credentials == "" {
			errs = append(errs, fmt.Sprintf("integrations.%s.credentials is required for api_key auth", name))
		}
		if inst.Auth.Type == AuthBearer && inst.Credentials == "" {
			errs = append(errs, fmt.Sprintf("integrations.%s.credentials is required for bearer auth", name))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

// describeFieldError renders a validator failure against its yaml path,
// e.g. "integrations[alexa].base_url must be a valid URL".
func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.Replace(fe.Param(), " ", " is ", 1))
	case "url":
		return fmt.Sprintf("%s must be a valid URL, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation on %q", field, fe.Tag())
	}
}
