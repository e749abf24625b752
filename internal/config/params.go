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
	"fmt"
	"strconv"
	"strings"
)

// Params holds adapter-specific tunables from an instance's params block.
// Values keep their YAML scalar types; the accessors coerce strings so that
// values may also come from environment expansion.
type Params map[string]interface{}

// String returns the parameter as a string, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Bool returns the parameter as a boolean, or def when absent.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return def, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def, fmt.Errorf("param %s: %q is not a boolean", key, t)
		}
		return b, nil
	default:
		return def, fmt.Errorf("param %s: %v is not a boolean", key, v)
	}
}

// Float returns the parameter as a number. ok is false when absent.
func (p Params) Float(key string) (value float64, ok bool, err error) {
	v, present := p[key]
	if !present || v == nil {
		return 0, false, nil
	}
	switch t := v.(type) {
	case int:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	case uint64:
		return float64(t), true, nil
	case float64:
		return t, true, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false, nil
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if perr != nil {
			return 0, false, fmt.Errorf("param %s: %q is not a number", key, t)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("param %s: %v is not a number", key, v)
	}
}

// Keys returns the parameter names.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}
