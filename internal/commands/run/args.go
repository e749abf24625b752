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

package run

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// parseArgs builds the command arguments from --args-file and --arg values.
// stdin is read when file is "-".
func parseArgs(pairs []string, file string, stdin io.Reader) (map[string]interface{}, error) {
	args := make(map[string]interface{})

	if file != "" {
		fileArgs, err := readArgsFile(file, stdin)
		if err != nil {
			return nil, err
		}
		for k, v := range fileArgs {
			args[k] = v
		}
	}

	// --arg values replace file values; repeated --arg keys accumulate
	seen := make(map[string]bool)
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &soarerrors.ValidationError{
				Field:       "arg",
				Message:     fmt.Sprintf("invalid argument %q", pair),
				SuggestText: "use --arg key=value",
			}
		}

		value, err := parseValue(raw)
		if err != nil {
			return nil, &soarerrors.ValidationError{
				Field:   key,
				Message: fmt.Sprintf("invalid JSON value: %v", err),
			}
		}

		if !seen[key] {
			seen[key] = true
			args[key] = value
			continue
		}
		switch existing := args[key].(type) {
		case []interface{}:
			args[key] = append(existing, value)
		default:
			args[key] = []interface{}{existing, value}
		}
	}

	return args, nil
}

// parseValue decodes JSON objects and arrays; anything else stays a string.
func parseValue(raw string) (interface{}, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return raw, nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func readArgsFile(path string, stdin io.Reader) (map[string]interface{}, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, &soarerrors.ValidationError{
			Field:   "args-file",
			Message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	var args map[string]interface{}
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, &soarerrors.ValidationError{
			Field:       "args-file",
			Message:     fmt.Sprintf("expected a JSON object: %v", err),
			SuggestText: `write arguments as {"name": "value"}`,
		}
	}
	return args, nil
}
