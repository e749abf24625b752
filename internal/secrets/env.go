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

package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvBackend provides read-only access to secrets held in environment
// variables. Keys are variable names used verbatim, so a dotenv file loaded
// with --env-file is visible here.
type EnvBackend struct {
	lookup func(string) (string, bool)
}

// NewEnvBackend creates a new environment variable backend.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{lookup: os.LookupEnv}
}

// Name returns the backend identifier.
func (e *EnvBackend) Name() string {
	return "env"
}

// Get retrieves a secret from the environment. Unset and empty variables are
// both treated as missing.
func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	if value, ok := e.lookup(key); ok && value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, key)
}

// Set returns ErrReadOnlyBackend as environment backend is read-only.
func (e *EnvBackend) Set(ctx context.Context, key string, value string) error {
	return ErrReadOnlyBackend
}

// Delete returns ErrReadOnlyBackend as environment backend is read-only.
func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

// Available returns true as environment variables are always available.
func (e *EnvBackend) Available() bool {
	return true
}

// ReadOnly returns true as environment backend is read-only.
func (e *EnvBackend) ReadOnly() bool {
	return true
}
