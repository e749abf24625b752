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
	"errors"
	"testing"
)

func TestEnvBackend_Get(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		key     string
		want    string
		wantErr error
	}{
		{
			name:    "variable set",
			envVars: map[string]string{"ALEXA_API_KEY": "k-123"},
			key:     "ALEXA_API_KEY",
			want:    "k-123",
		},
		{
			name:    "variable empty",
			envVars: map[string]string{"ALEXA_API_KEY": ""},
			key:     "ALEXA_API_KEY",
			wantErr: ErrSecretNotFound,
		},
		{
			name:    "variable unset",
			key:     "SOARBRIDGE_TEST_DOES_NOT_EXIST",
			wantErr: ErrSecretNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			got, err := NewEnvBackend().Get(context.Background(), tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Get() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvBackend_ReadOnly(t *testing.T) {
	backend := NewEnvBackend()
	ctx := context.Background()

	if err := backend.Set(ctx, "K", "v"); !errors.Is(err, ErrReadOnlyBackend) {
		t.Errorf("Set() error = %v, want ErrReadOnlyBackend", err)
	}
	if err := backend.Delete(ctx, "K"); !errors.Is(err, ErrReadOnlyBackend) {
		t.Errorf("Delete() error = %v, want ErrReadOnlyBackend", err)
	}
	if !backend.ReadOnly() || !backend.Available() || backend.Name() != "env" {
		t.Errorf("unexpected metadata: readOnly=%v available=%v name=%s",
			backend.ReadOnly(), backend.Available(), backend.Name())
	}
}
