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
	"regexp"
	"sort"
	"strings"

	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

// envRefPattern matches a credential written as ${VAR_NAME}.
var envRefPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// Resolver turns credential references from configuration into secret
// values. Supported forms:
//
//	${NAME}        environment variable NAME
//	env:NAME       environment variable NAME
//	keychain:KEY   system keychain entry KEY
//	anything else  used literally
type Resolver struct {
	backends map[string]SecretBackend
}

// NewResolver creates a resolver over the given backends, keyed by their
// Name. Unavailable backends are kept so that references to them produce a
// clear error instead of silently falling through to a literal.
func NewResolver(backends ...SecretBackend) *Resolver {
	r := &Resolver{backends: make(map[string]SecretBackend, len(backends))}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	return r
}

// NewDefaultResolver returns a resolver with the environment and keychain
// backends.
func NewDefaultResolver() *Resolver {
	return NewResolver(NewEnvBackend(), NewKeychainBackend())
}

// IsReference reports whether value names a secret rather than holding one.
func IsReference(value string) bool {
	_, _, ok := parseReference(value)
	return ok
}

// Resolve returns the secret value for ref. Empty refs resolve to "".
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}

	scheme, key, ok := parseReference(ref)
	if !ok {
		return ref, nil
	}

	backend, err := r.backend(scheme)
	if err != nil {
		return "", err
	}

	value, err := backend.Get(ctx, key)
	if err != nil {
		return "", soarerrors.Wrapf(err, "failed to resolve %s secret %q", scheme, key)
	}
	return value, nil
}

// Set stores value under key in the named backend.
func (r *Resolver) Set(ctx context.Context, backendName, key, value string) error {
	backend, err := r.backend(backendName)
	if err != nil {
		return err
	}
	if ro, ok := backend.(ReadOnlyBackend); ok && ro.ReadOnly() {
		return fmt.Errorf("%s: %w", backendName, ErrReadOnlyBackend)
	}
	if err := backend.Set(ctx, key, value); err != nil {
		return soarerrors.Wrapf(err, "failed to set secret in %s", backendName)
	}
	return nil
}

// Delete removes key from the named backend.
func (r *Resolver) Delete(ctx context.Context, backendName, key string) error {
	backend, err := r.backend(backendName)
	if err != nil {
		return err
	}
	if err := backend.Delete(ctx, key); err != nil {
		return soarerrors.Wrapf(err, "failed to delete secret from %s", backendName)
	}
	return nil
}

// Backends lists the configured backend names.
func (r *Resolver) Backends() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Resolver) backend(name string) (SecretBackend, error) {
	backend, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: no %q backend configured", ErrBackendUnavailable, name)
	}
	if !backend.Available() {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, name)
	}
	return backend, nil
}

func parseReference(value string) (scheme, key string, ok bool) {
	if m := envRefPattern.FindStringSubmatch(value); m != nil {
		return "env", m[1], true
	}
	for _, prefix := range []string{"env:", "keychain:"} {
		if rest, found := strings.CutPrefix(value, prefix); found && rest != "" {
			return strings.TrimSuffix(prefix, ":"), rest, true
		}
	}
	return "", "", false
}
