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
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeychainService is the service name under which credentials are stored.
const KeychainService = "soarbridge"

// KeychainBackend provides secure storage using the system keychain.
// Supported platforms:
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
type KeychainBackend struct {
	service   string
	available bool
}

// NewKeychainBackend creates a new keychain backend.
// It performs availability detection to check if the keyring service is accessible.
func NewKeychainBackend() *KeychainBackend {
	return NewKeychainBackendForService(KeychainService)
}

// NewKeychainBackendForService creates a keychain backend scoped to service.
func NewKeychainBackendForService(service string) *KeychainBackend {
	backend := &KeychainBackend{
		service:   service,
		available: true,
	}

	// A lookup of a key that never exists tells a locked or missing
	// keyring service apart from a plain miss.
	_, err := keyring.Get(service, "__soarbridge_availability_test__")
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		// If we get an error other than NotFound, the keychain is likely unavailable
		backend.available = false
	}

	return backend
}

// Name returns the backend identifier.
func (k *KeychainBackend) Name() string {
	return "keychain"
}

// Get retrieves a secret from the system keychain.
func (k *KeychainBackend) Get(ctx context.Context, key string) (string, error) {
	if !k.available {
		return "", fmt.Errorf("%w: keychain service unavailable", ErrBackendUnavailable)
	}

	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
		}
		// Check for common error messages indicating locked or inaccessible keychain
		if isKeychainUnavailableError(err) {
			return "", fmt.Errorf("%w: %s", ErrBackendUnavailable, err.Error())
		}
		return "", fmt.Errorf("keychain error: %w", err)
	}

	return value, nil
}

// Set stores a secret in the system keychain.
func (k *KeychainBackend) Set(ctx context.Context, key string, value string) error {
	if !k.available {
		return fmt.Errorf("%w: keychain service unavailable", ErrBackendUnavailable)
	}

	if err := keyring.Set(k.service, key, value); err != nil {
		if isKeychainUnavailableError(err) {
			return fmt.Errorf("%w: %s", ErrBackendUnavailable, err.Error())
		}
		return fmt.Errorf("keychain error: %w", err)
	}

	return nil
}

// Delete removes a secret from the system keychain.
func (k *KeychainBackend) Delete(ctx context.Context, key string) error {
	if !k.available {
		return fmt.Errorf("%w: keychain service unavailable", ErrBackendUnavailable)
	}

	if err := keyring.Delete(k.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSecretNotFound, key)
		}
		if isKeychainUnavailableError(err) {
			return fmt.Errorf("%w: %s", ErrBackendUnavailable, err.Error())
		}
		return fmt.Errorf("keychain error: %w", err)
	}

	return nil
}

// Available returns true if the keychain service is accessible.
func (k *KeychainBackend) Available() bool {
	return k.available
}

// isKeychainUnavailableError checks if an error indicates the keychain is locked or inaccessible.
// This includes common error messages from different platforms.
func isKeychainUnavailableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Common error indicators across platforms
	unavailableIndicators := []string{
		"locked",
		"cannot access",
		"permission denied",
		"failed to unlock",
		"user interaction required",
		"secret service",
		"dbus",
		"user canceled",
	}

	for _, indicator := range unavailableIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
