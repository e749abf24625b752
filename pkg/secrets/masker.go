// Package secrets redacts credential values from text that leaves the
// process: log lines, error envelopes and human-readable reports.
package secrets

import (
	"sort"
	"strings"
)

// Placeholder replaces every masked value.
const Placeholder = "***"

// minLength is the shortest value worth masking. Shorter values would
// shred unrelated output.
const minLength = 4

// secretSuffixes mark environment variables that hold credentials.
var secretSuffixes = []string{
	"_TOKEN",
	"_SECRET",
	"_KEY",
	"_PASSWORD",
	"_PASS",
	"_PWD",
	"_CREDENTIALS",
}

// Masker replaces known secret values with Placeholder. The zero value
// masks nothing.
type Masker struct {
	values []string
}

// NewMasker returns a masker for the given values.
func NewMasker(values ...string) *Masker {
	m := &Masker{}
	for _, v := range values {
		m.Add(v)
	}
	return m
}

// Add registers value for masking.
func (m *Masker) Add(value string) {
	if len(value) < minLength {
		return
	}
	for _, v := range m.values {
		if v == value {
			return
		}
	}
	m.values = append(m.values, value)
	// Longest first so a secret containing another is replaced whole.
	sort.SliceStable(m.values, func(i, j int) bool {
		return len(m.values[i]) > len(m.values[j])
	})
}

// AddFromEnviron registers the values of KEY=VALUE entries whose key looks
// like a credential, as in os.Environ.
func (m *Masker) AddFromEnviron(environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if ok && IsSecretKey(key) {
			m.Add(value)
		}
	}
}

// IsSecretKey reports whether an environment variable name looks like it
// holds a credential.
func IsSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, suffix := range secretSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

// Mask returns s with every registered value replaced.
func (m *Masker) Mask(s string) string {
	if m == nil {
		return s
	}
	for _, v := range m.values {
		s = strings.ReplaceAll(s, v, Placeholder)
	}
	return s
}

// MaskError wraps err so that its message is masked. errors.Is and
// errors.As still see the original chain.
func (m *Masker) MaskError(err error) error {
	if err == nil || m == nil || len(m.values) == 0 {
		return err
	}
	return &maskedError{msg: m.Mask(err.Error()), err: err}
}

type maskedError struct {
	msg string
	err error
}

func (e *maskedError) Error() string { return e.msg }

func (e *maskedError) Unwrap() error { return e.err }
