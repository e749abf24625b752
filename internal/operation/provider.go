package operation

import (
	"context"
	"errors"
)

// ErrUnknownCommand is returned by a Provider asked to run a command it does
// not implement. No vendor request is made in that case.
var ErrUnknownCommand = errors.New("unknown command")

// Provider represents a configured integration instance.
// Each provider can execute a fixed set of platform commands.
type Provider interface {
	// Name returns the adapter identifier
	Name() string

	// Execute runs a named command with the given arguments
	Execute(ctx context.Context, command string, args map[string]interface{}) (*Result, error)
}

// Result represents the output of one command.
type Result struct {
	// Entries holds one record per output; multi-value commands such as
	// a lookup over several domains produce one entry per value.
	Entries []*Entry `json:"entries"`
}

// Entry is a single platform result record.
type Entry struct {
	// ReadableOutput is the markdown shown to analysts
	ReadableOutput string `json:"readable_output,omitempty"`

	// OutputsPrefix is the context path outputs are stored under (e.g., "Alexa.Domain")
	OutputsPrefix string `json:"outputs_prefix,omitempty"`

	// OutputsKeyField names the field that identifies an output record
	OutputsKeyField string `json:"outputs_key_field,omitempty"`

	// Outputs is the machine-readable result
	Outputs interface{} `json:"outputs,omitempty"`

	// Indicator carries a reputation verdict, if any
	Indicator *Indicator `json:"indicator,omitempty"`

	// RawResponse is the vendor response the entry was built from
	RawResponse interface{} `json:"raw_response,omitempty"`

	// Failed marks an entry whose action the vendor did not complete.
	// Skipped actions are not failures.
	Failed bool `json:"failed,omitempty"`

	// StatusCode is the HTTP status of the vendor response
	StatusCode int `json:"-"`
}

// NewResult returns a result holding entries.
func NewResult(entries ...*Entry) *Result {
	return &Result{Entries: entries}
}

// TextResult returns a result with a single readable entry.
func TextResult(text string) *Result {
	return NewResult(&Entry{ReadableOutput: text})
}

// Add appends an entry.
func (r *Result) Add(e *Entry) {
	r.Entries = append(r.Entries, e)
}

// Failed reports whether any entry failed.
func (r *Result) Failed() bool {
	for _, e := range r.Entries {
		if e.Failed {
			return true
		}
	}
	return false
}
