package jq

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		data       interface{}
		want       interface{}
		wantErr    bool
	}{
		{
			name:       "empty expression returns data as-is",
			expression: "",
			data:       map[string]interface{}{"foo": "bar"},
			want:       map[string]interface{}{"foo": "bar"},
		},
		{
			name:       "simple field extraction",
			expression: ".foo",
			data:       map[string]interface{}{"foo": "bar"},
			want:       "bar",
		},
		{
			name:       "array map",
			expression: "map(.x)",
			data:       []interface{}{map[string]interface{}{"x": 1}, map[string]interface{}{"x": 2}},
			want:       []interface{}{float64(1), float64(2)},
		},
		{
			name:       "multiple results become a slice",
			expression: ".[]",
			data:       []interface{}{"a", "b"},
			want:       []interface{}{"a", "b"},
		},
		{
			name:       "struct input is normalized",
			expression: ".Name",
			data:       struct{ Name string }{Name: "google.com"},
			want:       "google.com",
		},
		{
			name:       "empty output is nil",
			expression: "empty",
			data:       map[string]interface{}{},
			want:       nil,
		},
		{
			name:       "invalid expression",
			expression: ".[",
			data:       map[string]interface{}{"foo": "bar"},
			wantErr:    true,
		},
		{
			name:       "runtime error",
			expression: ".foo.bar",
			data:       map[string]interface{}{"foo": "str"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := NewExecutor(DefaultTimeout, DefaultMaxInputSize)
			got, err := executor.Execute(context.Background(), tt.expression, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Execute() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExecutor_First(t *testing.T) {
	executor := NewExecutor(0, 0)
	data := map[string]interface{}{"totalResults": 0, "Resources": []interface{}{}}

	v, ok, err := executor.First(context.Background(), ".totalResults", data)
	if err != nil || !ok || v != float64(0) {
		t.Errorf("First(.totalResults) = %v, %v, %v", v, ok, err)
	}

	_, ok, err = executor.First(context.Background(), ".Resources[0]", data)
	if err != nil || ok {
		t.Errorf("First on missing element should be absent, got ok=%v err=%v", ok, err)
	}
}

func TestExecutor_Validate(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantErr    bool
	}{
		{name: "empty expression is valid", expression: ""},
		{name: "simple expression is valid", expression: ".foo"},
		{name: "invalid expression", expression: ".[", wantErr: true},
		{name: "undefined function", expression: "nosuchfn(1)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := NewExecutor(DefaultTimeout, DefaultMaxInputSize)
			err := executor.Validate(tt.expression)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecutor_InputSizeLimit(t *testing.T) {
	executor := NewExecutor(DefaultTimeout, 8)

	_, err := executor.Execute(context.Background(), ".", map[string]interface{}{"long": "0123456789"})
	if err == nil {
		t.Error("Execute() expected size limit error, got nil")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	executor := NewExecutor(100*time.Millisecond, DefaultMaxInputSize)

	// This expression never terminates
	_, err := executor.Execute(context.Background(), "while(true; . + 1)", 0)
	if err == nil {
		t.Error("Execute() expected timeout error, got nil")
	}
}
