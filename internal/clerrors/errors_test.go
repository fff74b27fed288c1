package clerrors

import (
	"fmt"
	"strings"
	"testing"
)

func TestOperationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name: "full error",
			err: &OperationError{
				Operation: "fetch RIS session list",
				Component: "httpx",
				Resource:  "https://ris.example.de",
				Cause:     fmt.Errorf("connection timeout"),
			},
			expected: "failed to fetch RIS session list, component: httpx, resource: https://ris.example.de, cause: connection timeout",
		},
		{
			name: "minimal error",
			err: &OperationError{
				Operation: "parse config",
				Cause:     fmt.Errorf("invalid yaml"),
			},
			expected: "failed to parse config, cause: invalid yaml",
		},
		{
			name: "no cause",
			err: &OperationError{
				Operation: "validate candidate",
				Component: "validator",
			},
			expected: "failed to validate candidate, component: validator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := &OperationError{Operation: "x", Cause: cause}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	noCause := &OperationError{Operation: "x"}
	if noCause.Unwrap() != nil {
		t.Error("Unwrap() with no cause should be nil")
	}
}

func TestFailedTo(t *testing.T) {
	withCause := FailedTo("connect to redis", fmt.Errorf("connection refused"))
	if withCause.Error() != "failed to connect to redis: connection refused" {
		t.Errorf("FailedTo() = %q", withCause.Error())
	}
	noCause := FailedTo("start worker", nil)
	if noCause.Error() != "failed to start worker" {
		t.Errorf("FailedTo() = %q", noCause.Error())
	}
}

func TestFailedToWithDetails(t *testing.T) {
	cause := fmt.Errorf("timeout")
	err := FailedToWithDetails("upsert procedure", "postgres", "procedures", cause)
	opErr, ok := err.(*OperationError)
	if !ok {
		t.Fatalf("expected *OperationError, got %T", err)
	}
	if opErr.Operation != "upsert procedure" || opErr.Component != "postgres" || opErr.Resource != "procedures" || opErr.Cause != cause {
		t.Errorf("unexpected fields: %+v", opErr)
	}
}

func TestWrapf(t *testing.T) {
	result := Wrapf(fmt.Errorf("original"), "context: %s", "detail")
	if result.Error() != "context: detail: original" {
		t.Errorf("Wrapf() = %q", result.Error())
	}
	if Wrapf(nil, "ignored") != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{fmt.Errorf("request timeout"), true},
		{fmt.Errorf("connection refused by server"), true},
		{fmt.Errorf("service unavailable"), true},
		{fmt.Errorf("invalid syntax"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.expected {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
		}
	}
}

func TestChain(t *testing.T) {
	if Chain(nil, nil) != nil {
		t.Error("Chain() of all nils should be nil")
	}
	single := Chain(fmt.Errorf("only one"), nil)
	if single.Error() != "only one" {
		t.Errorf("Chain() = %q", single.Error())
	}
	multi := Chain(fmt.Errorf("e1"), fmt.Errorf("e2"), nil, fmt.Errorf("e3"))
	if multi.Error() != "multiple errors: e1; e2; e3" {
		t.Errorf("Chain() = %q", multi.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("global_concurrency", "must be >= 1")
	if !strings.Contains(err.Error(), "global_concurrency") {
		t.Errorf("ValidationError() = %q", err.Error())
	}
}
