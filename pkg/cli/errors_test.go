package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/chaos/pkg/config"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("experiments[0].fault.status", "must be between 100 and 599")

	expected := "config error in experiments[0].fault.status: must be between 100 and 599"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("run", underlyingErr)

	if err.Error() != "command run failed: underlying error" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestFromValidation(t *testing.T) {
	verr := config.ValidationError{Errors: []config.FieldError{
		{Field: "safety.max_affected_percent", Message: "must be between 0 and 100"},
		{Field: "experiments[1].id", Message: "duplicate experiment id"},
	}}
	wrapped := fmt.Errorf("failed to load configuration file %q: %w", "chaos.yaml", verr)

	got := FromValidation(wrapped)
	if len(got) != 2 {
		t.Fatalf("len(FromValidation()) = %d, want 2", len(got))
	}
	if got[1].Field != "experiments[1].id" || got[1].Message != "duplicate experiment id" {
		t.Errorf("FromValidation()[1] = %+v", got[1])
	}

	if FromValidation(errors.New("plain")) != nil {
		t.Error("FromValidation(plain error) should be nil")
	}
}

func TestExitCode(t *testing.T) {
	verr := config.ValidationError{Errors: []config.FieldError{{Field: "a", Message: "b"}}}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"validation", verr, ExitConfig},
		{"wrapped validation", NewCommandError("run", fmt.Errorf("load: %w", verr)), ExitConfig},
		{"config error", NewConfigError("server.upstream", "invalid"), ExitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
