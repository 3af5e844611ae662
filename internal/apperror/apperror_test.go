package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{Validation("email", "email is invalid"), ErrValidation},
		{DuplicateEmail("a@b.com"), ErrDuplicateEmail},
		{Unauthenticated(), ErrUnauthenticated},
		{NotFound("user"), ErrNotFound},
		{Unavailable(errors.New("connection refused")), ErrUnavailable},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.kind) {
			t.Errorf("errors.Is(%v, %v) = false, want true", tc.err, tc.kind)
		}
	}
}

func TestValidation_CarriesField(t *testing.T) {
	err := Validation("age", "age must not be negative")
	if err.Field != "age" {
		t.Errorf("Field = %q, want %q", err.Field, "age")
	}
	if err.Error() != "age must not be negative" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestUnavailable_KeepsCauseInChain(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Unavailable(cause)
	if err.Message != "service temporarily unavailable" {
		t.Errorf("client-facing message leaked internals: %q", err.Message)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped cause broke errors.Is matching")
	}
}

func TestAppError_WorksThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handling request: %w", DuplicateEmail("a@b.com"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to find AppError through wrapping")
	}
	if !errors.Is(wrapped, ErrDuplicateEmail) {
		t.Error("errors.Is failed to match kind through wrapping")
	}
}
