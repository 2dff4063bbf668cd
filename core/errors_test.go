package core

import (
	"testing"

	"github.com/pkg/errors"
)

func TestNotFoundError(t *testing.T) {
	sentinel := NewNotFoundError("receipt")
	if got, want := sentinel.Error(), "receipt not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsNotFound(sentinel) {
		t.Error("IsNotFound() = false for a sentinel")
	}
	if !IsNotFound(errors.Wrap(sentinel, "loading receipt")) {
		t.Error("IsNotFound() = false for a wrapped sentinel")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("IsNotFound() = true for an unrelated error")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound() = true for nil")
	}
}
