package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "module not found")
		if err.Error() != "[NOT_FOUND] module not found" {
			t.Errorf("expected [NOT_FOUND] module not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected EOF")
		err := Wrap(original, CodeMalformedModule, "truncated constant pool")
		expected := "[MALFORMED_MODULE] truncated constant pool: unexpected EOF"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := Newf(CodeInvalidQuery, "not a qualified method name: %s", "toString")
		if !IsCode(err, CodeInvalidQuery) {
			t.Error("expected IsCode to return true for CodeInvalidQuery")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("locate: %w", New(CodePermissionDenied, "origin unreadable"))
		if !IsCode(err, CodePermissionDenied) {
			t.Error("expected IsCode to see through fmt wrapping")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeRootUnavailable, "cannot open"), CtxRoot, "/tmp/a.jar")
		if !IsCode(err, CodeRootUnavailable) {
			t.Fatal("expected code to survive AddContext")
		}
		plain := AddContext(errors.New("boom"), CtxName, "a.B")
		if !IsCode(plain, CodeInternal) {
			t.Error("expected plain errors to become internal errors")
		}
	})
}
