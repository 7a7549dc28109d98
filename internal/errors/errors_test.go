package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := New(ErrCategoryStorage, CodeUploadFailed, "upload failed")
	expected := "[STORAGE:UPLOAD_FAILED] upload failed"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryStorage, CodeUploadFailed, "upload failed", cause)
	expected := "[STORAGE:UPLOAD_FAILED] upload failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryCatalog, CodeTableNotFound, "missing", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestError_Is(t *testing.T) {
	err1 := New(ErrCategoryStorage, CodeUploadFailed, "first")
	err2 := New(ErrCategoryStorage, CodeUploadFailed, "second")
	err3 := New(ErrCategoryStorage, CodeDownloadFailed, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestColumnNotFound(t *testing.T) {
	err := ColumnNotFound("v")
	if !errors.Is(err, ErrColumnNotFound) {
		t.Error("ColumnNotFound should match ErrColumnNotFound")
	}
	if !strings.Contains(err.Error(), "Column v not found") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Details["column"] != "v" {
		t.Error("column detail should be set")
	}
}

func TestConfigurationError(t *testing.T) {
	cause := ColumnNotFound("v")
	err := ConfigurationError("idx", "values(v)", cause)

	if GetCode(err) != CodeInvalidIndexConfig {
		t.Errorf("got code %q, want %q", GetCode(err), CodeInvalidIndexConfig)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("ConfigurationError should match ErrConfiguration")
	}
	if errors.Is(err, ErrColumnNotFound) {
		t.Error("ConfigurationError should not unwrap to its cause")
	}
	if err.Unwrap() != nil {
		t.Errorf("expected no cause in chain, got %v", err.Unwrap())
	}

	msg := err.Error()
	if strings.Contains(msg, "COLUMN_NOT_FOUND") {
		t.Errorf("message %q should not carry the cause's code", msg)
	}
	for _, want := range []string{"idx", "values(v)", "Column v not found"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryStorage, CodeUploadFailed, true},
		{ErrCategoryStorage, CodeDownloadFailed, true},
		{ErrCategoryStorage, CodeSnapshotCorrupt, false},
		{ErrCategoryTarget, CodeColumnNotFound, false},
		{ErrCategoryTarget, CodeMalformedComposite, false},
		{ErrCategoryCatalog, CodeIndexExists, false},
		{ErrCategoryValidation, CodeInvalidSchema, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := MalformedComposite(MalformedCompositeMessage)
	if GetCategory(err) != ErrCategoryTarget {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryTarget)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-structured error should return empty category")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryValidation, CodeInvalidSchema, "bad schema")
	detailed := err.WithDetails(map[string]interface{}{"field": "name"})

	if detailed.Details["field"] != "name" {
		t.Error("WithDetails should set details")
	}
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	c := NewCatalogError(CodeIndexExists, "exists", cause)
	if c.Category != ErrCategoryCatalog || !errors.Is(c, cause) {
		t.Error("NewCatalogError mismatch")
	}

	s := NewStorageError(CodeUploadFailed, "s3 down", cause)
	if s.Category != ErrCategoryStorage || !s.Retryable {
		t.Error("NewStorageError mismatch")
	}

	v := NewValidationError(CodeInvalidSchema, "no columns")
	if v.Category != ErrCategoryValidation {
		t.Error("NewValidationError mismatch")
	}

	tg := NewTargetError(CodeInvalidTarget, "empty")
	if tg.Category != ErrCategoryTarget {
		t.Error("NewTargetError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
