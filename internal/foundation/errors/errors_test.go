package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "bookbuilder.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "bookbuilder.yaml" {
			t.Errorf("expected context file=bookbuilder.yaml, got %v", file)
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := MetadataError("no default metadata").Build()
		wrapped := fmt.Errorf("resolve novel: %w", base)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryMetadata) {
			t.Error("expected metadata category")
		}
		if GetSeverity(wrapped) != SeverityFatal {
			t.Error("expected fatal severity")
		}
	})

	t.Run("Unwrap keeps sentinels", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		err := WrapError(sentinel, CategoryStage, "stage failed").Build()
		if !errors.Is(err, sentinel) {
			t.Error("expected errors.Is to find the sentinel")
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		orig := StageError("failed").WithContext("stage", "a").Build()
		next := orig.WithContext("stage", "b")
		s1, _ := orig.Context().GetString("stage")
		s2, _ := next.Context().GetString("stage")
		if s1 != "a" || s2 != "b" {
			t.Errorf("expected a/b, got %s/%s", s1, s2)
		}
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
		retry    RetryStrategy
	}{
		{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryUserAction},
		{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryUserAction},
		{"MetadataError", MetadataError("test"), CategoryMetadata, SeverityFatal, RetryUserAction},
		{"DependencyError", DependencyError("test"), CategoryDependency, SeverityFatal, RetryUserAction},
		{"StageError", StageError("test"), CategoryStage, SeverityFatal, RetryRerun},
		{"EpubError", EpubError("test"), CategoryEpub, SeverityFatal, RetryNever},
		{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityError, RetryRerun},
		{"RuntimeError", RuntimeError("test"), CategoryRuntime, SeverityFatal, RetryNever},
		{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			if err.Category() != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category())
			}
			if err.Severity() != tt.severity {
				t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
			}
			if err.RetryStrategy() != tt.retry {
				t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
			}
		})
	}
}

func TestErrorContext(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	value1, _ := merged.GetString("key1")
	value2, _ := merged.GetString("key2")
	shared, _ := merged.GetString("shared")
	if value1 != "value1" || value2 != "value2" || shared != "overridden" {
		t.Errorf("unexpected merge result: %v", merged)
	}
	if _, ok := merged.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}
}
