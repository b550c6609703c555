package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeDependency, cause, "persist snapshot")

	if err.Code() != CodeDependency {
		t.Fatalf("expected dependency code, got %s", err.Code())
	}
	if err.Unwrap() != cause {
		t.Fatal("expected wrapped cause to be preserved")
	}
	if !IsCode(err, CodeDependency) {
		t.Fatal("IsCode should match the wrapped code")
	}
}

func TestAsUnwrapsNestedTypedError(t *testing.T) {
	inner := New(CodeForbidden, "not the lender")
	outer := fmt.Errorf("confirm borrowing: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error from wrapped chain")
	}
	if typed.Code() != CodeForbidden {
		t.Fatalf("expected forbidden, got %s", typed.Code())
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal, got %d", meta.HTTPStatus)
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeStateConflict, fmt.Errorf("borrowing already returned"), "return transition")
	dump := Dump(err)

	if dump.Code != CodeStateConflict {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}
