package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesScopeAndMetadata(t *testing.T) {
	err := New(
		"catalog",
		CodeInvalid,
		WithMessage("price must be greater than zero"),
		WithMetadata(map[string]string{
			"item":      "Coffee",
			"cafeteria": "Solbjerg Plads",
		}),
		WithField("price", "-5"),
		WithCause(errors.New("validation failed")),
	)

	out := err.Error()
	if !strings.Contains(out, "scope=catalog") {
		t.Fatalf("expected scope marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=invalid_argument") {
		t.Fatalf("expected code in error string: %s", out)
	}
	expectedMeta := "meta=cafeteria=\"Solbjerg Plads\",item=\"Coffee\",price=\"-5\""
	if !strings.Contains(out, expectedMeta) {
		t.Fatalf("expected metadata %q in error string: %s", expectedMeta, out)
	}
	if !strings.Contains(out, "cause=\"validation failed\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestMetadataSkipsEmptyKeys(t *testing.T) {
	err := New("catalog", CodeNotFound, WithMetadata(map[string]string{
		"  ":   "ignored",
		"item": " Tea ",
	}))
	if len(err.Metadata) != 1 {
		t.Fatalf("expected exactly one metadata entry, got %d", len(err.Metadata))
	}
	if err.Metadata["item"] != "Tea" {
		t.Fatalf("expected trimmed metadata value, got %q", err.Metadata["item"])
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := New("order", CodeInvalidState, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to match the wrapped cause")
	}
}

func TestCodeOfUnwrapsNestedEnvelopes(t *testing.T) {
	inner := New("menu", CodeOutOfStock, WithMessage("Coffee is out of stock"))
	wrapped := fmt.Errorf("reserve: %w", inner)
	if CodeOf(wrapped) != CodeOutOfStock {
		t.Fatalf("expected out_of_stock, got %q", CodeOf(wrapped))
	}
	if !HasCode(wrapped, CodeOutOfStock) {
		t.Fatal("expected HasCode to match through wrapping")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatal("expected empty code for plain errors")
	}
}

func TestNilEnvelopeRendering(t *testing.T) {
	var e *E
	if e.Error() != "<nil>" {
		t.Fatalf("expected <nil> rendering, got %q", e.Error())
	}
}
