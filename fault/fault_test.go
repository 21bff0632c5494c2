package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", New(Arithmetic, ErrDivideByZero, "idiv"), Arithmetic},
		{"wrapped", fmt.Errorf("Main.main @3: %w", New(Index, ErrLocalOutOfBounds, "slot 9")), Index},
		{"plain", errors.New("boom"), Unknown},
		{"nil", nil, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("parse: %w", New(Format, ErrTrailingData, "%d bytes left", 3))
	if !errors.Is(err, ErrTrailingData) {
		t.Fatalf("errors.Is(%v, ErrTrailingData) = false", err)
	}
	if errors.Is(err, ErrBadMagic) {
		t.Errorf("errors.Is(%v, ErrBadMagic) = true", err)
	}
	if !Is(err, Format) {
		t.Errorf("Is(%v, Format) = false", err)
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(Resolution, ErrClassNotFound, "%s", "Foo")
	want := "ResolutionError: class not found: Foo"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &Error{Kind: StackOverflow, Err: ErrStackOverflow}
	if got := bare.Error(); got != "StackOverflow: stack overflow" {
		t.Errorf("Error() = %q", got)
	}
}
