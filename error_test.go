package repcrec

import (
	"errors"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrGrammarViolation, cause, "R(T1,x99)")
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should reach the wrapped cause through Unwrap")
	}
	if err.Error() == "" {
		t.Fatalf("Error() should not be empty")
	}
}
