package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{Validation("bad input"), KindValidation},
		{NotFound("missing"), KindNotFound},
		{Conflict("taken"), KindConflict},
		{InsufficientData("no data"), KindInsufficientData},
		{Auth("no token"), KindAuth},
		{Internal("boom", errors.New("db down")), KindInternal},
		{errors.New("plain"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("while creating account: %w", Validation("name empty"))
	if !IsKind(err, KindValidation) {
		t.Errorf("wrapped kind lost: %v", err)
	}
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("query accounts", cause)
	if !errors.Is(err, cause) {
		t.Error("Internal error does not unwrap to its cause")
	}
	if err.Error() != "query accounts: connection refused" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestIsKindNilError(t *testing.T) {
	if IsKind(nil, KindInternal) {
		t.Error("IsKind(nil) = true, want false")
	}
}
