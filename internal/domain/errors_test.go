package domain

import (
	"errors"
	"testing"
)

func TestError_ErrorString(t *testing.T) {
	err := New(KindNotFound, CodeUserNotFound, "user not found")
	if err.Error() == "" {
		t.Fatal("expected non-empty error string")
	}

	root := errors.New("root cause")
	wrapped := Wrap(KindInternal, "hash_failed", "hash failed", root)
	if !errors.Is(wrapped, root) {
		t.Fatalf("expected errors.Is to match cause")
	}
	if errors.Unwrap(wrapped) != root {
		t.Fatalf("unwrap did not return cause")
	}
}

func TestIs_MatchesCode(t *testing.T) {
	err := ErrResetTokenInvalid()

	if !Is(err, CodeResetTokenInvalid) {
		t.Fatalf("expected code match")
	}
	if Is(err, CodeUserNotFound) {
		t.Fatalf("unexpected code match")
	}
	if Is(errors.New("plain"), CodeResetTokenInvalid) {
		t.Fatalf("should not match non-domain error")
	}
}

func TestIs_ThroughFmtWrap(t *testing.T) {
	err := errors.Join(errors.New("ctx"), ErrEmailNotFound())
	if !Is(err, CodeEmailNotFound) {
		t.Fatalf("expected code match through wrapping")
	}
}

func TestRecoveryErrorKinds(t *testing.T) {
	cases := []struct {
		err  *Error
		kind ErrKind
		code string
	}{
		{ErrUserNotFound(), KindNotFound, CodeUserNotFound},
		{ErrEmailNotFound(), KindNotFound, CodeEmailNotFound},
		{ErrResetTokenInvalid(), KindValidation, CodeResetTokenInvalid},
		{ErrMissingField("password"), KindValidation, CodeMissingField},
		{ErrRateLimited("forgot_password"), KindRateLimited, "rate_limited"},
		{ErrNotifierUnavailable(nil), KindInfrastructure, "notifier_unavailable"},
	}
	for _, tc := range cases {
		if tc.err.Kind != tc.kind || tc.err.Code != tc.code {
			t.Fatalf("unexpected error: %+v", tc.err)
		}
	}
}

func TestWithMeta_AttachesMeta(t *testing.T) {
	err := ErrInvalidField("email", "bad format")
	if err.Meta["field"] != "email" || err.Meta["reason"] != "bad format" {
		t.Fatalf("unexpected meta value: %+v", err.Meta)
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  A@B.com "); got != "a@b.com" {
		t.Fatalf("got %q", got)
	}
}
