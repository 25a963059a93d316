package keychain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/benaskins/credkeep/internal/native"
)

func TestCodeForStatus(t *testing.T) {
	cases := []struct {
		status native.Status
		want   ErrorCode
	}{
		{native.StatusAuthFailed, AuthFailed},
		{native.StatusDuplicateItem, DuplicateItem},
		{native.StatusItemNotFound, ItemNotFound},
		{native.StatusInvalidOwnerEdit, InvalidOwnerEdit},
		{native.StatusParam, UnknownStatusCode},
		{-25308, UnknownStatusCode}, // errSecInteractionNotAllowed
		{-128, UnknownStatusCode},   // errSecUserCanceled
		{1, UnknownStatusCode},
	}
	for _, tc := range cases {
		if got := codeForStatus(tc.status); got != tc.want {
			t.Errorf("codeForStatus(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestNewErrorKeepsRawStatusOnlyWhenUnknown(t *testing.T) {
	kc, m := newTestKeychain()

	known := kc.newError(native.StatusItemNotFound)
	if known.Code != ItemNotFound || known.Status != 0 {
		t.Errorf("known status: got code %v status %d", known.Code, known.Status)
	}

	unknown := kc.newError(-25308)
	if unknown.Code != UnknownStatusCode || unknown.Status != -25308 {
		t.Errorf("unknown status: got code %v status %d", unknown.Code, unknown.Status)
	}
	if unknown.Message != "OSStatus -25308" {
		t.Errorf("unexpected message %q", unknown.Message)
	}

	if live := m.Live(); live != 0 {
		t.Errorf("expected no live objects, got %d", live)
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{Code: DuplicateItem, Message: "The specified item already exists in the keychain."}
	want := "keychain error: The specified item already exists in the keychain. (status: DuplicateItem)"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	e = &Error{Code: UnknownStatusCode, Status: -50, Message: "bad param"}
	want = "keychain error: bad param (status: UnknownStatusCode(-50))"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Code: ItemNotFound, Message: "gone"})

	if !errors.Is(err, ErrItemNotFound) {
		t.Error("expected ItemNotFound to match")
	}
	if errors.Is(err, ErrDuplicateItem) {
		t.Error("expected DuplicateItem not to match")
	}

	unknown := &Error{Code: UnknownStatusCode, Status: -50}
	if !errors.Is(unknown, &Error{Code: UnknownStatusCode, Status: -50}) {
		t.Error("expected equal unknown statuses to match")
	}
	if errors.Is(unknown, &Error{Code: UnknownStatusCode, Status: -51}) {
		t.Error("expected different unknown statuses not to match")
	}
}
