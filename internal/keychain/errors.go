package keychain

import (
	"fmt"

	"github.com/benaskins/credkeep/internal/native"
)

// ErrorCode classifies a failed Keychain call.
type ErrorCode int

const (
	// UnknownStatusCode covers every status without its own code. The raw
	// value is kept in Error.Status.
	UnknownStatusCode ErrorCode = iota
	// AuthFailed means authorization or authentication failed.
	AuthFailed
	// DuplicateItem means an item with the same service and account exists.
	DuplicateItem
	// ItemNotFound means no item matched.
	ItemNotFound
	// InvalidOwnerEdit means the call tried to change an item's owner.
	InvalidOwnerEdit
)

func (c ErrorCode) String() string {
	switch c {
	case AuthFailed:
		return "AuthFailed"
	case DuplicateItem:
		return "DuplicateItem"
	case ItemNotFound:
		return "ItemNotFound"
	case InvalidOwnerEdit:
		return "InvalidOwnerEdit"
	default:
		return "UnknownStatusCode"
	}
}

// codeForStatus maps a non-success status to its ErrorCode.
func codeForStatus(status native.Status) ErrorCode {
	switch status {
	case native.StatusAuthFailed:
		return AuthFailed
	case native.StatusDuplicateItem:
		return DuplicateItem
	case native.StatusItemNotFound:
		return ItemNotFound
	case native.StatusInvalidOwnerEdit:
		return InvalidOwnerEdit
	default:
		return UnknownStatusCode
	}
}

// Error is a failed Keychain call.
type Error struct {
	// Code identifies the cause. Branch on this, not on Message.
	Code ErrorCode
	// Status is the raw OSStatus when Code is UnknownStatusCode, else zero.
	Status int32
	// Message is the system's description of the status, looked up when
	// the call failed. It may differ between macOS releases.
	Message string
}

// Sentinels for errors.Is. They match any Error with the same Code.
var (
	ErrAuthFailed       = &Error{Code: AuthFailed}
	ErrDuplicateItem    = &Error{Code: DuplicateItem}
	ErrItemNotFound     = &Error{Code: ItemNotFound}
	ErrInvalidOwnerEdit = &Error{Code: InvalidOwnerEdit}
)

func (e *Error) Error() string {
	status := e.Code.String()
	if e.Code == UnknownStatusCode {
		status = fmt.Sprintf("UnknownStatusCode(%d)", e.Status)
	}
	return fmt.Sprintf("keychain error: %s (status: %s)", e.Message, status)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code != e.Code {
		return false
	}
	return e.Code != UnknownStatusCode || t.Status == e.Status
}
