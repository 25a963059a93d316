//go:build darwin

package keychain

import "github.com/benaskins/credkeep/internal/native"

// NewSystem returns a Keychain backed by the user's macOS Keychain.
func NewSystem() *Keychain {
	return New(native.System())
}
