//go:build !darwin

package keychain

import "github.com/benaskins/credkeep/internal/native"

// NewSystem returns a Keychain backed by an in-memory store on non-darwin
// platforms. The macOS Keychain is not available outside of macOS;
// credentials live only as long as the process.
func NewSystem() *Keychain {
	return New(native.NewMemory())
}
