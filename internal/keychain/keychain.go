// Package keychain stores credentials in the macOS Keychain.
//
// Credentials are generic passwords addressed by service:
//   - Service: the caller's service string
//   - Account: Account.Name
//   - Data: Account.Password
//
// Each operation is one SecItem call. Every CoreFoundation object an
// operation creates is owned by a cfutil.Scope and released before the
// operation returns, whether it succeeds, fails or panics.
//
// Store layers keyed secrets on top of these operations for the CLI.
package keychain

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/benaskins/credkeep/internal/cfutil"
	"github.com/benaskins/credkeep/internal/native"
)

// ErrInvalidText is returned when a service or account name is not valid
// UTF-8. CoreFoundation cannot represent such strings.
var ErrInvalidText = errors.New("text is not valid UTF-8")

// Account is a credential: an account name and its password.
type Account struct {
	Name     string
	Password string
}

// Keychain runs credential operations against a native API. It holds no
// mutable state and is safe for concurrent use.
type Keychain struct {
	api native.API
}

// New returns a Keychain that talks to api.
func New(api native.API) *Keychain {
	return &Keychain{api: api}
}

func (k *Keychain) constant(c native.Constant) cfutil.Borrowed {
	return cfutil.Constant(k.api, c)
}

func (k *Keychain) pair(key native.Constant, value cfutil.Borrowed) cfutil.Pair {
	return cfutil.Pair{Key: k.constant(key), Value: value}
}

func validText(fields ...string) error {
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return fmt.Errorf("%w: %q", ErrInvalidText, f)
		}
	}
	return nil
}

// AddGenericPassword stores account under service.
//
// Returns an error matching ErrDuplicateItem when service and account.Name
// already exist.
func (k *Keychain) AddGenericPassword(service string, account Account) error {
	if err := validText(service, account.Name); err != nil {
		return err
	}

	scope := cfutil.NewScope(k.api)
	defer scope.Close()

	attributes := scope.Dictionary(
		k.pair(native.Class, k.constant(native.ClassGenericPassword)),
		k.pair(native.AttrService, scope.StringView(service)),
		k.pair(native.AttrAccount, scope.StringView(account.Name)),
		k.pair(native.ValueData, scope.DataViewString(account.Password)),
	)

	status := k.api.ItemAdd(attributes.Ref())
	slog.Debug("keychain add", "service", service, "account", account.Name, "status", int32(status))
	return k.check(status)
}

// DeleteGenericPasswordsByService removes every generic password stored
// under service.
//
// The status is reported as the Keychain returns it: deleting a service with
// no items fails with ItemNotFound.
func (k *Keychain) DeleteGenericPasswordsByService(service string) error {
	if err := validText(service); err != nil {
		return err
	}

	scope := cfutil.NewScope(k.api)
	defer scope.Close()

	query := scope.Dictionary(
		k.pair(native.Class, k.constant(native.ClassGenericPassword)),
		k.pair(native.AttrService, scope.StringView(service)),
	)

	status := k.api.ItemDelete(query.Ref())
	slog.Debug("keychain delete", "service", service, "status", int32(status))
	return k.check(status)
}

// FindGenericPasswordByService returns the first account stored under
// service.
//
// Returns an error matching ErrItemNotFound when there is none.
func (k *Keychain) FindGenericPasswordByService(service string) (Account, error) {
	if err := validText(service); err != nil {
		return Account{}, err
	}

	scope := cfutil.NewScope(k.api)
	defer scope.Close()

	query := scope.Dictionary(
		k.pair(native.Class, k.constant(native.ClassGenericPassword)),
		k.pair(native.AttrService, scope.StringView(service)),
		k.pair(native.MatchLimit, k.constant(native.MatchLimitOne)),
		k.pair(native.ReturnAttributes, k.constant(native.BooleanTrue)),
		k.pair(native.ReturnData, k.constant(native.BooleanTrue)),
	)

	status, ref := k.api.ItemCopyMatching(query.Ref())
	slog.Debug("keychain find", "service", service, "status", int32(status))
	if status != native.StatusSuccess {
		if ref != native.Null {
			scope.Adopt(ref)
		}
		return Account{}, k.newError(status)
	}
	if ref == native.Null {
		panic("keychain: SecItemCopyMatching succeeded without a result")
	}
	result := scope.Adopt(ref)

	// Both values follow the Get rule: result owns them, and releasing
	// result frees them.
	name := cfutil.DictionaryValue(k.api, result, k.constant(native.AttrAccount))
	password := cfutil.DictionaryValue(k.api, result, k.constant(native.ValueData))
	if name.IsNull() || password.IsNull() {
		panic("keychain: SecItemCopyMatching result lacks account or data")
	}

	return Account{
		Name:     cfutil.StringFromCF(k.api, name),
		Password: string(cfutil.BytesFromCF(k.api, password)),
	}, nil
}

func (k *Keychain) check(status native.Status) error {
	if status == native.StatusSuccess {
		return nil
	}
	return k.newError(status)
}

// newError builds an Error for status, asking the system for its message.
func (k *Keychain) newError(status native.Status) *Error {
	scope := cfutil.NewScope(k.api)
	defer scope.Close()

	message := fmt.Sprintf("OSStatus %d", int32(status))
	if ref := k.api.CopyErrorMessage(status); ref != native.Null {
		message = cfutil.StringFromCF(k.api, scope.Adopt(ref))
	}
	e := &Error{Code: codeForStatus(status), Message: message}
	if e.Code == UnknownStatusCode {
		e.Status = int32(status)
	}
	return e
}
