//go:build integration && darwin

package keychain

import (
	"errors"
	"testing"

	gokeychain "github.com/keybase/go-keychain"
)

// Integration tests use the real macOS Keychain.
// Run with: go test -tags integration ./internal/keychain/
//
// Requires an unlocked login Keychain and an interactive session
// (first run may prompt for Keychain access approval).

const integrationService = "com.credkeep.test"

func cleanupIntegration(t *testing.T, kc *Keychain, services ...string) {
	t.Helper()
	for _, s := range services {
		kc.DeleteGenericPasswordsByService(s)
	}
}

func TestKeychainRoundTrip(t *testing.T) {
	kc := NewSystem()
	service := integrationService + ".round-trip"
	cleanupIntegration(t, kc, service)
	defer cleanupIntegration(t, kc, service)

	account := Account{Name: "foo", Password: "very safe password"}
	if err := kc.AddGenericPassword(service, account); err != nil {
		t.Fatalf("AddGenericPassword: %v", err)
	}

	got, err := kc.FindGenericPasswordByService(service)
	if err != nil {
		t.Fatalf("FindGenericPasswordByService: %v", err)
	}
	if got != account {
		t.Errorf("expected %+v, got %+v", account, got)
	}

	if err := kc.DeleteGenericPasswordsByService(service); err != nil {
		t.Fatalf("DeleteGenericPasswordsByService: %v", err)
	}
	if _, err := kc.FindGenericPasswordByService(service); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ItemNotFound after delete, got %v", err)
	}
}

func TestKeychainDuplicate(t *testing.T) {
	kc := NewSystem()
	service := integrationService + ".duplicate"
	cleanupIntegration(t, kc, service)
	defer cleanupIntegration(t, kc, service)

	kc.AddGenericPassword(service, Account{Name: "u", Password: "p"})
	err := kc.AddGenericPassword(service, Account{Name: "u", Password: "p2"})
	if !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("expected DuplicateItem, got %v", err)
	}
	var kerr *Error
	if errors.As(err, &kerr) && kerr.Message == "" {
		t.Error("expected a system message")
	}
}

func TestKeychainVisibleToOtherClients(t *testing.T) {
	kc := NewSystem()
	service := integrationService + ".interop"
	cleanupIntegration(t, kc, service)
	defer cleanupIntegration(t, kc, service)

	if err := kc.AddGenericPassword(service, Account{Name: "interop", Password: "shared"}); err != nil {
		t.Fatalf("AddGenericPassword: %v", err)
	}

	data, err := gokeychain.GetGenericPassword(service, "interop", "", "")
	if err != nil {
		t.Fatalf("GetGenericPassword: %v", err)
	}
	if string(data) != "shared" {
		t.Errorf("expected 'shared', got %q", data)
	}
}

func TestKeychainBulkDelete(t *testing.T) {
	kc := NewSystem()
	service := integrationService + ".bulk"
	cleanupIntegration(t, kc, service)

	kc.AddGenericPassword(service, Account{Name: "a", Password: "1"})
	kc.AddGenericPassword(service, Account{Name: "b", Password: "2"})

	if err := kc.DeleteGenericPasswordsByService(service); err != nil {
		t.Fatalf("DeleteGenericPasswordsByService: %v", err)
	}
	if _, err := kc.FindGenericPasswordByService(service); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ItemNotFound after bulk delete, got %v", err)
	}
}
