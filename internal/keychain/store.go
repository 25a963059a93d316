package keychain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a secret does not exist in the store.
var ErrNotFound = errors.New("secret not found")

// DefaultServicePrefix namespaces the services CredentialStore writes.
const DefaultServicePrefix = "com.credkeep"

// Store is the interface for secret storage operations.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	List() ([]string, error)
	Delete(key string) error
}

// CredentialStore keeps each secret as its own generic password:
//   - Service: "<prefix>/<key>"
//   - Account: the secret key
//
// A Keychain only looks items up by service, so keys are enumerated from the
// metadata index rather than from the Keychain itself.
type CredentialStore struct {
	keychain *Keychain
	prefix   string
	index    *MetadataStore
}

// NewCredentialStore creates a secret store on top of kc. An empty prefix
// means DefaultServicePrefix.
func NewCredentialStore(kc *Keychain, prefix string, index *MetadataStore) *CredentialStore {
	if prefix == "" {
		prefix = DefaultServicePrefix
	}
	return &CredentialStore{keychain: kc, prefix: prefix, index: index}
}

// Service returns the Keychain service that holds key.
func (s *CredentialStore) Service(key string) string {
	return s.prefix + "/" + key
}

// Set stores a secret. Overwrites if it already exists.
func (s *CredentialStore) Set(key, value string) error {
	if key == "" {
		return errors.New("secret key is empty")
	}

	// Update = delete + add
	if err := s.removeService(key); err != nil {
		return err
	}
	if err := s.keychain.AddGenericPassword(s.Service(key), Account{Name: key, Password: value}); err != nil {
		return fmt.Errorf("keychain add %q: %w", key, err)
	}

	if s.index.Get(key) == nil {
		if err := s.index.Set(key, &SecretMetadata{CreatedAt: time.Now().UTC()}); err != nil {
			return fmt.Errorf("indexing %q: %w", key, err)
		}
	}
	return nil
}

// Get retrieves a secret.
func (s *CredentialStore) Get(key string) (string, error) {
	account, err := s.keychain.FindGenericPasswordByService(s.Service(key))
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return "", fmt.Errorf("%w: %s (%w)", ErrNotFound, key, err)
		}
		return "", fmt.Errorf("keychain get %q: %w", key, err)
	}
	return account.Password, nil
}

// List returns all indexed secret keys, sorted.
func (s *CredentialStore) List() ([]string, error) {
	return s.index.Keys(), nil
}

// Delete removes a secret. Deleting a missing secret is not an error.
func (s *CredentialStore) Delete(key string) error {
	if err := s.removeService(key); err != nil {
		return err
	}
	if err := s.index.Delete(key); err != nil {
		return fmt.Errorf("unindexing %q: %w", key, err)
	}
	return nil
}

func (s *CredentialStore) removeService(key string) error {
	err := s.keychain.DeleteGenericPasswordsByService(s.Service(key))
	if err != nil && !errors.Is(err, ErrItemNotFound) {
		return fmt.Errorf("keychain delete %q: %w", key, err)
	}
	return nil
}
