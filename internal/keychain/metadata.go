package keychain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockTimeout   = 10 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// SecretMetadata tracks creation and rotation info for a secret.
type SecretMetadata struct {
	CreatedAt   time.Time `json:"created_at"`
	LastRotated time.Time `json:"last_rotated,omitempty"`
	RotateEvery string    `json:"rotate_every,omitempty"`
}

// MetadataStore persists secret metadata to a JSON file. It doubles as the
// index of secret keys. Writes hold a file lock and re-read the file first,
// so concurrent CLI invocations do not drop each other's entries.
type MetadataStore struct {
	mu       sync.RWMutex
	path     string
	lock     *flock.Flock
	metadata map[string]*SecretMetadata
}

// NewMetadataStore loads or creates a metadata file.
func NewMetadataStore(path string) (*MetadataStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating metadata dir: %w", err)
	}
	ms := &MetadataStore{
		path:     path,
		lock:     flock.New(path + ".lock"),
		metadata: make(map[string]*SecretMetadata),
	}
	if err := ms.load(); err != nil {
		return nil, err
	}
	return ms, nil
}

func (ms *MetadataStore) load() error {
	ms.metadata = make(map[string]*SecretMetadata)
	data, err := os.ReadFile(ms.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading metadata: %w", err)
	}
	if jsonErr := json.Unmarshal(data, &ms.metadata); jsonErr != nil {
		slog.Warn("corrupt metadata file, starting fresh", "path", ms.path, "error", jsonErr)
		ms.metadata = make(map[string]*SecretMetadata)
	}
	return nil
}

// Get returns a copy of the metadata for a key, or nil if not tracked.
func (ms *MetadataStore) Get(key string) *SecretMetadata {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	m, ok := ms.metadata[key]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// Set records metadata for a key and persists to disk.
func (ms *MetadataStore) Set(key string, meta *SecretMetadata) error {
	cp := *meta
	return ms.update(func(m map[string]*SecretMetadata) {
		m[key] = &cp
	})
}

// Delete removes metadata for a key.
func (ms *MetadataStore) Delete(key string) error {
	return ms.update(func(m map[string]*SecretMetadata) {
		delete(m, key)
	})
}

// Keys returns every tracked key, sorted.
func (ms *MetadataStore) Keys() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	keys := make([]string, 0, len(ms.metadata))
	for k := range ms.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns copies of all metadata entries.
func (ms *MetadataStore) All() map[string]*SecretMetadata {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	result := make(map[string]*SecretMetadata, len(ms.metadata))
	for k, v := range ms.metadata {
		cp := *v
		result[k] = &cp
	}
	return result
}

func (ms *MetadataStore) update(fn func(map[string]*SecretMetadata)) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := ms.lock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return fmt.Errorf("locking metadata: %w", err)
	}
	if !locked {
		return errors.New("locking metadata: timeout")
	}
	defer ms.lock.Unlock()

	if err := ms.load(); err != nil {
		return err
	}
	fn(ms.metadata)
	return ms.save()
}

func (ms *MetadataStore) save() error {
	data, err := json.MarshalIndent(ms.metadata, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := ms.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, ms.path)
}
