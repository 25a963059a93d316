package keychain

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benaskins/credkeep/internal/audit"
)

// AuditedStore wraps a Store and records every operation in the audit log.
type AuditedStore struct {
	inner    Store
	audit    *audit.Logger
	metadata *MetadataStore
	actor    string // "cli" or "demo"
}

// NewAuditedStore wraps an existing store with audit logging.
func NewAuditedStore(inner Store, auditLog *audit.Logger, metadata *MetadataStore, actor string) *AuditedStore {
	return &AuditedStore{
		inner:    inner,
		audit:    auditLog,
		metadata: metadata,
		actor:    actor,
	}
}

// record appends an audit entry. A failure to log does not fail the
// operation.
func (s *AuditedStore) record(entry audit.Entry, err error) {
	entry.Actor = s.actor
	if err != nil {
		entry.Error = err.Error()
		var kerr *Error
		if errors.As(err, &kerr) {
			entry.Code = kerr.Code.String()
		}
	}
	if logErr := s.audit.Log(entry); logErr != nil {
		slog.Warn("audit log write failed", "action", entry.Action, "key", entry.Key, "error", logErr)
	}
}

func (s *AuditedStore) Set(key, value string) error {
	err := s.inner.Set(key, value)
	s.record(audit.Entry{Action: audit.ActionCredentialAdd, Key: key}, err)
	if err != nil {
		return fmt.Errorf("audited store set: %w", err)
	}
	return nil
}

func (s *AuditedStore) Get(key string) (string, error) {
	val, err := s.inner.Get(key)
	s.record(audit.Entry{Action: audit.ActionCredentialRead, Key: key}, err)
	if err != nil {
		return "", fmt.Errorf("audited store get: %w", err)
	}
	return val, nil
}

func (s *AuditedStore) List() ([]string, error) {
	return s.inner.List()
}

func (s *AuditedStore) Delete(key string) error {
	err := s.inner.Delete(key)
	s.record(audit.Entry{Action: audit.ActionCredentialDelete, Key: key}, err)
	if err != nil {
		return fmt.Errorf("audited store delete: %w", err)
	}
	return nil
}

// Rotate runs a rotation command, captures its output, stores the new value,
// and logs the rotation.
func (s *AuditedStore) Rotate(key, command string) error {
	entry := audit.Entry{
		Action:  audit.ActionCredentialRotate,
		Key:     key,
		Trigger: "hook",
		Command: command,
	}

	output, err := runRotationCommand(command)
	if err != nil {
		s.record(entry, err)
		return fmt.Errorf("rotation command failed: %w", err)
	}

	if err := s.inner.Set(key, output); err != nil {
		s.record(entry, err)
		return fmt.Errorf("storing rotated secret: %w", err)
	}
	s.record(entry, nil)

	now := time.Now().UTC()
	meta := s.metadata.Get(key)
	if meta == nil {
		meta = &SecretMetadata{CreatedAt: now}
	}
	meta.LastRotated = now
	if err := s.metadata.Set(key, meta); err != nil {
		return fmt.Errorf("saving rotation metadata: %w", err)
	}

	return nil
}

// Metadata returns the metadata store for direct access.
func (s *AuditedStore) Metadata() *MetadataStore {
	return s.metadata
}
