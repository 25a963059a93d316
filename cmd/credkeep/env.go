package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/benaskins/credkeep/internal/audit"
	"github.com/benaskins/credkeep/internal/keychain"
	"golang.org/x/term"
)

// openSecretStore builds the audited secret store from the loaded config.
// The returned func closes the audit log.
func openSecretStore(actor string) (*keychain.AuditedStore, func(), error) {
	auditLog, err := audit.NewLogger(cfg.AuditLog)
	if err != nil {
		return nil, nil, err
	}
	meta, err := keychain.NewMetadataStore(cfg.MetadataPath)
	if err != nil {
		auditLog.Close()
		return nil, nil, err
	}
	inner := keychain.NewCredentialStore(keychain.NewSystem(), cfg.ServicePrefix, meta)
	return keychain.NewAuditedStore(inner, auditLog, meta, actor), func() { auditLog.Close() }, nil
}

// record appends an audit entry for a direct credential operation. Audit
// logging is best-effort.
func record(l *audit.Logger, entry audit.Entry, err error) {
	if err != nil {
		entry.Error = err.Error()
		var kerr *keychain.Error
		if errors.As(err, &kerr) {
			entry.Code = kerr.Code.String()
		}
	}
	if logErr := l.Log(entry); logErr != nil {
		slog.Warn("audit log write failed", "action", entry.Action, "error", logErr)
	}
}

// readSecret prompts on a terminal without echo, or reads all of stdin when
// it is piped.
func readSecret(prompt string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile("/dev/stdin")
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}
