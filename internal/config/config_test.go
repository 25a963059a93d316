package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `service_prefix: com.example.vault
audit_log: /tmp/credkeep/audit.log
metadata_path: /tmp/credkeep/meta.json
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServicePrefix != "com.example.vault" {
		t.Errorf("ServicePrefix = %q, want %q", cfg.ServicePrefix, "com.example.vault")
	}
	if cfg.AuditLog != "/tmp/credkeep/audit.log" {
		t.Errorf("AuditLog = %q, want %q", cfg.AuditLog, "/tmp/credkeep/audit.log")
	}
	if cfg.MetadataPath != "/tmp/credkeep/meta.json" {
		t.Errorf("MetadataPath = %q, want %q", cfg.MetadataPath, "/tmp/credkeep/meta.json")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("expected empty config, got %+v", *cfg)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("expected empty config, got %+v", *cfg)
	}
}

func TestLoadCommentsOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `# service_prefix: com.example.vault
# log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("expected empty config, got %+v", *cfg)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("service_prefix: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()
	cfg := Config{ServicePrefix: "com.example"}.WithDefaults()

	if cfg.ServicePrefix != "com.example" {
		t.Errorf("ServicePrefix = %q, want com.example", cfg.ServicePrefix)
	}
	if !strings.HasSuffix(cfg.AuditLog, filepath.Join("credkeep", "audit.log")) {
		t.Errorf("AuditLog = %q, want it under the credkeep state dir", cfg.AuditLog)
	}
	if !strings.HasSuffix(cfg.MetadataPath, filepath.Join("credkeep", "secret-metadata.json")) {
		t.Errorf("MetadataPath = %q, want it under the credkeep state dir", cfg.MetadataPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}

	empty := Config{}.WithDefaults()
	if empty.ServicePrefix != "com.credkeep" {
		t.Errorf("ServicePrefix = %q, want com.credkeep", empty.ServicePrefix)
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := Config{LogLevel: in}.Level()
		if err != nil {
			t.Errorf("Level(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Level(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := (Config{LogLevel: "loud"}).Level(); err == nil {
		t.Error("expected error for unknown level")
	}
}
