package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for a missing file")
	}
	if resolved == "" {
		t.Fatal("expected a resolved path even when missing")
	}
	if cfg.Store.Backend != BackendJSON {
		t.Fatalf("expected json backend default, got %q", cfg.Store.Backend)
	}
	if cfg.Paths.APIBind != defaultAPIBind {
		t.Fatalf("expected default bind, got %q", cfg.Paths.APIBind)
	}
	if cfg.Archive.RetentionDays != defaultArchiveRetentionDays {
		t.Fatalf("expected default retention, got %d", cfg.Archive.RetentionDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+filepath.Join(dir, "data")+`"
api_bind = "127.0.0.1:9000"

[store]
backend = "SQLite"

[archive]
retention_days = 30
sweep_interval = 3600

[logging]
format = "json"
level = "debug"
`)
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Fatalf("expected backend normalized to sqlite, got %q", cfg.Store.Backend)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("unexpected bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Archive.RetentionDays != 30 || cfg.Archive.SweepInterval != 3600 {
		t.Fatalf("unexpected archive settings: %+v", cfg.Archive)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			"bad backend",
			"[store]\nbackend = \"postgres\"\n",
			"store.backend",
		},
		{
			"bad bind",
			"[paths]\napi_bind = \"not-a-hostport\"\n",
			"paths.api_bind",
		},
		{
			"negative retention",
			"[archive]\nretention_days = -1\n",
			"archive.retention_days",
		},
		{
			"bad log format",
			"[logging]\nformat = \"xml\"\n",
			"logging.format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, _, _, err := Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error naming %q, got %v", tc.want, err)
			}
		})
	}
}

func TestStorePathsFollowBackend(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/tmp/studioq-test"

	if got := cfg.ActiveStorePath(); got != "/tmp/studioq-test/jobs.json" {
		t.Fatalf("unexpected active path: %q", got)
	}
	if got := cfg.ArchiveStorePath(); got != "/tmp/studioq-test/archive.json" {
		t.Fatalf("unexpected archive path: %q", got)
	}

	cfg.Store.Backend = BackendSQLite
	if got := cfg.ActiveStorePath(); got != "/tmp/studioq-test/jobs.db" {
		t.Fatalf("unexpected active path: %q", got)
	}
	if got := cfg.ArchiveStorePath(); got != "/tmp/studioq-test/archive.db" {
		t.Fatalf("unexpected archive path: %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := writeConfig(t, Sample())
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("embedded sample config should load: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := expandPath("~/studioq")
	if err != nil {
		t.Fatalf("expandPath failed: %v", err)
	}
	if got != filepath.Join(home, "studioq") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
