package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	if cfg.Discovery.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Discovery.Workers)
	}

	if len(cfg.Discovery.ActiveScopes) != 0 {
		t.Errorf("expected no active scopes, got %v", cfg.Discovery.ActiveScopes)
	}

	if cfg.Cache.Prefix != "pchp:" {
		t.Errorf("expected default prefix 'pchp:', got %s", cfg.Cache.Prefix)
	}

	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("expected default ttl 24h, got %s", cfg.Cache.TTL)
	}

	if cfg.Cache.RedisAddr != "" {
		t.Errorf("expected redis to be disabled, got %s", cfg.Cache.RedisAddr)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
discovery:
  active_scopes: [debug, zts]
  workers: 8
  strict_not_null: true
cache:
  redis_addr: localhost:6379
  prefix: "build:"
  ttl: 2h
index:
  database: build/symbols.db
log:
  level: debug
`
	os.WriteFile(filepath.Join(tmpDir, "pchp.yml"), []byte(configContent), 0644)

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if !reflect.DeepEqual(cfg.Discovery.ActiveScopes, []string{"debug", "zts"}) {
		t.Errorf("expected scopes [debug zts], got %v", cfg.Discovery.ActiveScopes)
	}

	if cfg.Discovery.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Discovery.Workers)
	}

	if !cfg.Discovery.StrictNotNull {
		t.Error("expected strict_not_null to be set")
	}

	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr 'localhost:6379', got %s", cfg.Cache.RedisAddr)
	}

	if cfg.Cache.Prefix != "build:" {
		t.Errorf("expected prefix 'build:', got %s", cfg.Cache.Prefix)
	}

	if cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("expected ttl 2h, got %s", cfg.Cache.TTL)
	}

	if cfg.Index.Database != "build/symbols.db" {
		t.Errorf("expected database 'build/symbols.db', got %s", cfg.Index.Database)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("PCHP_CACHE_REDIS_ADDR", "redis:6380")
	t.Setenv("PCHP_DISCOVERY_WORKERS", "2")

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Cache.RedisAddr != "redis:6380" {
		t.Errorf("expected redis addr from environment, got %s", cfg.Cache.RedisAddr)
	}

	if cfg.Discovery.Workers != 2 {
		t.Errorf("expected workers from environment, got %d", cfg.Discovery.Workers)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero workers",
			content: "discovery:\n  workers: 0\n",
			wantErr: "discovery.workers",
		},
		{
			name:    "negative ttl",
			content: "cache:\n  ttl: -1h\n",
			wantErr: "cache.ttl",
		},
		{
			name:    "unknown log level",
			content: "log:\n  level: verbose\n",
			wantErr: "log.level",
		},
		{
			name:    "empty scope",
			content: "discovery:\n  active_scopes: [debug, \" \"]\n",
			wantErr: "active_scopes",
		},
		{
			name:    "invalid yaml",
			content: "discovery: [\n",
			wantErr: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			os.WriteFile(filepath.Join(tmpDir, "pchp.yml"), []byte(tt.content), 0644)

			_, err := LoadFrom(tmpDir)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error to mention %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInProject(t *testing.T) {
	tmpDir := t.TempDir()

	if InProject(tmpDir) {
		t.Error("expected InProject to be false without pchp.yml")
	}

	os.WriteFile(filepath.Join(tmpDir, "pchp.yaml"), []byte(""), 0644)

	if !InProject(tmpDir) {
		t.Error("expected InProject to be true with pchp.yaml")
	}
}

func TestGetProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	tmpDir, _ = filepath.EvalSymlinks(tmpDir)
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	os.WriteFile(filepath.Join(tmpDir, "pchp.yml"), []byte(""), 0644)

	nested := filepath.Join(tmpDir, "lib", "json")
	os.MkdirAll(nested, 0755)
	os.Chdir(nested)

	root, err := GetProjectRoot()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if root != tmpDir {
		t.Errorf("expected root %s, got %s", tmpDir, root)
	}
}
