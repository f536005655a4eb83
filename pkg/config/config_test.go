package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_SitesAndFileCredentials(t *testing.T) {
	path := writeConfig(t, `
sites:
  - name: hq
    cores: ["10.0.0.1", "10.0.0.2"]
  - name: warehouse
    cores: ["10.1.0.1"]
credentials:
  - username: svc-netops
    password: filepass
    enable_secret: filesecret
audit_db: /var/lib/portwalk/audit.db
lock_redis: 127.0.0.1:6379
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Sites) != 2 {
		t.Fatalf("len(Sites) = %d, want 2", len(cfg.Sites))
	}
	site, ok := cfg.Site("hq")
	if !ok {
		t.Fatal("Site(hq) not found")
	}
	if len(site.Cores) != 2 || site.Cores[0] != "10.0.0.1" {
		t.Errorf("hq cores = %v", site.Cores)
	}
	if cfg.AuditDB != "/var/lib/portwalk/audit.db" {
		t.Errorf("AuditDB = %q", cfg.AuditDB)
	}
	if cfg.LockRedis != "127.0.0.1:6379" {
		t.Errorf("LockRedis = %q", cfg.LockRedis)
	}

	if len(cfg.Credentials) != 1 {
		t.Fatalf("len(Credentials) = %d, want 1", len(cfg.Credentials))
	}
	if cfg.Credentials[0].EnableSecret != "filesecret" {
		t.Errorf("EnableSecret = %q", cfg.Credentials[0].EnableSecret)
	}
}

func TestLoad_EnvCredentialOrder(t *testing.T) {
	t.Setenv("PORTWALK_USERNAME", "primary")
	t.Setenv("PORTWALK_PASSWORD", "primarypass")
	t.Setenv("PORTWALK_FALLBACK_USER1", "backup1")
	t.Setenv("PORTWALK_FALLBACK_PASS1", "backup1pass")
	t.Setenv("PORTWALK_FALLBACK_SECRET1", "enable1")
	// Fallback 2 is incomplete and must be skipped.
	t.Setenv("PORTWALK_FALLBACK_USER2", "backup2")
	t.Setenv("PORTWALK_FALLBACK_USER3", "backup3")
	t.Setenv("PORTWALK_FALLBACK_PASS3", "backup3pass")

	path := writeConfig(t, `
sites:
  - name: hq
    cores: ["10.0.0.1"]
credentials:
  - username: fromfile
    password: filepass
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := []string{"primary", "backup1", "backup3", "fromfile"}
	if len(cfg.Credentials) != len(want) {
		t.Fatalf("chain length = %d, want %d (%+v)", len(cfg.Credentials), len(want), cfg.Credentials)
	}
	for i, u := range want {
		if cfg.Credentials[i].Username != u {
			t.Errorf("chain[%d].Username = %q, want %q", i, cfg.Credentials[i].Username, u)
		}
	}
	if cfg.Credentials[1].EnableSecret != "enable1" {
		t.Errorf("fallback1 secret = %q, want enable1", cfg.Credentials[1].EnableSecret)
	}
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() on missing file = %v, want nil", err)
	}
	if len(cfg.Sites) != 0 {
		t.Errorf("Sites = %v, want empty", cfg.Sites)
	}
}

func TestLoad_RejectsBadSites(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no cores", "sites:\n  - name: hq\n    cores: []\n"},
		{"duplicate", "sites:\n  - name: hq\n    cores: [\"10.0.0.1\"]\n  - name: hq\n    cores: [\"10.0.0.2\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() should reject invalid site list")
			}
		})
	}
}
