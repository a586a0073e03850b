package repo

import (
	"os"
	"testing"
)

func TestReadConfigMissingFileGivesDefaults(t *testing.T) {
	r := newTestRepo(t)
	if err := os.Remove(r.configPath()); err != nil {
		t.Fatalf("remove config: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Core.DefaultBranch != DefaultBranch {
		t.Errorf("expected default branch %q, got %q", DefaultBranch, cfg.Core.DefaultBranch)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	r := newTestRepo(t)

	want := &Config{
		User: UserConfig{Name: "Ada Lovelace", Email: "ada@example.com"},
		Core: CoreConfig{DefaultBranch: "trunk"},
	}
	if err := r.WriteConfig(want); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if got.User.Name != want.User.Name || got.User.Email != want.User.Email {
		t.Errorf("user mismatch: %+v", got.User)
	}
	if got.Core.DefaultBranch != "trunk" {
		t.Errorf("expected trunk, got %q", got.Core.DefaultBranch)
	}
}

func TestIdentResolution(t *testing.T) {
	r := newTestRepo(t)
	if err := r.WriteConfig(&Config{
		User: UserConfig{Name: "Config Name", Email: "cfg@example.com"},
	}); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	// Explicit values win over config.
	got, err := r.Ident("Flag Name", "flag@example.com")
	if err != nil {
		t.Fatalf("Ident: %v", err)
	}
	if got != "Flag Name <flag@example.com>" {
		t.Errorf("unexpected ident %q", got)
	}

	// Config fills in whatever the flags leave empty.
	got, err = r.Ident("", "")
	if err != nil {
		t.Fatalf("Ident: %v", err)
	}
	if got != "Config Name <cfg@example.com>" {
		t.Errorf("unexpected ident %q", got)
	}

	got, err = r.Ident("Only Name", "")
	if err != nil {
		t.Fatalf("Ident: %v", err)
	}
	if got != "Only Name <cfg@example.com>" {
		t.Errorf("unexpected ident %q", got)
	}
}
