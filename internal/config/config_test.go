package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error for a missing config: %v", err)
	}
	if cfg.Entry != "" || len(cfg.ModuleSearchPath) != 0 || cfg.Output != "" {
		t.Fatalf("expected a zero Config, got %+v", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqua.yaml")
	content := "entry: main.aqua\nmodule_search_path:\n  - ./lib\n  - ./vendor\noutput: build/out.acode\ndisable_global_init: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Entry != "main.aqua" {
		t.Errorf("Entry = %q", cfg.Entry)
	}
	if len(cfg.ModuleSearchPath) != 2 || cfg.ModuleSearchPath[0] != "./lib" || cfg.ModuleSearchPath[1] != "./vendor" {
		t.Errorf("ModuleSearchPath = %v", cfg.ModuleSearchPath)
	}
	if cfg.Output != "build/out.acode" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if !cfg.DisableGlobalInit {
		t.Error("expected DisableGlobalInit = true")
	}
}

func TestLoadDefaultsGlobalInitEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqua.yaml")
	if err := os.WriteFile(path, []byte("entry: main.aqua\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DisableGlobalInit {
		t.Error("expected the global-init pass to run by default")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aqua.yaml")
	if err := os.WriteFile(path, []byte("entry: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
