package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skdltmxn/cxxdemangle/demangle"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[demangle]
max-depth = 64
no-params = true

[output]
strip-underscore = true
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := &Config{
		Demangle: Demangle{
			MaxDepth: 64,
			MaxNodes: demangle.DefaultMaxNodes,
			MaxArgs:  demangle.DefaultMaxArgs,
			NoParams: true,
		},
		Output: Output{StripUnderscore: true, Format: "json"},
		Path:   path,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	got, err := demangle.Demangle("__ZN1A3getEi", cfg.Options()...)
	if err != nil {
		t.Fatal(err)
	}
	if got != "A::get" {
		t.Errorf("Demangle with config options = %q, want A::get", got)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"negative depth": "[demangle]\nmax-depth = -1\n",
		"unknown format": "[output]\nformat = \"xml\"\n",
		"unknown key":    "[demangle]\nmax-width = 3\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); !errors.Is(err, ErrInvalid) {
				t.Errorf("Load error = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Load(writeConfig(t, "[demangle\n")); err == nil {
		t.Error("Load accepted malformed TOML")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Demangle.MaxDepth != demangle.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d", cfg.Demangle.MaxDepth)
	}
	if len(cfg.Options()) != 3 {
		t.Errorf("default Options() has %d entries, want 3", len(cfg.Options()))
	}
}
