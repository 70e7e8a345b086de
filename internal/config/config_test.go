package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Evolution.Model != "magic_delay" {
		t.Errorf("default model %q", cfg.Evolution.Model)
	}
	if cfg.Spectrum.NFreqs != DefaultNFreqs {
		t.Errorf("default nfreqs %d, want %d", cfg.Spectrum.NFreqs, DefaultNFreqs)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gwpop.yaml")
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Population.Size = 7
	cfg.Evolution.Model = "gw_driven"
	cfg.Spectrum.PtaDurYr = 20

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Evolution.Model = "dynamical_friction" }},
		{"zero size", func(c *Config) { c.Population.Size = 0 }},
		{"one step", func(c *Config) { c.Evolution.Steps = 1 }},
		{"zero nfreqs", func(c *Config) { c.Spectrum.NFreqs = 0 }},
		{"zero duration", func(c *Config) { c.Spectrum.PtaDurYr = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("seed: 9\npopulation:\n  size: 3\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Seed != 9 || cfg.Population.Size != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Evolution.Steps != DefaultSteps {
		t.Errorf("unset field lost its default: steps=%d", cfg.Evolution.Steps)
	}
}
