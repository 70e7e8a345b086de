// Package config loads and saves run configuration for the gwpop CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSize     = 100
	DefaultMassMsol = 3.0e8
	DefaultMassDex  = 0.5
	DefaultSepaPc   = 0.1
	DefaultSepaDex  = 0.3
	DefaultBoxMpc   = 100.0

	DefaultSteps    = 100
	DefaultDelayGyr = 5.0
	DefaultDelayDex = 0.2

	DefaultPtaDurYr = 16.0
	DefaultNFreqs   = 40
	DefaultNHarms   = 30
	DefaultNReals   = 100
	DefaultNLoudest = 5
)

type Config struct {
	Seed       uint64           `yaml:"seed"`
	Population PopulationConfig `yaml:"population"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Spectrum   SpectrumConfig   `yaml:"spectrum"`
}

type PopulationConfig struct {
	Size     int     `yaml:"size"`
	MassMsol float64 `yaml:"mass_msol"`
	MassDex  float64 `yaml:"mass_dex"`
	SepaPc   float64 `yaml:"sepa_pc"`
	SepaDex  float64 `yaml:"sepa_dex"`
	ScafaLo  float64 `yaml:"scafa_lo"`
	ScafaHi  float64 `yaml:"scafa_hi"`
	EccenMax float64 `yaml:"eccen_max"`
	BoxMpc   float64 `yaml:"box_mpc"`
}

type EvolutionConfig struct {
	// Model is one of "magic_delay", "gw_driven".
	Model    string  `yaml:"model"`
	Steps    int     `yaml:"steps"`
	DelayGyr float64 `yaml:"delay_gyr"`
	DelayDex float64 `yaml:"delay_dex"`
}

type SpectrumConfig struct {
	PtaDurYr float64 `yaml:"pta_dur_yr"`
	NFreqs   int     `yaml:"nfreqs"`
	NHarms   int     `yaml:"nharms"`
	NReals   int     `yaml:"nreals"`
	NLoudest int     `yaml:"nloudest"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed: 1,
		Population: PopulationConfig{
			Size:     DefaultSize,
			MassMsol: DefaultMassMsol,
			MassDex:  DefaultMassDex,
			SepaPc:   DefaultSepaPc,
			SepaDex:  DefaultSepaDex,
			ScafaLo:  0.3,
			ScafaHi:  0.8,
			BoxMpc:   DefaultBoxMpc,
		},
		Evolution: EvolutionConfig{
			Model:    "magic_delay",
			Steps:    DefaultSteps,
			DelayGyr: DefaultDelayGyr,
			DelayDex: DefaultDelayDex,
		},
		Spectrum: SpectrumConfig{
			PtaDurYr: DefaultPtaDurYr,
			NFreqs:   DefaultNFreqs,
			NHarms:   DefaultNHarms,
			NReals:   DefaultNReals,
			NLoudest: DefaultNLoudest,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Evolution.Model {
	case "magic_delay", "gw_driven":
	default:
		return fmt.Errorf("unknown evolution model %q", c.Evolution.Model)
	}
	if c.Population.Size <= 0 {
		return fmt.Errorf("population size must be positive, got %d", c.Population.Size)
	}
	if c.Evolution.Steps <= 1 {
		return fmt.Errorf("evolution needs at least 2 steps, got %d", c.Evolution.Steps)
	}
	if c.Spectrum.NFreqs <= 0 || c.Spectrum.PtaDurYr <= 0 {
		return fmt.Errorf("spectrum needs positive nfreqs and pta duration")
	}
	return nil
}
