package sss

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ToolConfig is shared by every command. Keys missing from a config file
// keep their defaults.
type ToolConfig struct {
	Search      *SearchConfig      `toml:"search" yaml:"search"`
	Classifier  *ClassifierConfig  `toml:"classifier" yaml:"classifier"`
	Selector    *SelectorConfig    `toml:"selector" yaml:"selector"`
	Update      *UpdateConfig      `toml:"update" yaml:"update"`
	Persistence *PersistenceConfig `toml:"persistence" yaml:"persistence"`
	Log         LogConfig          `toml:"log" yaml:"log"`
	Metrics     MetricsConfig      `toml:"metrics" yaml:"metrics"`
}

type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `toml:"addr" yaml:"addr"`
}

func DefaultToolConfig() *ToolConfig {
	collections := []CollectionFile{
		{Kind: "o", Path: "Orthogonal ships.sss.txt"},
		{Kind: "d", Path: "Diagonal ships.sss.txt"},
		{Kind: "k", Path: "Oblique ships.sss.txt"},
	}
	known := make([]string, 0, len(collections))
	for _, c := range collections {
		known = append(known, c.Path)
	}
	return &ToolConfig{
		Search: &SearchConfig{
			Generations:     1,
			Seed:            1,
			StabCycles:      DefaultStabCycles,
			ResultsFile:     "matchPatt2-test.txt",
			UniqueSpeeds:    true,
			KnownSpeedFiles: known,
			ProgressEvery:   DefaultProgressEvery,
		},
		Classifier: &ClassifierConfig{
			StabCheckPeriod: DefaultStabCheckPeriod,
			MaxGenerations:  DefaultMaxGenerations,
			MaxPopulation:   DefaultMaxPopulation,
			MaxDimension:    DefaultMaxDimension,
		},
		Selector: &SelectorConfig{
			Oscillators:    false,
			MinOscPeriod:   DefaultMinOscPeriod,
			MinShipPeriod:  DefaultMinShipPeriod,
			FastShipPeriod: DefaultFastShipPeriod,
			MinSpeed:       DefaultMinSpeed,
		},
		Update: &UpdateConfig{
			Collections:    collections,
			ChangelogFile:  "Updated ships.sss.txt",
			MaxGenerations: DefaultUpdateMaxGen,
			Write:          true,
		},
		Log: LogConfig{Level: "info", Format: "auto"},
	}
}

// LoadToolConfig decodes path over the defaults. Files ending in .yaml or
// .yml are YAML, anything else is TOML.
func LoadToolConfig(path string) (*ToolConfig, error) {
	config := DefaultToolConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Unable to load config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("Failed to unmarshal tool config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("Failed to unmarshal tool config: %w", err)
		}
	}
	return config, nil
}

// LoadToolConfigIfPresent returns the defaults when path does not exist.
func LoadToolConfigIfPresent(path string) (*ToolConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultToolConfig(), nil
	}
	return LoadToolConfig(path)
}
