package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/store"
)

// RunConfig is the optional YAML file passed with --config. Flags given on
// the command line override the values it sets.
// Every section must be listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	Seed        *int64          `yaml:"seed"`
	LogLevel    string          `yaml:"log_level"`
	Termination sim.Termination `yaml:"termination"`
	Store       store.Config    `yaml:"store"`
	ProcessID   string          `yaml:"process_id"`
	Output      string          `yaml:"output"`
	MetricsFile string          `yaml:"metrics_file"`
}

// loadRunConfig parses a run config file with strict field checking, so a
// misspelled key is an error instead of a silently ignored setting.
func loadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("reading run config: %w", err)
	}
	return parseRunConfig(data)
}

func parseRunConfig(data []byte) (RunConfig, error) {
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return RunConfig{}, fmt.Errorf("parsing run config: %w", err)
	}
	return cfg, nil
}
