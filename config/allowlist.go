package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultAllowlist is the historical hard-coded instrumentation wrapper
// list: the two glibc wrappers taintgrind's own instrumentation
// inserts around write(2) and malloc(3).
var defaultAllowlist = []string{"__wrap_write", "__wrap_malloc"}

// AllowlistFile is the shape of an optional .tgproc.yaml config file.
type AllowlistFile struct {
	InstrumentationAllowlist []string `yaml:"instrumentation_allowlist"`
}

// LoadAllowlist reads the instrumentation allowlist from path. An empty
// path, a missing file, or a file with no instrumentation_allowlist key
// all fall back to defaultAllowlist.
func LoadAllowlist(path string) ([]string, error) {
	if path == "" {
		return defaultAllowlist, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultAllowlist, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading allowlist config %s: %w", path, err)
	}

	var cfg AllowlistFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing allowlist config %s: %w", path, err)
	}

	if len(cfg.InstrumentationAllowlist) == 0 {
		return defaultAllowlist, nil
	}

	return cfg.InstrumentationAllowlist, nil
}
