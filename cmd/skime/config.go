package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the VM/compiler tunables an embedding host can override
// via an optional skime.yaml, mirroring the config-file pattern used
// elsewhere in the pack for runtime tunables (stack size, trace
// verbosity) rather than hardcoding them.
type Config struct {
	// TraceOnError, when true, makes a failed -f/--file run also print
	// the bytecode disassembly of the script's last top-level form (when
	// that form compiles). The -e and interactive modes do not use it.
	TraceOnError bool `yaml:"trace_on_error"`

	// NoColor disables REPL syntax highlighting and styled output,
	// useful when output is piped or the terminal lacks color support.
	NoColor bool `yaml:"no_color"`

	// MaxCallDepth caps nested non-tail calls before the VM raises a
	// stack-overflow error. Zero (the default) leaves it unbounded.
	MaxCallDepth int `yaml:"max_call_depth"`
}

// defaultConfig is used when no config file is found.
func defaultConfig() *Config {
	return &Config{TraceOnError: false, NoColor: false, MaxCallDepth: 0}
}

// LoadConfig reads path as YAML into a Config. A missing file is not
// an error: it yields defaultConfig() so skime runs out of the box
// with no configuration present.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
