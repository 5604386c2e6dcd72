package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, parses, and compiles the rule file at path. Any failure —
// missing file, malformed YAML, an invalid regex, a bad duration, a rule
// with both or neither of when/diff_timeout, an unknown trigger event —
// is returned here, at load time, per §7 ("Regex / config error —
// surfaced at load time only; never at runtime").
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	f := defaultFile()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg, err := compile(f)
	if err != nil {
		return nil, fmt.Errorf("compiling config %s: %w", path, err)
	}
	return cfg, nil
}
