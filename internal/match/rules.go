package match

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	PartialCutoff    int               `yaml:"partial_cutoff"`
	PatternOverrides map[string]string `yaml:"pattern_overrides"`
	BlacklistTerms   []string          `yaml:"blacklist_terms"`
}

// LoadConfig reads matcher tuning from a YAML file. Unset fields keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read matcher rules %q: %w", path, err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Config{}, fmt.Errorf("parse matcher rules %q: %w", path, err)
	}
	if file.PartialCutoff < 0 || file.PartialCutoff > 100 {
		return Config{}, fmt.Errorf("matcher rules %q: partial_cutoff must be 0..100", path)
	}

	return Config{
		PartialCutoff:    file.PartialCutoff,
		PatternOverrides: file.PatternOverrides,
		BlacklistTerms:   file.BlacklistTerms,
	}, nil
}
