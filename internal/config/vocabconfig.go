package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// vocabYAML represents the structure of a skill vocabulary overlay file.
type vocabYAML struct {
	Skills []string `yaml:"skills"`
}

// LoadSkillVocabulary reads extra skill terms from a YAML overlay file. An
// empty path means no overlay and yields an empty list, not an error.
func LoadSkillVocabulary(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path) // #nosec G304 -- operator-provided config path
	if err != nil {
		return nil, fmt.Errorf("op=config.LoadSkillVocabulary: %w", err)
	}
	var v vocabYAML
	if err := yaml.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("op=config.LoadSkillVocabulary: parse %s: %w", path, err)
	}
	out := make([]string, 0, len(v.Skills))
	for _, s := range v.Skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
