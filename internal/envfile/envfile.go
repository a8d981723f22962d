// Package envfile loads flat KEY: value YAML files into environment maps.
package envfile

import (
	"fmt"
	"os"

	"github.com/vk/gridrun/internal/config"
	"gopkg.in/yaml.v3"
)

// Load reads the given YAML files and merges them left to right, so later
// files win on conflicting keys. Each file must be a flat mapping of scalar
// values.
func Load(paths ...string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, config.Errorf("reading env file %s: %w", path, err)
		}

		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, config.Errorf("parsing env file %s: %w", path, err)
		}

		for key, value := range raw {
			switch v := value.(type) {
			case string:
				merged[key] = v
			case int, int64, float64, bool:
				merged[key] = fmt.Sprint(v)
			case nil:
				return nil, config.Errorf("env file %s: key %q has no value", path, key)
			default:
				return nil, config.Errorf("env file %s: key %q is not a scalar", path, key)
			}
		}
	}
	return merged, nil
}
