package settings

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// Load reads a YAML settings file into an uppercase-keyed Map. It performs
// no merging or validation; pass the result to Normalize.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, "failed to read settings file").
			Fatal().WithContext("path", path).Build()
	}
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, "failed to parse settings file").
			Fatal().WithContext("path", path).Build()
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// ApplyEnvOverrides overlays recognized settings from the given environment
// (as returned by os.Environ). Only variables whose name matches a default
// setting key are applied; values are parsed as YAML scalars so booleans and
// integers round-trip. The core never reads the environment itself; the CLI
// passes it in explicitly.
func ApplyEnvOverrides(m Map, environ []string) {
	known := DefaultSettings()
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, recognized := known[name]; !recognized {
			continue
		}
		var parsed any
		if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		m[name] = parsed
	}
}
