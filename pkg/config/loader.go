package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

// Load loads a configuration from a YAML file, substituting environment
// variables first. Fields absent from the file keep their current values.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to read config file").
			WithDetail("path", filePath)
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to parse YAML").
			WithDetail("path", filePath)
	}
	return nil
}

// LoadReadConfig loads filePath over NewReadConfig defaults and validates it
func LoadReadConfig(filePath string) (*ReadConfig, error) {
	cfg := NewReadConfig()
	if err := Load(filePath, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to write config file").
			WithDetail("path", filePath)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with the variable's value and
// ${VAR_NAME:-default} with the value, or default when the variable is unset
// or empty. An unclosed "${" is left alone.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		expr := content[start+2 : end]
		name, def, hasDefault := strings.Cut(expr, ":-")
		value := os.Getenv(name)
		if value == "" && hasDefault {
			value = def
		}
		b.WriteString(content[:start])
		b.WriteString(value)
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
