package lox

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigEnvVar names the environment variable consulted for a config
// file path when none is given on the command line.
const ConfigEnvVar = "LOX_CONFIG"

// EngineConfig is the on-disk configuration of the interpreter host.
type EngineConfig struct {
	Debug   DebugConfig `yaml:"debug"`
	Color   bool        `yaml:"color"`
	History string      `yaml:"history"`
	Prompt  string      `yaml:"prompt"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *EngineConfig {
	return &EngineConfig{
		Color:  true,
		Prompt: "> ",
	}
}

// ConfigPath picks the config file to load: explicit wins over
// $LOX_CONFIG. An empty result means no file.
func ConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(ConfigEnvVar)
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Keys the
// file sets replace defaults; unknown keys are rejected.
func LoadConfig(path string) (*EngineConfig, error) {
	conf := DefaultConfig()
	if path == "" {
		return conf, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: could not open %s", path)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil {
		// an empty file decodes to io.EOF and leaves the defaults alone
		if err == io.EOF {
			return conf, nil
		}
		return nil, errors.Wrapf(err, "config: could not parse %s", path)
	}

	if conf.Prompt == "" {
		conf.Prompt = DefaultConfig().Prompt
	}
	return conf, nil
}
