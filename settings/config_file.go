package settings

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// mergeConfigFile overlays settings from a yaml file onto base.
// Unset (zero) values in the file keep the value from base.
func mergeConfigFile(base LBSettings, path string) (LBSettings, error) {
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	return mergeConfigYaml(base, raw)
}

func mergeConfigYaml(base LBSettings, raw []byte) (LBSettings, error) {
	fromFile := LBSettings{}
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return base, fmt.Errorf("config file is not valid yaml: %w", err)
	}
	if err := mergo.Merge(&fromFile, base); err != nil {
		return base, err
	}
	return fromFile, nil
}
