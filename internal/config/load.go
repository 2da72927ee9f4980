package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads an optional reconctl.yaml configuration file (searched in the
// current directory and $HOME) plus RECONCTL_-prefixed environment
// variables, and returns its raw tree for use as Resolve's userConfig
// layer. A missing config file is not an error — callers get an empty map
// and proceed with defaults + preset only.
func Load(explicitPath string) (map[string]interface{}, error) {
	v := viper.New()
	v.SetEnvPrefix("RECONCTL")
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("reconctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return v.AllSettings(), nil
}
