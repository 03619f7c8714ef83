package config

import (
	"os"
	"strings"

	"github.com/stake-plus/mission-agent/src/data"
)

// Source layers the places a setting can come from. Lookup order is the
// settings table, then the environment, then the YAML file, then the default.
type Source struct {
	Settings *data.Settings
	File     map[string]string
	Getenv   func(string) string
}

// GetSetting retrieves a setting with env, file and default fallbacks.
func (s Source) GetSetting(name, envKey, defaultValue string) string {
	val := strings.TrimSpace(s.Settings.GetSetting(name))
	if val == "" && envKey != "" {
		getenv := s.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		val = strings.TrimSpace(getenv(envKey))
	}
	if val == "" {
		val = strings.TrimSpace(s.File[name])
	}
	if val == "" {
		val = defaultValue
	}
	return val
}
