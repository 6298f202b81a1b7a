// Package config loads a deflate.Config from a YAML document: unmarshal
// permissively, apply only the keys that are present, and leave everything
// else at the library's documented default.
package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/flatestream/deflate"
)

// raw mirrors deflate.Config with optional (pointer) fields, so a key
// absent from the YAML document leaves the corresponding deflate.Config
// field at its deflate.DefaultConfig() value rather than being forced to
// false. log_level has no deflate.Config counterpart; LogLevel reads it.
type raw struct {
	LogLevel                                 *string `yaml:"log_level"`
	RejectOverlongLiteralCodes               *bool   `yaml:"reject_overlong_literal_codes"`
	RejectDeflateDistance30And31AtBuildTime  *bool   `yaml:"reject_deflate_distance_30_and_31_at_build_time"`
	FastPathEnabled                          *bool   `yaml:"fast_path_enabled"`
}

// Load parses a YAML document into a deflate.Config, starting from
// deflate.DefaultConfig() and overriding only the fields the document sets.
func Load(data []byte) (deflate.Config, error) {
	cfg := deflate.DefaultConfig()
	var r raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return cfg, fmt.Errorf("config: %v", err)
	}
	if r.RejectOverlongLiteralCodes != nil {
		cfg.RejectOverlongLiteralCodes = *r.RejectOverlongLiteralCodes
	}
	if r.RejectDeflateDistance30And31AtBuildTime != nil {
		cfg.RejectDeflateDistance30And31AtBuildTime = *r.RejectDeflateDistance30And31AtBuildTime
	}
	if r.FastPathEnabled != nil {
		cfg.FastPathEnabled = *r.FastPathEnabled
	}
	return cfg, nil
}

// LoadFile reads path and parses it with Load.
func LoadFile(path string) (deflate.Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return deflate.Config{}, fmt.Errorf("config: %v", err)
	}
	return Load(data)
}

// LogLevel reports the log_level key from the YAML document, or "" if it
// was not present, for callers that wire it into capnslog.SetGlobalLogLevel
// alongside the rest of the config.
func LogLevel(data []byte) (string, error) {
	var r raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("config: %v", err)
	}
	if r.LogLevel == nil {
		return "", nil
	}
	return *r.LogLevel, nil
}
