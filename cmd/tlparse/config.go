// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config holds defaults read from an optional YAML config file, so a
// team can check in one set of flag values instead of repeating them
// on every invocation.
type Config struct {
	Out              string `yaml:"out"`
	CustomHeaderHTML string `yaml:"custom_header_html"`
	NoBrowser        bool   `yaml:"no_browser"`
	NoColor          bool   `yaml:"no_color"`
	MetricsAddr      string `yaml:"metrics_addr"`
}

// envVarPattern matches ${VAR} and ${VAR:-default} references in config
// values, so a checked-in config.yaml can defer secrets or host-specific
// paths to the environment.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandEnv replaces ${VAR} and ${VAR:-default} in input with the named
// environment variable's value, falling back to the given default, or
// to the empty string if neither is set.
func expandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		if len(groups) >= 3 && groups[2] != "" {
			return groups[2]
		}
		return ""
	})
}

// loadConfig reads a YAML config file, expands environment references,
// and unmarshals into a Config. A missing path is not an error: it
// simply means no config overrides apply.
func loadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := expandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return &cfg, nil
}
