// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ScanConfigFile is the optional per-project config file name.
const ScanConfigFile = "depscope.config.yaml"

// ScanConfig holds user-provided overrides for a scan.
//
// Description:
//
//	Loaded from <projectRoot>/depscope.config.yaml. All fields are optional
//	and additive to the built-in defaults. A missing config file is not an
//	error (zero-config works out of the box).
//
// Thread Safety: Safe for concurrent reads after construction.
type ScanConfig struct {
	// IgnoreDirs lists additional directory names to skip during discovery.
	// Example: ["fixtures", "vendor"]
	IgnoreDirs []string `yaml:"ignore_dirs"`

	// Extensions lists additional source extensions to include, with or
	// without the leading dot. Example: [".vue"]
	Extensions []string `yaml:"extensions"`

	// ExcludeKinds lists node kinds the presentation layer filters out by
	// default. Example: ["builtin"]
	ExcludeKinds []string `yaml:"exclude_kinds"`
}

// LoadScanConfig reads depscope.config.yaml from the project root.
//
// Description:
//
//	If the project root is empty or the file does not exist, returns an empty
//	config with no error. A file that exists but does not parse is logged and
//	ignored; the config is optional, so a malformed one must never fail the
//	scan. Only an unexpected read failure is an error.
//
// Thread Safety: Safe for concurrent use (stateless function).
func LoadScanConfig(fsys afero.Fs, projectRoot string) (ScanConfig, error) {
	if projectRoot == "" {
		return ScanConfig{}, nil
	}

	configPath := filepath.Join(projectRoot, ScanConfigFile)
	data, err := afero.ReadFile(fsys, configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ScanConfig{}, nil
		}
		return ScanConfig{}, fmt.Errorf("reading %s: %w", ScanConfigFile, err)
	}

	var config ScanConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		slog.Warn("ignoring malformed scan config",
			slog.String("path", configPath),
			slog.Any("error", err),
		)
		return ScanConfig{}, nil
	}

	return config, nil
}

// BuilderOptionsFor merges the config on top of the defaults and returns the
// builder options for a scan of the given root.
func (c ScanConfig) BuilderOptionsFor(fsys afero.Fs, projectRoot string) []BuilderOption {
	ignore := DefaultIgnoreDirs()
	for _, d := range c.IgnoreDirs {
		if d != "" {
			ignore[d] = true
		}
	}

	exts := DefaultExtensions()
	for _, e := range c.Extensions {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, strings.ToLower(e))
	}

	return []BuilderOption{
		WithProjectRoot(projectRoot),
		WithFS(fsys),
		WithIgnoreDirs(ignore),
		WithExtensions(exts),
	}
}
