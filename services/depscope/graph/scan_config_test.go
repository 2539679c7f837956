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
	"context"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadScanConfig_MissingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/proj", 0o755); err != nil {
		t.Fatal(err)
	}

	config, err := LoadScanConfig(fsys, "/proj")
	if err != nil {
		t.Fatalf("missing config file must not error: %v", err)
	}
	if len(config.IgnoreDirs) != 0 || len(config.Extensions) != 0 || len(config.ExcludeKinds) != 0 {
		t.Errorf("missing config file must yield zero config, got %+v", config)
	}
}

func TestLoadScanConfig_EmptyRoot(t *testing.T) {
	config, err := LoadScanConfig(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("empty root must not error: %v", err)
	}
	if len(config.IgnoreDirs) != 0 {
		t.Errorf("empty root must yield zero config, got %+v", config)
	}
}

func TestLoadScanConfig_Parse(t *testing.T) {
	fsys := afero.NewMemMapFs()
	yaml := `
ignore_dirs:
  - fixtures
  - vendor
extensions:
  - .vue
exclude_kinds:
  - builtin
`
	if err := afero.WriteFile(fsys, "/proj/"+ScanConfigFile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadScanConfig(fsys, "/proj")
	if err != nil {
		t.Fatalf("LoadScanConfig: %v", err)
	}
	if len(config.IgnoreDirs) != 2 || config.IgnoreDirs[0] != "fixtures" {
		t.Errorf("IgnoreDirs = %v", config.IgnoreDirs)
	}
	if len(config.Extensions) != 1 || config.Extensions[0] != ".vue" {
		t.Errorf("Extensions = %v", config.Extensions)
	}
	if len(config.ExcludeKinds) != 1 || config.ExcludeKinds[0] != "builtin" {
		t.Errorf("ExcludeKinds = %v", config.ExcludeKinds)
	}
}

func TestLoadScanConfig_Malformed(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/proj/"+ScanConfigFile, []byte("ignore_dirs: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, "/proj/app.js", []byte(`import './app';`), 0o644); err != nil {
		t.Fatal(err)
	}

	// The config file is optional, so a malformed one is ignored with a
	// warning instead of failing the scan.
	config, err := LoadScanConfig(fsys, "/proj")
	if err != nil {
		t.Fatalf("malformed config must not error: %v", err)
	}
	if len(config.IgnoreDirs) != 0 || len(config.Extensions) != 0 || len(config.ExcludeKinds) != 0 {
		t.Errorf("malformed config must yield zero config, got %+v", config)
	}

	// The scan itself proceeds with the defaults.
	b := NewBuilder(config.BuilderOptionsFor(fsys, "/proj")...)
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build after malformed config: %v", err)
	}
	if res.Stats.FilesScanned != 1 {
		t.Errorf("FilesScanned = %d, want 1", res.Stats.FilesScanned)
	}
}

func TestScanConfig_BuilderOptionsFor(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/app.vue":            `import x from './helper';`,
		"/proj/helper.js":          ``,
		"/proj/fixtures/gen.js":    ``,
		"/proj/node_modules/m.js":  ``,
	}
	for path, src := range files {
		if err := afero.WriteFile(fsys, path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	config := ScanConfig{
		IgnoreDirs: []string{"fixtures"},
		Extensions: []string{"vue"},
	}

	b := NewBuilder(config.BuilderOptionsFor(fsys, "/proj")...)
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// app.vue included via the added extension, helper.js via defaults,
	// fixtures/ added to the ignore set, node_modules ignored by default.
	if res.Stats.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", res.Stats.FilesScanned)
	}
	if _, ok := res.Graph.GetNode("app.vue"); !ok {
		t.Error("config-added extension not discovered")
	}
	if _, ok := res.Graph.GetNode("fixtures/gen.js"); ok {
		t.Error("config-added ignore dir was scanned")
	}
}
