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

import "testing"

func TestClassify(t *testing.T) {
	builtins := DefaultBuiltins()

	tests := []struct {
		specifier string
		want      RefKind
	}{
		{"./util", RefLocal},
		{"../lib/helpers", RefLocal},
		{"/abs/path/mod", RefLocal},
		{"fs", RefBuiltin},
		{"path", RefBuiltin},
		{"node:fs", RefBuiltin},
		{"node:fs/promises", RefBuiltin},
		{"fs/promises", RefBuiltin},
		{"react", RefPackage},
		{"lodash/fp", RefPackage},
		{"@scope/pkg", RefPackage},
		{"@scope/pkg/subpath", RefPackage},
		// node: scheme always classifies builtin, even off the table
		{"node:made-up", RefBuiltin},
	}

	for _, tt := range tests {
		got := Classify(tt.specifier, builtins)
		if got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.specifier, got, tt.want)
		}
	}
}

func TestBuiltinKey_SchemeCollapses(t *testing.T) {
	// "fs" and "node:fs" must land on the same node.
	if BuiltinKey("fs") != BuiltinKey("node:fs") {
		t.Errorf("BuiltinKey(fs)=%q, BuiltinKey(node:fs)=%q, want equal",
			BuiltinKey("fs"), BuiltinKey("node:fs"))
	}
	if got, want := BuiltinKey("node:fs"), "builtin:fs"; got != want {
		t.Errorf("BuiltinKey(node:fs) = %q, want %q", got, want)
	}
	if got, want := BuiltinLabel("node:path"), "path"; got != want {
		t.Errorf("BuiltinLabel(node:path) = %q, want %q", got, want)
	}
}

func TestPackageKey(t *testing.T) {
	tests := []struct {
		specifier string
		want      string
	}{
		{"react", "react"},
		{"lodash/fp", "lodash"},
		{"@scope/pkg", "@scope/pkg"},
		{"@scope/pkg/deep/subpath", "@scope/pkg"},
		{"@scope", "@scope"},
	}

	for _, tt := range tests {
		if got := PackageKey(tt.specifier); got != tt.want {
			t.Errorf("PackageKey(%q) = %q, want %q", tt.specifier, got, tt.want)
		}
	}
}

func TestDefaultBuiltins_ReturnsCopy(t *testing.T) {
	a := DefaultBuiltins()
	a["fs"] = false
	b := DefaultBuiltins()
	if !b["fs"] {
		t.Error("mutating the returned map leaked into the builtin table")
	}
}
