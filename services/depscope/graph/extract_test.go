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
	"reflect"
	"testing"
)

func TestExtractReferences_StaticForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "default import",
			src:  `import React from "react";`,
			want: []string{"react"},
		},
		{
			name: "named imports",
			src:  `import { useState, useEffect } from 'react';`,
			want: []string{"react"},
		},
		{
			name: "namespace import",
			src:  `import * as path from "node:path";`,
			want: []string{"node:path"},
		},
		{
			name: "side effect import",
			src:  `import "./styles.css";`,
			want: []string{"./styles.css"},
		},
		{
			name: "export from",
			src:  `export { helper } from "./helpers";`,
			want: []string{"./helpers"},
		},
		{
			name: "export star from",
			src:  `export * from './utils';`,
			want: []string{"./utils"},
		},
		{
			name: "dynamic import",
			src:  `const mod = await import("./lazy");`,
			want: []string{"./lazy"},
		},
		{
			name: "dynamic import with whitespace",
			src:  "const mod = import (\n  './spaced'\n);",
			want: []string{"./spaced"},
		},
		{
			name: "require call",
			src:  `const fs = require("fs");`,
			want: []string{"fs"},
		},
		{
			name: "no references",
			src:  `const x = 1; function noop() {}`,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractReferences(tt.src)
			if got == nil {
				t.Fatal("ExtractReferences returned nil, want non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractReferences(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestExtractReferences_DocumentOrder(t *testing.T) {
	src := `
import a from './a';
const b = import('./b');
const c = require('./c');
import { d } from './d';
`
	got := ExtractReferences(src)
	want := []string{"./a", "./b", "./c", "./d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractReferences order = %v, want %v", got, want)
	}
}

func TestExtractReferences_DedupFirstSeen(t *testing.T) {
	src := `
import { a } from './shared';
import "react";
const again = require('./shared');
import React from "react";
`
	got := ExtractReferences(src)
	want := []string{"./shared", "react"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractReferences = %v, want %v", got, want)
	}
}

func TestExtractReferences_MixedQuotes(t *testing.T) {
	src := `import a from "./double"; import b from './single';`
	got := ExtractReferences(src)
	want := []string{"./double", "./single"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractReferences = %v, want %v", got, want)
	}
}

func TestExtractReferences_DynamicNotMatchedAsStatic(t *testing.T) {
	// A bare dynamic import must produce exactly one reference, not one per
	// overlapping pattern.
	src := `import("./only-once");`
	got := ExtractReferences(src)
	want := []string{"./only-once"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractReferences = %v, want %v", got, want)
	}
}
