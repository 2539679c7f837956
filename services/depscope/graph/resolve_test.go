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
	"testing"

	"github.com/spf13/afero"
)

// newResolveFS builds an in-memory project tree for resolution tests.
func newResolveFS(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := []string{
		"/root/src/app.js",
		"/root/src/util.ts",
		"/root/src/config.json.js",
		"/root/src/lib/index.ts",
		"/root/src/styles.css",
	}
	for _, f := range files {
		if err := afero.WriteFile(fsys, f, []byte("// stub\n"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", f, err)
		}
	}
	return fsys
}

func TestResolveLocal_ExactMatch(t *testing.T) {
	fsys := newResolveFS(t)

	got, ok := ResolveLocal(fsys, "./util.ts", "/root/src/app.js", DefaultExtensions())
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if want := "/root/src/util.ts"; got != want {
		t.Errorf("ResolveLocal = %q, want %q", got, want)
	}
}

func TestResolveLocal_ExtensionFallback(t *testing.T) {
	fsys := newResolveFS(t)

	got, ok := ResolveLocal(fsys, "./util", "/root/src/app.js", DefaultExtensions())
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if want := "/root/src/util.ts"; got != want {
		t.Errorf("ResolveLocal = %q, want %q", got, want)
	}
}

func TestResolveLocal_ExtensionFallbackOrder(t *testing.T) {
	fsys := newResolveFS(t)
	// Both .js and .ts exist: the .js candidate wins because the extension
	// list is tried in order.
	if err := afero.WriteFile(fsys, "/root/src/dual.js", []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, "/root/src/dual.ts", []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := ResolveLocal(fsys, "./dual", "/root/src/app.js", DefaultExtensions())
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if want := "/root/src/dual.js"; got != want {
		t.Errorf("ResolveLocal = %q, want %q", got, want)
	}
}

func TestResolveLocal_DirectoryIndexFallback(t *testing.T) {
	fsys := newResolveFS(t)

	got, ok := ResolveLocal(fsys, "./lib", "/root/src/app.js", DefaultExtensions())
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if want := "/root/src/lib/index.ts"; got != want {
		t.Errorf("ResolveLocal = %q, want %q", got, want)
	}
}

func TestResolveLocal_ParentTraversal(t *testing.T) {
	fsys := newResolveFS(t)

	got, ok := ResolveLocal(fsys, "../src/util", "/root/src/lib/index.ts", DefaultExtensions())
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if want := "/root/src/util.ts"; got != want {
		t.Errorf("ResolveLocal = %q, want %q", got, want)
	}
}

func TestResolveLocal_NotFound(t *testing.T) {
	fsys := newResolveFS(t)

	if got, ok := ResolveLocal(fsys, "./missing", "/root/src/app.js", DefaultExtensions()); ok {
		t.Errorf("expected resolution to fail, got %q", got)
	}
}

func TestResolveLocal_NonSourceExactMatch(t *testing.T) {
	fsys := newResolveFS(t)

	// Exact-path matches are not restricted to the source extension set.
	got, ok := ResolveLocal(fsys, "./styles.css", "/root/src/app.js", DefaultExtensions())
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if want := "/root/src/styles.css"; got != want {
		t.Errorf("ResolveLocal = %q, want %q", got, want)
	}
}
