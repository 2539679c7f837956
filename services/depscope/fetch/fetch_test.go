// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		specifier string
		want      RepoRef
		wantErr   bool
	}{
		{"facebook/react", RepoRef{Owner: "facebook", Name: "react", Ref: "HEAD"}, false},
		{"facebook/react@v18.2.0", RepoRef{Owner: "facebook", Name: "react", Ref: "v18.2.0"}, false},
		{" owner/name ", RepoRef{Owner: "owner", Name: "name", Ref: "HEAD"}, false},
		{"", RepoRef{}, true},
		{"justname", RepoRef{}, true},
		{"a/b/c", RepoRef{}, true},
		{"owner/", RepoRef{}, true},
		{"/name", RepoRef{}, true},
		{"owner/name@", RepoRef{}, true},
	}

	for _, tt := range tests {
		got, err := ParseRepoRef(tt.specifier)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRepoRef(%q) succeeded, want error", tt.specifier)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepoRef(%q): %v", tt.specifier, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRepoRef(%q) = %+v, want %+v", tt.specifier, got, tt.want)
		}
	}
}

func TestRepoRef_TarballPath(t *testing.T) {
	ref := RepoRef{Owner: "facebook", Name: "react", Ref: "main"}
	if got, want := ref.TarballPath(), "/facebook/react/tar.gz/main"; got != want {
		t.Errorf("TarballPath = %q, want %q", got, want)
	}
}

// makeTarGz builds an in-memory tar.gz with the given name->content entries.
func makeTarGz(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range entries {
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing tar entry %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFetcher_Fetch(t *testing.T) {
	archive := makeTarGz(t, map[string]string{
		"react-main/src/index.js": `import "./app";`,
		"react-main/src/app.js":   `export const app = 1;`,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/facebook/react/tar.gz/main" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	f := NewFetcher(
		WithBaseURL(srv.URL),
		WithWorkDir(t.TempDir()),
		WithMaxRetries(1),
	)

	checkout, err := f.Fetch(context.Background(), RepoRef{Owner: "facebook", Name: "react", Ref: "main"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer checkout.Cleanup()

	// The wrapping "react-main/" directory is folded into Dir.
	if filepath.Base(checkout.Dir) != "react-main" {
		t.Errorf("Dir = %q, want .../react-main", checkout.Dir)
	}
	data, err := os.ReadFile(filepath.Join(checkout.Dir, "src", "index.js"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(data) != `import "./app";` {
		t.Errorf("extracted content = %q", data)
	}

	if err := checkout.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(checkout.Dir); !os.IsNotExist(err) {
		t.Error("Cleanup left the checkout on disk")
	}
	if err := checkout.Cleanup(); err != nil {
		t.Errorf("second Cleanup: %v", err)
	}
}

func TestFetcher_FetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	f := NewFetcher(WithBaseURL(srv.URL), WithWorkDir(t.TempDir()), WithMaxRetries(1))
	_, err := f.Fetch(context.Background(), RepoRef{Owner: "no", Name: "such", Ref: "HEAD"})
	if err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestNewFetcher_ClampsRetries(t *testing.T) {
	for _, n := range []int{0, -3} {
		f := NewFetcher(WithMaxRetries(n))
		if f.options.MaxRetries != 1 {
			t.Errorf("MaxRetries(%d) clamped to %d, want 1", n, f.options.MaxRetries)
		}
	}

	// A clamped fetcher still makes its one attempt and reports the real
	// failure rather than succeeding vacuously.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(WithBaseURL(srv.URL), WithWorkDir(t.TempDir()), WithMaxRetries(0))
	_, err := f.Fetch(context.Background(), RepoRef{Owner: "a", Name: "b", Ref: "HEAD"})
	if err == nil {
		t.Fatal("expected error from failing server")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the HTTP failure, got %v", err)
	}
}

func TestFetcher_TopLevelFileNotPromoted(t *testing.T) {
	// An archive whose only top-level entry is a regular file has no
	// wrapping directory; Dir must stay the extraction root.
	archive := makeTarGz(t, map[string]string{
		"index.js": `export const app = 1;`,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	f := NewFetcher(WithBaseURL(srv.URL), WithWorkDir(t.TempDir()), WithMaxRetries(1))
	checkout, err := f.Fetch(context.Background(), RepoRef{Owner: "a", Name: "b", Ref: "HEAD"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer checkout.Cleanup()

	if _, err := os.Stat(filepath.Join(checkout.Dir, "index.js")); err != nil {
		t.Errorf("Dir %q does not contain the extracted file: %v", checkout.Dir, err)
	}
	info, err := os.Stat(checkout.Dir)
	if err != nil {
		t.Fatalf("stat Dir: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Dir %q is not a directory", checkout.Dir)
	}
}

func TestFetcher_RejectsPathTraversal(t *testing.T) {
	archive := makeTarGz(t, map[string]string{
		"../evil.js": `alert(1)`,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	f := NewFetcher(WithBaseURL(srv.URL), WithWorkDir(t.TempDir()), WithMaxRetries(1))
	_, err := f.Fetch(context.Background(), RepoRef{Owner: "a", Name: "b", Ref: "HEAD"})
	if err == nil {
		t.Fatal("expected error for path traversal entry")
	}
}
