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
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultExtensions is the fixed allow-list of source file extensions, in the
// iteration order used by the resolver's extension-append fallback.
func DefaultExtensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}
}

// DefaultIgnoreDirs is the fixed set of directory names whose subtrees are
// never scanned: dependency caches, build output, version-control metadata,
// and coverage reports.
func DefaultIgnoreDirs() map[string]bool {
	return map[string]bool{
		"node_modules": true,
		".git":         true,
		"dist":         true,
		"build":        true,
		"out":          true,
		"coverage":     true,
	}
}

// SourceFile is one discovered candidate file. It exists only for the
// duration of a single scan.
type SourceFile struct {
	// Path is the absolute path under the scanned root.
	Path string

	// Ext is the lowercased file extension, with leading dot.
	Ext string
}

// DiscoverOptions configures file discovery.
type DiscoverOptions struct {
	// IgnoreDirs is the set of directory names to skip entirely.
	IgnoreDirs map[string]bool

	// Extensions is the allow-list of file extensions (with leading dot).
	Extensions []string
}

// Discover recursively enumerates candidate source files under rootDir.
//
// Description:
//
//	Walks the tree in lexical order (deterministic for a static filesystem).
//	Hidden entries (name starting with ".") are skipped, ignore-listed
//	directory subtrees are pruned, and a file is included iff its extension
//	is in the allow set, compared case-insensitively. Directories that cannot
//	be listed are skipped with a debug log — never fatal.
//
// Inputs:
//
//	fsys - The filesystem capability to walk.
//	rootDir - Absolute path of the scan root. Assumed valid (the builder
//	          checks the precondition before any scan work).
//	opts - Discovery options. Zero-value fields fall back to defaults.
//
// Outputs:
//
//	[]SourceFile - Files in traversal order. Empty (non-nil) when none match.
func Discover(fsys afero.Fs, rootDir string, opts DiscoverOptions) []SourceFile {
	ignore := opts.IgnoreDirs
	if ignore == nil {
		ignore = DefaultIgnoreDirs()
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions()
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}

	files := make([]SourceFile, 0, 64)

	_ = afero.Walk(fsys, rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Debug("skipping unreadable entry",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := info.Name()
		if info.IsDir() {
			if path == rootDir {
				return nil
			}
			if strings.HasPrefix(name, ".") || ignore[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !allowed[ext] {
			return nil
		}

		files = append(files, SourceFile{Path: path, Ext: ext})
		return nil
	})

	return files
}
