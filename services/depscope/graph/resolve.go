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
	"path/filepath"

	"github.com/spf13/afero"
)

// ResolveLocal maps a local specifier to a concrete file on the filesystem.
//
// Description:
//
//	Resolution order, first success wins:
//	  1. The specifier resolved against fromFile's directory as an exact
//	     file path. Absolute specifiers ("/x") resolve from the filesystem
//	     root, matching Node's path.resolve semantics.
//	  2. The resolved path with each allow-listed extension appended, in
//	     the fixed extension iteration order.
//	  3. If the resolved path is a directory: "index" plus each extension
//	     inside it, same order.
//
//	Not-found is not an error; the caller keeps the reference visible as a
//	local node keyed by the raw specifier.
//
// Inputs:
//
//	fsys - The filesystem capability for existence checks.
//	specifier - The raw local specifier ("./util", "../lib/a.js", "/abs").
//	fromFile - Absolute path of the referencing file.
//	extensions - Extension iteration order. Empty falls back to defaults.
//
// Outputs:
//
//	string - Absolute path of the resolved file. Empty if not found.
//	bool - True on success.
func ResolveLocal(fsys afero.Fs, specifier, fromFile string, extensions []string) (string, bool) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions()
	}

	candidate := specifier
	if !filepath.IsAbs(specifier) {
		candidate = filepath.Join(filepath.Dir(fromFile), specifier)
	} else {
		candidate = filepath.Clean(specifier)
	}

	if isRegularFile(fsys, candidate) {
		return candidate, true
	}

	for _, ext := range extensions {
		withExt := candidate + ext
		if isRegularFile(fsys, withExt) {
			return withExt, true
		}
	}

	if isDir(fsys, candidate) {
		for _, ext := range extensions {
			index := filepath.Join(candidate, "index"+ext)
			if isRegularFile(fsys, index) {
				return index, true
			}
		}
	}

	return "", false
}

func isRegularFile(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}
