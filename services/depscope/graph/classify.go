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

import "strings"

// RefKind classifies a raw specifier string before resolution.
type RefKind int

const (
	// RefLocal is a specifier that denotes another file in the project.
	RefLocal RefKind = iota

	// RefPackage is an externally installed, named dependency.
	RefPackage

	// RefBuiltin is a module provided by the host runtime.
	RefBuiltin
)

// String returns the string representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefLocal:
		return "local"
	case RefPackage:
		return "package"
	case RefBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Classify categorizes a raw specifier by lexical shape alone.
//
// Description:
//
//	A specifier beginning with "." or "/" is local. Otherwise the optional
//	"node:" scheme is stripped; a specifier that carried the scheme is
//	builtin regardless of table membership, and one whose leading path
//	segment appears in the builtin table is builtin. Everything else is an
//	external package.
//
//	Pure function of the specifier string and the table — no filesystem
//	access. Every non-empty specifier gets exactly one kind.
//
// Inputs:
//
//	specifier - The raw specifier string.
//	builtins - The platform built-in name table, keyed by leading segment.
func Classify(specifier string, builtins map[string]bool) RefKind {
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		return RefLocal
	}

	stripped, hadScheme := strings.CutPrefix(specifier, BuiltinScheme)
	if hadScheme {
		return RefBuiltin
	}
	if builtins[leadingSegment(stripped)] {
		return RefBuiltin
	}

	return RefPackage
}

// BuiltinKey normalizes a builtin specifier to its canonical node key, so
// "fs" and "node:fs" collide on "builtin:fs".
func BuiltinKey(specifier string) string {
	stripped, _ := strings.CutPrefix(specifier, BuiltinScheme)
	return "builtin:" + stripped
}

// BuiltinLabel returns the display label for a builtin specifier: the
// specifier with the scheme stripped.
func BuiltinLabel(specifier string) string {
	stripped, _ := strings.CutPrefix(specifier, BuiltinScheme)
	return stripped
}

// PackageKey derives the package node key from a package specifier.
//
// Description:
//
//	Scoped specifiers keep scope+name: "@scope/pkg/subpath" → "@scope/pkg".
//	Unscoped specifiers keep only the first path segment: "lodash/fp" →
//	"lodash".
func PackageKey(specifier string) string {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return specifier
	}
	return leadingSegment(specifier)
}

// leadingSegment returns the specifier up to the first path separator.
func leadingSegment(specifier string) string {
	if i := strings.IndexByte(specifier, '/'); i >= 0 {
		return specifier[:i]
	}
	return specifier
}
