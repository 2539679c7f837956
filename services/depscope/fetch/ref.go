// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fetch downloads remote repositories into local scratch directories
// so the dependency-graph builder can scan projects that are not already on
// disk.
package fetch

import (
	"fmt"
	"strings"
)

// DefaultRef is the ref used when a repo specifier carries none.
const DefaultRef = "HEAD"

// RepoRef identifies a hosted repository at a specific ref.
type RepoRef struct {
	// Owner is the user or organization name.
	Owner string

	// Name is the repository name.
	Name string

	// Ref is a branch, tag, or commit SHA. Defaults to DefaultRef.
	Ref string
}

// ParseRepoRef parses an "owner/name" or "owner/name@ref" specifier.
//
// Description:
//
//	The specifier is the short form users type on the CLI or send to the
//	scan endpoint: "facebook/react", "facebook/react@v18.2.0". Owner and
//	name must both be non-empty and must not contain path separators
//	beyond the single divider.
//
// Outputs:
//
//	RepoRef - The parsed reference with Ref defaulted.
//	error - Non-nil for a malformed specifier.
func ParseRepoRef(specifier string) (RepoRef, error) {
	spec := strings.TrimSpace(specifier)
	if spec == "" {
		return RepoRef{}, fmt.Errorf("empty repo specifier")
	}

	ref := DefaultRef
	if at := strings.LastIndexByte(spec, '@'); at >= 0 {
		ref = spec[at+1:]
		spec = spec[:at]
		if ref == "" {
			return RepoRef{}, fmt.Errorf("empty ref in repo specifier %q", specifier)
		}
	}

	parts := strings.Split(spec, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("repo specifier %q must be owner/name[@ref]", specifier)
	}
	if strings.ContainsAny(parts[0]+parts[1], " \t") {
		return RepoRef{}, fmt.Errorf("repo specifier %q contains whitespace", specifier)
	}

	return RepoRef{Owner: parts[0], Name: parts[1], Ref: ref}, nil
}

// String returns the canonical owner/name@ref form.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name + "@" + r.Ref
}

// TarballPath returns the request path for the codeload tarball endpoint.
func (r RepoRef) TarballPath() string {
	return "/" + r.Owner + "/" + r.Name + "/tar.gz/" + r.Ref
}
