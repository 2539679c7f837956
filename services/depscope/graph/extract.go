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
	"regexp"
	"sort"
)

// Extraction patterns for the three module-reference forms.
//
// This is deliberately lexical pattern matching, not a parser: the patterns
// run over the whole file text and will also match import-shaped text inside
// comments and string literals. That precision/recall trade-off is accepted
// in exchange for speed and zero per-language machinery.
var (
	// staticImportRe matches ES static imports, with or without a binding
	// clause, including side-effect-only imports:
	//   import x from './a'   import {a, b as c} from 'mod'   import './side'
	// The mandatory whitespace after "import" keeps it from matching the
	// dynamic import() call form.
	staticImportRe = regexp.MustCompile(`import\s+(?:[\w${},*\s]+from\s+)?["']([^"']+)["']`)

	// exportFromRe matches re-export forms:
	//   export * from './a'   export {a as b} from 'mod'
	exportFromRe = regexp.MustCompile(`export\s+[\w${},*\s]*from\s+["']([^"']+)["']`)

	// dynamicImportRe matches the dynamic import call form with a literal
	// specifier as its sole argument: import('./lazy')
	dynamicImportRe = regexp.MustCompile(`import\s*\(\s*["']([^"']+)["']\s*\)`)

	// requireRe matches synchronous CommonJS requires with a literal
	// specifier: require('./mod')
	requireRe = regexp.MustCompile(`require\s*\(\s*["']([^"']+)["']\s*\)`)
)

// rawRef is one pattern match: specifier plus its byte offset in the source.
type rawRef struct {
	offset int
	spec   string
}

// ExtractReferences returns the distinct module-reference specifiers mentioned
// by a file, in document order.
//
// Description:
//
//	Runs the static-import, export-from, dynamic-import, and require patterns
//	over the whole text, pools the matches by byte offset so cross-form
//	ordering follows the document, and deduplicates by exact string equality
//	keeping the first occurrence.
//
// Inputs:
//
//	src - The full file text.
//
// Outputs:
//
//	[]string - Deduplicated specifiers in first-seen document order.
//	           Empty (non-nil) when the file mentions none.
func ExtractReferences(src string) []string {
	var refs []rawRef
	for _, re := range []*regexp.Regexp{staticImportRe, exportFromRe, dynamicImportRe, requireRe} {
		for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
			// m[2]:m[3] is the first capture group (the specifier).
			if m[2] < 0 {
				continue
			}
			refs = append(refs, rawRef{offset: m[0], spec: src[m[2]:m[3]]})
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].offset < refs[j].offset
	})

	out := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		if seen[r.spec] {
			continue
		}
		seen[r.spec] = true
		out = append(out, r.spec)
	}
	return out
}
