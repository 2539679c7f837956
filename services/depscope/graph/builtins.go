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

// BuiltinScheme is the explicit platform-scheme prefix for Node.js built-in
// modules ("node:fs" style specifiers).
const BuiltinScheme = "node:"

// nodeBuiltins is the fixed table of Node.js built-in module names.
//
// The table is keyed by the leading path segment of a specifier after the
// optional "node:" scheme is stripped, so "fs/promises" matches via "fs".
// It is package-level immutable data, never mutated at runtime.
var nodeBuiltins = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// DefaultBuiltins returns a copy of the Node.js built-in module name table.
//
// Callers get their own copy so the package-level table stays immutable even
// if a caller customizes the set before passing it to a Builder.
func DefaultBuiltins() map[string]bool {
	out := make(map[string]bool, len(nodeBuiltins))
	for name := range nodeBuiltins {
		out[name] = true
	}
	return out
}
