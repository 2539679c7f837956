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
	"encoding/json"
	"strings"
	"testing"
)

func TestToSerializable_PreservesOrder(t *testing.T) {
	g := buildTestGraph(t)
	sg := g.ToSerializable()

	if sg.SchemaVersion != GraphSchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", sg.SchemaVersion, GraphSchemaVersion)
	}
	if sg.ProjectRoot != "/proj" {
		t.Errorf("ProjectRoot = %q, want /proj", sg.ProjectRoot)
	}
	if sg.GraphHash != g.Hash() {
		t.Error("GraphHash does not match the source graph")
	}

	wantIDs := []string{"src/app.js", "src/util.js", "react", "builtin:fs"}
	if len(sg.Nodes) != len(wantIDs) {
		t.Fatalf("len(Nodes) = %d, want %d", len(sg.Nodes), len(wantIDs))
	}
	for i, id := range wantIDs {
		if sg.Nodes[i].ID != id {
			t.Errorf("Nodes[%d].ID = %q, want %q (insertion order)", i, sg.Nodes[i].ID, id)
		}
	}

	// Edge append order, duplicates intact.
	if len(sg.Links) != 4 {
		t.Fatalf("len(Links) = %d, want 4", len(sg.Links))
	}
	if sg.Links[0].Source != "src/app.js" || sg.Links[0].Target != "src/util.js" {
		t.Errorf("Links[0] = %+v, want src/app.js -> src/util.js", sg.Links[0])
	}
	if sg.Links[3] != sg.Links[0] {
		t.Errorf("Links[3] = %+v, want duplicate of Links[0]", sg.Links[3])
	}
}

func TestToSerializable_EmptyGraph(t *testing.T) {
	g := NewGraph("/proj")
	g.Freeze()
	sg := g.ToSerializable()

	data, err := json.Marshal(sg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"nodes":[]`) || !strings.Contains(s, `"links":[]`) {
		t.Errorf("empty graph JSON missing empty arrays: %s", s)
	}
}

func TestSerializable_KindStrings(t *testing.T) {
	sg := buildTestGraph(t).ToSerializable()
	kinds := map[string]string{}
	for _, n := range sg.Nodes {
		kinds[n.ID] = n.Kind
	}

	if kinds["src/app.js"] != "local" {
		t.Errorf("src/app.js kind = %q, want local", kinds["src/app.js"])
	}
	if kinds["react"] != "package" {
		t.Errorf("react kind = %q, want package", kinds["react"])
	}
	if kinds["builtin:fs"] != "builtin" {
		t.Errorf("builtin:fs kind = %q, want builtin", kinds["builtin:fs"])
	}
}

func TestFromSerializable_RoundTrip(t *testing.T) {
	g := buildTestGraph(t)

	restored, err := FromSerializable(g.ToSerializable())
	if err != nil {
		t.Fatalf("FromSerializable: %v", err)
	}

	if restored.Hash() != g.Hash() {
		t.Error("round trip changed the graph hash")
	}
	if !restored.IsFrozen() {
		t.Error("restored graph is not frozen")
	}
	if restored.BuiltAtMilli != g.BuiltAtMilli {
		t.Error("round trip lost BuiltAtMilli")
	}
	if restored.ProjectRoot != g.ProjectRoot {
		t.Errorf("ProjectRoot = %q, want %q", restored.ProjectRoot, g.ProjectRoot)
	}

	n, ok := restored.GetNode("src/app.js")
	if !ok {
		t.Fatal("restored graph missing src/app.js")
	}
	if n.Ext != ".js" || n.Kind != NodeKindLocal {
		t.Errorf("restored node = %+v, want local .js", n)
	}
}

func TestFromSerializable_Validation(t *testing.T) {
	if _, err := FromSerializable(nil); err == nil {
		t.Error("expected error for nil input")
	}

	if _, err := FromSerializable(&SerializableGraph{SchemaVersion: "0.9"}); err == nil {
		t.Error("expected error for unsupported schema version")
	}

	badKind := &SerializableGraph{
		SchemaVersion: GraphSchemaVersion,
		Nodes:         []SerializableNode{{ID: "x", Kind: "mystery"}},
	}
	if _, err := FromSerializable(badKind); err == nil {
		t.Error("expected error for unknown node kind")
	}

	danglingLink := &SerializableGraph{
		SchemaVersion: GraphSchemaVersion,
		Nodes:         []SerializableNode{{ID: "a", Kind: "local"}},
		Links:         []SerializableLink{{Source: "a", Target: "ghost"}},
	}
	if _, err := FromSerializable(danglingLink); err == nil {
		t.Error("expected error for dangling link")
	}
}
