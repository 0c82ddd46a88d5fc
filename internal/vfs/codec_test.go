// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package vfs

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestIsUninitialized(t *testing.T) {
	tests := map[string]bool{
		"":          true,
		"   ":       true,
		"{}":        true,
		" {} \n":    true,
		"[]":        false,
		"[{}]":      false,
		"not-json":  false,
		`{"a":1}`:   false,
	}
	for raw, want := range tests {
		if got := IsUninitialized(raw); got != want {
			t.Errorf("IsUninitialized(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	raw := `[
		{"id":"a","name":"index.html","type":"file","content":"<p>x</p>","language":"html"},
		{"id":"b","name":"assets","type":"folder","isOpen":true,"children":[
			{"id":"c","name":"app.js","type":"file","content":"1"}
		]},
		{"id":"d","name":"bare","type":"folder"}
	]`

	tree, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tree) != 3 {
		t.Fatalf("got %d roots, want 3", len(tree))
	}

	index, ok := tree[0].(*File)
	if !ok || index.Content != "<p>x</p>" || index.Language != "html" {
		t.Errorf("index = %+v", tree[0])
	}

	assets, ok := tree[1].(*Folder)
	if !ok || !assets.IsOpen || len(assets.Children) != 1 {
		t.Fatalf("assets = %+v", tree[1])
	}
	app := assets.Children[0].(*File)
	if app.Language != "javascript" {
		t.Errorf("missing language should be inferred, got %q", app.Language)
	}

	bare := tree[2].(*Folder)
	if bare.Children == nil {
		t.Error("folder without children should decode to an empty tree")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "object", raw: `{"name":"x"}`, wantErr: ErrNotArray},
		{name: "string", raw: `"hello"`, wantErr: ErrNotArray},
		{name: "unknown type", raw: `[{"id":"1","name":"x","type":"link"}]`, wantErr: ErrUnknownType},
		{name: "nested unknown type", raw: `[{"id":"1","name":"d","type":"folder","children":[{"type":"?"}]}]`, wantErr: ErrUnknownType},
		{name: "garbage", raw: `not-json`},
		{name: "truncated", raw: `[{"id":"1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	orig := sampleTree()
	raw, err := Encode(orig)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, p := range [][]string{{"index.html"}, {"assets", "img", "logo.png"}, {"assets", "app.js"}} {
		a, _ := Resolve(orig, p)
		b, err := Resolve(back, p)
		if err != nil || a.Content != b.Content || a.ID != b.ID {
			t.Errorf("path %v changed across round trip", p)
		}
	}
}

func TestEncodeShapes(t *testing.T) {
	tree := Tree{
		&File{Meta: Meta{ID: "1", Name: "empty.txt"}},
		&Folder{Meta: Meta{ID: "2", Name: "dir"}},
	}
	raw, err := Encode(tree)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Files always carry content, folders always carry children.
	if !strings.Contains(raw, `"content":""`) {
		t.Errorf("empty file content dropped: %s", raw)
	}
	if !strings.Contains(raw, `"children":[]`) {
		t.Errorf("nil children not encoded as []: %s", raw)
	}

	empty, err := Encode(nil)
	if err != nil || empty != "[]" {
		t.Errorf("Encode(nil) = %q, %v", empty, err)
	}
}

func TestTreeJSONField(t *testing.T) {
	var body struct {
		Files Tree `json:"files"`
	}
	if err := json.Unmarshal([]byte(`{"files":[{"id":"1","name":"a.css","type":"file","content":"x"}]}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(body.Files) != 1 || body.Files[0].(*File).Language != "css" {
		t.Errorf("files = %+v", body.Files)
	}

	if err := json.Unmarshal([]byte(`{"files":[{"type":"bogus"}]}`), &body); !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}
