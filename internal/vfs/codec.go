// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package vfs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EmptySentinel is the stored value meaning "nothing saved yet".
const EmptySentinel = "{}"

const (
	typeFile   = "file"
	typeFolder = "folder"
)

var (
	// ErrNotArray is returned when stored content is valid JSON but not an
	// array of nodes.
	ErrNotArray = errors.New("vfs: content is not a JSON array")

	// ErrUnknownType is returned when a node carries a type tag other than
	// "file" or "folder".
	ErrUnknownType = errors.New("vfs: unknown node type")
)

// wireNode is the JSON shape shared with the editor.
type wireNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Content  *string     `json:"content,omitempty"`
	Children *[]wireNode `json:"children,omitempty"`
	IsOpen   bool        `json:"isOpen,omitempty"`
	Language string      `json:"language,omitempty"`
}

// IsUninitialized reports whether stored content is blank or the empty
// sentinel.
func IsUninitialized(raw string) bool {
	trimmed := bytes.TrimSpace([]byte(raw))
	return len(trimmed) == 0 || string(trimmed) == EmptySentinel
}

// Parse decodes stored content into a tree. It fails for malformed JSON,
// for documents that are not arrays, and for unknown node types.
func Parse(raw string) (Tree, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("vfs parse: invalid json")
		}
		return nil, ErrNotArray
	}

	var nodes []wireNode
	if err := json.Unmarshal(trimmed, &nodes); err != nil {
		return nil, fmt.Errorf("vfs parse: %w", err)
	}
	return fromWire(nodes)
}

// UnmarshalJSON implements json.Unmarshaler so a Tree can be decoded
// directly from a request body.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var nodes []wireNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}
	tree, err := fromWire(nodes)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}

// MarshalJSON implements json.Marshaler. A nil tree encodes as [].
func (t Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(t))
}

// Encode serializes the tree into the stored text form.
func Encode(t Tree) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("vfs encode: %w", err)
	}
	return string(b), nil
}

func fromWire(nodes []wireNode) (Tree, error) {
	out := make(Tree, 0, len(nodes))
	for _, w := range nodes {
		meta := Meta{ID: w.ID, Name: w.Name}
		switch w.Type {
		case typeFile:
			f := &File{Meta: meta, Language: w.Language}
			if w.Content != nil {
				f.Content = *w.Content
			}
			if f.Language == "" {
				f.Language = LanguageFor(w.Name)
			}
			out = append(out, f)
		case typeFolder:
			d := &Folder{Meta: meta, IsOpen: w.IsOpen, Children: Tree{}}
			if w.Children != nil {
				children, err := fromWire(*w.Children)
				if err != nil {
					return nil, err
				}
				d.Children = children
			}
			out = append(out, d)
		default:
			return nil, fmt.Errorf("%w %q for node %q", ErrUnknownType, w.Type, w.Name)
		}
	}
	return out, nil
}

func toWire(t Tree) []wireNode {
	out := make([]wireNode, 0, len(t))
	for _, n := range t {
		switch v := n.(type) {
		case *File:
			content := v.Content
			out = append(out, wireNode{
				ID:       v.ID,
				Name:     v.Name,
				Type:     typeFile,
				Content:  &content,
				Language: v.Language,
			})
		case *Folder:
			children := toWire(v.Children)
			out = append(out, wireNode{
				ID:       v.ID,
				Name:     v.Name,
				Type:     typeFolder,
				Children: &children,
				IsOpen:   v.IsOpen,
			})
		}
	}
	return out
}
