// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package vfs implements the virtual file tree stored on templates and
// invoices: the node model, its JSON wire format, path resolution, and the
// starter tree used before anything has been saved.
//
// A tree is a slice of root nodes. Every node is either a *File (with
// content) or a *Folder (with children); the two shapes never mix.
package vfs

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Node is a single entry in a virtual file tree. It is implemented only by
// *File and *Folder.
type Node interface {
	Base() Meta
	isNode()
}

// Meta holds the fields shared by files and folders.
type Meta struct {
	// ID is stable across edits and is used by the editor for tab and
	// selection tracking.
	ID string
	// Name is the path segment. It is unique among siblings only.
	Name string
}

// Base returns the shared node fields.
func (m Meta) Base() Meta { return m }

// File is a leaf node. Content is either literal text (HTML, CSS, JS, JSON)
// or, for uploaded media, a URL pointing outside the tree.
type File struct {
	Meta
	Content  string
	Language string // display hint, see LanguageFor
}

// Folder is an interior node. Children order is the display order.
type Folder struct {
	Meta
	Children Tree
	IsOpen   bool // editor expand/collapse state
}

func (*File) isNode()   {}
func (*Folder) isNode() {}

var (
	_ Node = (*File)(nil)
	_ Node = (*Folder)(nil)
)

// Tree is an ordered list of sibling nodes; a whole document is the list of
// root nodes.
type Tree []Node

// NewFile creates a file node with a fresh ID and a language hint derived
// from its extension.
func NewFile(name, content string) *File {
	return &File{
		Meta:     Meta{ID: uuid.NewString(), Name: name},
		Content:  content,
		Language: LanguageFor(name),
	}
}

// NewFolder creates a folder node with a fresh ID.
func NewFolder(name string, children ...Node) *Folder {
	return &Folder{
		Meta:     Meta{ID: uuid.NewString(), Name: name},
		Children: Tree(children),
	}
}

// IsURLContent reports whether file content is a reference to externally
// stored media rather than inline text. A bare leading slash is not enough:
// CSS commonly starts with a "/*" comment.
func IsURLContent(content string) bool {
	return strings.HasPrefix(content, "http") ||
		strings.HasPrefix(content, "/uploads") ||
		strings.HasPrefix(content, "/api")
}

// LanguageFor derives the editor language hint from a file name.
// Unknown extensions yield "".
func LanguageFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm":
		return "html"
	case ".css":
		return "css"
	case ".js", ".mjs":
		return "javascript"
	case ".json":
		return "json"
	}
	return ""
}

// Clone returns a deep copy of the tree. Node IDs are preserved; nothing in
// the copy aliases the original.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, 0, len(t))
	for _, n := range t {
		out = append(out, cloneNode(n))
	}
	return out
}

func cloneNode(n Node) Node {
	switch v := n.(type) {
	case *File:
		c := *v
		return &c
	case *Folder:
		return &Folder{
			Meta:     v.Meta,
			Children: v.Children.Clone(),
			IsOpen:   v.IsOpen,
		}
	}
	return nil
}
