// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package vfs

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a path does not name a file in the tree.
var ErrNotFound = errors.New("vfs: not found")

// Resolve walks path segment by segment and returns the file it names.
// Segment matching is case-insensitive and the first matching sibling wins.
// Folders are not servable: a path ending on a folder is ErrNotFound.
//
// If the lookup fails and the tree is a single folder wrapping everything
// else, the lookup is retried once inside that folder. Some saved trees
// carry such a spurious top-level directory.
func Resolve(roots Tree, path []string) (*File, error) {
	if f := walk(roots, path); f != nil {
		return f, nil
	}
	if len(roots) == 1 {
		if wrap, ok := roots[0].(*Folder); ok && len(wrap.Children) > 0 {
			if f := walk(wrap.Children, path); f != nil {
				return f, nil
			}
		}
	}
	return nil, ErrNotFound
}

func walk(nodes Tree, path []string) *File {
	if len(path) == 0 {
		return nil
	}
	current := nodes
	for i, segment := range path {
		node := findChild(current, segment)
		if node == nil {
			return nil
		}
		last := i == len(path)-1
		switch v := node.(type) {
		case *File:
			if last {
				return v
			}
			return nil
		case *Folder:
			if last || v.Children == nil {
				return nil
			}
			current = v.Children
		}
	}
	return nil
}

func findChild(nodes Tree, name string) Node {
	for _, n := range nodes {
		if strings.EqualFold(n.Base().Name, name) {
			return n
		}
	}
	return nil
}

// FindFirst searches the tree depth-first, in sibling order, for a file
// whose name equals name exactly. It returns nil if there is none.
func FindFirst(roots Tree, name string) *File {
	for _, n := range roots {
		switch v := n.(type) {
		case *File:
			if v.Name == name {
				return v
			}
		case *Folder:
			if f := FindFirst(v.Children, name); f != nil {
				return f
			}
		}
	}
	return nil
}

// SplitPath turns a slash separated request path into segments, dropping
// empty segments produced by leading, trailing or doubled slashes.
func SplitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
