// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine serves invitation content. It resolves asset requests
// against a tenant's effective file tree and prepares index.html for
// embedding in the public page shell.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"undangan/internal/content"
	"undangan/internal/vfs"
)

// IndexFile is the document rendered as an invitation page.
const IndexFile = "index.html"

// ErrNotInitialized is returned for asset lookups that miss while the
// tenant has never saved any content.
var ErrNotInitialized = errors.New("project not initialized")

// FileNotFoundError is returned when a tenant has content but the
// requested path does not name a file in it.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return "file not found: " + e.Path
}

// Selector is the content lookup the engine depends on.
type Selector interface {
	Select(ctx context.Context, ref content.Ref) (*content.Selection, error)
}

// Asset is a resolved file. Exactly one of Body or Redirect is meaningful:
// uploaded media is stored out of tree and referenced by URL.
type Asset struct {
	Name        string
	ContentType string
	Body        []byte
	Redirect    string
}

// Page is an invitation document ready for the page shell.
type Page struct {
	// HTML is the transformed index.html with its wrapper tags removed.
	// It is empty when the tree has no index.html.
	HTML      string
	Empty     bool
	Selection *content.Selection
}

// Engine serves assets and pages for templates and invoices. It keeps an
// in-memory memo of transformed documents so unchanged inputs are not
// rewritten again.
type Engine struct {
	selector Selector
	memo     *transformCache
}

// New creates an engine reading content through selector.
func New(selector Selector) *Engine {
	return &Engine{
		selector: selector,
		memo:     newTransformCache(defaultMemoSize),
	}
}

// Asset looks up path in the tenant's effective tree. Content that is a
// media URL becomes a redirect; everything else is returned inline.
func (e *Engine) Asset(ctx context.Context, ref content.Ref, path []string) (*Asset, error) {
	sel, err := e.selector.Select(ctx, ref)
	if err != nil {
		return nil, err
	}

	f, err := vfs.Resolve(sel.Files, path)
	if err != nil {
		if sel.Origin == content.OriginDefault && sel.State == content.StateNotInitialized {
			return nil, ErrNotInitialized
		}
		return nil, &FileNotFoundError{Path: strings.Join(path, "/")}
	}

	a := &Asset{Name: f.Name, ContentType: vfs.ContentType(f.Name)}
	if vfs.IsURLContent(f.Content) {
		a.Redirect = f.Content
		return a, nil
	}
	a.Body = []byte(f.Content)
	return a, nil
}

// Page selects the tenant's tree, finds index.html and prepares it for
// embedding under route. A tree without index.html yields an Empty page,
// not an error.
func (e *Engine) Page(ctx context.Context, ref content.Ref, route Route, guestName string) (*Page, error) {
	sel, err := e.selector.Select(ctx, ref)
	if err != nil {
		return nil, err
	}

	index := vfs.FindFirst(sel.Files, IndexFile)
	if index == nil {
		slog.Debug("no index.html in tree", "tenant", ref.Key, "origin", sel.Origin)
		return &Page{Empty: true, Selection: sel}, nil
	}

	return &Page{
		HTML:      Fragment(e.Transform(index.Content, route, guestName)),
		Selection: sel,
	}, nil
}

// Transform is the memoized form of the package-level Transform.
func (e *Engine) Transform(doc string, route Route, guestName string) string {
	k := newMemoKey(doc, route, guestName)
	if out, ok := e.memo.get(k); ok {
		return out
	}
	out := Transform(doc, route, guestName)
	e.memo.put(k, out)
	return out
}

// ResetMemo drops all memoized documents.
func (e *Engine) ResetMemo() {
	e.memo.reset()
}
