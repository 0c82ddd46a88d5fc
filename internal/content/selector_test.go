// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"undangan/internal/models"
	"undangan/internal/vfs"
)

const (
	threeFiles = `[
		{"id":"t1","name":"index.html","type":"file","content":"<h1>T</h1>"},
		{"id":"t2","name":"style.css","type":"file","content":"body{}"},
		{"id":"t3","name":"script.js","type":"file","content":"1"}
	]`
	oneFile = `[{"id":"i1","name":"index.html","type":"file","content":"<h1>I</h1>"}]`
)

type fakeTemplates map[uuid.UUID]*models.Template

func (f fakeTemplates) FindByID(_ context.Context, id uuid.UUID) (*models.Template, error) {
	return f[id], nil
}

type fakeInvoices map[string]*models.Invoice

func (f fakeInvoices) FindBySubdomain(_ context.Context, sub string) (*models.Invoice, error) {
	return f[sub], nil
}

type failingStore struct{}

func (failingStore) FindByID(context.Context, uuid.UUID) (*models.Template, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) FindBySubdomain(context.Context, string) (*models.Invoice, error) {
	return nil, errors.New("connection refused")
}

func firstID(t *testing.T, tree vfs.Tree) string {
	t.Helper()
	if len(tree) == 0 {
		t.Fatal("empty tree")
	}
	return tree[0].Base().ID
}

func TestFromInvoicePrecedence(t *testing.T) {
	tests := []struct {
		name       string
		own        string
		base       string
		wantOrigin Origin
		wantState  State
		wantFirst  string
		wantLen    int
	}{
		{
			name: "sentinel override falls to template", own: "{}", base: threeFiles,
			wantOrigin: OriginTemplate, wantState: StateReady, wantFirst: "t1", wantLen: 3,
		},
		{
			name: "blank override falls to template", own: "", base: threeFiles,
			wantOrigin: OriginTemplate, wantState: StateReady, wantFirst: "t1", wantLen: 3,
		},
		{
			name: "override wins over template", own: oneFile, base: threeFiles,
			wantOrigin: OriginInvoice, wantState: StateReady, wantFirst: "i1", wantLen: 1,
		},
		{
			name: "override wins over missing template", own: oneFile, base: "{}",
			wantOrigin: OriginInvoice, wantState: StateReady, wantFirst: "i1", wantLen: 1,
		},
		{
			name: "malformed override falls to template", own: "{oops", base: threeFiles,
			wantOrigin: OriginTemplate, wantState: StateReady, wantFirst: "t1", wantLen: 3,
		},
		{
			name: "object override falls to template", own: `{"a":1}`, base: threeFiles,
			wantOrigin: OriginTemplate, wantState: StateReady, wantFirst: "t1", wantLen: 3,
		},
		{
			name: "both sentinel", own: "{}", base: "{}",
			wantOrigin: OriginDefault, wantState: StateNotInitialized, wantFirst: "root-index", wantLen: 3,
		},
		{
			name: "both invalid", own: "nope", base: "[1,2",
			wantOrigin: OriginDefault, wantState: StateMalformed, wantFirst: "root-index", wantLen: 3,
		},
		{
			name: "sentinel over malformed template", own: "{}", base: `"str"`,
			wantOrigin: OriginDefault, wantState: StateMalformed, wantFirst: "root-index", wantLen: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := FromInvoice(&models.Invoice{TemplateContent: tt.own, BaseContent: tt.base})
			if sel.Origin != tt.wantOrigin {
				t.Errorf("Origin = %q, want %q", sel.Origin, tt.wantOrigin)
			}
			if sel.State != tt.wantState {
				t.Errorf("State = %q, want %q", sel.State, tt.wantState)
			}
			if len(sel.Files) != tt.wantLen {
				t.Errorf("len(Files) = %d, want %d", len(sel.Files), tt.wantLen)
			}
			if got := firstID(t, sel.Files); got != tt.wantFirst {
				t.Errorf("first node = %q, want %q", got, tt.wantFirst)
			}
		})
	}
}

func TestFromTemplate(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantOrigin Origin
		wantState  State
	}{
		{name: "valid", content: threeFiles, wantOrigin: OriginTemplate, wantState: StateReady},
		{name: "empty array is valid", content: "[]", wantOrigin: OriginTemplate, wantState: StateReady},
		{name: "sentinel", content: "{}", wantOrigin: OriginDefault, wantState: StateNotInitialized},
		{name: "malformed", content: "<html>", wantOrigin: OriginDefault, wantState: StateMalformed},
		{name: "unknown node type", content: `[{"type":"x"}]`, wantOrigin: OriginDefault, wantState: StateMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := FromTemplate(&models.Template{Content: tt.content})
			if sel.Origin != tt.wantOrigin || sel.State != tt.wantState {
				t.Errorf("got (%q, %q), want (%q, %q)", sel.Origin, sel.State, tt.wantOrigin, tt.wantState)
			}
		})
	}
}

func TestDefaultSelectionsDoNotAlias(t *testing.T) {
	a := FromTemplate(&models.Template{Content: "{}"})
	b := FromTemplate(&models.Template{Content: "{}"})
	a.Files[0].(*vfs.File).Content = "tenant a"
	if b.Files[0].(*vfs.File).Content == "tenant a" {
		t.Error("default trees are shared between selections")
	}
}

func TestMalformedContentIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	FromTemplate(&models.Template{Content: "{}"})
	if buf.Len() != 0 {
		t.Errorf("uninitialized content should not warn, got %q", buf.String())
	}

	id := uuid.New()
	FromTemplate(&models.Template{ID: id, Content: "not json"})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, id.String()) {
		t.Errorf("malformed content warning missing or incomplete: %q", out)
	}
}

func TestSelect(t *testing.T) {
	tmplID := uuid.New()
	templates := fakeTemplates{
		tmplID: {ID: tmplID, Content: threeFiles},
	}
	invoices := fakeInvoices{
		"alex-sam": {Subdomain: "alex-sam", Status: models.InvoiceActive, TemplateContent: "{}", BaseContent: threeFiles},
		"old":      {Subdomain: "old", Status: models.InvoiceArchived, TemplateContent: oneFile},
	}
	s := NewSelector(templates, invoices)
	ctx := context.Background()

	sel, err := s.Select(ctx, Template(tmplID.String()))
	if err != nil || sel.Origin != OriginTemplate || sel.Template == nil {
		t.Errorf("template select = %+v, %v", sel, err)
	}

	sel, err = s.Select(ctx, Invoice("alex-sam"))
	if err != nil {
		t.Fatalf("invoice select: %v", err)
	}
	if sel.Origin != OriginTemplate || len(sel.Files) != 3 || sel.Invoice == nil {
		t.Errorf("invoice select = %+v", sel)
	}

	notFound := []Ref{
		Template(uuid.New().String()),
		Template("not-a-uuid"),
		Invoice("missing"),
		Invoice("old"),
	}
	for _, ref := range notFound {
		if _, err := s.Select(ctx, ref); !errors.Is(err, ErrTenantNotFound) {
			t.Errorf("Select(%v) err = %v, want ErrTenantNotFound", ref, err)
		}
	}
}

func TestSelectStoreFailure(t *testing.T) {
	s := NewSelector(failingStore{}, failingStore{})
	ctx := context.Background()

	for _, ref := range []Ref{Template(uuid.New().String()), Invoice("x")} {
		_, err := s.Select(ctx, ref)
		if err == nil || errors.Is(err, ErrTenantNotFound) {
			t.Errorf("Select(%v) err = %v, want a store error", ref, err)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindTemplate.String() != "template" || KindInvoice.String() != "invoice" {
		t.Error("unexpected Kind names")
	}
	if Kind(9).String() != "Kind(9)" {
		t.Errorf("Kind(9).String() = %q", Kind(9).String())
	}
}
