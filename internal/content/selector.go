// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content decides which file tree is in effect for a template or
// an invoice. Every public and admin entry point goes through it, so the
// invoice -> template -> default precedence lives in exactly one place.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"undangan/internal/models"
	"undangan/internal/vfs"
)

// ErrTenantNotFound is returned by Select when the referenced template or
// invoice does not exist or is not being served.
var ErrTenantNotFound = errors.New("content: tenant not found")

// Kind identifies which record a Ref points at.
type Kind int

const (
	KindTemplate Kind = iota
	KindInvoice
)

func (k Kind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindInvoice:
		return "invoice"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ref names a tenant. For templates Key is the template UUID, for
// invoices it is the subdomain.
type Ref struct {
	Kind Kind
	Key  string
}

// Template returns a Ref to the template with the given id.
func Template(id string) Ref { return Ref{Kind: KindTemplate, Key: id} }

// Invoice returns a Ref to the invoice served under subdomain.
func Invoice(subdomain string) Ref { return Ref{Kind: KindInvoice, Key: subdomain} }

// Origin says which layer the effective tree came from.
type Origin string

const (
	OriginInvoice  Origin = "invoice"
	OriginTemplate Origin = "template"
	OriginDefault  Origin = "default"
)

// State describes the stored content that produced a selection.
type State string

const (
	// StateReady means stored content parsed cleanly.
	StateReady State = "ready"
	// StateNotInitialized means nothing was ever saved.
	StateNotInitialized State = "not_initialized"
	// StateMalformed means something was saved but could not be parsed,
	// and no lower layer had usable content either.
	StateMalformed State = "malformed"
)

// Selection is the effective tree for one tenant.
type Selection struct {
	Files  vfs.Tree
	Origin Origin
	State  State

	// At most one of these is set, matching the Ref kind.
	Template *models.Template
	Invoice  *models.Invoice
}

// TemplateReader loads templates by id. Implementations return (nil, nil)
// when the template does not exist.
type TemplateReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
}

// InvoiceReader loads invoices by subdomain together with the owning
// template's content in BaseContent. Implementations return (nil, nil)
// when the invoice does not exist.
type InvoiceReader interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*models.Invoice, error)
}

// Selector performs the single record read behind a Ref and applies the
// content precedence rule.
type Selector struct {
	templates TemplateReader
	invoices  InvoiceReader
}

// NewSelector creates a Selector over the given readers.
func NewSelector(templates TemplateReader, invoices InvoiceReader) *Selector {
	return &Selector{templates: templates, invoices: invoices}
}

// Select returns the effective tree for ref. Data-shape problems never
// produce an error; only a missing tenant or a failing store does.
// Archived invoices are reported as not found.
func (s *Selector) Select(ctx context.Context, ref Ref) (*Selection, error) {
	switch ref.Kind {
	case KindTemplate:
		id, err := uuid.Parse(ref.Key)
		if err != nil {
			return nil, ErrTenantNotFound
		}
		t, err := s.templates.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("select template content: %w", err)
		}
		if t == nil {
			return nil, ErrTenantNotFound
		}
		return FromTemplate(t), nil

	case KindInvoice:
		inv, err := s.invoices.FindBySubdomain(ctx, ref.Key)
		if err != nil {
			return nil, fmt.Errorf("select invoice content: %w", err)
		}
		if inv == nil || inv.IsArchived() {
			return nil, ErrTenantNotFound
		}
		return FromInvoice(inv), nil
	}
	return nil, fmt.Errorf("select content: unknown kind %v", ref.Kind)
}

// FromTemplate applies the precedence rule to a loaded template:
// its own content, else the default tree.
func FromTemplate(t *models.Template) *Selection {
	sel := &Selection{Template: t}
	files, state := parseLayer(t.Content, "template", t.ID.String())
	if state == StateReady {
		sel.Files, sel.Origin, sel.State = files, OriginTemplate, StateReady
		return sel
	}
	sel.Files, sel.Origin, sel.State = vfs.Defaults(), OriginDefault, state
	return sel
}

// FromInvoice applies the precedence rule to a loaded invoice: its own
// content, else the owning template's content, else the default tree.
func FromInvoice(inv *models.Invoice) *Selection {
	sel := &Selection{Invoice: inv}

	files, own := parseLayer(inv.TemplateContent, "invoice", inv.ID.String())
	if own == StateReady {
		sel.Files, sel.Origin, sel.State = files, OriginInvoice, StateReady
		return sel
	}

	files, base := parseLayer(inv.BaseContent, "template", inv.TemplateID.String())
	if base == StateReady {
		sel.Files, sel.Origin, sel.State = files, OriginTemplate, StateReady
		return sel
	}

	state := StateNotInitialized
	if own == StateMalformed || base == StateMalformed {
		state = StateMalformed
	}
	sel.Files, sel.Origin, sel.State = vfs.Defaults(), OriginDefault, state
	return sel
}

// parseLayer decodes one stored content column. It logs, but never
// returns, parse failures.
func parseLayer(raw, entity, id string) (vfs.Tree, State) {
	if vfs.IsUninitialized(raw) {
		slog.Debug("content not initialized", "entity", entity, "id", id)
		return nil, StateNotInitialized
	}
	files, err := vfs.Parse(raw)
	if err != nil {
		slog.Warn("stored content is malformed, ignoring it",
			"entity", entity, "id", id, "error", err, "bytes", len(raw))
		return nil, StateMalformed
	}
	return files, StateReady
}
