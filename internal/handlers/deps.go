// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the invitation platform.
// Handlers are grouped by concern (public site, guest API, auth, admin
// API, media) and receive their dependencies through the handler struct.
// Dependencies are narrow interfaces satisfied by the store, cache and
// session packages, so tests can run the handlers against in-memory fakes.
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"undangan/internal/cache"
	"undangan/internal/models"
	"undangan/internal/session"
	"undangan/internal/store"
)

// TemplateStore is the template persistence used by the admin API.
type TemplateStore interface {
	List(ctx context.Context, tier string) ([]models.Template, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	Create(ctx context.Context, t *models.Template) (*models.Template, error)
	UpdateMeta(ctx context.Context, t *models.Template) error
	SaveContent(ctx context.Context, id uuid.UUID, content, html string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TierStore is the pricing-tier persistence used by the admin API.
type TierStore interface {
	List(ctx context.Context) ([]models.Tier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tier, error)
	FindByName(ctx context.Context, name string) (*models.Tier, error)
	Create(ctx context.Context, t *models.Tier) (*models.Tier, error)
	Update(ctx context.Context, t *models.Tier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceReader loads invoices for the public site and guest API.
type InvoiceReader interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*models.Invoice, error)
}

// InvoiceStore is the invoice persistence used by the admin API.
type InvoiceStore interface {
	InvoiceReader
	List(ctx context.Context) ([]models.Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error
	SaveContent(ctx context.Context, id uuid.UUID, content, html string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GuestFinder resolves personalised invitation links.
type GuestFinder interface {
	FindBySlug(ctx context.Context, invoiceID uuid.UUID, slug string) (*models.Guest, error)
}

// GuestStore is the guest-list persistence used by the admin API.
type GuestStore interface {
	GuestFinder
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Guest, error)
	SlugExists(ctx context.Context, invoiceID uuid.UUID, slug string) (bool, error)
	Create(ctx context.Context, g *models.Guest) (*models.Guest, error)
	Delete(ctx context.Context, invoiceID, id uuid.UUID) error
}

// WishReader returns the wishes shown on an invitation page.
type WishReader interface {
	RecentWishes(ctx context.Context, invoiceID uuid.UUID, limit int) ([]models.Wish, error)
}

// RSVPStore persists and lists RSVP submissions.
type RSVPStore interface {
	WishReader
	Create(ctx context.Context, s *models.RSVPSubmission) (*models.RSVPSubmission, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.RSVPSubmission, error)
}

// MediaStore persists media records.
type MediaStore interface {
	Create(ctx context.Context, m *models.Media) (*models.Media, error)
	List(ctx context.Context, kind string, limit, offset int) ([]models.Media, int, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Media, error)
}

// UserStore authenticates admin accounts.
type UserStore interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
}

// CacheLog records cache invalidation events. Recording is best-effort.
type CacheLog interface {
	Record(ctx context.Context, ev store.CacheEvent)
	Recent(ctx context.Context, entityType string, limit int) ([]store.CacheLogEntry, error)
}

// PageCache is the L2 cache of rendered pages.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, html []byte)
	InvalidateTenant(ctx context.Context, scope cache.Scope, tenant string) int
	InvalidateAll(ctx context.Context) int
}

// PageWarmer renders an invitation's landing page into the page cache
// and reports the rendered size.
type PageWarmer interface {
	Warm(ctx context.Context, subdomain string) (int, error)
}

// Sessions creates and destroys admin sessions.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// WishPublisher fans new wishes out to live invitation pages.
type WishPublisher interface {
	Publish(room string, wish models.Wish)
}

// WishFeed attaches a live wish connection to a room.
type WishFeed interface {
	WishPublisher
	Serve(w http.ResponseWriter, r *http.Request, room string)
}
