// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"undangan/internal/cache"
	"undangan/internal/content"
	"undangan/internal/engine"
	"undangan/internal/models"
	"undangan/internal/render"
)

const (
	// wishesOnPage is how many recent wishes the page shell embeds.
	wishesOnPage = 10

	msgNotInitialized = "Project not initialized. Please save in the Editor first."
)

// Public groups handlers for published invitations and template previews.
// Pages are looked up in the L2 Valkey page cache before the engine runs,
// and stored there on a miss. Assets are served straight from the engine.
type Public struct {
	engine      *engine.Engine
	guests      GuestFinder
	wishes      WishReader
	renderer    *render.Renderer
	pageCache   PageCache
	assetMaxAge int
}

// NewPublic creates a new Public handler group. assetMaxAge is the
// Cache-Control max-age for inline assets, in seconds.
func NewPublic(eng *engine.Engine, guests GuestFinder, wishes WishReader, renderer *render.Renderer, pageCache PageCache, assetMaxAge int) *Public {
	return &Public{
		engine:      eng,
		guests:      guests,
		wishes:      wishes,
		renderer:    renderer,
		pageCache:   pageCache,
		assetMaxAge: assetMaxAge,
	}
}

// InvitationAsset serves GET /s/{subdomain}/*. An empty path is the
// invitation page itself.
func (p *Public) InvitationAsset(w http.ResponseWriter, r *http.Request) {
	path := assetPath(r)
	if len(path) == 0 {
		p.Invitation(w, r)
		return
	}
	p.serveAsset(w, r, content.Invoice(chi.URLParam(r, "subdomain")), path)
}

// PreviewAsset serves GET /preview/{templateID}/*.
func (p *Public) PreviewAsset(w http.ResponseWriter, r *http.Request) {
	path := assetPath(r)
	if len(path) == 0 {
		p.Preview(w, r)
		return
	}
	p.serveAsset(w, r, content.Template(chi.URLParam(r, "templateID")), path)
}

func (p *Public) serveAsset(w http.ResponseWriter, r *http.Request, ref content.Ref, path []string) {
	a, err := p.engine.Asset(r.Context(), ref, path)
	if err != nil {
		var nf *engine.FileNotFoundError
		switch {
		case errors.Is(err, content.ErrTenantNotFound):
			http.Error(w, "Not Found", http.StatusNotFound)
		case errors.Is(err, engine.ErrNotInitialized):
			http.Error(w, msgNotInitialized, http.StatusNotFound)
		case errors.As(err, &nf):
			http.Error(w, "File not found: "+nf.Path, http.StatusNotFound)
		default:
			slog.Error("serve asset failed", "error", err, "tenant", ref.Key, "kind", ref.Kind)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	if a.Redirect != "" {
		http.Redirect(w, r, a.Redirect, http.StatusTemporaryRedirect)
		return
	}

	w.Header().Set("Content-Type", withCharset(a.ContentType))
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(p.assetMaxAge))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Body)))
	if r.Method == http.MethodHead {
		return
	}
	w.Write(a.Body)
}

// Invitation renders GET /s/{subdomain}. ?guest=<slug> greets a guest from
// the invoice's guest list; ?to= greets a listed guest when it matches a
// slug and is used as the literal name otherwise.
func (p *Public) Invitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub := chi.URLParam(r, "subdomain")
	q := r.URL.Query()
	guestSlug, to := strings.TrimSpace(q.Get("guest")), strings.TrimSpace(q.Get("to"))

	key := cache.PageKey(cache.ScopeInvitation, sub, guestCacheKey(guestSlug, to))
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		writeHTML(w, r, cached)
		return
	}

	out, err := p.renderInvitation(ctx, sub, guestSlug, to)
	if err != nil {
		p.pageError(w, err, content.Invoice(sub))
		return
	}

	p.pageCache.Set(ctx, key, out)
	writeHTML(w, r, out)
}

// Warm renders the invitation page for subdomain as an anonymous guest
// sees it and stores it in the page cache, replacing any cached copy. It
// returns the page size. Unknown and archived invitations yield
// content.ErrTenantNotFound.
func (p *Public) Warm(ctx context.Context, subdomain string) (int, error) {
	out, err := p.renderInvitation(ctx, subdomain, "", "")
	if err != nil {
		return 0, err
	}
	p.pageCache.Set(ctx, cache.PageKey(cache.ScopeInvitation, subdomain, guestCacheKey("", "")), out)
	return len(out), nil
}

func (p *Public) renderInvitation(ctx context.Context, sub, guestSlug, to string) ([]byte, error) {
	ref := content.Invoice(sub)
	route := engine.Route{Prefix: "/s", Key: sub}

	// The guest lookup needs the invoice id, so the first render pass uses
	// the selection to find it and the memoized transform keeps the second
	// pass cheap.
	page, err := p.engine.Page(ctx, ref, route, to)
	if err != nil {
		return nil, err
	}
	inv := page.Selection.Invoice

	if name, found := p.guestName(ctx, inv, guestSlug, to); found && name != to {
		page, err = p.engine.Page(ctx, ref, route, name)
		if err != nil {
			return nil, err
		}
	}

	title := render.InvitationTitle(inv.CustomerName)
	if page.Empty {
		return p.renderer.Empty(title)
	}

	wishes, err := p.wishes.RecentWishes(ctx, inv.ID, wishesOnPage)
	if err != nil {
		// Wishes are decoration; the invitation still renders.
		slog.Error("load wishes failed", "error", err, "subdomain", sub)
	}
	return p.renderer.Invitation(&render.Invitation{
		Title:     title,
		Content:   template.HTML(page.HTML),
		Subdomain: sub,
		Wishes:    wishes,
	})
}

// Preview renders GET /preview/{templateID}: the template's page as a
// customer would see it, with a preview banner and no live wishes.
func (p *Public) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "templateID")
	to := strings.TrimSpace(r.URL.Query().Get("to"))

	key := cache.PageKey(cache.ScopePreview, id, guestCacheKey("", to))
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		writeHTML(w, r, cached)
		return
	}

	ref := content.Template(id)
	page, err := p.engine.Page(ctx, ref, engine.Route{Prefix: "/preview", Key: id}, to)
	if err != nil {
		p.pageError(w, err, ref)
		return
	}

	tpl := page.Selection.Template
	var out []byte
	if page.Empty {
		out, err = p.renderer.Empty(tpl.Name)
	} else {
		out, err = p.renderer.Invitation(&render.Invitation{
			Title:        tpl.Name,
			Description:  ptrStr(tpl.Description),
			Content:      template.HTML(page.HTML),
			Preview:      true,
			TemplateName: tpl.Name,
		})
	}
	if err != nil {
		slog.Error("render preview failed", "error", err, "template_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, key, out)
	writeHTML(w, r, out)
}

// guestName resolves the greeting for an invitation request. found is
// false when neither parameter names a listed guest.
func (p *Public) guestName(ctx context.Context, inv *models.Invoice, guestSlug, to string) (string, bool) {
	for _, s := range []string{guestSlug, to} {
		if s == "" {
			continue
		}
		g, err := p.guests.FindBySlug(ctx, inv.ID, s)
		if err != nil {
			slog.Error("find guest failed", "error", err, "subdomain", inv.Subdomain, "slug", s)
			continue
		}
		if g != nil {
			return g.Name, true
		}
	}
	return "", false
}

func (p *Public) pageError(w http.ResponseWriter, err error, ref content.Ref) {
	if errors.Is(err, content.ErrTenantNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	slog.Error("render page failed", "error", err, "tenant", ref.Key, "kind", ref.Kind)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// guestCacheKey folds the guest parameters into one cache key component.
// The prefixes keep a slug and a literal name of the same text apart.
func guestCacheKey(guestSlug, to string) string {
	switch {
	case guestSlug != "":
		return "guest=" + guestSlug + "&to=" + to
	case to != "":
		return "to=" + to
	default:
		return ""
	}
}

// assetPath splits the wildcard part of the URL into segments decoded
// exactly once. chi routes on RawPath when the URL has one, and then the
// segments are still escaped; otherwise they come from the decoded Path.
func assetPath(r *http.Request) []string {
	escaped := r.URL.RawPath != ""
	var out []string
	for _, seg := range strings.Split(chi.URLParam(r, "*"), "/") {
		if seg == "" {
			continue
		}
		if escaped {
			if dec, err := url.PathUnescape(seg); err == nil {
				seg = dec
			}
		}
		out = append(out, seg)
	}
	return out
}

// withCharset adds the UTF-8 charset to textual MIME types.
func withCharset(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "text/"),
		mimeType == "application/javascript",
		mimeType == "application/json",
		mimeType == "image/svg+xml":
		return mimeType + "; charset=utf-8"
	}
	return mimeType
}

func writeHTML(w http.ResponseWriter, r *http.Request, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	w.Write(body)
}
