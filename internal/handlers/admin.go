// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"undangan/internal/cache"
	"undangan/internal/content"
	"undangan/internal/engine"
	"undangan/internal/middleware"
	"undangan/internal/models"
	"undangan/internal/store"
	"undangan/internal/vfs"
)

// Admin groups the JSON admin API: templates, tiers, invoices, guests and
// the cache controls. Every route sits behind RequireAuth and CSRF.
type Admin struct {
	templates  TemplateStore
	tiers      TierStore
	invoices   InvoiceStore
	guests     GuestStore
	engine     *engine.Engine
	warmer     PageWarmer
	pageCache  PageCache
	cacheLog   CacheLog
	rootDomain string
	scheme     string
}

// NewAdmin creates a new Admin handler group. rootDomain and scheme are
// used to build the invitation links handed back for guests.
func NewAdmin(templates TemplateStore, tiers TierStore, invoices InvoiceStore, guests GuestStore, eng *engine.Engine, warmer PageWarmer, pageCache PageCache, cacheLog CacheLog, rootDomain, scheme string) *Admin {
	return &Admin{
		templates:  templates,
		tiers:      tiers,
		invoices:   invoices,
		guests:     guests,
		engine:     eng,
		warmer:     warmer,
		pageCache:  pageCache,
		cacheLog:   cacheLog,
		rootDomain: rootDomain,
		scheme:     scheme,
	}
}

// --- Templates ---

// TemplatesList returns the template catalog, optionally narrowed to one
// ?tier.
func (a *Admin) TemplatesList(w http.ResponseWriter, r *http.Request) {
	list, err := a.templates.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("tier")))
	if err != nil {
		serverError(w, "list templates failed", err)
		return
	}
	if list == nil {
		list = []models.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

// TemplateCreate creates a template seeded with the starter file tree.
func (a *Admin) TemplateCreate(w http.ResponseWriter, r *http.Request) {
	var in templateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateTemplate(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	tier, ok := a.resolveTier(w, r, in.Tier)
	if !ok {
		return
	}

	files := vfs.Defaults()
	raw, err := vfs.Encode(files)
	if err != nil {
		serverError(w, "encode default tree failed", err)
		return
	}

	t, err := a.templates.Create(r.Context(), &models.Template{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Thumbnail:   in.Thumbnail,
		Price:       in.Price,
		Tier:        tier,
		Content:     raw,
		HTMLContent: indexHTML(files),
	})
	if errors.Is(err, store.ErrUnknownTier) {
		writeError(w, http.StatusBadRequest, "Unknown tier.")
		return
	}
	if err != nil {
		serverError(w, "create template failed", err)
		return
	}

	a.cacheLog.Record(r.Context(), store.CacheEvent{EntityType: store.EntityTemplate, EntityID: t.ID, Action: "create"})
	slog.Info("template created", "template_id", t.ID, "name", t.Name)
	writeJSON(w, http.StatusCreated, t)
}

// TemplateGet returns one template.
func (a *Admin) TemplateGet(w http.ResponseWriter, r *http.Request) {
	t, ok := a.loadTemplate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TemplateUpdate changes a template's catalog fields.
func (a *Admin) TemplateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in templateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateTemplate(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	tier, ok := a.resolveTier(w, r, in.Tier)
	if !ok {
		return
	}

	t := &models.Template{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Thumbnail:   in.Thumbnail,
		Price:       in.Price,
		Tier:        tier,
	}
	if err := a.templates.UpdateMeta(r.Context(), t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		if errors.Is(err, store.ErrUnknownTier) {
			writeError(w, http.StatusBadRequest, "Unknown tier.")
			return
		}
		serverError(w, "update template failed", err, "template_id", id)
		return
	}

	// The preview shell shows the template name.
	a.invalidatePreview(r.Context(), id, "update")

	a.loadTemplateInto(w, r, id)
}

// TemplateDelete removes a template that no invoice uses.
func (a *Admin) TemplateDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	switch err := a.templates.Delete(r.Context(), id); {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Template not found")
		return
	case errors.Is(err, store.ErrTemplateInUse):
		writeError(w, http.StatusConflict, "Template is used by invoices and cannot be deleted.")
		return
	case err != nil:
		serverError(w, "delete template failed", err, "template_id", id)
		return
	}

	a.invalidatePreview(r.Context(), id, "delete")
	slog.Info("template deleted", "template_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// TemplateFiles returns the template's effective file tree for the editor.
func (a *Admin) TemplateFiles(w http.ResponseWriter, r *http.Request) {
	t, ok := a.loadTemplate(w, r)
	if !ok {
		return
	}
	writeSelection(w, content.FromTemplate(t))
}

// TemplateSaveFiles replaces the template's file tree. Invoices that never
// saved their own tree inherit it, so every cached page is dropped.
func (a *Admin) TemplateSaveFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	files, ok := readTree(w, r)
	if !ok {
		return
	}
	raw, err := vfs.Encode(files)
	if err != nil {
		serverError(w, "encode tree failed", err, "template_id", id)
		return
	}

	if err := a.templates.SaveContent(r.Context(), id, raw, indexHTML(files)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		serverError(w, "save template content failed", err, "template_id", id)
		return
	}

	a.invalidateAll(r.Context(), store.EntityTemplate, id, "content")
	slog.Info("template content saved", "template_id", id, "bytes", len(raw))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *Admin) loadTemplate(w http.ResponseWriter, r *http.Request) (*models.Template, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	t, err := a.templates.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "find template failed", err, "template_id", id)
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "Template not found")
		return nil, false
	}
	return t, true
}

func (a *Admin) loadTemplateInto(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	t, err := a.templates.FindByID(r.Context(), id)
	if err != nil || t == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- Cache ---

// CachePurge drops every cached page and memoized document. The log
// entry carries the operator's user id.
func (a *Admin) CachePurge(w http.ResponseWriter, r *http.Request) {
	var who uuid.UUID
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		who = sess.UserID
	}
	n := a.invalidateAll(r.Context(), store.EntityCache, who, "purge")
	slog.Info("page cache purged", "keys", n, "user_id", who)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "purged": n})
}

// CacheLog returns the most recent invalidation events.
func (a *Admin) CacheLog(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	switch entity {
	case "", store.EntityTemplate, store.EntityInvoice, store.EntityCache:
	default:
		writeError(w, http.StatusBadRequest, "Unknown entity type.")
		return
	}
	entries, err := a.cacheLog.Recent(r.Context(), entity, queryInt(r, "limit", 50, 1, 500))
	if err != nil {
		serverError(w, "load cache log failed", err)
		return
	}
	if entries == nil {
		entries = []store.CacheLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// --- Helpers ---

// invalidateAll drops every cached page and the transform memo, then
// records why. It returns the number of pages dropped.
func (a *Admin) invalidateAll(ctx context.Context, entityType string, id uuid.UUID, action string) int {
	a.engine.ResetMemo()
	n := a.pageCache.InvalidateAll(ctx)
	a.cacheLog.Record(ctx, store.CacheEvent{EntityType: entityType, EntityID: id, Action: action, KeysRemoved: n})
	return n
}

// invalidatePreview drops the cached previews of one template.
func (a *Admin) invalidatePreview(ctx context.Context, id uuid.UUID, action string) {
	n := a.pageCache.InvalidateTenant(ctx, cache.ScopePreview, id.String())
	a.cacheLog.Record(ctx, store.CacheEvent{EntityType: store.EntityTemplate, EntityID: id, Action: action, KeysRemoved: n})
}

// invalidateInvoice drops the cached pages of one invitation.
func (a *Admin) invalidateInvoice(ctx context.Context, id uuid.UUID, subdomain, action string) {
	n := a.pageCache.InvalidateTenant(ctx, cache.ScopeInvitation, subdomain)
	a.cacheLog.Record(ctx, store.CacheEvent{EntityType: store.EntityInvoice, EntityID: id, Action: action, KeysRemoved: n})
}

// filesResponse is what the editor loads.
type filesResponse struct {
	Files  vfs.Tree       `json:"files"`
	Origin content.Origin `json:"origin"`
	State  content.State  `json:"state"`
}

func writeSelection(w http.ResponseWriter, sel *content.Selection) {
	writeJSON(w, http.StatusOK, filesResponse{Files: sel.Files, Origin: sel.Origin, State: sel.State})
}

// readTree decodes an editor save. The body is {"files": [...]} and the
// tree must be well formed; nothing is stored otherwise.
func readTree(w http.ResponseWriter, r *http.Request) (vfs.Tree, bool) {
	var body struct {
		Files json.RawMessage `json:"files"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if len(body.Files) == 0 {
		writeError(w, http.StatusBadRequest, "files is required")
		return nil, false
	}
	files, err := vfs.Parse(string(body.Files))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file tree: "+err.Error())
		return nil, false
	}
	return files, true
}

// indexHTML is the derived html_content column: the tree's index.html, or
// empty when it has none.
func indexHTML(files vfs.Tree) string {
	if f := vfs.FindFirst(files, engine.IndexFile); f != nil {
		return f.Content
	}
	return ""
}
