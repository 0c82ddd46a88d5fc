package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"undangan/internal/cache"
	"undangan/internal/models"
	"undangan/internal/render"
)

const msgInvalidInvitation = "Invalid or expired invitation"

// GuestAPI groups the endpoints an invitation page talks to: RSVP
// submission, the wish feed and the couple's confirmation list.
type GuestAPI struct {
	invoices  InvoiceReader
	rsvps     RSVPStore
	feed      WishFeed
	renderer  *render.Renderer
	pageCache PageCache
}

// NewGuestAPI creates a new GuestAPI handler group.
func NewGuestAPI(invoices InvoiceReader, rsvps RSVPStore, feed WishFeed, renderer *render.Renderer, pageCache PageCache) *GuestAPI {
	return &GuestAPI{
		invoices:  invoices,
		rsvps:     rsvps,
		feed:      feed,
		renderer:  renderer,
		pageCache: pageCache,
	}
}

// flexBool accepts a JSON boolean or the strings "true" and "on", the
// shapes hand-written invitation scripts send.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		*b = flexBool(truthy(t))
	default:
		*b = false
	}
	return nil
}

func truthy(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "on"
}

// SubmitRSVP handles POST /api/rsvp. The body is JSON or a form carrying
// subdomain, guestName, email, attending, allergies and comment.
func (g *GuestAPI) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := readRSVP(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateRSVP(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	inv, err := g.activeInvoice(ctx, in.Subdomain)
	if err != nil {
		serverError(w, "find invoice for rsvp failed", err, "subdomain", in.Subdomain)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, msgInvalidInvitation)
		return
	}

	sub, err := g.rsvps.Create(ctx, &models.RSVPSubmission{
		InvoiceID: inv.ID,
		GuestName: in.GuestName,
		Email:     optional(in.Email),
		Attending: in.Attending,
		Allergies: optional(in.Allergies),
		Comment:   optional(in.Comment),
	})
	if err != nil {
		serverError(w, "create rsvp failed", err, "subdomain", in.Subdomain)
		return
	}

	if wish, ok := sub.Wish(); ok {
		g.feed.Publish(inv.Subdomain, wish)
		// Cached pages embed the latest wishes.
		g.pageCache.InvalidateTenant(ctx, cache.ScopeInvitation, inv.Subdomain)
	}

	slog.Info("rsvp received", "subdomain", inv.Subdomain, "attending", sub.Attending)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "submission": sub})
}

func readRSVP(w http.ResponseWriter, r *http.Request) (*rsvpInput, error) {
	if !isForm(r) {
		var body struct {
			rsvpInput
			Attending flexBool `json:"attending"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		in := body.rsvpInput
		in.Attending = bool(body.Attending)
		in.trim()
		return &in, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("invalid form body")
	}
	in := &rsvpInput{
		Subdomain: r.PostFormValue("subdomain"),
		GuestName: r.PostFormValue("guestName"),
		Email:     r.PostFormValue("email"),
		Attending: truthy(r.PostFormValue("attending")),
		Allergies: r.PostFormValue("allergies"),
		Comment:   r.PostFormValue("comment"),
	}
	in.trim()
	return in, nil
}

// Submissions handles GET /api/rsvp/{subdomain}?token=<pin>, the JSON
// view of everything guests sent.
func (g *GuestAPI) Submissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub := chi.URLParam(r, "subdomain")

	inv, err := g.activeInvoice(ctx, sub)
	if err != nil {
		serverError(w, "find invoice failed", err, "subdomain", sub)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, msgInvalidInvitation)
		return
	}
	if !tokenMatches(inv, r.URL.Query().Get("token")) {
		writeError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}

	subs, err := g.rsvps.ListByInvoice(ctx, inv.ID)
	if err != nil {
		serverError(w, "list rsvps failed", err, "subdomain", sub)
		return
	}
	if subs == nil {
		subs = []models.RSVPSubmission{}
	}
	attending := 0
	for _, s := range subs {
		if s.Attending {
			attending++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"customer_name": inv.CustomerName,
		"submissions":   subs,
		"attending":     attending,
		"not_attending": len(subs) - attending,
	})
}

// Confirmations handles GET /s/{subdomain}/rsvp: a PIN form, and with a
// correct ?token= the list of submissions.
func (g *GuestAPI) Confirmations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub := chi.URLParam(r, "subdomain")

	inv, err := g.activeInvoice(ctx, sub)
	if err != nil {
		slog.Error("find invoice failed", "error", err, "subdomain", sub)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if inv == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	data := &render.Confirmations{CustomerName: inv.CustomerName}
	token := r.URL.Query().Get("token")
	switch {
	case token == "":
	case !tokenMatches(inv, token):
		data.Invalid = true
	default:
		data.Authorized = true
		data.Submissions, err = g.rsvps.ListByInvoice(ctx, inv.ID)
		if err != nil {
			slog.Error("list rsvps failed", "error", err, "subdomain", sub)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	out, err := g.renderer.Confirmations(data)
	if err != nil {
		slog.Error("render confirmations failed", "error", err, "subdomain", sub)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	// Guest data behind a PIN must not end up in shared caches.
	w.Header().Set("Cache-Control", "no-store")
	if data.Invalid {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write(out)
		return
	}
	writeHTML(w, r, out)
}

// Wishes handles GET /api/wishes/{subdomain}.
func (g *GuestAPI) Wishes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub := chi.URLParam(r, "subdomain")

	inv, err := g.activeInvoice(ctx, sub)
	if err != nil {
		serverError(w, "find invoice failed", err, "subdomain", sub)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, msgInvalidInvitation)
		return
	}

	wishes, err := g.rsvps.RecentWishes(ctx, inv.ID, wishesOnPage)
	if err != nil {
		serverError(w, "load wishes failed", err, "subdomain", sub)
		return
	}
	if wishes == nil {
		wishes = []models.Wish{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "wishes": wishes})
}

// WishSocket handles GET /api/wishes/{subdomain}/ws, the live wish feed.
func (g *GuestAPI) WishSocket(w http.ResponseWriter, r *http.Request) {
	sub := chi.URLParam(r, "subdomain")

	inv, err := g.activeInvoice(r.Context(), sub)
	if err != nil {
		serverError(w, "find invoice failed", err, "subdomain", sub)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, msgInvalidInvitation)
		return
	}
	g.feed.Serve(w, r, inv.Subdomain)
}

// activeInvoice returns the invoice for subdomain, or nil when it does not
// exist or is archived.
func (g *GuestAPI) activeInvoice(ctx context.Context, subdomain string) (*models.Invoice, error) {
	inv, err := g.invoices.FindBySubdomain(ctx, subdomain)
	if err != nil || inv == nil || inv.IsArchived() {
		return nil, err
	}
	return inv, nil
}

// tokenMatches compares a submitted PIN against the invoice's in
// constant time. Invoices without a PIN never match.
func tokenMatches(inv *models.Invoice, token string) bool {
	if inv.AccessToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(inv.AccessToken), []byte(strings.TrimSpace(token))) == 1
}
