package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"undangan/internal/models"
	"undangan/internal/slug"
	"undangan/internal/store"
)

// guestView is a guest plus the personalised link to hand out.
type guestView struct {
	models.Guest
	Link string `json:"link"`
}

// GuestsList returns an invoice's guest list with invitation links.
func (a *Admin) GuestsList(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	guests, err := a.guests.ListByInvoice(r.Context(), inv.ID)
	if err != nil {
		serverError(w, "list guests failed", err, "invoice_id", inv.ID)
		return
	}
	views := make([]guestView, 0, len(guests))
	for _, g := range guests {
		views = append(views, guestView{Guest: g, Link: a.guestLink(inv, g.Slug)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"guests": views})
}

// GuestAdd adds one guest.
func (a *Admin) GuestAdd(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	var in guestInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateGuest(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	g, err := a.addGuest(r.Context(), inv, in)
	if err != nil {
		serverError(w, "add guest failed", err, "invoice_id", inv.ID)
		return
	}
	a.invalidateInvoice(r.Context(), inv.ID, inv.Subdomain, "guests")
	writeJSON(w, http.StatusCreated, guestView{Guest: *g, Link: a.guestLink(inv, g.Slug)})
}

// GuestsBulkAdd adds many guests at once. The body is either
// {"guests": [{"name", "phone"}]} or {"text": "..."} with one
// "name,phone" line per guest.
func (a *Admin) GuestsBulkAdd(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	var body struct {
		Guests []guestInput `json:"guests"`
		Text   string       `json:"text"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list := append(body.Guests, parseGuestLines(body.Text)...)
	if len(list) == 0 {
		writeError(w, http.StatusBadRequest, "No guests given.")
		return
	}
	if len(list) > maxBulkGuests {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many guests (max %d per request).", maxBulkGuests))
		return
	}
	for i := range list {
		if msg := validateGuest(&list[i]); msg != "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Guest %d: %s", i+1, msg))
			return
		}
	}

	views := make([]guestView, 0, len(list))
	for _, in := range list {
		g, err := a.addGuest(r.Context(), inv, in)
		if err != nil {
			serverError(w, "bulk add guest failed", err, "invoice_id", inv.ID, "added", len(views))
			return
		}
		views = append(views, guestView{Guest: *g, Link: a.guestLink(inv, g.Slug)})
	}

	a.invalidateInvoice(r.Context(), inv.ID, inv.Subdomain, "guests")
	slog.Info("guests imported", "invoice_id", inv.ID, "count", len(views))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "count": len(views), "guests": views})
}

// GuestDelete removes a guest from an invoice.
func (a *Admin) GuestDelete(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	guestID, ok := uuidParam(w, r, "guestID")
	if !ok {
		return
	}
	if err := a.guests.Delete(r.Context(), inv.ID, guestID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Guest not found")
			return
		}
		serverError(w, "delete guest failed", err, "invoice_id", inv.ID, "guest_id", guestID)
		return
	}
	a.invalidateInvoice(r.Context(), inv.ID, inv.Subdomain, "guests")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *Admin) addGuest(ctx context.Context, inv *models.Invoice, in guestInput) (*models.Guest, error) {
	s, err := slug.Unique(ctx, slug.Guest(in.Name), func(ctx context.Context, candidate string) (bool, error) {
		return a.guests.SlugExists(ctx, inv.ID, candidate)
	})
	if err != nil {
		return nil, fmt.Errorf("pick guest slug: %w", err)
	}
	return a.guests.Create(ctx, &models.Guest{
		InvoiceID: inv.ID,
		Name:      strings.TrimSpace(in.Name),
		Slug:      s,
		Phone:     optional(in.Phone),
	})
}

// guestLink builds the personalised invitation URL.
func (a *Admin) guestLink(inv *models.Invoice, guestSlug string) string {
	return a.invitationURL(inv) + "?guest=" + url.QueryEscape(guestSlug)
}

// invitationURL is the public address of an invitation, on its own host
// in VIP mode and under /s/ otherwise.
func (a *Admin) invitationURL(inv *models.Invoice) string {
	if inv.SubdomainMode == models.ModeVIP {
		return a.scheme + "://" + inv.Subdomain + "." + a.rootDomain + "/"
	}
	return a.scheme + "://" + a.rootDomain + "/s/" + inv.Subdomain
}

// parseGuestLines reads "name,phone" lines, skipping blank ones.
func parseGuestLines(text string) []guestInput {
	var out []guestInput
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, phone, _ := strings.Cut(line, ",")
		out = append(out, guestInput{Name: strings.TrimSpace(name), Phone: strings.TrimSpace(phone)})
	}
	return out
}
