package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/google/uuid"

	"undangan/internal/content"
	"undangan/internal/models"
	"undangan/internal/store"
	"undangan/internal/vfs"
)

// InvoicesList returns every invoice, newest first.
func (a *Admin) InvoicesList(w http.ResponseWriter, r *http.Request) {
	list, err := a.invoices.List(r.Context())
	if err != nil {
		serverError(w, "list invoices failed", err)
		return
	}
	if list == nil {
		list = []models.Invoice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": list})
}

// InvoiceCreate binds a copy of a template to a subdomain. The invoice
// gets a deep copy of the template's effective tree and a fresh PIN.
func (a *Admin) InvoiceCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in invoiceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.normalize()
	if msg := validateInvoice(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	templateID, err := uuid.Parse(in.TemplateID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "A valid template_id is required.")
		return
	}

	tpl, err := a.templates.FindByID(ctx, templateID)
	if err != nil {
		serverError(w, "find template failed", err, "template_id", templateID)
		return
	}
	if tpl == nil {
		writeError(w, http.StatusBadRequest, "Template not found")
		return
	}

	files := content.FromTemplate(tpl).Files.Clone()
	raw, err := vfs.Encode(files)
	if err != nil {
		serverError(w, "encode tree failed", err, "template_id", templateID)
		return
	}
	pin, err := newAccessToken()
	if err != nil {
		serverError(w, "generate access token failed", err)
		return
	}

	inv, err := a.invoices.Create(ctx, &models.Invoice{
		CustomerName:    in.CustomerName,
		TemplateID:      templateID,
		Subdomain:       in.Subdomain,
		SubdomainMode:   in.SubdomainMode,
		AgreedPrice:     in.AgreedPrice,
		AccessToken:     pin,
		TemplateContent: raw,
		HTMLContent:     indexHTML(files),
	})
	if errors.Is(err, store.ErrSubdomainTaken) {
		writeError(w, http.StatusConflict, "Subdomain is already taken.")
		return
	}
	if err != nil {
		serverError(w, "create invoice failed", err, "subdomain", in.Subdomain)
		return
	}

	// A deleted invoice may have left pages cached under the same subdomain.
	a.invalidateInvoice(ctx, inv.ID, inv.Subdomain, "create")
	slog.Info("invoice created", "invoice_id", inv.ID, "subdomain", inv.Subdomain, "template_id", templateID)
	writeJSON(w, http.StatusCreated, inv)
}

// InvoiceGet returns one invoice.
func (a *Admin) InvoiceGet(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// InvoiceUpdate changes the customer-facing fields. The template binding
// is fixed at creation.
func (a *Admin) InvoiceUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}

	var in invoiceInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.normalize()
	if msg := validateInvoice(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	oldSubdomain := inv.Subdomain
	inv.CustomerName = in.CustomerName
	inv.Subdomain = in.Subdomain
	inv.SubdomainMode = in.SubdomainMode
	inv.AgreedPrice = in.AgreedPrice

	switch err := a.invoices.Update(ctx, inv); {
	case errors.Is(err, store.ErrSubdomainTaken):
		writeError(w, http.StatusConflict, "Subdomain is already taken.")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Invoice not found")
		return
	case err != nil:
		serverError(w, "update invoice failed", err, "invoice_id", inv.ID)
		return
	}

	if oldSubdomain != inv.Subdomain {
		a.invalidateInvoice(ctx, inv.ID, oldSubdomain, "update")
	}
	a.invalidateInvoice(ctx, inv.ID, inv.Subdomain, "update")
	writeJSON(w, http.StatusOK, inv)
}

// InvoiceSetStatus archives or re-activates an invoice. Archived
// invitations stop being served.
func (a *Admin) InvoiceSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}

	var body struct {
		Status models.InvoiceStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !body.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Status must be ACTIVE or ARCHIVED.")
		return
	}

	if err := a.invoices.SetStatus(ctx, inv.ID, body.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invoice not found")
			return
		}
		serverError(w, "set invoice status failed", err, "invoice_id", inv.ID)
		return
	}

	a.invalidateInvoice(ctx, inv.ID, inv.Subdomain, "status")
	slog.Info("invoice status changed", "invoice_id", inv.ID, "status", body.Status)
	inv.Status = body.Status
	writeJSON(w, http.StatusOK, inv)
}

// InvoiceDelete removes an invoice and its RSVP submissions.
func (a *Admin) InvoiceDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	if err := a.invoices.Delete(ctx, inv.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invoice not found")
			return
		}
		serverError(w, "delete invoice failed", err, "invoice_id", inv.ID)
		return
	}

	a.invalidateInvoice(ctx, inv.ID, inv.Subdomain, "delete")
	slog.Info("invoice deleted", "invoice_id", inv.ID, "subdomain", inv.Subdomain)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// InvoiceFiles returns the invoice's effective file tree for the editor.
func (a *Admin) InvoiceFiles(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	writeSelection(w, content.FromInvoice(inv))
}

// InvoiceSaveFiles replaces the invoice's own file tree.
func (a *Admin) InvoiceSaveFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	files, ok := readTree(w, r)
	if !ok {
		return
	}
	raw, err := vfs.Encode(files)
	if err != nil {
		serverError(w, "encode tree failed", err, "invoice_id", inv.ID)
		return
	}

	if err := a.invoices.SaveContent(ctx, inv.ID, raw, indexHTML(files)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invoice not found")
			return
		}
		serverError(w, "save invoice content failed", err, "invoice_id", inv.ID)
		return
	}

	a.invalidateInvoice(ctx, inv.ID, inv.Subdomain, "content")
	slog.Info("invoice content saved", "invoice_id", inv.ID, "bytes", len(raw))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// InvoiceWarm renders the invitation's landing page into the page cache
// so the first visitor after a change is served from it.
func (a *Admin) InvoiceWarm(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.loadInvoice(w, r)
	if !ok {
		return
	}
	if inv.Status == models.InvoiceArchived {
		writeError(w, http.StatusConflict, "Archived invitations are not served.")
		return
	}

	n, err := a.warmer.Warm(r.Context(), inv.Subdomain)
	switch {
	case errors.Is(err, content.ErrTenantNotFound):
		// Archived or deleted between the lookup and the render.
		writeError(w, http.StatusNotFound, "Invoice not found")
		return
	case err != nil:
		serverError(w, "warm invitation failed", err, "invoice_id", inv.ID)
		return
	}

	slog.Info("invitation warmed", "invoice_id", inv.ID, "subdomain", inv.Subdomain, "bytes", n)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bytes": n, "url": a.invitationURL(inv)})
}

func (a *Admin) loadInvoice(w http.ResponseWriter, r *http.Request) (*models.Invoice, bool) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	inv, err := a.invoices.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "find invoice failed", err, "invoice_id", id)
		return nil, false
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "Invoice not found")
		return nil, false
	}
	return inv, true
}

// newAccessToken returns a random 6-digit PIN for the couple's
// confirmation list.
func newAccessToken() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
