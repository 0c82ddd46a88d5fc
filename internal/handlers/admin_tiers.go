package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"undangan/internal/models"
	"undangan/internal/store"
)

// TiersList returns the price tiers in display order with their template
// counts.
func (a *Admin) TiersList(w http.ResponseWriter, r *http.Request) {
	list, err := a.tiers.List(r.Context())
	if err != nil {
		serverError(w, "list tiers failed", err)
		return
	}
	if list == nil {
		list = []models.Tier{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": list})
}

// TierCreate adds a price tier.
func (a *Admin) TierCreate(w http.ResponseWriter, r *http.Request) {
	var in tierInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.normalize()
	if msg := validateTier(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	t, err := a.tiers.Create(r.Context(), in.tier())
	if errors.Is(err, store.ErrTierNameTaken) {
		writeError(w, http.StatusConflict, "A tier with this name already exists.")
		return
	}
	if err != nil {
		serverError(w, "create tier failed", err)
		return
	}

	slog.Info("tier created", "tier_id", t.ID, "name", t.Name)
	writeJSON(w, http.StatusCreated, t)
}

// TierGet returns one tier.
func (a *Admin) TierGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := a.tiers.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, "find tier failed", err, "tier_id", id)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "Tier not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TierUpdate changes a tier. Renaming moves its templates along.
func (a *Admin) TierUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in tierInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.normalize()
	if msg := validateTier(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	t := in.tier()
	t.ID = id
	switch err := a.tiers.Update(r.Context(), t); {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Tier not found")
		return
	case errors.Is(err, store.ErrTierNameTaken):
		writeError(w, http.StatusConflict, "A tier with this name already exists.")
		return
	case err != nil:
		serverError(w, "update tier failed", err, "tier_id", id)
		return
	}

	slog.Info("tier updated", "tier_id", id, "name", t.Name)
	if fresh, err := a.tiers.FindByID(r.Context(), id); err == nil && fresh != nil {
		t = fresh
	}
	writeJSON(w, http.StatusOK, t)
}

// TierDelete removes a tier. Its templates stay in the catalog without a
// tier.
func (a *Admin) TierDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	switch err := a.tiers.Delete(r.Context(), id); {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Tier not found")
		return
	case err != nil:
		serverError(w, "delete tier failed", err, "tier_id", id)
		return
	}

	slog.Info("tier deleted", "tier_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// resolveTier maps the tier named in a template payload to the stored
// tier's canonical name. A blank name clears the tier.
func (a *Admin) resolveTier(w http.ResponseWriter, r *http.Request, name *string) (*string, bool) {
	n := strings.TrimSpace(ptrStr(name))
	if n == "" {
		return nil, true
	}
	t, err := a.tiers.FindByName(r.Context(), n)
	if err != nil {
		serverError(w, "find tier failed", err, "tier", n)
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusBadRequest, "Unknown tier.")
		return nil, false
	}
	return &t.Name, true
}

func (in *tierInput) tier() *models.Tier {
	return &models.Tier{
		Name:      in.Name,
		PriceMin:  in.PriceMin,
		PriceMax:  in.PriceMax,
		Features:  in.Features,
		Color:     in.Color,
		SortOrder: in.SortOrder,
	}
}
