package www

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dispensecore/hub"
)

func (h *Handlers) apiListPills(w http.ResponseWriter, r *http.Request) {
	pills, err := h.stock.ListPills()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]hub.Pill, 0, len(pills))
	for _, p := range pills {
		out = append(out, hub.Pill{ID: p.ID, Name: p.Name, Type: p.Type, Stock: p.Amount})
	}
	h.jsonOK(w, out)
}

func (h *Handlers) apiCreatePill(w http.ResponseWriter, r *http.Request) {
	var req hub.CreatePillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.jsonError(w, "name required", http.StatusBadRequest)
		return
	}
	if req.Type != hub.PillSolid && req.Type != hub.PillLiquid {
		h.jsonError(w, "type must be solid or liquid", http.StatusBadRequest)
		return
	}
	p, err := h.stock.CreatePill(req.Name, req.Type, req.Amount)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.logFn("www: pill %d (%s) created", p.ID, p.Name)
	h.jsonOK(w, hub.Pill{ID: p.ID, Name: p.Name, Type: p.Type, Stock: p.Amount})
}

func (h *Handlers) apiAdjustPill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req hub.AdjustPillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.stock.AdjustAmount(id, req.Delta)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, hub.Pill{ID: p.ID, Name: p.Name, Type: p.Type, Stock: p.Amount})
}

func (h *Handlers) apiDeletePill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.stock.DeletePill(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}
