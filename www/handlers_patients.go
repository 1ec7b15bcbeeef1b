package www

import (
	"encoding/json"
	"net/http"

	"dispensecore/hub"
)

func (h *Handlers) apiListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.db.ListPatients()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]hub.Patient, 0, len(patients))
	for _, p := range patients {
		out = append(out, hub.Patient{ID: p.ID, Name: p.Name})
	}
	h.jsonOK(w, out)
}

func (h *Handlers) apiCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.jsonError(w, "name required", http.StatusBadRequest)
		return
	}
	p, err := h.db.CreatePatient(req.Name)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, hub.Patient{ID: p.ID, Name: p.Name})
}

// apiLookup bundles the patient and pill lists for board clients, which
// resolve staged items and selectable patients from one fetch.
func (h *Handlers) apiLookup(w http.ResponseWriter, r *http.Request) {
	patients, err := h.db.ListPatients()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pills, err := h.stock.ListPills()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	lk := hub.Lookup{
		Patients: make([]hub.Patient, 0, len(patients)),
		Pills:    make([]hub.Pill, 0, len(pills)),
	}
	for _, p := range patients {
		lk.Patients = append(lk.Patients, hub.Patient{ID: p.ID, Name: p.Name})
	}
	for _, p := range pills {
		lk.Pills = append(lk.Pills, hub.Pill{ID: p.ID, Name: p.Name, Type: p.Type, Stock: p.Amount})
	}
	h.jsonOK(w, lk)
}
