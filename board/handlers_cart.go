package board

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dispensecore/engine"
	"dispensecore/ledger"
)

type cartResponse struct {
	PatientID int64               `json:"patient_id"`
	Items     []ledger.StagedItem `json:"items"`
}

func (s *Server) apiCart(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.jsonOK(w, cartResponse{PatientID: sess.PatientID(), Items: sess.Items()})
}

func (s *Server) apiCartPatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID int64 `json:"patient_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess := s.session(w, r)
	sess.SetPatient(req.PatientID)
	s.jsonOK(w, cartResponse{PatientID: sess.PatientID(), Items: sess.Items()})
}

// apiCartAdd stages one pill against this browser's reservation ledger.
// Insufficient stock is a conflict, not a server fault: the authoritative
// check still happens at submit.
func (s *Server) apiCartAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PillID   int64 `json:"pill_id"`
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess := s.session(w, r)
	if err := sess.AddItem(req.PillID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, ledger.ErrPillNotFound):
			s.jsonError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ledger.ErrInsufficientStock):
			s.jsonError(w, err.Error(), http.StatusConflict)
		default:
			s.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	s.jsonOK(w, cartResponse{PatientID: sess.PatientID(), Items: sess.Items()})
}

func (s *Server) apiCartRemove(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.jsonError(w, "invalid index", http.StatusBadRequest)
		return
	}
	sess := s.session(w, r)
	sess.RemoveItem(idx)
	s.jsonOK(w, cartResponse{PatientID: sess.PatientID(), Items: sess.Items()})
}

func (s *Server) apiCartClear(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.ClearItems()
	s.jsonOK(w, cartResponse{PatientID: sess.PatientID(), Items: sess.Items()})
}

// apiCartSubmit commits the cart to the hub as one queue.
func (s *Server) apiCartSubmit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	resp, err := sess.Submit()
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNoPatient), errors.Is(err, engine.ErrNoItems):
			s.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, engine.ErrSubmitInFlight):
			s.jsonError(w, err.Error(), http.StatusConflict)
		default:
			s.jsonError(w, err.Error(), http.StatusBadGateway)
		}
		return
	}
	s.jsonOK(w, resp)
}
