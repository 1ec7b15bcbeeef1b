package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"dispensecore/hub"
	"dispensecore/store"
)

// apiCreateQueue commits a dispense request. Stock is re-validated and
// decremented inside the store transaction; a stale client ledger gets a
// 409 here. On success the queue is dispatched to its room's device and
// the response carries the post-decrement pill records.
func (h *Handlers) apiCreateQueue(w http.ResponseWriter, r *http.Request) {
	var req hub.CreateQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.PatientID == 0 {
		h.jsonError(w, "patient_id required", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		h.jsonError(w, "items required", http.StatusBadRequest)
		return
	}

	items := make([]store.QueueItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, store.QueueItem{PillID: it.PillID, Quantity: it.Quantity})
	}

	room := h.nextRoom()
	q, err := h.db.CreateQueue(req.PatientID, room, items)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			h.jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.logFn("www: queue %d (#%d) created for patient %d, room %s", q.ID, q.Number, q.PatientID, q.Room)

	// The event message carries the structured item list; board clients
	// expand it into display lines.
	created := toHubQueue(q)
	if payload, err := json.Marshal(map[string]any{"items": created.Items}); err == nil {
		h.db.AppendEvent(&q.ID, "created", string(payload))
	}
	h.stock.RefreshAll()

	if h.dispatcher != nil {
		if err := h.dispatcher.DispatchQueue(q); err != nil {
			h.logFn("www: dispatch queue %d: %v", q.ID, err)
		}
	}

	resp := hub.CreateQueueResponse{
		QueueID:     q.ID,
		QueueNumber: q.Number,
		TargetRoom:  q.Room,
	}
	if pills, err := h.stock.ListPills(); err == nil {
		for _, p := range pills {
			resp.UpdatedPills = append(resp.UpdatedPills, hub.Pill{ID: p.ID, Name: p.Name, Type: p.Type, Stock: p.Amount})
		}
	}
	h.jsonOK(w, resp)
}

func (h *Handlers) apiGetQueue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	q, err := h.db.GetQueue(id)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, toHubQueue(q))
}

// apiDeleteQueue removes a queue that has not reached the device yet.
// An in_progress queue may already be physically dispensing, so it can
// only finish or fail.
func (h *Handlers) apiDeleteQueue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	q, err := h.db.GetQueue(id)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if q.Status == hub.StatusInProgress {
		h.jsonError(w, "queue is dispensing", http.StatusConflict)
		return
	}
	if err := h.db.DeleteQueue(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.db.AppendEvent(&id, "deleted", "")
	h.jsonOK(w, map[string]string{"status": "ok"})
}

// nextRoom allocates dispense rooms round-robin.
func (h *Handlers) nextRoom() string {
	n := atomic.AddUint64(&h.roomSeq, 1)
	return strconv.Itoa(int((n-1)%uint64(h.rooms)) + 1)
}
