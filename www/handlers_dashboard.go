package www

import (
	"net/http"

	"dispensecore/hub"
	"dispensecore/store"
)

// apiDashboard returns the full dashboard snapshot. Clients replace
// their cached copy wholesale, so every list is rebuilt per request.
func (h *Handlers) apiDashboard(w http.ResponseWriter, r *http.Request) {
	snap := &hub.Snapshot{
		Pending:    []hub.Queue{},
		Processing: []hub.Queue{},
		Served:     []hub.Queue{},
		Logs:       []hub.EventEntry{},
	}

	pending, err := h.db.ListQueuesByStatus(hub.StatusPending, 200)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, q := range pending {
		snap.Pending = append(snap.Pending, toHubQueue(q))
	}

	processing, err := h.db.ListQueuesByStatus(hub.StatusInProgress, 50)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, q := range processing {
		snap.Processing = append(snap.Processing, toHubQueue(q))
	}
	if len(snap.Processing) > 0 {
		cur := snap.Processing[0]
		snap.Current = &cur
	}

	served, err := h.db.ListQueuesByStatus(hub.StatusServed, 50)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, q := range served {
		snap.Served = append(snap.Served, toHubQueue(q))
	}

	failed, _ := h.db.ListQueuesByStatus(hub.StatusFailed, 50)
	for _, q := range failed {
		snap.Failed = append(snap.Failed, toHubQueue(q))
	}

	events, _ := h.db.ListRecentEvents(50)
	for _, ev := range events {
		snap.Logs = append(snap.Logs, hub.EventEntry{
			TS:      ev.TS,
			QueueID: ev.QueueID,
			Event:   ev.Event,
			Message: ev.Message,
		})
	}

	count, _ := h.db.CountServed()
	snap.SuccessCount = count

	h.jsonOK(w, snap)
}

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := h.db.Ping() == nil
	msgOK := h.msg != nil && h.msg.IsConnected()
	h.jsonOK(w, hub.HealthReport{
		Status:    "ok",
		Database:  dbOK,
		Messaging: msgOK,
	})
}

func toHubQueue(q *store.Queue) hub.Queue {
	out := hub.Queue{
		ID:          q.ID,
		Number:      q.Number,
		PatientName: q.Patient,
		Room:        q.Room,
		Status:      q.Status,
		Note:        q.Note,
		ServedAt:    q.ServedAt,
	}
	for _, it := range q.Items {
		out.Items = append(out.Items, hub.QueueItem{
			PillID:   it.PillID,
			Name:     it.Name,
			Quantity: it.Quantity,
		})
	}
	return out
}
