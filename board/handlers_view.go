package board

import (
	"net/http"

	"dispensecore/hub"
	"dispensecore/queueview"
)

type logLine struct {
	TS      string `json:"ts"`
	QueueID *int64 `json:"queue_id,omitempty"`
	Event   string `json:"event"`
	Message string `json:"message"`
}

type viewResponse struct {
	Current        *hub.Queue  `json:"current"`
	Previous       []hub.Queue `json:"previous"`
	LastFinished   []hub.Queue `json:"last_finished"`
	NeedsAttention []hub.Queue `json:"needs_attention"`
	Failed         []hub.Queue `json:"failed"`
	SuccessCount   int64       `json:"success_count"`
	Logs           []logLine   `json:"logs"`
}

// apiView returns the reconciled dashboard view plus human-readable log
// lines. No snapshot yet means an empty view, not an error.
func (s *Server) apiView(w http.ResponseWriter, r *http.Request) {
	view := s.eng.View()
	resp := viewResponse{
		Current:        view.Current,
		Previous:       view.Previous,
		LastFinished:   view.LastFinished,
		NeedsAttention: view.NeedsAttention,
		Failed:         view.Failed,
	}
	if snap := s.eng.Snapshot(); snap != nil {
		resp.SuccessCount = snap.SuccessCount
		for _, ev := range snap.Logs {
			resp.Logs = append(resp.Logs, logLine{
				TS:      ev.TS,
				QueueID: ev.QueueID,
				Event:   ev.Event,
				Message: queueview.RenderMessage(ev.Message),
			})
		}
	}
	s.jsonOK(w, resp)
}

func (s *Server) apiLookup(w http.ResponseWriter, r *http.Request) {
	lk := s.eng.Lookup()
	if lk == nil {
		s.jsonError(w, "lookup not loaded yet", http.StatusBadGateway)
		return
	}
	s.jsonOK(w, lk)
}
