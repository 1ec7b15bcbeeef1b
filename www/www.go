package www

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dispensecore/dispatch"
	"dispensecore/messaging"
	"dispensecore/stockstate"
	"dispensecore/store"
)

type LogFunc func(format string, args ...any)

// Handlers carries the hub API's dependencies.
type Handlers struct {
	db         *store.DB
	stock      *stockstate.Manager
	dispatcher *dispatch.Dispatcher
	msg        *messaging.Client
	rooms      int
	roomSeq    uint64
	logFn      LogFunc
}

func NewHandlers(db *store.DB, stock *stockstate.Manager, dispatcher *dispatch.Dispatcher, msg *messaging.Client, rooms int, logFn LogFunc) *Handlers {
	if logFn == nil {
		logFn = log.Printf
	}
	if rooms < 1 {
		rooms = 1
	}
	return &Handlers{
		db:         db,
		stock:      stock,
		dispatcher: dispatcher,
		msg:        msg,
		rooms:      rooms,
		logFn:      logFn,
	}
}

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", h.apiHealth)
	r.Get("/api/dashboard", h.apiDashboard)
	r.Get("/api/lookup", h.apiLookup)

	r.Post("/api/queues", h.apiCreateQueue)
	r.Get("/api/queues/{id}", h.apiGetQueue)
	r.Delete("/api/queues/{id}", h.apiDeleteQueue)

	r.Get("/api/pills", h.apiListPills)
	r.Post("/api/pills", h.apiCreatePill)
	r.Patch("/api/pills/{id}", h.apiAdjustPill)
	r.Delete("/api/pills/{id}", h.apiDeletePill)

	r.Get("/api/patients", h.apiListPatients)
	r.Post("/api/patients", h.apiCreatePatient)

	return r
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
