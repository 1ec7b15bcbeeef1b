package engine

import (
	"log"
	"sync"
	"time"

	"dispensecore/hub"
	"dispensecore/queueview"
)

type LogFunc func(format string, args ...any)

// HubAPI is the slice of the hub client the engine needs. *hub.Client
// satisfies it.
type HubAPI interface {
	FetchDashboard() (*hub.Snapshot, error)
	FetchLookup() (*hub.Lookup, error)
	SubmitQueue(req *hub.CreateQueueRequest) (*hub.CreateQueueResponse, error)
	Ping() error
}

type Config struct {
	Hub          HubAPI
	PollInterval time.Duration
	LogFunc      LogFunc
}

// Engine owns the board-side hub state: the polled snapshot, the
// reconciled view and the pill/patient lookup. Sessions hang off it for
// per-user staging.
type Engine struct {
	hub    HubAPI
	poller *hub.Poller
	Events *EventBus
	logFn  LogFunc

	mu       sync.RWMutex
	snapshot *hub.Snapshot
	view     queueview.View
	lookup   *hub.Lookup
	pills    map[int64]hub.Pill

	stopChan     chan struct{}
	hubConnected bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	e := &Engine{
		hub:      c.Hub,
		Events:   NewEventBus(),
		logFn:    logFn,
		pills:    make(map[int64]hub.Pill),
		stopChan: make(chan struct{}),
	}
	e.poller = hub.NewPoller(c.Hub, &pollerEmitter{eng: e}, c.PollInterval)
	e.wireEventHandlers()
	return e
}

func (e *Engine) Start() {
	if err := e.RefreshLookup(); err != nil {
		e.logFn("engine: initial lookup: %v", err)
	}
	e.poller.Start()
	e.checkConnectionStatus()
	go e.connectionHealthLoop()
	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	e.poller.Stop()
	e.logFn("engine: stopped")
}

// Snapshot returns the last good raw snapshot, or nil before the first
// successful poll.
func (e *Engine) Snapshot() *hub.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// View returns the last reconciled view. Zero before the first poll.
func (e *Engine) View() queueview.View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

func (e *Engine) Lookup() *hub.Lookup {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lookup
}

// PillByID implements ledger.PillResolver against the cached lookup.
func (e *Engine) PillByID(id int64) (hub.Pill, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.pills[id]
	return p, ok
}

// RefreshLookup re-fetches the pill and patient lists from the hub.
func (e *Engine) RefreshLookup() error {
	lk, err := e.hub.FetchLookup()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.lookup = lk
	e.pills = make(map[int64]hub.Pill, len(lk.Pills))
	for _, p := range lk.Pills {
		e.pills[p.ID] = p
	}
	e.mu.Unlock()
	e.Events.Emit(Event{Type: EventLookupRefreshed, Payload: LookupRefreshedEvent{
		Pills:    len(lk.Pills),
		Patients: len(lk.Patients),
	}})
	return nil
}

// RefreshNow forces a poll ahead of the next tick.
func (e *Engine) RefreshNow() error {
	return e.poller.RefreshNow()
}

func (e *Engine) checkConnectionStatus() {
	if err := e.hub.Ping(); err == nil {
		if !e.hubConnected {
			e.hubConnected = true
			e.Events.Emit(Event{Type: EventHubConnected, Payload: ConnectionEvent{Detail: "hub connected"}})
		}
	} else {
		if e.hubConnected {
			e.hubConnected = false
			e.Events.Emit(Event{Type: EventHubDisconnected, Payload: ConnectionEvent{Detail: err.Error()}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}
