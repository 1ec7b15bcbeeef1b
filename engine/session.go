package engine

import (
	"errors"
	"sync"

	"dispensecore/hub"
	"dispensecore/ledger"
)

var (
	ErrNoPatient      = errors.New("no patient selected")
	ErrNoItems        = errors.New("no items staged")
	ErrSubmitInFlight = errors.New("submit already in progress")
)

// Session is one user's staging area: a reservation ledger plus the
// selected patient. Submit is the only path that turns staged items
// into a real queue.
type Session struct {
	eng *Engine

	mu         sync.Mutex
	ledger     *ledger.Ledger
	patientID  int64
	submitting bool
}

func NewSession(eng *Engine) *Session {
	return &Session{
		eng:    eng,
		ledger: ledger.New(eng),
	}
}

// NewSession creates an independent staging session backed by this
// engine's lookup and poller.
func (e *Engine) NewSession() *Session { return NewSession(e) }

func (s *Session) SetPatient(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patientID = id
}

func (s *Session) PatientID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patientID
}

func (s *Session) AddItem(pillID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.AddItem(pillID, qty)
}

func (s *Session) RemoveItem(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.RemoveItem(i)
}

func (s *Session) ClearItems() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Clear()
}

func (s *Session) Items() []ledger.StagedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Items()
}

func (s *Session) AvailableFor(pillID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.AvailableFor(pillID)
}

// Submit commits the staged items to the hub as one queue. On success
// the ledger is cleared and a fresh lookup and snapshot are pulled so
// the server-side stock decrement is reflected before the user stages
// anything else. On failure the staged items stay untouched.
func (s *Session) Submit() (*hub.CreateQueueResponse, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if s.patientID == 0 {
		s.mu.Unlock()
		return nil, ErrNoPatient
	}
	staged := s.ledger.Items()
	if len(staged) == 0 {
		s.mu.Unlock()
		return nil, ErrNoItems
	}
	s.submitting = true
	patientID := s.patientID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	req := &hub.CreateQueueRequest{PatientID: patientID}
	for _, it := range staged {
		req.Items = append(req.Items, hub.QueueItem{PillID: it.PillID, Quantity: it.Quantity})
	}

	resp, err := s.eng.hub.SubmitQueue(req)
	if err != nil {
		s.eng.Events.Emit(Event{Type: EventCommitFailed, Payload: CommitFailedEvent{
			PatientID: patientID,
			Detail:    err.Error(),
		}})
		return nil, err
	}

	s.mu.Lock()
	s.ledger.Clear()
	s.patientID = 0
	s.mu.Unlock()

	s.eng.Events.Emit(Event{Type: EventQueueCommitted, Payload: QueueCommittedEvent{
		QueueID:     resp.QueueID,
		QueueNumber: resp.QueueNumber,
		PatientID:   patientID,
		ItemCount:   len(staged),
	}})

	if err := s.eng.RefreshLookup(); err != nil {
		s.eng.logFn("engine: lookup refresh after commit: %v", err)
	}
	if err := s.eng.RefreshNow(); err != nil {
		s.eng.logFn("engine: snapshot refresh after commit: %v", err)
	}
	return resp, nil
}
