package hub

import (
	"sync"
	"time"
)

const DefaultPollInterval = 3 * time.Second

// SnapshotSource is the fetch side of the hub API. *Client satisfies it.
type SnapshotSource interface {
	FetchDashboard() (*Snapshot, error)
}

// SnapshotEmitter receives poll outcomes. A fetch failure is transient:
// the previous snapshot stays cached and the next tick retries.
type SnapshotEmitter interface {
	EmitSnapshotReplaced(snap *Snapshot)
	EmitSnapshotFetchFailed(err error)
}

// Poller fetches the full hub snapshot on a fixed interval and replaces
// the cached copy atomically. There is no incremental merge and no
// backoff; a failed tick retains the last good snapshot.
type Poller struct {
	src      SnapshotSource
	emitter  SnapshotEmitter
	interval time.Duration

	mu       sync.RWMutex
	last     *Snapshot
	stopChan chan struct{}
	running  bool
}

func NewPoller(src SnapshotSource, emitter SnapshotEmitter, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		src:      src,
		emitter:  emitter,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()
	go p.loop()
}

func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()
	close(p.stopChan)
}

// Last returns the most recent good snapshot, or nil before the first
// successful fetch.
func (p *Poller) Last() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// RefreshNow fetches out of band, ahead of the next tick. Used after a
// successful commit so server-side stock decrements are absorbed before
// the user stages anything else.
func (p *Poller) RefreshNow() error {
	return p.fetchOnce()
}

func (p *Poller) loop() {
	p.fetchOnce()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.fetchOnce()
		}
	}
}

func (p *Poller) fetchOnce() error {
	snap, err := p.src.FetchDashboard()
	if err != nil {
		if p.emitter != nil {
			p.emitter.EmitSnapshotFetchFailed(err)
		}
		return err
	}
	p.mu.Lock()
	p.last = snap
	p.mu.Unlock()
	if p.emitter != nil {
		p.emitter.EmitSnapshotReplaced(snap)
	}
	return nil
}
