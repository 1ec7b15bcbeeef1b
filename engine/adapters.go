package engine

import "dispensecore/hub"

// pollerEmitter bridges the hub poller's callbacks into the engine.
type pollerEmitter struct {
	eng *Engine
}

func (e *pollerEmitter) EmitSnapshotReplaced(snap *hub.Snapshot) {
	e.eng.applySnapshot(snap)
}

func (e *pollerEmitter) EmitSnapshotFetchFailed(err error) {
	e.eng.Events.Emit(Event{Type: EventSnapshotFetchFailed, Payload: SnapshotFetchFailedEvent{Detail: err.Error()}})
}
