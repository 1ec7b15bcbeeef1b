package engine

import (
	"dispensecore/hub"
	"dispensecore/queueview"
)

// applySnapshot installs a fresh snapshot, reconciles it and emits the
// resulting events. Called on the poller goroutine.
func (e *Engine) applySnapshot(snap *hub.Snapshot) {
	view := *queueview.Reconcile(snap)

	e.mu.Lock()
	prevCurrent := e.view.Current
	e.snapshot = snap
	e.view = view
	e.mu.Unlock()

	e.Events.Emit(Event{Type: EventSnapshotReplaced, Payload: SnapshotReplacedEvent{View: view}})

	if view.Current != nil && (prevCurrent == nil || prevCurrent.ID != view.Current.ID) {
		e.Events.Emit(Event{Type: EventCurrentChanged, Payload: CurrentChangedEvent{
			QueueID:     view.Current.ID,
			QueueNumber: view.Current.Number,
		}})
	}
}

func (e *Engine) wireEventHandlers() {
	// Fetch failures keep the old snapshot; just log them.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(SnapshotFetchFailedEvent)
		e.logFn("engine: snapshot fetch failed: %s", ev.Detail)
	}, EventSnapshotFetchFailed)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(CurrentChangedEvent)
		e.logFn("engine: current queue is now %d (#%d)", ev.QueueID, ev.QueueNumber)
	}, EventCurrentChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(QueueCommittedEvent)
		e.logFn("engine: committed queue %d (#%d) for patient %d, %d items", ev.QueueID, ev.QueueNumber, ev.PatientID, ev.ItemCount)
	}, EventQueueCommitted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(CommitFailedEvent)
		e.logFn("engine: commit for patient %d failed: %s", ev.PatientID, ev.Detail)
	}, EventCommitFailed)
}
