package dispatch

// Emitter is the interface adapters must satisfy to bridge dispatch events out of the package.
type Emitter interface {
	EmitQueueDispatched(queueID, queueNumber int64, room string)
	EmitQueueServed(queueID int64)
	EmitQueueFailed(queueID int64, detail string)
	EmitCountMismatch(queueID int64, note string)
}

// LogEmitter writes dispatch events straight to the log. It is the hub
// binary's default when no richer event sink is wired.
type LogEmitter struct {
	logFn func(format string, args ...any)
}

func NewLogEmitter(logFn func(format string, args ...any)) *LogEmitter {
	return &LogEmitter{logFn: logFn}
}

func (e *LogEmitter) EmitQueueDispatched(queueID, queueNumber int64, room string) {
	e.logFn("dispatch: queue %d (#%d) sent to room %s", queueID, queueNumber, room)
}

func (e *LogEmitter) EmitQueueServed(queueID int64) {
	e.logFn("dispatch: queue %d served", queueID)
}

func (e *LogEmitter) EmitQueueFailed(queueID int64, detail string) {
	e.logFn("dispatch: queue %d failed: %s", queueID, detail)
}

func (e *LogEmitter) EmitCountMismatch(queueID int64, note string) {
	e.logFn("dispatch: queue %d count mismatch: %s", queueID, note)
}
