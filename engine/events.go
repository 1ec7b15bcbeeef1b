package engine

import "dispensecore/queueview"

const (
	EventSnapshotReplaced EventType = iota + 1
	EventSnapshotFetchFailed
	EventCurrentChanged
	EventQueueCommitted
	EventCommitFailed
	EventLookupRefreshed
	EventHubConnected
	EventHubDisconnected
)

// --- Event payloads ---

type SnapshotReplacedEvent struct {
	View queueview.View
}

type SnapshotFetchFailedEvent struct {
	Detail string
}

type CurrentChangedEvent struct {
	QueueID     int64
	QueueNumber int64
}

type QueueCommittedEvent struct {
	QueueID     int64
	QueueNumber int64
	PatientID   int64
	ItemCount   int
}

type CommitFailedEvent struct {
	PatientID int64
	Detail    string
}

type LookupRefreshedEvent struct {
	Pills    int
	Patients int
}

type ConnectionEvent struct {
	Detail string
}
