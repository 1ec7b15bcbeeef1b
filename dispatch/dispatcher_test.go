package dispatch

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispensecore/config"
	"dispensecore/hub"
	"dispensecore/messaging"
	"dispensecore/queueview"
	"dispensecore/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedQueue(t *testing.T, db *store.DB, qty int64) *store.Queue {
	t.Helper()
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 100)
	require.NoError(t, err)
	q, err := db.CreateQueue(patient.ID, "1", []store.QueueItem{{PillID: pill.ID, Quantity: qty}})
	require.NoError(t, err)
	require.NoError(t, db.UpdateQueueStatus(q.ID, hub.StatusInProgress))
	q.Status = hub.StatusInProgress
	return q
}

func ackPayload(t *testing.T, ev messaging.DeviceEvent) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return data
}

func TestAckMarksServed(t *testing.T) {
	db := testDB(t)
	q := seedQueue(t, db, 2)
	d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")

	d.HandleDeviceEvent("disp/evt/1", ackPayload(t, messaging.DeviceEvent{
		QueueID: q.ID, Done: 1, Status: "success",
	}))

	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Equal(t, hub.StatusServed, got.Status)
	require.NotNil(t, got.ServedAt)
	assert.Nil(t, got.Note)
}

func TestAckStatusVariants(t *testing.T) {
	cases := map[string]string{
		"done":         hub.StatusServed,
		"SERVED":       hub.StatusServed,
		"failed":       hub.StatusFailed,
		"device error": hub.StatusFailed,
	}
	for status, want := range cases {
		db := testDB(t)
		q := seedQueue(t, db, 1)
		d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")

		d.HandleDeviceEvent("disp/evt/1", ackPayload(t, messaging.DeviceEvent{
			QueueID: q.ID, Status: status,
		}))

		got, err := db.GetQueue(q.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "device status %q", status)
	}
}

func TestAckCountMismatchAppendsNote(t *testing.T) {
	db := testDB(t)
	q := seedQueue(t, db, 5)
	d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")

	d.HandleDeviceEvent("disp/evt/1", ackPayload(t, messaging.DeviceEvent{
		QueueID: q.ID,
		Status:  "success",
		Counted: []messaging.CommandItem{{PillID: q.Items[0].PillID, Quantity: 4}},
	}))

	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Equal(t, hub.StatusServed, got.Status)
	require.NotNil(t, got.Note)
	assert.True(t, strings.Contains(*got.Note, queueview.NoteQuantityMismatch))
	assert.True(t, strings.Contains(*got.Note, "counted 4 expected 5"))
}

func TestAckMatchingCountLeavesNoteEmpty(t *testing.T) {
	db := testDB(t)
	q := seedQueue(t, db, 5)
	d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")

	d.HandleDeviceEvent("disp/evt/1", ackPayload(t, messaging.DeviceEvent{
		QueueID: q.ID,
		Status:  "success",
		Counted: []messaging.CommandItem{{PillID: q.Items[0].PillID, Quantity: 5}},
	}))

	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Note)
}

func TestAckUnknownQueueIgnored(t *testing.T) {
	db := testDB(t)
	d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")

	d.HandleDeviceEvent("disp/evt/1", ackPayload(t, messaging.DeviceEvent{
		QueueID: 9999, Status: "success",
	}))

	events, err := db.ListRecentEvents(10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "ack_unknown", events[0].Event)
}

func TestAckBadPayloadIgnored(t *testing.T) {
	db := testDB(t)
	q := seedQueue(t, db, 1)
	d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")

	d.HandleDeviceEvent("disp/evt/1", []byte("{not json"))

	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Equal(t, hub.StatusInProgress, got.Status)
}

func TestAckUnrecognizedStatusKeepsQueueInProgress(t *testing.T) {
	db := testDB(t)
	q := seedQueue(t, db, 1)
	d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")

	d.HandleDeviceEvent("disp/evt/1", ackPayload(t, messaging.DeviceEvent{
		QueueID: q.ID, Status: "rebooting",
	}))

	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Equal(t, hub.StatusInProgress, got.Status)
}

func TestDispatchWithoutDeviceChannelLeavesPending(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 100)
	require.NoError(t, err)
	q, err := db.CreateQueue(patient.ID, "1", []store.QueueItem{{PillID: pill.ID, Quantity: 1}})
	require.NoError(t, err)

	d := NewDispatcher(db, nil, nil, "disp/cmd", "disp/evt")
	require.NoError(t, d.DispatchQueue(q))

	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Equal(t, hub.StatusPending, got.Status)
}
