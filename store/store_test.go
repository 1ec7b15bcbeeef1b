package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispensecore/config"
	"dispensecore/hub"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetPatient(t *testing.T) {
	db := testDB(t)
	p, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	require.NotZero(t, p.ID)

	got, err := db.GetPatient(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Somchai", got.Name)
}

func TestCreatePillTrackedAndUntracked(t *testing.T) {
	db := testDB(t)

	tracked, err := db.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)
	require.NotNil(t, tracked.Amount)
	assert.Equal(t, int64(10), *tracked.Amount)

	untracked, err := db.CreatePill("Vitamin C", hub.PillSolid, -1)
	require.NoError(t, err)
	assert.Nil(t, untracked.Amount)

	got, err := db.GetPill(untracked.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Amount)
}

func TestAdjustPillAmountFloorsAtZero(t *testing.T) {
	db := testDB(t)
	p, err := db.CreatePill("Paracetamol", hub.PillSolid, 5)
	require.NoError(t, err)

	p, err = db.AdjustPillAmount(p.ID, -8)
	require.NoError(t, err)
	require.NotNil(t, p.Amount)
	assert.Zero(t, *p.Amount)

	p, err = db.AdjustPillAmount(p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), *p.Amount)
}

func TestAdjustUntrackedPillStaysUntracked(t *testing.T) {
	db := testDB(t)
	p, err := db.CreatePill("Vitamin C", hub.PillSolid, -1)
	require.NoError(t, err)

	p, err = db.AdjustPillAmount(p.ID, 50)
	require.NoError(t, err)
	assert.Nil(t, p.Amount)
}

func TestCreateQueueDecrementsStock(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)

	q, err := db.CreateQueue(patient.ID, "1", []QueueItem{{PillID: pill.ID, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.Number)
	assert.Equal(t, hub.StatusPending, q.Status)
	require.Len(t, q.Items, 1)
	assert.Equal(t, "Paracetamol", q.Items[0].Name)

	got, err := db.GetPill(pill.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Amount)
	assert.Equal(t, int64(6), *got.Amount)
}

func TestCreateQueueInsufficientStock(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 3)
	require.NoError(t, err)

	_, err = db.CreateQueue(patient.ID, "1", []QueueItem{{PillID: pill.ID, Quantity: 5}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The rejected transaction must not touch stock.
	got, err := db.GetPill(pill.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), *got.Amount)
}

func TestCreateQueueClampsAndPinsLiquid(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	solid, err := db.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)
	liquid, err := db.CreatePill("Cough Syrup", hub.PillLiquid, 10)
	require.NoError(t, err)

	q, err := db.CreateQueue(patient.ID, "1", []QueueItem{
		{PillID: solid.ID, Quantity: 0},
		{PillID: liquid.ID, Quantity: 7},
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, int64(1), q.Items[0].Quantity)
	assert.Equal(t, int64(1), q.Items[1].Quantity)
}

func TestCreateQueueValidation(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)

	_, err = db.CreateQueue(patient.ID, "1", nil)
	assert.Error(t, err)

	_, err = db.CreateQueue(9999, "1", []QueueItem{{PillID: pill.ID, Quantity: 1}})
	assert.Error(t, err)

	_, err = db.CreateQueue(patient.ID, "1", []QueueItem{{PillID: 9999, Quantity: 1}})
	assert.Error(t, err)
}

func TestQueueNumbersIncrement(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 100)
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		q, err := db.CreateQueue(patient.ID, "1", []QueueItem{{PillID: pill.ID, Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, want, q.Number)
	}
}

func TestQueueLifecycle(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)
	q, err := db.CreateQueue(patient.ID, "1", []QueueItem{{PillID: pill.ID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, db.UpdateQueueStatus(q.ID, hub.StatusInProgress))
	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Equal(t, hub.StatusInProgress, got.Status)
	assert.Nil(t, got.ServedAt)

	require.NoError(t, db.MarkQueueFinished(q.ID, hub.StatusServed))
	got, err = db.GetQueue(q.ID)
	require.NoError(t, err)
	assert.Equal(t, hub.StatusServed, got.Status)
	require.NotNil(t, got.ServedAt)

	count, err := db.CountServed()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAppendQueueNote(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 10)
	require.NoError(t, err)
	q, err := db.CreateQueue(patient.ID, "1", []QueueItem{{PillID: pill.ID, Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, db.AppendQueueNote(q.ID, "first"))
	require.NoError(t, db.AppendQueueNote(q.ID, "second"))

	got, err := db.GetQueue(q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Note)
	assert.Equal(t, "first\nsecond", *got.Note)
}

func TestListQueuesByStatus(t *testing.T) {
	db := testDB(t)
	patient, err := db.CreatePatient("Somchai")
	require.NoError(t, err)
	pill, err := db.CreatePill("Paracetamol", hub.PillSolid, 100)
	require.NoError(t, err)

	q1, err := db.CreateQueue(patient.ID, "1", []QueueItem{{PillID: pill.ID, Quantity: 1}})
	require.NoError(t, err)
	q2, err := db.CreateQueue(patient.ID, "2", []QueueItem{{PillID: pill.ID, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, db.MarkQueueFinished(q1.ID, hub.StatusServed))

	pending, err := db.ListQueuesByStatus(hub.StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, q2.ID, pending[0].ID)
	require.Len(t, pending[0].Items, 1)

	served, err := db.ListQueuesByStatus(hub.StatusServed, 10)
	require.NoError(t, err)
	require.Len(t, served, 1)
	assert.Equal(t, q1.ID, served[0].ID)
}

func TestEventsNewestFirst(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.AppendEvent(nil, "first", "a"))
	qid := int64(7)
	require.NoError(t, db.AppendEvent(&qid, "second", "b"))

	events, err := db.ListRecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Event)
	require.NotNil(t, events[0].QueueID)
	assert.Equal(t, int64(7), *events[0].QueueID)
	assert.Nil(t, events[1].QueueID)
}
