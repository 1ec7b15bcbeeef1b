package www

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispensecore/config"
	"dispensecore/hub"
	"dispensecore/stockstate"
	"dispensecore/store"
)

type testEnv struct {
	db     *store.DB
	stock  *stockstate.Manager
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stock := stockstate.NewManager(db, nil)
	h := NewHandlers(db, stock, nil, nil, 2, func(string, ...any) {})
	return &testEnv{db: db, stock: stock, router: NewRouter(h)}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func (e *testEnv) seed(t *testing.T) (patient hub.Patient, pill hub.Pill) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/patients", map[string]string{"name": "Somchai"}, &patient)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/api/pills", hub.CreatePillRequest{Name: "Paracetamol", Type: hub.PillSolid, Amount: 10}, &pill)
	require.Equal(t, http.StatusOK, rec.Code)
	return patient, pill
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	var report hub.HealthReport
	rec := env.do(t, http.MethodGet, "/api/health", nil, &report)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", report.Status)
	assert.True(t, report.Database)
	assert.False(t, report.Messaging)
}

func TestCreateQueueFlow(t *testing.T) {
	env := newTestEnv(t)
	patient, pill := env.seed(t)

	var resp hub.CreateQueueResponse
	rec := env.do(t, http.MethodPost, "/api/queues", hub.CreateQueueRequest{
		PatientID: patient.ID,
		Items:     []hub.QueueItem{{PillID: pill.ID, Quantity: 4}},
	}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), resp.QueueNumber)
	assert.NotEmpty(t, resp.TargetRoom)

	require.NotEmpty(t, resp.UpdatedPills)
	require.NotNil(t, resp.UpdatedPills[0].Stock)
	assert.Equal(t, int64(6), *resp.UpdatedPills[0].Stock)

	// No dispatcher wired: the queue stays pending and shows up on the
	// dashboard.
	var snap hub.Snapshot
	rec = env.do(t, http.MethodGet, "/api/dashboard", nil, &snap)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, resp.QueueID, snap.Pending[0].ID)
	assert.Equal(t, "Somchai", snap.Pending[0].PatientName)
	assert.Nil(t, snap.Current)
	assert.NotEmpty(t, snap.Logs)
}

func TestCreateQueueInsufficientStockConflict(t *testing.T) {
	env := newTestEnv(t)
	patient, pill := env.seed(t)

	rec := env.do(t, http.MethodPost, "/api/queues", hub.CreateQueueRequest{
		PatientID: patient.ID,
		Items:     []hub.QueueItem{{PillID: pill.ID, Quantity: 11}},
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateQueueValidation(t *testing.T) {
	env := newTestEnv(t)
	patient, pill := env.seed(t)

	rec := env.do(t, http.MethodPost, "/api/queues", hub.CreateQueueRequest{
		Items: []hub.QueueItem{{PillID: pill.ID, Quantity: 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/queues", hub.CreateQueueRequest{
		PatientID: patient.ID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/queues", hub.CreateQueueRequest{
		PatientID: 9999,
		Items:     []hub.QueueItem{{PillID: pill.ID, Quantity: 1}},
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteQueueRefusesInProgress(t *testing.T) {
	env := newTestEnv(t)
	patient, pill := env.seed(t)

	var resp hub.CreateQueueResponse
	rec := env.do(t, http.MethodPost, "/api/queues", hub.CreateQueueRequest{
		PatientID: patient.ID,
		Items:     []hub.QueueItem{{PillID: pill.ID, Quantity: 1}},
	}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, env.db.UpdateQueueStatus(resp.QueueID, hub.StatusInProgress))
	rec = env.do(t, http.MethodDelete, "/api/queues/1", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, env.db.UpdateQueueStatus(resp.QueueID, hub.StatusPending))
	rec = env.do(t, http.MethodDelete, "/api/queues/1", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPillAdjustAndLookup(t *testing.T) {
	env := newTestEnv(t)
	_, pill := env.seed(t)

	var updated hub.Pill
	rec := env.do(t, http.MethodPatch, "/api/pills/1", hub.AdjustPillRequest{Delta: -3}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, updated.Stock)
	assert.Equal(t, int64(7), *updated.Stock)
	assert.Equal(t, pill.ID, updated.ID)

	var lk hub.Lookup
	rec = env.do(t, http.MethodGet, "/api/lookup", nil, &lk)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, lk.Patients, 1)
	require.Len(t, lk.Pills, 1)
	require.NotNil(t, lk.Pills[0].Stock)
	assert.Equal(t, int64(7), *lk.Pills[0].Stock)
}

func TestCreatePillRejectsBadType(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/pills", hub.CreatePillRequest{Name: "X", Type: "gas", Amount: 1}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomsRoundRobin(t *testing.T) {
	env := newTestEnv(t)
	patient, pill := env.seed(t)

	rooms := map[string]int{}
	for i := 0; i < 4; i++ {
		var resp hub.CreateQueueResponse
		rec := env.do(t, http.MethodPost, "/api/queues", hub.CreateQueueRequest{
			PatientID: patient.ID,
			Items:     []hub.QueueItem{{PillID: pill.ID, Quantity: 1}},
		}, &resp)
		require.Equal(t, http.StatusOK, rec.Code)
		rooms[resp.TargetRoom]++
	}
	assert.Equal(t, 2, rooms["1"])
	assert.Equal(t, 2, rooms["2"])
}
