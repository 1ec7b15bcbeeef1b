package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDashboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dashboard", r.URL.Path)
		json.NewEncoder(w).Encode(Snapshot{
			Pending:      []Queue{{ID: 1, Number: 1, Status: StatusPending}},
			SuccessCount: 3,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	snap, err := c.FetchDashboard()
	require.NoError(t, err)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, int64(3), snap.SuccessCount)
}

func TestSubmitQueueSendsRequestBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req CreateQueueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.PatientID)
		require.Len(t, req.Items, 1)
		json.NewEncoder(w).Encode(CreateQueueResponse{QueueID: 42, QueueNumber: 5, TargetRoom: "1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.SubmitQueue(&CreateQueueRequest{
		PatientID: 7,
		Items:     []QueueItem{{PillID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.QueueID)
}

func TestClientSurfacesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "insufficient stock: Paracetamol has 2, requested 5"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.SubmitQueue(&CreateQueueRequest{PatientID: 1, Items: []QueueItem{{PillID: 1, Quantity: 5}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestClientStatusErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClientReconfigure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HealthReport{Status: "ok"})
	}))
	defer srv.Close()

	c := NewClient("http://127.0.0.1:1", time.Second)
	require.Error(t, c.Ping())

	c.Reconfigure(srv.URL, time.Second)
	assert.NoError(t, c.Ping())
}

func TestPillStockNullMeansUntracked(t *testing.T) {
	var p Pill
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"Vitamin C","type":"solid","amount":null}`), &p))
	assert.Nil(t, p.Stock)

	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"name":"Paracetamol","type":"solid","amount":0}`), &p))
	require.NotNil(t, p.Stock)
	assert.Zero(t, *p.Stock)
}
