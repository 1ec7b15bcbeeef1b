package hub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client talks to the hub's JSON API. The hub is the source of truth for
// queues and pill stock; the client never caches responses itself.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Reconfigure applies a new base URL and timeout live.
func (c *Client) Reconfigure(baseURL string, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = baseURL
	if timeout > 0 {
		c.http.Timeout = timeout
	}
}

func (c *Client) FetchDashboard() (*Snapshot, error) {
	var snap Snapshot
	if err := c.do(http.MethodGet, "/api/dashboard", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) FetchLookup() (*Lookup, error) {
	var lk Lookup
	if err := c.do(http.MethodGet, "/api/lookup", nil, &lk); err != nil {
		return nil, err
	}
	return &lk, nil
}

// SubmitQueue commits staged items for a patient. The hub validates stock
// authoritatively and decrements it inside the same transaction.
func (c *Client) SubmitQueue(req *CreateQueueRequest) (*CreateQueueResponse, error) {
	var resp CreateQueueResponse
	if err := c.do(http.MethodPost, "/api/queues", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteQueue(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/queues/%d", id), nil, nil)
}

func (c *Client) ListPills() ([]Pill, error) {
	var pills []Pill
	if err := c.do(http.MethodGet, "/api/pills", nil, &pills); err != nil {
		return nil, err
	}
	return pills, nil
}

func (c *Client) AddPill(req *CreatePillRequest) (*Pill, error) {
	var pill Pill
	if err := c.do(http.MethodPost, "/api/pills", req, &pill); err != nil {
		return nil, err
	}
	return &pill, nil
}

// AdjustPill applies a signed stock delta. The hub floors the result at zero.
func (c *Client) AdjustPill(id, delta int64) (*Pill, error) {
	var pill Pill
	if err := c.do(http.MethodPatch, fmt.Sprintf("/api/pills/%d", id), &AdjustPillRequest{Delta: delta}, &pill); err != nil {
		return nil, err
	}
	return &pill, nil
}

func (c *Client) DeletePill(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/pills/%d", id), nil, nil)
}

func (c *Client) AddPatient(name string) (*Patient, error) {
	var p Patient
	if err := c.do(http.MethodPost, "/api/patients", map[string]string{"name": name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Ping() error {
	var hr HealthReport
	return c.do(http.MethodGet, "/api/health", nil, &hr)
}

// apiError is the hub's error envelope: {"error": "..."}.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(method, path string, body, out any) error {
	c.mu.RLock()
	base := c.baseURL
	httpClient := c.http
	c.mu.RUnlock()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, base+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hub %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("hub %s %s: read body: %w", method, path, err)
	}

	// Errors arrive either as a non-2xx status, an error envelope, or both.
	var apiErr apiError
	if len(data) > 0 {
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hub %s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("hub %s %s: decode response: %w", method, path, err)
	}
	return nil
}
