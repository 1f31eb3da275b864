package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// APIClient provides HTTP client functionality to communicate with the dumpkey daemon
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetStatus fetches the engine snapshot via API
func (c *APIClient) GetStatus() (any, error) {
	resp, err := c.client.Get(c.baseURL + "/status")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp)
}

// Trigger dispatches a diagnostic action via API
func (c *APIClient) Trigger(action, target string, chordGated bool) (any, error) {
	body, err := json.Marshal(map[string]any{
		"action":      action,
		"target":      target,
		"chord_gated": chordGated,
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Post(c.baseURL+"/trigger", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp)
}

// ListTriggers fetches the newest audit records via API
func (c *APIClient) ListTriggers(limit int) (any, error) {
	url := c.baseURL + "/triggers"
	if limit > 0 {
		url += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp)
}

// Simulate feeds button transitions to the daemon's recognizer via API
func (c *APIClient) Simulate(events []map[string]any) (any, error) {
	body, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Post(c.baseURL+"/simulate", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (any, error) {
	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("API error: %s", errorResp.Error)
	}
	var result any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result, nil
}
