package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SamuelLess/carakube/internal/types"
)

// WireNode is the CLI-side decoding of one graph node: the common fields
// plus findings, ignoring variant-specific payload.
type WireNode struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Namespace string          `json:"namespace,omitempty"`
	Findings  []types.Finding `json:"findings"`
}

// WireGraph is the CLI-side decoding of the snapshot data payload.
type WireGraph struct {
	Timestamp string       `json:"timestamp"`
	Nodes     []WireNode   `json:"nodes"`
	Links     []types.Edge `json:"links"`
	Stats     types.Stats  `json:"stats"`
}

// WireSnapshot is the CLI-side decoding of the snapshot envelope.
type WireSnapshot struct {
	Status  string     `json:"status"`
	Message string     `json:"message,omitempty"`
	Data    *WireGraph `json:"data,omitempty"`
}

// getSnapshotFunc fetches the snapshot from the scanner API. It can be
// overridden in tests to inject a canned response.
var getSnapshotFunc = defaultGetSnapshot

func getSnapshot() (*WireSnapshot, error) {
	return getSnapshotFunc()
}

func defaultGetSnapshot() (*WireSnapshot, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	res, err := client.Get(serverAddr + "/api/graph")
	if err != nil {
		return nil, fmt.Errorf("querying scanner: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scanner returned %s", res.Status)
	}

	var snap WireSnapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// triggerScanFunc posts a scan trigger. Overridable in tests.
var triggerScanFunc = defaultTriggerScan

func defaultTriggerScan() (triggered bool, message string, err error) {
	client := &http.Client{Timeout: 10 * time.Second}
	res, err := client.Post(serverAddr+"/api/scan", "application/json", nil)
	if err != nil {
		return false, "", fmt.Errorf("querying scanner: %w", err)
	}
	defer res.Body.Close()

	var body struct {
		Triggered bool   `json:"triggered"`
		Message   string `json:"message,omitempty"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, "", fmt.Errorf("decoding response: %w", err)
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return false, body.Message, nil
	}
	if res.StatusCode != http.StatusAccepted {
		return false, "", fmt.Errorf("scanner returned %s", res.Status)
	}
	return body.Triggered, body.Message, nil
}
