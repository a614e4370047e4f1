// Package events defines the WebSocket message contract between the
// dashboard backend and connected clients.
package events

import "time"

// Message types pushed over the WebSocket connection.
const (
	TypeConnection      = "connection"
	TypeDatasetReplaced = "dataset:replaced"
)

// Envelope wraps every WebSocket message.
type Envelope struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// DatasetReplaced announces that an upload displaced the cached dataset.
// Clients are expected to refetch their views with the new dataset id.
type DatasetReplaced struct {
	DatasetID string `json:"dataset_id"`
	Filename  string `json:"filename"`
	CleanRows int    `json:"clean_rows"`
}
