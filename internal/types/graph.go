package types

import "time"

// EdgeType categorizes a relationship between two topology nodes.
type EdgeType string

const (
	EdgeContains EdgeType = "contains"
	EdgeRunsOn   EdgeType = "runs-on"
	EdgeExposes  EdgeType = "exposes"
	EdgeRoutesTo EdgeType = "routes-to"
)

// Edge is a directed relationship between two nodes. Source and Target
// must reference node IDs present in the same Graph.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
}

// Stats aggregates node and link counts. It is derived from Nodes/Links
// at assembly time and never mutated independently.
type Stats struct {
	TotalNodes int              `json:"total_nodes"`
	TotalLinks int              `json:"total_links"`
	NodeTypes  map[Kind]int     `json:"node_types"`
	LinkTypes  map[EdgeType]int `json:"link_types"`
}

// Graph is one immutable snapshot of the cluster topology. It is created
// once per scan pass and replaced wholesale by the next pass.
type Graph struct {
	Timestamp time.Time `json:"timestamp"`
	Nodes     []Node    `json:"nodes"`
	Links     []Edge    `json:"links"`
	Stats     Stats     `json:"stats"`
}

// Status is the lifecycle state of the published snapshot.
type Status string

const (
	// StatusWaiting means no scan pass has ever been attempted.
	StatusWaiting Status = "waiting"
	// StatusInitializing means scans have started but the API has not
	// been reachable yet.
	StatusInitializing Status = "initializing"
	// StatusEmpty means a fully successful scan found zero resources.
	StatusEmpty Status = "empty"
	// StatusSuccess means the latest Graph is available.
	StatusSuccess Status = "success"
	// StatusError is reserved for the wire envelope of transport-level
	// failures; the publisher itself never regresses to it.
	StatusError Status = "error"
)

// Snapshot is the published Graph plus its status envelope. This shape is
// consumed bit-exactly by the transport layer and the UI.
type Snapshot struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    *Graph `json:"data,omitempty"`
}
