package models

import "encoding/json"

type MindMapRequest struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// MindMapNode references its children by id; the nodes form a graph, not a
// tree, and cycles are not rejected.
type MindMapNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Children IDList `json:"children"`
}

type MindMapResponse struct {
	Nodes json.RawMessage `json:"nodes"`
}
