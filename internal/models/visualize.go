package models

type VisualizeRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

type DiagramStep struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

type Diagram struct {
	Title string        `json:"title"`
	Steps []DiagramStep `json:"steps"`
}

// GraphNode.Parent is nil for root nodes.
type GraphNode struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Parent      *string `json:"parent"`
	Description string  `json:"description,omitempty"`
}

type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Graph struct {
	Type  string      `json:"type"`
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type VisualizationPayload struct {
	Diagram     Diagram `json:"diagram"`
	Explanation string  `json:"explanation"`
	Graph       *Graph  `json:"graph,omitempty"`
}
