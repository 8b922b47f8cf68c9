package canvas

import (
	"encoding/json"
	"strings"

	"shunya-backend/internal/models"
)

const (
	TypeConcept = "concept"
	TypeNote    = "note"
	TypeFile    = "file"
)

// Id prefixes. Nodes whose id starts with manualPrefix or filePrefix belong to
// the user and survive an AI merge.
const (
	manualPrefix = "manual"
	filePrefix   = "file"
	aiPrefix     = "ai"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one card on the canvas. Connections are outgoing edges by id.
type Node struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Content     string   `json:"content,omitempty"`
	Position    Position `json:"position"`
	Connections []string `json:"connections"`
}

// UnmarshalJSON accepts connection entries as bare id strings or as objects
// with an "id" string; anything else is dropped. "children" is read when
// "connections" is absent, which is how mind map nodes name their edges.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var aux struct {
		plain
		Connections models.IDList `json:"connections"`
		Children    models.IDList `json:"children"`
		Label       string        `json:"label"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*n = Node(aux.plain)
	if n.Title == "" {
		n.Title = aux.Label
	}

	ids := aux.Connections
	if ids == nil {
		ids = aux.Children
	}
	n.Connections = append([]string{}, ids...)
	return nil
}

func (n *Node) clone() Node {
	c := *n
	c.Connections = append([]string{}, n.Connections...)
	return c
}

func isUserID(id string) bool {
	return strings.HasPrefix(id, manualPrefix) || strings.HasPrefix(id, filePrefix)
}
