// Package canvas holds the node graph a student arranges next to the chat.
// A Canvas is owned by a single goroutine; it is not safe for concurrent use.
package canvas

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrNodeNotFound = errors.New("canvas: node not found")

const (
	gridColumns = 4
	gridOriginX = 80
	gridOriginY = 80
	gridStepX   = 260
	gridStepY   = 180
)

// Canvas is an arena of nodes indexed by id. order keeps insertion order for
// rendering and for the "first parent" rule in Depth.
type Canvas struct {
	nodes map[string]*Node
	order []string
}

func New() *Canvas {
	return &Canvas{nodes: make(map[string]*Node)}
}

func gridPosition(i int) Position {
	return Position{
		X: float64(gridOriginX + (i%gridColumns)*gridStepX),
		Y: float64(gridOriginY + (i/gridColumns)*gridStepY),
	}
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func (c *Canvas) Len() int {
	return len(c.order)
}

// Add places a user note at the next grid slot.
func (c *Canvas) Add(title, content string) Node {
	return c.insert(&Node{ID: newID(manualPrefix), Type: TypeNote, Title: title, Content: content})
}

// AddFile places a node carrying text extracted from an uploaded document.
func (c *Canvas) AddFile(title, content string) Node {
	return c.insert(&Node{ID: newID(filePrefix), Type: TypeFile, Title: title, Content: content})
}

func (c *Canvas) insert(n *Node) Node {
	n.Position = gridPosition(len(c.order))
	n.Connections = []string{}
	c.nodes[n.ID] = n
	c.order = append(c.order, n.ID)
	return n.clone()
}

func (c *Canvas) Get(id string) (Node, bool) {
	n, ok := c.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of every node in canvas order.
func (c *Canvas) Nodes() []Node {
	out := make([]Node, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.nodes[id].clone())
	}
	return out
}

func (c *Canvas) Move(id string, x, y float64) error {
	n, ok := c.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Position = Position{X: x, Y: y}
	return nil
}

func (c *Canvas) Rename(id, title string) error {
	n, ok := c.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Title = strings.TrimSpace(title)
	return nil
}

// Delete removes the node and every edge pointing at it.
func (c *Canvas) Delete(id string) error {
	if _, ok := c.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	delete(c.nodes, id)

	order := c.order[:0]
	for _, other := range c.order {
		if other != id {
			order = append(order, other)
		}
	}
	c.order = order

	for _, n := range c.nodes {
		n.Connections = without(n.Connections, id)
	}
	return nil
}

// Link adds an edge from -> to. Self links and cycles are allowed; an
// existing edge is left as is.
func (c *Canvas) Link(from, to string) error {
	src, ok := c.nodes[from]
	if !ok {
		return ErrNodeNotFound
	}
	if _, ok := c.nodes[to]; !ok {
		return ErrNodeNotFound
	}
	for _, id := range src.Connections {
		if id == to {
			return nil
		}
	}
	src.Connections = append(src.Connections, to)
	return nil
}

func (c *Canvas) Unlink(from, to string) error {
	src, ok := c.nodes[from]
	if !ok {
		return ErrNodeNotFound
	}
	src.Connections = without(src.Connections, to)
	return nil
}

func without(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

// Merge replaces every AI node with batch while keeping user nodes (ids
// starting with "manual" or "file") in their existing order. A batch node
// whose id is already on the canvas keeps its current position. Nodes without
// an id get an "ai-" id, later duplicates and ids taken by user nodes are
// ignored, and edges to ids that no longer exist are pruned.
func (c *Canvas) Merge(batch []Node) {
	next := make(map[string]*Node, len(c.order)+len(batch))
	order := make([]string, 0, len(c.order)+len(batch))

	for _, id := range c.order {
		if isUserID(id) {
			next[id] = c.nodes[id]
			order = append(order, id)
		}
	}

	for i := range batch {
		n := batch[i].clone()
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			n.ID = newID(aiPrefix)
		}
		if _, taken := next[n.ID]; taken {
			continue
		}
		if n.Type == "" {
			n.Type = TypeConcept
		}

		if old, ok := c.nodes[n.ID]; ok {
			n.Position = old.Position
		} else if n.Position == (Position{}) {
			n.Position = gridPosition(len(order))
		}

		next[n.ID] = &n
		order = append(order, n.ID)
	}

	for _, id := range order {
		n := next[id]
		kept := make([]string, 0, len(n.Connections))
		seen := make(map[string]bool, len(n.Connections))
		for _, to := range n.Connections {
			if _, ok := next[to]; ok && !seen[to] {
				seen[to] = true
				kept = append(kept, to)
			}
		}
		n.Connections = kept
	}

	c.nodes = next
	c.order = order
}

// parent is the first node in canvas order that links to id.
func (c *Canvas) parent(id string) (string, bool) {
	for _, candidate := range c.order {
		for _, to := range c.nodes[candidate].Connections {
			if to == id {
				return candidate, true
			}
		}
	}
	return "", false
}

// Depth is 0 for a node nobody links to, otherwise one more than the depth
// of its first parent. A node seen twice on the walk contributes 0, so
// cycles terminate.
func (c *Canvas) Depth(id string) int {
	if _, ok := c.nodes[id]; !ok {
		return 0
	}

	visited := make(map[string]bool)
	depth := 0
	for cur := id; !visited[cur]; depth++ {
		visited[cur] = true
		p, ok := c.parent(cur)
		if !ok {
			return depth
		}
		cur = p
	}
	return depth
}

// FindCycle returns the ids of one directed cycle in canvas order, or nil.
// A self link is a cycle of one.
func (c *Canvas) FindCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(c.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = onStack
		stack = append(stack, id)

		for _, to := range c.nodes[id].Connections {
			if _, ok := c.nodes[to]; !ok {
				continue
			}
			switch state[to] {
			case onStack:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == to {
						return append([]string(nil), stack[i:]...)
					}
				}
			case unvisited:
				if cycle := visit(to); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range c.order {
		if state[id] == unvisited {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
