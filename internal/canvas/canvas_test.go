package canvas

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// seed builds a canvas with fixed ids so merge results are predictable.
func seed(nodes ...*Node) *Canvas {
	c := New()
	for i, n := range nodes {
		if n.Connections == nil {
			n.Connections = []string{}
		}
		if n.Position == (Position{}) {
			n.Position = gridPosition(i)
		}
		c.nodes[n.ID] = n
		c.order = append(c.order, n.ID)
	}
	return c
}

func TestAdd_AssignsPrefixedIDsAndGrid(t *testing.T) {
	c := New()
	note := c.Add("Photosynthesis", "light + water")
	file := c.AddFile("week1.pdf", "chapter text")

	if !strings.HasPrefix(note.ID, "manual-") || note.Type != TypeNote {
		t.Errorf("Unexpected note %+v", note)
	}
	if !strings.HasPrefix(file.ID, "file-") || file.Type != TypeFile {
		t.Errorf("Unexpected file node %+v", file)
	}
	if note.Position == file.Position {
		t.Errorf("Expected distinct grid positions, both %+v", note.Position)
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 nodes, got %d", c.Len())
	}
}

func TestMoveRenameMissingNode(t *testing.T) {
	c := New()
	if err := c.Move("nope", 1, 2); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}
	if err := c.Rename("nope", "x"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound, got %v", err)
	}

	n := c.Add("a", "")
	if err := c.Move(n.ID, 10, 20); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if err := c.Rename(n.ID, "  Cells  "); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	got, _ := c.Get(n.ID)
	if got.Position != (Position{X: 10, Y: 20}) || got.Title != "Cells" {
		t.Errorf("Unexpected node %+v", got)
	}
}

func TestLinkUnlinkDelete(t *testing.T) {
	c := New()
	a := c.Add("a", "")
	b := c.Add("b", "")

	if err := c.Link(a.ID, b.ID); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	c.Link(a.ID, b.ID)
	c.Link(b.ID, b.ID)

	got, _ := c.Get(a.ID)
	if !reflect.DeepEqual(got.Connections, []string{b.ID}) {
		t.Errorf("Expected single deduplicated edge, got %v", got.Connections)
	}
	if err := c.Link(a.ID, "ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound linking to unknown node, got %v", err)
	}

	if err := c.Delete(b.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, _ = c.Get(a.ID)
	if len(got.Connections) != 0 {
		t.Errorf("Expected inbound edges stripped, got %v", got.Connections)
	}
	if _, ok := c.Get(b.ID); ok {
		t.Error("Expected deleted node to be gone")
	}

	c.Link(a.ID, a.ID)
	c.Unlink(a.ID, a.ID)
	got, _ = c.Get(a.ID)
	if len(got.Connections) != 0 {
		t.Errorf("Expected unlink to remove edge, got %v", got.Connections)
	}
}

func TestNodes_ReturnsCopies(t *testing.T) {
	c := New()
	a := c.Add("a", "")
	b := c.Add("b", "")
	c.Link(a.ID, b.ID)

	nodes := c.Nodes()
	nodes[0].Connections[0] = "mutated"
	nodes[0].Title = "mutated"

	got, _ := c.Get(a.ID)
	if got.Title != "a" || got.Connections[0] != b.ID {
		t.Errorf("Expected canvas to be unaffected, got %+v", got)
	}
}

func TestMerge_PreservesUserNodesAndPositions(t *testing.T) {
	c := seed(
		&Node{ID: "manual-1", Type: TypeNote, Title: "Mine"},
		&Node{ID: "ai-old", Type: TypeConcept, Title: "Old", Position: Position{X: 500, Y: 40}},
		&Node{ID: "ai-gone", Type: TypeConcept, Title: "Gone"},
	)

	c.Merge([]Node{
		{ID: "ai-old", Title: "X", Position: Position{X: 1, Y: 1}},
		{ID: "ai-new", Title: "Y"},
	})

	nodes := c.Nodes()
	if !reflect.DeepEqual(ids(nodes), []string{"manual-1", "ai-old", "ai-new"}) {
		t.Fatalf("Unexpected order %v", ids(nodes))
	}
	if nodes[1].Title != "X" || nodes[2].Title != "Y" {
		t.Errorf("Expected batch content to replace AI nodes, got %q and %q", nodes[1].Title, nodes[2].Title)
	}
	if nodes[1].Position != (Position{X: 500, Y: 40}) {
		t.Errorf("Expected dragged position kept, got %+v", nodes[1].Position)
	}
	if nodes[2].Type != TypeConcept {
		t.Errorf("Expected default type, got %q", nodes[2].Type)
	}
}

func TestMerge_IDsDuplicatesAndCollisions(t *testing.T) {
	c := seed(
		&Node{ID: "manual-1", Title: "Mine"},
		&Node{ID: "file-1", Title: "Notes.pdf"},
	)

	c.Merge([]Node{
		{Title: "no id"},
		{ID: "dup", Title: "first"},
		{ID: "dup", Title: "second"},
		{ID: "manual-1", Title: "hijack"},
	})

	nodes := c.Nodes()
	if len(nodes) != 4 {
		t.Fatalf("Expected 4 nodes, got %v", ids(nodes))
	}
	if !strings.HasPrefix(nodes[2].ID, "ai-") {
		t.Errorf("Expected generated ai id, got %q", nodes[2].ID)
	}
	if nodes[3].ID != "dup" || nodes[3].Title != "first" {
		t.Errorf("Expected first duplicate kept, got %+v", nodes[3])
	}
	if mine, _ := c.Get("manual-1"); mine.Title != "Mine" {
		t.Errorf("Expected user node untouched, got %q", mine.Title)
	}
}

func TestMerge_PrunesDanglingEdges(t *testing.T) {
	c := seed(
		&Node{ID: "manual-1", Connections: []string{"ai-old", "ai-keep"}},
		&Node{ID: "ai-old"},
	)

	c.Merge([]Node{
		{ID: "ai-keep", Connections: []string{"manual-1", "ghost", "ai-keep", "manual-1"}},
	})

	mine, _ := c.Get("manual-1")
	if !reflect.DeepEqual(mine.Connections, []string{"ai-keep"}) {
		t.Errorf("Expected edge to removed node pruned, got %v", mine.Connections)
	}
	kept, _ := c.Get("ai-keep")
	if !reflect.DeepEqual(kept.Connections, []string{"manual-1", "ai-keep"}) {
		t.Errorf("Expected dangling and duplicate edges pruned, got %v", kept.Connections)
	}
}

func TestNodeUnmarshal_Connections(t *testing.T) {
	var nodes []Node
	data := `[
		{"id":"a","title":"A","connections":["b", {"id":"c"}, 7, {"name":"x"}, null, " d "]},
		{"id":"b","label":"B","children":["a"]}
	]`
	if err := json.Unmarshal([]byte(data), &nodes); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(nodes[0].Connections, []string{"b", "c", "d"}) {
		t.Errorf("Unexpected connections %v", nodes[0].Connections)
	}
	if nodes[1].Title != "B" || !reflect.DeepEqual(nodes[1].Connections, []string{"a"}) {
		t.Errorf("Expected label and children fallbacks, got %+v", nodes[1])
	}
}

func TestDepth(t *testing.T) {
	c := seed(
		&Node{ID: "root", Connections: []string{"child"}},
		&Node{ID: "child", Connections: []string{"grandchild"}},
		&Node{ID: "grandchild"},
		&Node{ID: "loop-a", Connections: []string{"loop-b"}},
		&Node{ID: "loop-b", Connections: []string{"loop-a"}},
	)

	tests := map[string]int{
		"root":       0,
		"child":      1,
		"grandchild": 2,
		"missing":    0,
		"loop-a":     2,
	}
	for id, expected := range tests {
		if got := c.Depth(id); got != expected {
			t.Errorf("Depth(%q) = %d, expected %d", id, got, expected)
		}
	}
}

func TestFindCycle(t *testing.T) {
	acyclic := seed(
		&Node{ID: "a", Connections: []string{"b", "c"}},
		&Node{ID: "b", Connections: []string{"c"}},
		&Node{ID: "c"},
	)
	if cycle := acyclic.FindCycle(); cycle != nil {
		t.Errorf("Expected no cycle, got %v", cycle)
	}

	self := seed(&Node{ID: "a", Connections: []string{"a"}})
	if cycle := self.FindCycle(); !reflect.DeepEqual(cycle, []string{"a"}) {
		t.Errorf("Expected self link cycle, got %v", cycle)
	}

	loop := seed(
		&Node{ID: "x", Connections: []string{"y"}},
		&Node{ID: "y", Connections: []string{"z"}},
		&Node{ID: "z", Connections: []string{"y"}},
	)
	if cycle := loop.FindCycle(); !reflect.DeepEqual(cycle, []string{"y", "z"}) {
		t.Errorf("Expected [y z], got %v", cycle)
	}
}
