package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"shunya-backend/internal/models"
)

const (
	maxDiagramSteps     = 8
	defaultDiagramTitle = "Concept Flow"
	defaultGraphType    = "tree"
)

var (
	diagramKeys     = []string{"Flow_Insight", "Flow", "flow", "diagram"}
	explanationKeys = []string{"Explanation", "explanation", "Insight", "insight"}
	graphKeys       = []string{"Concept_Map", "concept_map", "graph", "Graph"}
)

// NormalizeVisualization turns a loosely shaped model completion into a
// VisualizationPayload. It fails when no step or no explanation survives.
func NormalizeVisualization(text string) (*models.VisualizationPayload, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &ParseError{Reason: "expected a JSON object", Raw: text}
	}

	diagram := normalizeDiagram(firstValue(obj, diagramKeys))
	if len(diagram.Steps) < 1 {
		return nil, &ParseError{Reason: "visualization has no steps", Raw: text}
	}

	explanation := trimmedString(firstValue(obj, explanationKeys))
	if explanation == "" {
		return nil, &ParseError{Reason: "visualization has no explanation", Raw: text}
	}

	return &models.VisualizationPayload{
		Diagram:     diagram,
		Explanation: explanation,
		Graph:       normalizeGraph(firstValue(obj, graphKeys)),
	}, nil
}

func firstValue(obj map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func trimmedString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func normalizeDiagram(v interface{}) models.Diagram {
	diagram := models.Diagram{Title: defaultDiagramTitle, Steps: []models.DiagramStep{}}

	var rawSteps []interface{}
	switch d := v.(type) {
	case map[string]interface{}:
		if title := trimmedString(d["title"]); title != "" {
			diagram.Title = title
		}
		rawSteps, _ = d["steps"].([]interface{})
	case []interface{}:
		rawSteps = d
	}

	for _, rs := range rawSteps {
		if len(diagram.Steps) == maxDiagramSteps {
			break
		}

		var step models.DiagramStep
		switch s := rs.(type) {
		case string:
			step.Title = strings.TrimSpace(s)
		case map[string]interface{}:
			step.Title = trimmedString(s["title"])
			step.Detail = trimmedString(s["detail"])
		default:
			continue
		}

		if step.Title == "" && step.Detail == "" {
			continue
		}
		if step.Title == "" {
			step.Title = fmt.Sprintf("Step %d", len(diagram.Steps)+1)
		}
		diagram.Steps = append(diagram.Steps, step)
	}

	return diagram
}

func normalizeGraph(v interface{}) *models.Graph {
	g, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	rawNodes, _ := g["nodes"].([]interface{})
	nodes := make([]models.GraphNode, 0, len(rawNodes))
	parents := make([]string, 0, len(rawNodes))
	kept := make(map[string]bool, len(rawNodes))

	for _, rn := range rawNodes {
		n, ok := rn.(map[string]interface{})
		if !ok {
			continue
		}
		id := trimmedString(n["id"])
		label := trimmedString(n["label"])
		if id == "" || label == "" || kept[id] {
			continue
		}
		kept[id] = true
		nodes = append(nodes, models.GraphNode{
			ID:          id,
			Label:       label,
			Description: trimmedString(n["description"]),
		})
		parents = append(parents, trimmedString(n["parent"]))
	}

	if len(nodes) == 0 {
		return nil
	}

	// Parents are resolved after every node is known so forward references work.
	for i := range nodes {
		p := parents[i]
		if p != "" && p != nodes[i].ID && kept[p] {
			nodes[i].Parent = &p
		}
	}

	edges := []models.GraphEdge{}
	rawEdges, _ := g["edges"].([]interface{})
	for _, re := range rawEdges {
		e, ok := re.(map[string]interface{})
		if !ok {
			continue
		}
		from := trimmedString(e["from"])
		to := trimmedString(e["to"])
		if kept[from] && kept[to] {
			edges = append(edges, models.GraphEdge{From: from, To: to})
		}
	}

	graphType := trimmedString(g["type"])
	if graphType == "" {
		graphType = defaultGraphType
	}

	return &models.Graph{Type: graphType, Nodes: nodes, Edges: edges}
}
