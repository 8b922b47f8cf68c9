package services

import (
	"fmt"
	"strings"
)

const chatSystemPrompt = `You are SHUNYA AI, a patient study companion. Explain concepts clearly, check understanding with short follow-up questions and keep answers focused on what the student asked.

When a visual overview would help, finish your answer with a fenced json block shaped like:
` + "```json" + `
{"nodes": [{"id": "string", "type": "concept", "title": "string", "content": "string", "connections": ["id"]}]}
` + "```" + `
Only include the block when it adds value, and never put anything after it.`

const visionSystemPrompt = "You are SHUNYA AI. Describe and explain the provided image for a student, focusing on what the question asks."

func buildQuizPrompt(content string, numQuestions int, difficulty string) string {
	var b strings.Builder

	b.WriteString("You are an expert educational assessor. Generate multiple choice quiz questions based on the following content.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d questions.\n", numQuestions))
	b.WriteString(fmt.Sprintf("Difficulty: %s\n", difficulty))

	switch difficulty {
	case "easy":
		b.WriteString("Easy = direct recall from text.\n")
	case "medium":
		b.WriteString("Medium = application of concepts.\n")
	case "hard":
		b.WriteString("Hard = analysis, synthesis, or inference beyond what is explicitly stated.\n")
	}

	b.WriteString(`
JSON schema per question:
{"question": "string", "options": ["string", "string", "string", "string"], "correctAnswer": 0, "explanation": "string"}

Exactly 4 options per question. correctAnswer is the zero-based index of the right option (0-3).
`)

	b.WriteString("\n---CONTENT---\n")
	b.WriteString(content)
	b.WriteString("\n---END---\n")

	return b.String()
}

func buildMindMapPrompt(content string) string {
	var b strings.Builder

	b.WriteString("You are an expert at structuring knowledge. Build a mind map of the key ideas in the content below.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(`JSON schema per node:
{"id": "string", "title": "string", "type": "root"|"concept"|"detail", "children": ["id"]}

Rules:
- Exactly one node has type "root"
- children reference ids of other nodes in the array
- Between 5 and 15 nodes, titles under 8 words
`)

	b.WriteString("\n---CONTENT---\n")
	b.WriteString(content)
	b.WriteString("\n---END---\n")

	return b.String()
}

func buildVisualizePrompt(message string) string {
	var b strings.Builder

	b.WriteString("You are a visual explainer. Turn the student's question into a step by step flow, a short explanation and a concept map.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(`JSON schema:
{
  "Flow_Insight": {"title": "string", "steps": [{"title": "string", "detail": "string"}]},
  "Explanation": "string",
  "Concept_Map": {"type": "tree", "nodes": [{"id": "string", "label": "string", "parent": "id"|null, "description": "string"}], "edges": [{"from": "id", "to": "id"}]}
}

Rules:
- Between 3 and 8 steps
- Explanation is two to four sentences
- The concept map root has parent null
`)

	b.WriteString("\n---QUESTION---\n")
	b.WriteString(message)
	b.WriteString("\n---END---\n")

	return b.String()
}
