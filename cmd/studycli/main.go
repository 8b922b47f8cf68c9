package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"shunya-backend/internal/aiservice"
	"shunya-backend/internal/logger"
	"shunya-backend/internal/models"
	"shunya-backend/internal/workspace"
)

const help = `Commands:
  <text>                 chat with the assistant
  /attach <path>         add a .txt, .md, .pdf or .docx file to the canvas
  /url <youtube url>     add a video transcript to the canvas
  /mindmap <text>        generate a mind map into the canvas
  /quiz <n> <text>       generate n questions about text
  /visualize <text>      generate a step diagram
  /nodes                 list canvas nodes
  /link <from> <to>      connect two nodes
  /cycle                 report a cycle in the canvas, if any
  /model <id>            use a different text model ("" for the default)
  /health                show backend status
  /quit                  exit`

func main() {
	server := flag.String("server", envOr("SHUNYA_API", "http://localhost:8080"), "backend base URL")
	ask := flag.String("ask", "", "send one question and print the reply")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Init(level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := aiservice.New(*server, nil)

	if *ask != "" {
		fmt.Println(client.Reply(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: *ask}}))
		return
	}

	ws := workspace.New(client)
	fmt.Printf("SHUNYA AI study session (%s). /help for commands.\n", *server)
	run(ctx, ws, client, os.Stdin, os.Stdout)
}

func run(ctx context.Context, ws *workspace.Workspace, client *aiservice.Client, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg := line, ""
		if i := strings.IndexByte(line, ' '); i > 0 {
			cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
		}

		switch cmd {
		case "/quit", "/exit":
			return
		case "/help":
			fmt.Fprintln(out, help)
		case "/attach":
			attachFile(ctx, ws, arg, out)
		case "/url":
			node, err := ws.AttachURL(ctx, arg)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "added %s %q (%d chars)\n", node.ID, node.Title, len(node.Content))
		case "/mindmap":
			nodes, err := ws.MindMap(ctx, arg)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "canvas now has %d nodes\n", len(nodes))
		case "/quiz":
			quiz(ctx, ws, arg, out)
		case "/visualize":
			payload, err := ws.Visualize(ctx, arg)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "%s\n", payload.Diagram.Title)
			for i, step := range payload.Diagram.Steps {
				fmt.Fprintf(out, "  %d. %s %s\n", i+1, step.Title, step.Detail)
			}
			fmt.Fprintln(out, payload.Explanation)
		case "/nodes":
			c := ws.Canvas()
			for _, n := range c.Nodes() {
				indent := strings.Repeat("  ", c.Depth(n.ID))
				fmt.Fprintf(out, "%s%s [%s] %s -> %v\n", indent, n.ID, n.Type, n.Title, n.Connections)
			}
		case "/link":
			parts := strings.Fields(arg)
			if len(parts) != 2 {
				fmt.Fprintln(out, "usage: /link <from> <to>")
				continue
			}
			if err := ws.Canvas().Link(parts[0], parts[1]); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "/cycle":
			if cycle := ws.Canvas().FindCycle(); cycle != nil {
				fmt.Fprintf(out, "cycle: %s\n", strings.Join(cycle, " -> "))
			} else {
				fmt.Fprintln(out, "no cycles")
			}
		case "/model":
			ws.SetModel(strings.Trim(arg, `"`))
		case "/health":
			h, err := client.Health(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "ok=%v key=%v runtime=%s referer=%s\n", h.OK, h.HasOpenRouterKey, h.Runtime, h.Referer)
		default:
			reply, merged, err := ws.Send(ctx, line)
			if err != nil {
				logger.L().WithError(err).Debug("Chat turn failed")
			}
			fmt.Fprintln(out, reply)
			if merged > 0 {
				fmt.Fprintf(out, "(%d nodes placed on the canvas)\n", merged)
			}
		}
	}
}

func attachFile(ctx context.Context, ws *workspace.Workspace, path string, out io.Writer) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	node, err := ws.AttachFile(ctx, filepath.Base(path), data)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "added %s %q (%d chars)\n", node.ID, node.Title, len(node.Content))
}

func quiz(ctx context.Context, ws *workspace.Workspace, arg string, out io.Writer) {
	n, content := 0, arg
	if fields := strings.SplitN(arg, " ", 2); len(fields) == 2 {
		if parsed, err := strconv.Atoi(fields[0]); err == nil {
			n, content = parsed, fields[1]
		}
	}

	questions, err := ws.Quiz(ctx, content, n, "")
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	for i, q := range questions {
		fmt.Fprintf(out, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			marker := " "
			if j == q.CorrectAnswer {
				marker = "*"
			}
			fmt.Fprintf(out, "   %s %c) %s\n", marker, 'a'+j, opt)
		}
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
