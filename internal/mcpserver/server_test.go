package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/corpus"
	"github.com/starford/dagaz/internal/docmeta"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/postservice"
	"github.com/starford/dagaz/internal/sections"
	"github.com/starford/dagaz/internal/storage"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("day-1.md", []byte("# Day 1\n\nKickoff. #devlog\n\n- [ ] Sketch hero #art\n"))
	_ = store.Write("day-2.md", []byte("# Day 2\n\nTiles. #devlog\n\n- [x] Export tileset\n"))

	dbFile, err := os.CreateTemp("", "dagaz-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	ext := docmeta.NewExtractor(
		[]string{"png", "jpg", "jpeg", "gif", "webp"},
		[]string{"mp4", "webm", "mov"},
	)
	if err := index.Sync(db, store, ext, slog.Default()); err != nil {
		t.Fatal(err)
	}

	agg := corpus.NewAggregator(store, slog.Default())
	if err := agg.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	svc := postservice.NewService(store, db, agg, ext, sections.NewSplitter(5, 400), nil)
	return New(store, svc), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "query_tasks":
		result, err = srv.queryTasks(ctx, req)
	case "get_query_syntax":
		result, err = srv.getQuerySyntax(ctx, req)
	case "get_tree":
		result, err = srv.getTree(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadPost(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_post", map[string]any{"path": "day-1.md"})
	if !strings.Contains(resultText(r), "# Day 1") {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestReadPostMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_post", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
}

func TestListPosts(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_posts", map[string]any{})
	text := resultText(r)
	if !strings.Contains(text, "day-1.md") || !strings.Contains(text, "day-2.md") {
		t.Errorf("list = %q", text)
	}
}

func TestQueryTasks(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "query_tasks", map[string]any{"query": "TASK\nWHERE !completed"})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("query failed: %q", text)
	}
	if !strings.Contains(text, "Sketch hero") || strings.Contains(text, "Export tileset") {
		t.Errorf("query result = %q", text)
	}
}

func TestQueryTasks_InvalidQuery(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "query_tasks", map[string]any{"query": "SELECT 1"})
	if !r.IsError {
		t.Error("expected error for unsupported query")
	}
	if !strings.Contains(resultText(r), "get_query_syntax") {
		t.Errorf("error should point at the syntax tool: %q", resultText(r))
	}
}

func TestGetQuerySyntax(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_query_syntax", map[string]any{})
	if !strings.Contains(resultText(r), "TASK | TABLE | LIST") {
		t.Errorf("syntax text = %q", resultText(r))
	}
}

func TestGetTree(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_tree", map[string]any{})
	if !strings.Contains(resultText(r), "day-1.md") {
		t.Errorf("tree = %q", resultText(r))
	}
}
