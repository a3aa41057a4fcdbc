package postservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/cache"
	"github.com/starford/dagaz/internal/corpus"
	"github.com/starford/dagaz/internal/dataview"
	"github.com/starford/dagaz/internal/docmeta"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/sections"
	"github.com/starford/dagaz/internal/storage"
)

// The fenced query carries no FROM clause on purpose: tag extraction
// scans the whole document, so a tag referenced inside the block would
// leak into day-1's own tag set.
const day1Content = "# Day 1 Devlog\n\n" +
	"Engine bring-up and project scaffolding. #engine\n\n" +
	"```dataview\nTASK\nWHERE !completed\n```\n\n" +
	"- [x] Set up CI #engine\n"

// The Date section carries its date as a bullet and is closed off by the
// next heading, so stripping it leaves the log prose and tasks intact.
const day2Content = "# Day 2 Devlog\n\n" +
	"### Date\n- March 14, 2026\n\n" +
	"## Log\n\n" +
	"Sprite work continued. #art #pixel\n\n" +
	"- [ ] Polish idle animation #art\n" +
	"- [x] Export tileset #art\n\n" +
	"### Assets\n" +
	"![](https://cdn.example.com/tileset.png)\n" +
	"![](https://cdn.example.com/clip.mp4)\n"

func testService(t *testing.T) (*Service, storage.Provider, *index.DB) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Write("day-1.md", []byte(day1Content)); err != nil {
		t.Fatal(err)
	}
	if err := store.Write("day-2.md", []byte(day2Content)); err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "dagaz-svc-test-*.db")
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
	logger := slog.Default()
	if err := index.Sync(db, store, ext, logger); err != nil {
		t.Fatal(err)
	}

	agg := corpus.NewAggregator(store, logger)
	if err := agg.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	svc := NewService(store, db, agg, ext, sections.NewSplitter(5, 400), nil)
	return svc, store, db
}

func TestGetPost(t *testing.T) {
	svc, _, _ := testService(t)

	post, err := svc.GetPost(context.Background(), "day-2.md")
	if err != nil {
		t.Fatal(err)
	}

	if post.Title != "Day 2 Devlog" {
		t.Errorf("title = %q", post.Title)
	}
	if post.Date != "2026-03-14" {
		t.Errorf("date = %q", post.Date)
	}
	if post.Day != 2 {
		t.Errorf("day = %d", post.Day)
	}
	if len(post.Tags) == 0 || post.Tags[0] != "#art" {
		t.Errorf("tags = %v", post.Tags)
	}
	if post.Checksum == "" {
		t.Error("checksum is empty")
	}
	if len(post.Tasks) != 2 {
		t.Fatalf("tasks = %d", len(post.Tasks))
	}

	// Metadata sections are stripped from the returned content.
	if strings.Contains(post.Content, "### Date") || strings.Contains(post.Content, "### Assets") {
		t.Errorf("content still carries metadata sections:\n%s", post.Content)
	}

	wantAssets := map[string]docmeta.MediaType{
		"https://cdn.example.com/tileset.png": docmeta.MediaImage,
		"https://cdn.example.com/clip.mp4":    docmeta.MediaVideo,
	}
	if len(post.Assets) != len(wantAssets) {
		t.Fatalf("assets = %v", post.Assets)
	}
	for _, a := range post.Assets {
		if wantAssets[a.URL] != a.Type {
			t.Errorf("asset %s classified as %s", a.URL, a.Type)
		}
	}
}

func TestGetPost_ResolvesDataviewBlocks(t *testing.T) {
	svc, _, _ := testService(t)

	post, err := svc.GetPost(context.Background(), "day-1.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(post.Blocks) != 1 {
		t.Fatalf("blocks = %d", len(post.Blocks))
	}

	b := post.Blocks[0]
	if b.Query == nil || b.Query.Type != dataview.QueryTask {
		t.Fatalf("query = %+v", b.Query)
	}
	if len(b.Tasks) != 1 || b.Tasks[0].Text != "Polish idle animation #art" {
		t.Errorf("block tasks = %+v", b.Tasks)
	}
	// Offsets address the stripped content so the renderer can splice
	// results over the fenced region.
	if got := post.Content[b.Start:b.End]; !strings.Contains(got, "WHERE !completed") {
		t.Errorf("block region = %q", got)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	svc, _, _ := testService(t)

	_, err := svc.GetPost(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestGetPost_CachedPayloadMatches(t *testing.T) {
	svc, _, _ := testService(t)
	c, err := cache.New(1<<20, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	svc.cache = c

	first, err := svc.GetPost(context.Background(), "day-2.md")
	if err != nil {
		t.Fatal(err)
	}
	c.Wait()
	second, err := svc.GetPost(context.Background(), "day-2.md")
	if err != nil {
		t.Fatal(err)
	}
	if first.Checksum != second.Checksum || first.Title != second.Title {
		t.Errorf("cached payload diverged: %+v vs %+v", first, second)
	}
}

func TestRunQuery(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	res, err := svc.RunQuery(ctx, "TASK\nFROM #engine")
	if err != nil {
		t.Fatal(err)
	}
	if res.Type != dataview.QueryTask || len(res.Tasks) != 1 {
		t.Errorf("result = %+v", res)
	}

	res, err = svc.RunQuery(ctx, "TABLE\npriority as \"Priority\"\nFROM #art")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Columns) != 1 || res.Columns[0] != "Priority" {
		t.Errorf("columns = %v", res.Columns)
	}
	if len(res.Rows) != 1 || res.Rows[0].Name != "day-2.md" {
		t.Errorf("rows = %+v", res.Rows)
	}

	if _, err := svc.RunQuery(ctx, "SELECT * FROM tasks"); !errors.Is(err, apperr.ErrInvalidQuery) {
		t.Errorf("err = %v", err)
	}
}

func TestTasks_Filters(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	all := svc.Tasks(ctx, "", nil)
	if len(all) != 3 {
		t.Fatalf("all tasks = %d", len(all))
	}

	art := svc.Tasks(ctx, "#art", nil)
	if len(art) != 2 {
		t.Errorf("#art tasks = %d", len(art))
	}

	open := false
	pending := svc.Tasks(ctx, "#art", &open)
	if len(pending) != 1 || pending[0].Completed {
		t.Errorf("pending = %+v", pending)
	}
}

func TestListPosts(t *testing.T) {
	svc, _, _ := testService(t)

	items, total, err := svc.ListPosts(context.Background(), 10, 0, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("total = %d, items = %d", total, len(items))
	}

	items, _, err = svc.ListPosts(context.Background(), 10, 0, "#pixel", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Path != "day-2.md" {
		t.Errorf("tag filter items = %+v", items)
	}
}

func TestTree(t *testing.T) {
	svc, _, _ := testService(t)

	root, err := svc.Tree(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 2 {
		t.Errorf("tree children = %d", len(root.Children))
	}
}
