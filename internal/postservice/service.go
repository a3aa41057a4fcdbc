// Package postservice composes storage, index, corpus, and the query
// engine into the post-facing operations of the API layer.
package postservice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/cache"
	"github.com/starford/dagaz/internal/corpus"
	"github.com/starford/dagaz/internal/dataview"
	"github.com/starford/dagaz/internal/docmeta"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/sections"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/tasks"
)

// Asset is one classified media link.
type Asset struct {
	URL  string            `json:"url"`
	Type docmeta.MediaType `json:"type"`
}

// BlockResult is one resolved dataview block. Start and End are offsets
// into the returned Content, so the renderer can splice query output over
// that region. Query is nil when the block did not parse; such a block is
// inert and the raw region should render as-is.
type BlockResult struct {
	Start   int             `json:"startIndex"`
	End     int             `json:"endIndex"`
	Query   *dataview.Query `json:"query,omitempty"`
	Tasks   []tasks.Task    `json:"tasks,omitempty"`
	Columns []string        `json:"columns,omitempty"`
	Rows    []TableRow      `json:"rows,omitempty"`
}

// TableRow is one evaluated TABLE row.
type TableRow struct {
	Path  string   `json:"path"`
	Name  string   `json:"name"`
	Cells []string `json:"cells"`
}

// PostDetail is the full representation of a post.
type PostDetail struct {
	Path      string        `json:"path"`
	Title     string        `json:"title"`
	Date      string        `json:"date"`
	Day       int           `json:"day"`
	Tags      []string      `json:"tags"`
	Assets    []Asset       `json:"assets"`
	Excerpt   string        `json:"excerpt"`
	Content   string        `json:"content"`
	Remaining string        `json:"remaining"`
	Checksum  string        `json:"checksum"`
	Tasks     []tasks.Task  `json:"tasks"`
	Blocks    []BlockResult `json:"blocks"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PostListItem is a lightweight item in a list response.
type PostListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Day       int       `json:"day"`
	Tags      []string  `json:"tags"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueryResult is the outcome of running one dataview query directly.
type QueryResult struct {
	Type    dataview.QueryType `json:"type"`
	Tasks   []tasks.Task       `json:"tasks,omitempty"`
	Columns []string           `json:"columns,omitempty"`
	Rows    []TableRow         `json:"rows,omitempty"`
}

// Service coordinates vault, index, corpus, and engine operations.
type Service struct {
	store  storage.Provider
	db     index.DocumentIndex
	corpus *corpus.Aggregator
	meta   *docmeta.Extractor
	split  sections.Splitter
	cache  *cache.Cache // optional
}

// NewService creates a post service. payloadCache may be nil to disable
// caching.
func NewService(store storage.Provider, db index.DocumentIndex, agg *corpus.Aggregator, meta *docmeta.Extractor, split sections.Splitter, payloadCache *cache.Cache) *Service {
	return &Service{
		store:  store,
		db:     db,
		corpus: agg,
		meta:   meta,
		split:  split,
		cache:  payloadCache,
	}
}

// GetPost reads a post from storage and resolves its metadata, excerpt,
// tasks, and embedded dataview blocks.
func (s *Service) GetPost(_ context.Context, path string) (*PostDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	cs := sum(data)
	cacheKey := path + ":" + cs
	if s.cache != nil {
		if payload, ok := s.cache.Get(cacheKey); ok {
			var detail PostDetail
			if err := json.Unmarshal(payload, &detail); err == nil {
				return &detail, nil
			}
		}
	}

	detail := s.buildPostDetail(path, string(data), cs)
	if s.cache != nil {
		if payload, err := json.Marshal(detail); err == nil {
			s.cache.Set(cacheKey, payload)
		}
	}
	return detail, nil
}

// buildPostDetail derives everything the frontend needs from raw content.
// Dataview blocks are extracted from the metadata-stripped content so
// their offsets line up with the Content field the renderer receives.
func (s *Service) buildPostDetail(path, raw, cs string) *PostDetail {
	content := s.meta.RemoveMetadata(raw)

	var assets []Asset
	for _, u := range s.meta.ExtractAssets(raw) {
		assets = append(assets, Asset{URL: u, Type: s.meta.MediaTypeOf(u)})
	}

	snap := s.corpus.Snapshot()
	var blocks []BlockResult
	for _, b := range dataview.ExtractBlocks(content) {
		blocks = append(blocks, s.resolveBlock(b, snap))
	}

	return &PostDetail{
		Path:      path,
		Title:     docmeta.Title(raw, path),
		Date:      s.meta.ExtractDate(raw),
		Day:       s.meta.ExtractDayNumber(raw, path),
		Tags:      nonNilSlice(tasks.ExtractTags(raw)),
		Assets:    nonNilSlice(assets),
		Excerpt:   s.split.First(content),
		Content:   content,
		Remaining: sections.Remaining(content),
		Checksum:  cs,
		Tasks:     nonNilSlice(tasks.ExtractTasks(raw, path)),
		Blocks:    nonNilSlice(blocks),
		UpdatedAt: time.Now(),
	}
}

// resolveBlock parses and evaluates one fenced query region. An
// unparsable block keeps its offsets but carries no result.
func (s *Service) resolveBlock(b dataview.Block, snap *corpus.Snapshot) BlockResult {
	out := BlockResult{Start: b.Start, End: b.End}
	q := dataview.ParseQuery(b.Query)
	if q == nil {
		return out
	}
	out.Query = q
	if q.Type == dataview.QueryTable {
		out.Columns, out.Rows = evaluateTable(q, snap.Tasks)
		return out
	}
	out.Tasks = dataview.RunTaskQuery(q, snap.Tasks)
	return out
}

// evaluateTable runs a TABLE query and evaluates each projection per
// document. Column headers prefer the alias, falling back to the
// expression source.
func evaluateTable(q *dataview.Query, corpusTasks []tasks.Task) ([]string, []TableRow) {
	columns := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		if f.Alias != "" {
			columns = append(columns, f.Alias)
		} else {
			columns = append(columns, f.Expression)
		}
	}

	docs := dataview.RunTableQuery(q, corpusTasks)
	rows := make([]TableRow, 0, len(docs))
	for _, d := range docs {
		row := TableRow{Path: d.Path, Name: d.Name, Cells: make([]string, 0, len(q.Fields))}
		for _, f := range q.Fields {
			row.Cells = append(row.Cells, dataview.EvaluateField(f, d))
		}
		rows = append(rows, row)
	}
	return columns, rows
}

// RunQuery parses and runs one dataview query text against the current
// corpus snapshot.
func (s *Service) RunQuery(_ context.Context, queryText string) (*QueryResult, error) {
	q := dataview.ParseQuery(queryText)
	if q == nil {
		return nil, apperr.ErrInvalidQuery
	}
	snap := s.corpus.Snapshot()
	res := &QueryResult{Type: q.Type}
	if q.Type == dataview.QueryTable {
		res.Columns, res.Rows = evaluateTable(q, snap.Tasks)
		return res, nil
	}
	res.Tasks = nonNilSlice(dataview.RunTaskQuery(q, snap.Tasks))
	return res, nil
}

// Tasks returns the current corpus, optionally filtered by tag and
// completion state.
func (s *Service) Tasks(_ context.Context, tag string, completed *bool) []tasks.Task {
	snap := s.corpus.Snapshot()
	out := make([]tasks.Task, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if tag != "" && !hasTag(t.Tags, tag) {
			continue
		}
		if completed != nil && t.Completed != *completed {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ListPosts returns paginated posts with optional tag filter.
func (s *Service) ListPosts(_ context.Context, limit, offset int, tag, sort string) ([]PostListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PostListItem, len(rows))
	for i, r := range rows {
		items[i] = PostListItem{
			Path:      r.Path,
			Title:     r.Title,
			Date:      r.Date,
			Day:       r.Day,
			Tags:      nonNilSlice(r.Tags),
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Tree returns the vault document tree for docs navigation.
func (s *Service) Tree(_ context.Context) (*storage.TreeNode, error) {
	return s.store.Tree("")
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
