package dataview

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/dagaz/internal/tasks"
)

// DocumentTasks groups a document's tasks for TABLE queries. Tags and
// Priority come from the document's first extracted task; documents
// without any checklist item never appear.
type DocumentTasks struct {
	Path     string       `json:"path"`
	Name     string       `json:"name"`
	Tags     []string     `json:"tags"`
	Priority string       `json:"priority,omitempty"`
	Tasks    []tasks.Task `json:"tasks"`
}

var (
	containsTextRe = regexp.MustCompile(`contains\(\s*text\s*,\s*"([^"]*)"\s*\)`)
	containsFileRe = regexp.MustCompile(`(!?)contains\(\s*file\.name\s*,\s*"([^"]*)"\s*\)`)
	nonEmptyTextRe = regexp.MustCompile(`text\s*!=\s*"\s?"`)
)

// RunTaskQuery filters, sorts, and limits corpus tasks for TASK and LIST
// queries.
func RunTaskQuery(q *Query, corpus []tasks.Task) []tasks.Task {
	out := make([]tasks.Task, 0, len(corpus))
	for _, t := range corpus {
		if matchesSource(q.From, t.Tags) && matchesWhere(q.Where, t) {
			out = append(out, t)
		}
	}
	sortTasks(q.Sort, out)
	return applyLimit(q.Limit, out)
}

// RunTableQuery groups corpus tasks per document, filters documents by
// source tags and file-name predicates, and limits the result.
func RunTableQuery(q *Query, corpus []tasks.Task) []DocumentTasks {
	byPath := make(map[string]int)
	var docs []DocumentTasks
	for _, t := range corpus {
		i, ok := byPath[t.FilePath]
		if !ok {
			i = len(docs)
			byPath[t.FilePath] = i
			docs = append(docs, DocumentTasks{
				Path:     t.FilePath,
				Name:     t.File,
				Tags:     t.Tags,
				Priority: t.Priority,
			})
		}
		docs[i].Tasks = append(docs[i].Tasks, t)
	}

	out := make([]DocumentTasks, 0, len(docs))
	for _, d := range docs {
		if matchesSource(q.From, d.Tags) && matchesFileWhere(q.Where, d.Name) {
			out = append(out, d)
		}
	}
	return applyLimit(q.Limit, out)
}

// EvaluateField computes one TABLE cell. It recognizes three expression
// shapes; anything else renders as its own source text.
func EvaluateField(f Field, doc DocumentTasks) string {
	expr := strings.TrimSpace(f.Expression)
	switch {
	case expr == "priority":
		if doc.Priority == "" {
			return "none"
		}
		return doc.Priority

	// Checked before the ratio shape: percentage expressions also contain
	// the length(filter(file.tasks fragment.
	case strings.Contains(expr, "round") && strings.Contains(expr, "100"):
		if len(doc.Tasks) == 0 {
			return "0%"
		}
		pct := math.Round(float64(completedCount(doc.Tasks)) / float64(len(doc.Tasks)) * 100)
		return fmt.Sprintf("%d%%", int(pct))

	case strings.Contains(expr, "length(filter(file.tasks"):
		return fmt.Sprintf("%d / %d", completedCount(doc.Tasks), len(doc.Tasks))
	}
	return expr
}

func completedCount(ts []tasks.Task) int {
	n := 0
	for _, t := range ts {
		if t.Completed {
			n++
		}
	}
	return n
}

// matchesSource implements FROM's OR semantics: an empty source list
// matches everything, otherwise at least one tag must equal an entry
// case-insensitively.
func matchesSource(from, tags []string) bool {
	if len(from) == 0 {
		return true
	}
	for _, want := range from {
		for _, tag := range tags {
			if strings.EqualFold(tag, want) {
				return true
			}
		}
	}
	return false
}

// matchesWhere applies every recognized task predicate in the clause.
// Predicates AND together; unrecognized vocabulary is ignored.
func matchesWhere(where string, t tasks.Task) bool {
	if where == "" {
		return true
	}
	notCompleted := strings.Contains(where, "!completed")
	if notCompleted && t.Completed {
		return false
	}
	if !notCompleted && strings.Contains(where, "completed") && !t.Completed {
		return false
	}
	if m := containsTextRe.FindStringSubmatch(where); m != nil {
		if !strings.Contains(strings.ToLower(t.Text), strings.ToLower(m[1])) {
			return false
		}
	}
	if nonEmptyTextRe.MatchString(where) && strings.TrimSpace(t.Text) == "" {
		return false
	}
	return true
}

// matchesFileWhere applies the document-level contains(file.name, ...)
// predicates of a TABLE query's WHERE clause.
func matchesFileWhere(where, name string) bool {
	if where == "" {
		return true
	}
	for _, m := range containsFileRe.FindAllStringSubmatch(where, -1) {
		negated := m[1] == "!"
		found := strings.Contains(strings.ToLower(name), strings.ToLower(m[2]))
		if found == negated {
			return false
		}
	}
	return true
}

// sortTasks orders tasks in place according to the recognized SORT
// vocabulary; unrecognized sort text leaves order unchanged.
func sortTasks(clause string, ts []tasks.Task) {
	lower := strings.ToLower(clause)
	desc := strings.Contains(strings.ToUpper(clause), "DESC")
	switch {
	case strings.Contains(lower, "status"):
		sort.SliceStable(ts, func(i, j int) bool {
			if desc {
				return ts[i].Completed && !ts[j].Completed
			}
			return !ts[i].Completed && ts[j].Completed
		})
	case strings.Contains(lower, "completion"):
		// Completed-first, always; DESC is ignored for completion.
		sort.SliceStable(ts, func(i, j int) bool {
			return ts[i].Completed && !ts[j].Completed
		})
	case strings.Contains(lower, "priority"):
		sort.SliceStable(ts, func(i, j int) bool {
			if desc {
				return priorityRank(ts[i].Priority) > priorityRank(ts[j].Priority)
			}
			return priorityRank(ts[i].Priority) < priorityRank(ts[j].Priority)
		})
	}
}

// priorityRank maps priorities so that ascending order reads high, medium,
// low, then unranked.
func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	}
	return 3
}

// applyLimit truncates to the first n results, strictly after filtering
// and sorting.
func applyLimit[T any](n int, items []T) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
