// Package dataview implements a small subset of the Obsidian Dataview
// query language: TASK/TABLE/LIST queries with FROM, WHERE, SORT, and
// LIMIT clauses, parsed out of fenced code blocks and evaluated against
// the task corpus.
//
// The WHERE/SORT/field evaluators recognize a fixed vocabulary of clause
// shapes by pattern matching. They are intentionally not a general
// expression language; clauses outside the vocabulary degrade to no-ops.
package dataview

import (
	"regexp"
	"strconv"
	"strings"
)

// QueryType selects the result shape of a query.
type QueryType string

// Supported query types.
const (
	QueryTask  QueryType = "TASK"
	QueryTable QueryType = "TABLE"
	QueryList  QueryType = "LIST"
)

// Field is one TABLE column projection.
type Field struct {
	Expression string `json:"expression"`
	Alias      string `json:"alias,omitempty"`
}

// Query is one parsed dataview block.
type Query struct {
	Type   QueryType `json:"type"`
	From   []string  `json:"from,omitempty"`
	Where  string    `json:"where,omitempty"`
	Sort   string    `json:"sort,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Fields []Field   `json:"fields,omitempty"`
	Raw    string    `json:"-"`
}

// Block is one fenced dataview region found in a document. Start and End
// are the offsets of the whole block including both fences, so the
// renderer can splice query output over [Start, End).
type Block struct {
	Query string `json:"query"`
	Start int    `json:"startIndex"`
	End   int    `json:"endIndex"`
}

const (
	openFence  = "```dataview"
	closeFence = "```"
)

var fieldAliasRe = regexp.MustCompile(`(?i)^(.+?)\s+as\s+"([^"]*)"$`)

// ExtractBlocks finds every non-overlapping ```dataview fenced region in
// content, scanning left to right. The opening fence must occupy a whole
// line; ```dataviewjs and other suffixed fence types are different blocks
// and are left alone.
func ExtractBlocks(content string) []Block {
	var out []Block
	pos := 0
	for {
		rel := strings.Index(content[pos:], openFence)
		if rel < 0 {
			return out
		}
		start := pos + rel
		bodyStart := start + len(openFence)
		atLineStart := start == 0 || content[start-1] == '\n'
		atLineEnd := bodyStart == len(content) || content[bodyStart] == '\n'
		if !atLineStart || !atLineEnd {
			pos = bodyStart
			continue
		}
		closing := strings.Index(content[bodyStart:], closeFence)
		if closing < 0 {
			return out
		}
		end := bodyStart + closing + len(closeFence)
		out = append(out, Block{
			Query: strings.TrimSpace(content[bodyStart : bodyStart+closing]),
			Start: start,
			End:   end,
		})
		pos = end
	}
}

// ParseQuery parses one dataview query text. It returns nil when the first
// non-blank line is not TASK, TABLE, or LIST; the caller treats such a
// block as inert. Unrecognized lines inside an otherwise valid query are
// ignored for forward compatibility.
func ParseQuery(text string) *Query {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	q := &Query{Raw: text}
	switch strings.ToUpper(lines[0]) {
	case string(QueryTask):
		q.Type = QueryTask
	case string(QueryTable):
		q.Type = QueryTable
	case string(QueryList):
		q.Type = QueryList
	default:
		return nil
	}
	rest := lines[1:]

	// TABLE field projections run until the FROM clause.
	if q.Type == QueryTable {
		for len(rest) > 0 && !hasKeyword(rest[0], "FROM") && !hasKeyword(rest[0], "WHERE") &&
			!hasKeyword(rest[0], "SORT") && !hasKeyword(rest[0], "LIMIT") {
			q.Fields = append(q.Fields, parseField(rest[0]))
			rest = rest[1:]
		}
	}

	for _, line := range rest {
		switch {
		case hasKeyword(line, "FROM"):
			for _, src := range strings.Split(clauseBody(line, "FROM"), " OR ") {
				if src = strings.TrimSpace(src); src != "" {
					q.From = append(q.From, src)
				}
			}
		case hasKeyword(line, "WHERE"):
			q.Where = clauseBody(line, "WHERE")
		case hasKeyword(line, "SORT"):
			q.Sort = clauseBody(line, "SORT")
		case hasKeyword(line, "LIMIT"):
			if n, err := strconv.Atoi(clauseBody(line, "LIMIT")); err == nil && n > 0 {
				q.Limit = n
			}
		}
		// Anything else is silently ignored.
	}
	return q
}

// hasKeyword reports whether line starts with the clause keyword as a
// whole word, case-insensitively.
func hasKeyword(line, kw string) bool {
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, kw) {
		return false
	}
	return len(line) == len(kw) || line[len(kw)] == ' ' || line[len(kw)] == '\t'
}

// clauseBody strips the keyword prefix and surrounding whitespace.
func clauseBody(line, kw string) string {
	return strings.TrimSpace(line[len(kw):])
}

// parseField parses `<expression> as "<alias>"` or a bare expression.
// A trailing comma separating columns is stripped either way.
func parseField(line string) Field {
	line = strings.TrimSuffix(strings.TrimSpace(line), ",")
	if m := fieldAliasRe.FindStringSubmatch(line); m != nil {
		return Field{Expression: strings.TrimSpace(m[1]), Alias: m[2]}
	}
	return Field{Expression: line}
}
