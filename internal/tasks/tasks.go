// Package tasks extracts checklist items from Markdown devlog content.
package tasks

import (
	"path"
	"regexp"
	"strings"
)

var (
	checklistRe = regexp.MustCompile(`^\s*-?\s*\[([xX ])\]\s*(.*)$`)
	tagRe       = regexp.MustCompile(`#[\w-]+`)
	priorityRe  = regexp.MustCompile(`(?i)\b(high|medium|low)\b`)
)

// Task is one checklist line discovered in a document.
type Task struct {
	Text      string   `json:"text"`
	Completed bool     `json:"completed"`
	Priority  string   `json:"priority,omitempty"`
	File      string   `json:"file"`
	FilePath  string   `json:"filePath"`
	Tags      []string `json:"tags"`
	Line      int      `json:"line"`
}

// ExtractTags returns the deduplicated, lower-cased #tag tokens found
// anywhere in content, in first-occurrence order.
func ExtractTags(content string) []string {
	matches := tagRe.FindAllString(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		t := strings.ToLower(m)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ExtractTasks scans every line of content for checklist syntax and returns
// the tasks in source order. The document-wide tag set is computed once and
// shared by every task; lines that do not match checklist syntax are
// skipped. Line numbers are 1-based.
func ExtractTasks(content, filePath string) []Task {
	tags := ExtractTags(content)
	file := path.Base(filePath)

	var out []Task
	for i, line := range strings.Split(content, "\n") {
		m := checklistRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		out = append(out, Task{
			Text:      text,
			Completed: m[1] == "x" || m[1] == "X",
			Priority:  detectPriority(text),
			File:      file,
			FilePath:  filePath,
			Tags:      tags,
			Line:      i + 1,
		})
	}
	return out
}

// detectPriority returns the first standalone high/medium/low word in text,
// lower-cased, or empty if none. Word boundaries prevent false positives
// like "highlander".
func detectPriority(text string) string {
	m := priorityRe.FindString(text)
	return strings.ToLower(m)
}
