// Package sections splits a Markdown body into heading-delimited segments
// for excerpt and expand-on-click rendering.
package sections

import (
	"regexp"
	"strings"
)

var headingRe = regexp.MustCompile(`^#{1,3}\s`)

// Splitter carries the configured excerpt bounds.
type Splitter struct {
	MaxLines int // max non-heading content lines in an excerpt
	MaxChars int // max excerpt length in characters
}

// NewSplitter creates a Splitter with the given bounds.
func NewSplitter(maxLines, maxChars int) Splitter {
	return Splitter{MaxLines: maxLines, MaxChars: maxChars}
}

// firstSegment returns the segment from the first level 1-3 heading up to
// (not including) the next one, and whether a heading was found at all.
func firstSegment(content string) (string, bool) {
	starts := headingOffsets(content)
	if len(starts) == 0 {
		return content, false
	}
	end := len(content)
	if len(starts) > 1 {
		end = starts[1]
	}
	return content[starts[0]:end], true
}

// headingOffsets returns the byte offset of every line that begins a
// level 1-3 heading.
func headingOffsets(content string) []int {
	var out []int
	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		if headingRe.MatchString(line) {
			out = append(out, offset)
		}
		offset += len(line)
	}
	return out
}

// First returns the first heading-led segment truncated to the configured
// bounds, cutting only on line boundaries. When the document has no heading
// the whole content is returned, truncated by the character bound with an
// ellipsis suffix if it exceeded the bound.
func (s Splitter) First(content string) string {
	seg, found := firstSegment(content)
	if !found {
		return s.truncateWholeDocument(seg)
	}

	lines := strings.Split(seg, "\n")
	var kept []string
	contentLines := 0
	total := 0
	for _, line := range lines {
		if len(kept) > 0 && total+len(line) > s.MaxChars {
			break
		}
		if !headingRe.MatchString(line) && strings.TrimSpace(line) != "" {
			contentLines++
			if contentLines > s.MaxLines {
				break
			}
		}
		kept = append(kept, line)
		total += len(line) + 1
	}
	return strings.Join(kept, "\n")
}

// truncateWholeDocument cuts at the last line boundary within MaxChars and
// marks the cut with an ellipsis.
func (s Splitter) truncateWholeDocument(content string) string {
	if len(content) <= s.MaxChars {
		return content
	}
	cut := content[:s.MaxChars]
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// CompleteFirst returns the untruncated first heading-led segment. Without
// a heading the whole content is returned.
func CompleteFirst(content string) string {
	seg, _ := firstSegment(content)
	return seg
}

// Remaining returns everything after the first heading-led segment,
// verbatim. It is empty when there is at most one section.
func Remaining(content string) string {
	starts := headingOffsets(content)
	if len(starts) < 2 {
		return ""
	}
	return content[starts[1]:]
}
