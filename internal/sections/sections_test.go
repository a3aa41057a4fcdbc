package sections

import (
	"strings"
	"testing"
)

const doc = "preamble before any heading\n" +
	"# Day 9\n" +
	"Shipped the inventory UI.\n" +
	"Fixed two crash bugs.\n" +
	"\n" +
	"## Details\n" +
	"Lots of words here.\n" +
	"### Sub\n" +
	"Even more words.\n"

func TestRoundTrip(t *testing.T) {
	first := CompleteFirst(doc)
	rest := Remaining(doc)
	wantFrom := strings.Index(doc, "# Day 9")
	if first+rest != doc[wantFrom:] {
		t.Errorf("CompleteFirst + Remaining != doc from first heading:\n%q", first+rest)
	}
}

func TestCompleteFirst_KeepsHeading(t *testing.T) {
	first := CompleteFirst(doc)
	if !strings.HasPrefix(first, "# Day 9\n") {
		t.Errorf("first segment lost its heading: %q", first)
	}
	if strings.Contains(first, "## Details") {
		t.Errorf("first segment leaked into next section: %q", first)
	}
}

func TestRemaining_Empty(t *testing.T) {
	if got := Remaining("# Only one section\ntext\n"); got != "" {
		t.Errorf("remaining = %q, want empty", got)
	}
	if got := Remaining("no headings at all\n"); got != "" {
		t.Errorf("remaining = %q, want empty", got)
	}
}

func TestFirst_LineBound(t *testing.T) {
	s := NewSplitter(1, 10_000)
	got := s.First(doc)
	if !strings.Contains(got, "Shipped the inventory UI.") {
		t.Errorf("first content line missing: %q", got)
	}
	if strings.Contains(got, "Fixed two crash bugs.") {
		t.Errorf("line bound not enforced: %q", got)
	}
	if strings.Contains(got, "...") {
		t.Errorf("heading-led excerpt must not carry an ellipsis: %q", got)
	}
}

func TestFirst_CharBoundOnLineBoundary(t *testing.T) {
	s := NewSplitter(100, 20)
	got := s.First(doc)
	// The heading fits; the first content line would push past 20 chars and
	// must be dropped whole, never cut mid-line.
	if got != "# Day 9" {
		t.Errorf("got %q, want just the heading line", got)
	}
}

func TestFirst_IsPrefixOfCompleteFirst(t *testing.T) {
	s := NewSplitter(2, 10_000)
	first := s.First(doc)
	if !strings.HasPrefix(CompleteFirst(doc), first) {
		t.Errorf("First is not a prefix of CompleteFirst:\n%q", first)
	}
}

func TestFirst_NoHeadingUsesCharBoundWithEllipsis(t *testing.T) {
	content := "line one is fairly long\nline two is fairly long\nline three\n"
	s := NewSplitter(100, 30)
	got := s.First(content)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if !strings.HasPrefix(got, "line one is fairly long") {
		t.Errorf("got %q", got)
	}
	if strings.Contains(got, "line three") {
		t.Errorf("char bound not enforced: %q", got)
	}

	short := "tiny\n"
	if got := s.First(short); got != short {
		t.Errorf("short no-heading doc should come back whole, got %q", got)
	}
}
