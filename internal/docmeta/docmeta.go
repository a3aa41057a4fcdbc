// Package docmeta extracts structured metadata (dates, day numbers, asset
// links) from devlog documents and strips those sections for display.
package docmeta

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MediaType classifies an asset URL by file extension.
type MediaType string

// Recognized media categories. GIFs are distinct from generic images
// because the frontend renders them differently.
const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaGIF     MediaType = "gif"
	MediaUnknown MediaType = "unknown"
)

var (
	dateSectionRe   = regexp.MustCompile(`(?ms)^###\s+Date\s*$(.*?)(?:^#{2,3}\s|\z)`)
	assetsSectionRe = regexp.MustCompile(`(?ms)^###\s+Assets\s*$(.*?)(?:^#{2,3}\s|\z)`)
	stripDateRe     = regexp.MustCompile(`(?ms)^###\s+Date\s*$.*?(^#{2,3}\s|\z)`)
	stripAssetsRe   = regexp.MustCompile(`(?ms)^###\s+Assets\s*$.*?(^#{2,3}\s|\z)`)
	dayNumberRe     = regexp.MustCompile(`(?i)\bDay\s+(\d+)\b`)
	urlRe           = regexp.MustCompile(`https?://[^\s)\]>"']+`)
	wikilinkRe      = regexp.MustCompile(`\[\[([^\]|]*)(?:\|([^\]]*))?\]\]`)
	h1Re            = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// dayHashRange bounds the fallback pseudo day number.
const dayHashRange = 1000

// Extractor holds the configured media extension sets and the clock used
// for the missing-date fallback.
type Extractor struct {
	imageExts map[string]struct{}
	videoExts map[string]struct{}

	// Now supplies the processing date for documents without a Date
	// section. Tests override it for determinism.
	Now func() time.Time
}

// NewExtractor creates an Extractor with the given recognized extensions
// (lower-case, without leading dot).
func NewExtractor(imageExts, videoExts []string) *Extractor {
	e := &Extractor{
		imageExts: make(map[string]struct{}, len(imageExts)),
		videoExts: make(map[string]struct{}, len(videoExts)),
		Now:       time.Now,
	}
	for _, ext := range imageExts {
		e.imageExts[strings.ToLower(ext)] = struct{}{}
	}
	for _, ext := range videoExts {
		e.videoExts[strings.ToLower(ext)] = struct{}{}
	}
	return e
}

// ExtractDate locates the "### Date" section, parses its first bullet as a
// long-form date ("January 2, 2006"), and returns it as YYYY-MM-DD. A
// missing or unparsable date falls back to the processing date.
func (e *Extractor) ExtractDate(content string) string {
	if m := dateSectionRe.FindStringSubmatch(content); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "-") {
				continue
			}
			raw := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			if t, err := time.Parse("January 2, 2006", raw); err == nil {
				return t.Format("2006-01-02")
			}
			break
		}
	}
	return e.Now().Format("2006-01-02")
}

// ExtractDayNumber searches content, then filename, for "Day <N>". When
// neither carries a marker it hashes the filename into [0, 1000) so that
// ordering stays stable across runs.
func (e *Extractor) ExtractDayNumber(content, filename string) int {
	if m := dayNumberRe.FindStringSubmatch(content); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := dayNumberRe.FindStringSubmatch(filename); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(filename))
	return int(h.Sum32() % dayHashRange)
}

// ExtractAssets collects every media URL inside the "### Assets" section,
// or from the whole document when no such section exists.
func (e *Extractor) ExtractAssets(content string) []string {
	scope := content
	if m := assetsSectionRe.FindStringSubmatch(content); m != nil {
		scope = m[1]
	}
	var out []string
	for _, u := range urlRe.FindAllString(scope, -1) {
		u = strings.TrimRight(u, ".,;:")
		if e.MediaTypeOf(u) != MediaUnknown {
			out = append(out, u)
		}
	}
	return out
}

// MediaTypeOf classifies a URL by extension against the configured sets.
func (e *Extractor) MediaTypeOf(url string) MediaType {
	dot := strings.LastIndex(url, ".")
	if dot < 0 || dot == len(url)-1 {
		return MediaUnknown
	}
	ext := strings.ToLower(url[dot+1:])
	if ext == "gif" {
		return MediaGIF
	}
	if _, ok := e.videoExts[ext]; ok {
		return MediaVideo
	}
	if _, ok := e.imageExts[ext]; ok {
		return MediaImage
	}
	return MediaUnknown
}

// RemoveMetadata strips the Date and Assets sections (heading through the
// next ##/### heading or end of document) and flattens wikilinks to their
// display text: the alias when present, otherwise the bracketed target.
func (e *Extractor) RemoveMetadata(content string) string {
	content = stripDateRe.ReplaceAllString(content, "$1")
	content = stripAssetsRe.ReplaceAllString(content, "$1")
	content = wikilinkRe.ReplaceAllStringFunc(content, func(link string) string {
		m := wikilinkRe.FindStringSubmatch(link)
		if m[2] != "" {
			return m[2]
		}
		return m[1]
	})
	return strings.TrimSpace(content) + "\n"
}

// Title returns the first H1 heading, or the filename stem when the
// document has none.
func Title(content, filePath string) string {
	if m := h1Re.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	name := filePath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".md")
}
