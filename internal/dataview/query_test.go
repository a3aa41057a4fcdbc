package dataview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBlocks_OffsetsAndOrder(t *testing.T) {
	content := "intro\n```dataview\nTASK\nFROM #devlog\n```\nmiddle\n```dataview\nLIST\n```\ntail\n"
	blocks := ExtractBlocks(content)
	require.Len(t, blocks, 2)

	assert.Equal(t, "TASK\nFROM #devlog", blocks[0].Query)
	assert.Equal(t, "LIST", blocks[1].Query)

	for i, b := range blocks {
		region := content[b.Start:b.End]
		assert.True(t, strings.HasPrefix(region, "```dataview"), "block %d region %q", i, region)
		assert.True(t, strings.HasSuffix(region, "```"), "block %d region %q", i, region)
	}
	assert.Less(t, blocks[0].End, blocks[1].Start)
}

func TestExtractBlocks_UnclosedFenceIgnored(t *testing.T) {
	content := "```dataview\nTASK\nno closing fence"
	assert.Empty(t, ExtractBlocks(content))
}

func TestExtractBlocks_SkipsOtherFenceTypes(t *testing.T) {
	content := "```dataviewjs\ndv.pages()\n```\n\n```dataview\nTASK\n```\n"
	blocks := ExtractBlocks(content)
	require.Len(t, blocks, 1)
	assert.Equal(t, "TASK", blocks[0].Query)
	assert.True(t, strings.HasPrefix(content[blocks[0].Start:], "```dataview\nTASK"))

	// Mid-line fence text is not an opening fence either.
	assert.Empty(t, ExtractBlocks("prose ```dataview\nTASK\n```"))
}

func TestExtractBlocks_OffsetsValidEvenWhenQueryUnparsable(t *testing.T) {
	content := "before\n```dataview\nFOO\nbar\n```\nafter"
	blocks := ExtractBlocks(content)
	require.Len(t, blocks, 1)
	assert.Equal(t, "```dataview\nFOO\nbar\n```", content[blocks[0].Start:blocks[0].End])
	assert.Nil(t, ParseQuery(blocks[0].Query))
}

func TestParseQuery_FullTaskQuery(t *testing.T) {
	q := ParseQuery("TASK\nFROM #devlog\nWHERE !completed\nSORT priority DESC\nLIMIT 3")
	require.NotNil(t, q)
	assert.Equal(t, QueryTask, q.Type)
	assert.Equal(t, []string{"#devlog"}, q.From)
	assert.Equal(t, "!completed", q.Where)
	assert.Equal(t, "priority DESC", q.Sort)
	assert.Equal(t, 3, q.Limit)
	assert.Empty(t, q.Fields)
}

func TestParseQuery_FromSplitsOnOR(t *testing.T) {
	q := ParseQuery("LIST\nFROM #devlog OR #patch-notes OR #art")
	require.NotNil(t, q)
	assert.Equal(t, []string{"#devlog", "#patch-notes", "#art"}, q.From)
}

func TestParseQuery_TableFields(t *testing.T) {
	q := ParseQuery(`TABLE
priority as "Priority",
length(filter(file.tasks, (t) => t.completed)) + " / " + length(file.tasks) as "Done",
round(length(filter(file.tasks, (t) => t.completed)) / length(file.tasks) * 100) + "%"
FROM #devlog
WHERE contains(file.name, "day")`)
	require.NotNil(t, q)
	assert.Equal(t, QueryTable, q.Type)
	require.Len(t, q.Fields, 3)

	assert.Equal(t, "priority", q.Fields[0].Expression)
	assert.Equal(t, "Priority", q.Fields[0].Alias)
	assert.Equal(t, "Done", q.Fields[1].Alias)
	assert.Contains(t, q.Fields[1].Expression, "length(filter(file.tasks")
	assert.Empty(t, q.Fields[2].Alias)
	assert.Contains(t, q.Fields[2].Expression, "round")

	assert.Equal(t, []string{"#devlog"}, q.From)
	assert.Equal(t, `contains(file.name, "day")`, q.Where)
}

func TestParseQuery_CaseInsensitiveTypeAndKeywords(t *testing.T) {
	q := ParseQuery("task\nfrom #devlog\nlimit 2")
	require.NotNil(t, q)
	assert.Equal(t, QueryTask, q.Type)
	assert.Equal(t, []string{"#devlog"}, q.From)
	assert.Equal(t, 2, q.Limit)
}

func TestParseQuery_InvalidFirstLine(t *testing.T) {
	assert.Nil(t, ParseQuery("FOO\nFROM #devlog"))
	assert.Nil(t, ParseQuery(""))
	assert.Nil(t, ParseQuery("   \n  \n"))
	assert.Nil(t, ParseQuery("TASKS\nFROM #devlog"), "TASKS is not TASK")
}

func TestParseQuery_UnrecognizedLinesIgnored(t *testing.T) {
	q := ParseQuery("TASK\nGROUP BY file\nFLATTEN tags\nLIMIT 5")
	require.NotNil(t, q)
	assert.Equal(t, 5, q.Limit)
	assert.Empty(t, q.From)
}

func TestParseQuery_BadLimitIgnored(t *testing.T) {
	q := ParseQuery("TASK\nLIMIT soon")
	require.NotNil(t, q)
	assert.Zero(t, q.Limit)

	q = ParseQuery("TASK\nLIMIT -2")
	require.NotNil(t, q)
	assert.Zero(t, q.Limit)
}
