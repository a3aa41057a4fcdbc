package mcpserver

// QuerySyntaxContract describes the dataview query subset that the
// query_tasks tool accepts. LLM consumers should read it before
// composing queries.
const QuerySyntaxContract = `# Dagaz Query Syntax

The query_tasks tool runs a small subset of the Obsidian Dataview
language against every checklist item in the vault.

## Shape

` + "```" + `
TASK | TABLE | LIST          # first line, exactly one of these
<field>, ...                 # TABLE only: one projection per line
FROM #tag-a OR #tag-b        # optional; OR matches any listed tag
WHERE <predicate>            # optional
SORT <field> [DESC]          # optional
LIMIT <n>                    # optional; positive integer
` + "```" + `

Keywords are case-insensitive. Unrecognized lines are ignored.

## FROM

Tags carry their leading ` + "`" + `#` + "`" + ` and match case-insensitively. A task
inherits every tag found anywhere in its document.

## WHERE (TASK/LIST)

Recognized predicates, combined with AND:

- ` + "`" + `!completed` + "`" + ` – open tasks only
- ` + "`" + `completed` + "`" + ` – finished tasks only
- ` + "`" + `contains(text, "term")` + "`" + ` – case-insensitive text match
- ` + "`" + `text != ""` + "`" + ` – drop empty checklist lines

## WHERE (TABLE)

- ` + "`" + `contains(file.name, "term")` + "`" + ` – keep matching documents
- ` + "`" + `!contains(file.name, "term")` + "`" + ` – exclude matching documents

## SORT

- ` + "`" + `status` + "`" + ` – open before done (DESC reverses)
- ` + "`" + `completion` + "`" + ` – done first; DESC is ignored
- ` + "`" + `priority` + "`" + ` – high, medium, low, then unranked (DESC reverses)

## TABLE fields

Write ` + "`" + `<expression> as "Alias"` + "`" + ` or a bare expression. Recognized
expressions:

- ` + "`" + `priority` + "`" + ` – the document's priority or ` + "`" + `none` + "`" + `
- ` + "`" + `length(filter(file.tasks, (t) => t.completed)) + " / " + length(file.tasks)` + "`" + ` – done ratio
- ` + "`" + `round(length(filter(file.tasks, (t) => t.completed)) / length(file.tasks) * 100) + "%"` + "`" + ` – done percentage

Anything else renders as its own source text. Documents with no
checklist items never appear in TABLE results.

## Example

` + "```" + `
TABLE
priority as "Priority",
round(length(filter(file.tasks, (t) => t.completed)) / length(file.tasks) * 100) + "%" as "Done"
FROM #devlog
WHERE !contains(file.name, "draft")
LIMIT 10
` + "```" + `
`
