package api

import (
	"github.com/starford/dagaz/internal/postservice"
	"github.com/starford/dagaz/internal/tasks"
)

// QueryRequest is the request body for running a dataview query directly.
type QueryRequest struct {
	Query string `json:"query"`
}

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListItem is a lightweight item in a list response (aliased from the domain layer).
type PostListItem = postservice.PostListItem

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []PostListItem `json:"posts"`
	Total int            `json:"total"`
}

// TaskListResponse wraps the aggregated task corpus.
type TaskListResponse struct {
	Tasks []tasks.Task `json:"tasks"`
	Total int          `json:"total"`
}
