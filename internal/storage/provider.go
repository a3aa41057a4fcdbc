// Package storage defines the vault file-system abstraction.
package storage

import "time"

// FileMeta is lightweight metadata for one vault document.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TreeNode is one entry in the document tree consumed by the docs
// navigation. Directories carry children; files do not.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"` // "file" or "dir"
	Children []*TreeNode `json:"children,omitempty"`
}

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to
	// vault root), in lexical walk order.
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
	// Tree returns the directory tree of .md documents rooted at dir.
	Tree(dir string) (*TreeNode, error)
}
