package models

import "time"

// Document is a single note in the vault as seen by the indexing core.
type Document struct {
	ID      string // stable vault-relative path
	Title   string // display name, base name without extension
	Content string
	ModTime time.Time
}

// Chunk is the unit of embedding and retrieval: a bounded slice of one
// document's text. Embedding is nil until computed.
type Chunk struct {
	ID         string    `json:"id"`
	Doc        string    `json:"doc"`
	Seq        int       `json:"seq"`
	Text       string    `json:"text"`
	TokenCount int       `json:"token_count"`
	Embedding  []float32 `json:"embedding,omitempty"`
	DocModTime time.Time `json:"doc_mod_time"`
}

// SemanticHit pairs a chunk with its similarity score against a query.
type SemanticHit struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// NoteTitle is an entry of the exact-match title index.
type NoteTitle struct {
	Doc        string `json:"doc"`
	Title      string `json:"title"`
	Normalized string `json:"normalized"`
}

// IndexStats is a point-in-time summary of the semantic index.
type IndexStats struct {
	TotalChunks    int    `json:"total_chunks"`
	TotalDocuments int    `json:"total_documents"`
	IsBuilt        bool   `json:"is_built"`
	Provider       string `json:"provider"`
}

// LinkResult is the outcome of one context-linking pass.
type LinkResult struct {
	Text       string `json:"text"`
	MatchCount int    `json:"match_count"`
}
