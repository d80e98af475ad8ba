package models

// DocumentMetadata describes one scraped source.
type DocumentMetadata struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Tag         string `json:"tag"`
	Domain      string `json:"domain"`
	ScrapedAt   string `json:"scraped_at"` // RFC 3339
	ContentType string `json:"content_type"`
	WordCount   int    `json:"word_count"`
	CharCount   int    `json:"char_count"`
	Error       bool   `json:"error,omitempty"`
}

// ChunkMetadata is the parent document metadata plus the chunk's position.
// TotalChunks is backfilled once all chunks for the document exist.
type ChunkMetadata struct {
	DocumentMetadata
	ChunkIndex  int `json:"chunk_index"`
	TotalChunks int `json:"total_chunks"`
}

// Chunk is a token-bounded span of extracted text, the unit of retrieval.
type Chunk struct {
	Content    string        `json:"content"`
	TokenCount int           `json:"token_count"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// Document is the processed result of one URL. Immutable once built;
// ownership passes to the retriever on AddDocument.
type Document struct {
	ID          string           `json:"id"`
	Chunks      []Chunk          `json:"chunks"`
	Metadata    DocumentMetadata `json:"metadata"`
	TotalTokens int              `json:"total_tokens"`
}
