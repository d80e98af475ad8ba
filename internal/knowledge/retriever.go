package knowledge

import (
	"sort"
	"strings"
	"sync"

	"github.com/bettercallrobots/voicebridge/internal/models"
)

const DefaultTopK = 3

// Stats is an aggregate view over the index.
type Stats struct {
	DocumentCount int      `json:"document_count"`
	ChunkCount    int      `json:"chunk_count"`
	TotalTokens   int      `json:"total_tokens"`
	Domains       []string `json:"domains"`
}

// Retriever is a keyword index over processed chunks. It stands in for a
// vector store: scoring is plain word overlap plus phrase hits, which is
// good enough to exercise the ingestion path until semantic search lands.
// Append-only; re-adding a URL yields a second document and duplicate chunks.
type Retriever struct {
	mu        sync.RWMutex
	documents map[string]*models.Document
	chunks    []models.Chunk
}

func NewRetriever() *Retriever {
	return &Retriever{documents: make(map[string]*models.Document)}
}

func (r *Retriever) AddDocument(doc *models.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[doc.ID] = doc
	r.chunks = append(r.chunks, doc.Chunks...)
}

// Search scores every chunk as wordOverlap + 2*phraseOccurrences, drops
// zero scores and returns the topK best. Ties keep insertion order.
func (r *Retriever) Search(query string, topK int) []models.Chunk {
	if topK <= 0 {
		topK = DefaultTopK
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	queryWords := make(map[string]struct{})
	for _, w := range strings.Fields(q) {
		queryWords[w] = struct{}{}
	}

	type scoredChunk struct {
		score int
		chunk models.Chunk
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var scored []scoredChunk
	for _, ch := range r.chunks {
		content := strings.ToLower(ch.Content)

		overlap := 0
		seen := make(map[string]struct{})
		for _, w := range strings.Fields(content) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			if _, ok := queryWords[w]; ok {
				overlap++
			}
		}

		score := overlap + 2*strings.Count(content, q)
		if score > 0 {
			scored = append(scored, scoredChunk{score: score, chunk: ch})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	out := make([]models.Chunk, len(scored))
	for i, s := range scored {
		out[i] = s.chunk
	}
	return out
}

func (r *Retriever) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	domains := make(map[string]struct{})
	for _, ch := range r.chunks {
		total += ch.TokenCount
		d := ch.Metadata.Domain
		if d == "" {
			d = "unknown"
		}
		domains[d] = struct{}{}
	}

	names := make([]string, 0, len(domains))
	for d := range domains {
		names = append(names, d)
	}
	sort.Strings(names)

	return Stats{
		DocumentCount: len(r.documents),
		ChunkCount:    len(r.chunks),
		TotalTokens:   total,
		Domains:       names,
	}
}
