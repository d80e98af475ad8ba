package knowledge

import (
	"strings"

	"github.com/bettercallrobots/voicebridge/internal/models"
)

const (
	DefaultMaxChunkTokens = 500
	DefaultChunkOverlap   = 50
)

// Chunker splits extracted text into overlapping token-bounded chunks.
type Chunker struct {
	enc       Encoding
	maxTokens int
	overlap   int
}

func NewChunker(enc Encoding, maxTokens, overlap int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxChunkTokens
	}
	if overlap < 0 || overlap >= maxTokens {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{enc: enc, maxTokens: maxTokens, overlap: overlap}
}

// Chunk cuts text into windows of maxTokens tokens advancing by
// maxTokens-overlap, snapping each window's tail to a sentence boundary.
// TotalChunks is backfilled once the count is known. TokenCount is the
// window's pre-snap size: it reflects the budget the window was cut to,
// not the text left after snapping.
func (c *Chunker) Chunk(text string, meta models.DocumentMetadata) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tokens := c.enc.Encode(text)
	if len(tokens) <= c.maxTokens {
		return []models.Chunk{{
			Content:    text,
			TokenCount: len(tokens),
			Metadata: models.ChunkMetadata{
				DocumentMetadata: meta,
				ChunkIndex:       0,
				TotalChunks:      1,
			},
		}}
	}

	var chunks []models.Chunk
	stride := c.maxTokens - c.overlap
	for i := 0; i < len(tokens); i += stride {
		end := i + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[i:end]

		chunks = append(chunks, models.Chunk{
			Content:    snapBoundary(c.enc.Decode(window)),
			TokenCount: len(window),
			Metadata: models.ChunkMetadata{
				DocumentMetadata: meta,
				ChunkIndex:       len(chunks),
				TotalChunks:      -1, // backfilled below
			},
		})
	}

	for i := range chunks {
		chunks[i].Metadata.TotalChunks = len(chunks)
	}
	return chunks
}

var sentenceEndings = []string{".", "!", "?", "\n\n"}

// snapBoundary truncates text just after the rightmost sentence terminator
// found in its last 100 characters, so chunks avoid ending mid-sentence.
// Text under 50 characters is left alone, as is text with no terminator
// far enough from the window's start.
func snapBoundary(text string) string {
	r := []rune(text)
	if len(r) < 50 {
		return text
	}

	start := len(r) - 100
	if start < 0 {
		start = 0
	}
	last := r[start:]

	best := -1
	for _, ending := range sentenceEndings {
		if pos := lastIndexRunes(last, ending); pos > 20 && pos > best {
			best = pos
		}
	}
	if best > 0 {
		return strings.TrimSpace(string(r[:start+best+1]))
	}
	return strings.TrimSpace(text)
}

// lastIndexRunes is strings.LastIndex over rune positions.
func lastIndexRunes(hay []rune, needle string) int {
	n := []rune(needle)
	if len(n) == 0 || len(n) > len(hay) {
		return -1
	}
	for i := len(hay) - len(n); i >= 0; i-- {
		match := true
		for j := range n {
			if hay[i+j] != n[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
