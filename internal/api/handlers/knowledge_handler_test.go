package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bettercallrobots/voicebridge/internal/knowledge"
)

// fieldEncoding tokenizes on whitespace; handler tests don't need the real
// subword encoding.
type fieldEncoding struct {
	words []string
	index map[string]int
}

func (e *fieldEncoding) Encode(text string) []int {
	var out []int
	for _, w := range strings.Fields(text) {
		id, ok := e.index[w]
		if !ok {
			id = len(e.words)
			e.words = append(e.words, w)
			e.index[w] = id
		}
		out = append(out, id)
	}
	return out
}

func (e *fieldEncoding) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = e.words[tok]
	}
	return strings.Join(parts, " ")
}

func newKnowledgeTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enc := &fieldEncoding{index: make(map[string]int)}
	chunker := knowledge.NewChunker(enc, 500, 50)
	processor := knowledge.NewProcessor(chunker, enc, nil, nil)
	retriever := knowledge.NewRetriever()

	h := NewKnowledgeHandler(processor, retriever)
	r := gin.New()
	r.POST("/knowledge/documents", h.Add)
	r.GET("/knowledge/search", h.Search)
	r.GET("/knowledge/stats", h.Stats)
	return r
}

func TestKnowledgeIngestSearchStats(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><title>Pricing</title><body><main>Our premium plan costs ten dollars.</main></body></html>`))
	}))
	defer page.Close()

	r := newKnowledgeTestRouter(t)

	// ingest
	body := strings.NewReader(`{"url":"` + page.URL + `","tag":"pricing"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/knowledge/documents", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ingest status %d: %s", w.Code, w.Body.String())
	}
	var summary DocumentSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Error {
		t.Fatalf("unexpected error document: %+v", summary)
	}
	if summary.Name != "Pricing" || summary.Tag != "pricing" || summary.ChunkCount != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// search
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/knowledge/search?q=premium+plan", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("search status %d", w.Code)
	}
	var sr SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &sr); err != nil {
		t.Fatal(err)
	}
	if len(sr.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(sr.Results))
	}

	// stats
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/knowledge/stats", nil))
	var st knowledge.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.DocumentCount != 1 || st.ChunkCount != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestKnowledgeSearchRequiresQuery(t *testing.T) {
	r := newKnowledgeTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/knowledge/search", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing q, got %d", w.Code)
	}
}

func TestKnowledgeAddBadURLStillIndexed(t *testing.T) {
	r := newKnowledgeTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/knowledge/documents",
		strings.NewReader(`{"url":"http://127.0.0.1:1/nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("processing failures must not fail the request, got %d", w.Code)
	}
	var summary DocumentSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if !summary.Error {
		t.Fatal("expected error-flagged summary")
	}
}

func TestKnowledgeAddMissingURL(t *testing.T) {
	r := newKnowledgeTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/knowledge/documents", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing url, got %d", w.Code)
	}
}
