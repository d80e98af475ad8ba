package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bettercallrobots/voicebridge/internal/knowledge"
	"github.com/bettercallrobots/voicebridge/internal/models"
	"github.com/bettercallrobots/voicebridge/internal/utils"
)

type KnowledgeHandler struct {
	processor *knowledge.Processor
	retriever *knowledge.Retriever
}

func NewKnowledgeHandler(processor *knowledge.Processor, retriever *knowledge.Retriever) *KnowledgeHandler {
	return &KnowledgeHandler{processor: processor, retriever: retriever}
}

type AddDocumentRequest struct {
	URL  string `json:"url" binding:"required"`
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

type DocumentSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Tag         string `json:"tag"`
	Domain      string `json:"domain"`
	ChunkCount  int    `json:"chunk_count"`
	TotalTokens int    `json:"total_tokens"`
	Error       bool   `json:"error"`
}

// Add processes and indexes one URL. A fetch or parse failure still indexes
// an error-flagged document, so the response carries the error flag rather
// than a non-200 status.
func (h *KnowledgeHandler) Add(c *gin.Context) {
	var req AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KnowledgeHandler.Add", "invalid request body", err))
		return
	}

	doc := h.processor.ProcessURL(c.Request.Context(), req.URL, req.Name, req.Tag)
	h.retriever.AddDocument(doc)

	c.JSON(http.StatusOK, DocumentSummary{
		ID:          doc.ID,
		Name:        doc.Metadata.Name,
		Tag:         doc.Metadata.Tag,
		Domain:      doc.Metadata.Domain,
		ChunkCount:  len(doc.Chunks),
		TotalTokens: doc.TotalTokens,
		Error:       doc.Metadata.Error,
	})
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []models.Chunk `json:"results"`
}

func (h *KnowledgeHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KnowledgeHandler.Search", "q is required", nil))
		return
	}

	k, _ := strconv.Atoi(c.DefaultQuery("k", "3"))
	results := h.retriever.Search(q, k)
	if results == nil {
		results = []models.Chunk{}
	}

	c.JSON(http.StatusOK, SearchResponse{Query: q, Results: results})
}

func (h *KnowledgeHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.retriever.Stats())
}
