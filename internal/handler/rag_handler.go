package handler

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mindcask/docrag/internal/pkg/response"
	"github.com/mindcask/docrag/internal/service"
)

type RAGHandler struct {
	ingest    *service.IngestService
	query     *service.QueryService
	uploadDir string
}

func NewRAGHandler(ingest *service.IngestService, query *service.QueryService, uploadDir string) *RAGHandler {
	return &RAGHandler{ingest: ingest, query: query, uploadDir: uploadDir}
}

type ingestResponse struct {
	Message        string `json:"message"`
	ChunksIngested int    `json:"chunks_ingested"`
	SourceID       string `json:"source_id"`
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// Ingest accepts a multipart document upload and runs the ingestion
// pipeline. The temporary on-disk copy is removed whether or not the
// pipeline succeeds.
func (h *RAGHandler) Ingest(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required")
		return
	}
	sourceID := strings.TrimSpace(c.PostForm("source_id"))
	if sourceID == "" {
		name := filepath.Base(file.Filename)
		sourceID = strings.TrimSuffix(name, filepath.Ext(name))
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to prepare upload dir")
		return
	}
	path := filepath.Join(h.uploadDir, randomHex(8)+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, path); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logutil.GetLogger(c.Request.Context()).Warn("failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}()

	count, err := h.ingest.IngestFile(c.Request.Context(), path, sourceID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ingestResponse{
		Message:        fmt.Sprintf("Successfully ingested %d chunks from %s", count, file.Filename),
		ChunksIngested: count,
		SourceID:       sourceID,
	})
}

// Query answers a question grounded on previously ingested chunks.
func (h *RAGHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.query.Query(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func randomHex(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "upload"
	}
	return hex.EncodeToString(buf)
}
