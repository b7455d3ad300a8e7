package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/mindcask/docrag/internal/ai"
	"github.com/mindcask/docrag/internal/chunker"
	"github.com/mindcask/docrag/internal/config"
	"github.com/mindcask/docrag/internal/handler"
	"github.com/mindcask/docrag/internal/middleware"
	"github.com/mindcask/docrag/internal/service"
	"github.com/mindcask/docrag/internal/vectorstore/memory"
)

type fakeProvider struct {
	answer string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return f.answer, nil
}

func (f *fakeProvider) Embed(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// textExtractor treats the uploaded file as one page of plain text.
type textExtractor struct{}

func (textExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []string{string(data)}, nil
}

func setupRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploadDir := t.TempDir()
	provider := &fakeProvider{answer: "grounded answer"}
	store := memory.NewStorage(3)
	embedder := ai.NewEmbedder(provider, "embed-model", 3)
	generator := ai.NewGenerator(provider, "gen-model")

	ingestService := service.NewIngestService(textExtractor{}, chunker.New(40), embedder, store)
	queryService := service.NewQueryService(embedder, generator, store, config.QueryConfig{})
	scorer := service.NewAlignmentScorer(generator)

	deps := handler.RouterDeps{
		RAG:       handler.NewRAGHandler(ingestService, queryService, uploadDir),
		Alignment: handler.NewAlignmentHandler(scorer),
	}

	engine, err := webapi.NewEngine(
		"/",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine, uploadDir
}

func multipartUpload(t *testing.T, sourceID string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if sourceID != "" {
		require.NoError(t, writer.WriteField("source_id", sourceID))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestIngestEndpoint(t *testing.T) {
	router, uploadDir := setupRouter(t)

	body, contentType := multipartUpload(t, "doc1", []byte("alpha beta gamma delta epsilon zeta eta theta iota kappa"))
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result struct {
		Message        string `json:"message"`
		ChunksIngested int    `json:"chunks_ingested"`
		SourceID       string `json:"source_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "doc1", result.SourceID)
	require.Greater(t, result.ChunksIngested, 0)
	require.Contains(t, result.Message, "resume.pdf")

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	require.Empty(t, entries, "temp upload must be removed after processing")
}

func TestIngestEndpointMissingFile(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errBody))
	require.NotEmpty(t, errBody["detail"])
}

func TestIngestEndpointDerivesSourceID(t *testing.T) {
	router, _ := setupRouter(t)

	body, contentType := multipartUpload(t, "", []byte("words for the default source id case"))
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		SourceID string `json:"source_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "resume", result.SourceID)
}

func TestQueryEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	body, contentType := multipartUpload(t, "doc1", []byte("alpha beta gamma delta epsilon zeta eta theta"))
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	req = httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte(`{"question":"What is alpha?","top_k":3}`)))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result struct {
		Answer      string   `json:"answer"`
		Sources     []string `json:"sources"`
		NumContexts int      `json:"num_contexts"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "grounded answer", result.Answer)
	require.Equal(t, []string{"doc1"}, result.Sources)
	require.Greater(t, result.NumContexts, 0)
}

func TestQueryEndpointEmptyQuestion(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte(`{"question":""}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errBody))
	require.Contains(t, errBody["detail"], "question")
}

func TestAlignmentEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	payload := `{"job_description":"Go backend role","question":"Is this a fit?"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze_alignment", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		Analysis   string `json:"analysis"`
		MatchScore int    `json:"match_score"`
		Processed  bool   `json:"processed"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "grounded answer", result.Analysis)
	require.Equal(t, 85, result.MatchScore)
	require.True(t, result.Processed)
}

func TestAlignmentEndpointMissingFields(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/analyze_alignment", bytes.NewReader([]byte(`{"question":"only one"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var result map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "healthy", result["status"])
}
