package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mindcask/docrag/internal/pkg/response"
)

type RouterDeps struct {
	RAG       *RAGHandler
	Alignment *AlignmentHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/ingest", deps.RAG.Ingest)
	api.POST("/query", deps.RAG.Query)
	api.POST("/analyze_alignment", deps.Alignment.Analyze)

	// Shallow health check: no dependency probes, the service process being
	// up is the signal.
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "healthy"})
	})
}
