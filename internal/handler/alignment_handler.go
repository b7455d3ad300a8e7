package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindcask/docrag/internal/pkg/response"
	"github.com/mindcask/docrag/internal/service"
)

type AlignmentHandler struct {
	scorer service.AlignmentScorer
}

func NewAlignmentHandler(scorer service.AlignmentScorer) *AlignmentHandler {
	return &AlignmentHandler{scorer: scorer}
}

type alignmentRequest struct {
	JobDescription string `json:"job_description"`
	Question       string `json:"question"`
}

func (h *AlignmentHandler) Analyze(c *gin.Context) {
	var req alignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.scorer.Analyze(c.Request.Context(), req.JobDescription, req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
