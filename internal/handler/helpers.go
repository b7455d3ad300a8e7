package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperrors "github.com/mindcask/docrag/internal/pkg/errors"
	"github.com/mindcask/docrag/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	status := http.StatusInternalServerError
	if apperrors.IsInvalidRequest(err) {
		status = http.StatusBadRequest
	}
	response.Error(c, status, err.Error())
}
