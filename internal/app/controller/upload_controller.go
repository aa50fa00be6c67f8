package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/internal/storage"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

// Presigner issues upload URLs. *storage.S3Storage implements it.
type Presigner interface {
	PresignUpload(ctx context.Context, folder storage.Folder, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type UploadController struct {
	storage Presigner
}

func NewUploadController(storage Presigner) *UploadController {
	return &UploadController{storage: storage}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder" binding:"required"`
}

// GeneratePresignedURL issues a presigned S3 PUT URL for an image
// POST /api/v1/uploads/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req GeneratePresignedURLRequest
	if !bindJSON(c, log, &req) {
		return
	}

	resp, err := ctrl.storage.PresignUpload(c.Request.Context(), storage.Folder(req.Folder), req.Filename, req.ContentType)
	if err != nil {
		respondError(c, log, "Failed to generate presigned URL", err, logger.Fields{
			"user_id":      userID,
			"content_type": req.ContentType,
			"folder":       req.Folder,
		})
		return
	}

	log.Info("Presigned URL generated", logger.Fields{
		"user_id": userID,
		"key":     resp.Key,
	})

	c.JSON(http.StatusOK, resp)
}
