package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

type BookmarkController struct {
	bookmarkService *service.BookmarkService
}

func NewBookmarkController(bookmarkService *service.BookmarkService) *BookmarkController {
	return &BookmarkController{bookmarkService: bookmarkService}
}

// List returns bookmarked businesses, newest bookmark first
// GET /api/v1/bookmarks
func (ctrl *BookmarkController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	businesses, err := ctrl.bookmarkService.ListBookmarks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, "Failed to list bookmarks", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, businessList(businesses))
}

// Add bookmarks a business. Adding twice is not an error.
// POST /api/v1/bookmarks/:uen
func (ctrl *BookmarkController) Add(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	uen := c.Param("uen")
	if err := ctrl.bookmarkService.AddBookmark(c.Request.Context(), userID, uen); err != nil {
		respondError(c, log, "Failed to add bookmark", err, logger.Fields{"user_id": userID, "uen": uen})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Bookmarked", "uen": uen})
}

// Remove
// DELETE /api/v1/bookmarks/:uen
func (ctrl *BookmarkController) Remove(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	uen := c.Param("uen")
	if err := ctrl.bookmarkService.RemoveBookmark(c.Request.Context(), userID, uen); err != nil {
		respondError(c, log, "Failed to remove bookmark", err, logger.Fields{"user_id": userID, "uen": uen})
		return
	}

	c.Status(http.StatusNoContent)
}
