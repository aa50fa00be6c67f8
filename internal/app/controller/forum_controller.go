package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

type ForumController struct {
	forumService *service.ForumService
}

func NewForumController(forumService *service.ForumService) *ForumController {
	return &ForumController{forumService: forumService}
}

// CreatePostRequest tags a business either by uen or by a free-text
// business_name resolved through name search.
type CreatePostRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Body         string `json:"body" binding:"required"`
	ImageURL     string `json:"image_url"`
	UEN          string `json:"uen"`
	BusinessName string `json:"business_name"`
}

type CreateReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

// ListPosts pages through posts, optionally for one business
// GET /api/v1/forum/posts?uen=&page=&page_size=
func (ctrl *ForumController) ListPosts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, err := ctrl.forumService.ListPosts(c.Request.Context(), c.Query("uen"), queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		respondError(c, log, "Failed to list posts", err, nil)
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreatePost
// POST /api/v1/forum/posts
func (ctrl *ForumController) CreatePost(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if !bindJSON(c, log, &req) {
		return
	}

	post, err := ctrl.forumService.CreatePost(c.Request.Context(), userID, service.PostInput{
		Title:        req.Title,
		Body:         req.Body,
		ImageURL:     req.ImageURL,
		UEN:          req.UEN,
		BusinessName: req.BusinessName,
	})
	if err != nil {
		respondError(c, log, "Failed to create post", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a post with its replies
// GET /api/v1/forum/posts/:id
func (ctrl *ForumController) GetPost(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	post, err := ctrl.forumService.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, "Failed to get post", err, logger.Fields{"post_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost
// DELETE /api/v1/forum/posts/:id
func (ctrl *ForumController) DeletePost(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.forumService.DeletePost(c.Request.Context(), userID, id); err != nil {
		respondError(c, log, "Failed to delete post", err, logger.Fields{"post_id": id, "user_id": userID})
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateReply
// POST /api/v1/forum/posts/:id/replies
func (ctrl *ForumController) CreateReply(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateReplyRequest
	if !bindJSON(c, log, &req) {
		return
	}

	reply, err := ctrl.forumService.CreateReply(c.Request.Context(), userID, postID, req.Body)
	if err != nil {
		respondError(c, log, "Failed to create reply", err, logger.Fields{"post_id": postID, "user_id": userID})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reply": reply})
}

// DeleteReply
// DELETE /api/v1/forum/replies/:id
func (ctrl *ForumController) DeleteReply(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.forumService.DeleteReply(c.Request.Context(), userID, id); err != nil {
		respondError(c, log, "Failed to delete reply", err, logger.Fields{"reply_id": id, "user_id": userID})
		return
	}

	c.Status(http.StatusNoContent)
}

// LikePost
// POST /api/v1/forum/posts/:id/like
func (ctrl *ForumController) LikePost(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LikeRequest
	if !bindJSON(c, log, &req) {
		return
	}

	count, err := ctrl.forumService.TogglePostLike(c.Request.Context(), id, *req.Clicked)
	if err != nil {
		respondError(c, log, "Failed to update post like", err, logger.Fields{"post_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "like_count": count})
}

// LikeReply
// POST /api/v1/forum/replies/:id/like
func (ctrl *ForumController) LikeReply(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LikeRequest
	if !bindJSON(c, log, &req) {
		return
	}

	count, err := ctrl.forumService.ToggleReplyLike(c.Request.Context(), id, *req.Clicked)
	if err != nil {
		respondError(c, log, "Failed to update reply like", err, logger.Fields{"reply_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "like_count": count})
}
