package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

type ReviewController struct {
	reviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

type ReviewRequest struct {
	Rating   int    `json:"rating" binding:"required"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url"`
}

// LikeRequest toggles a like. clicked=true adds one, false removes one.
type LikeRequest struct {
	Clicked *bool `json:"clicked" binding:"required"`
}

func requireEmail(c *gin.Context) (string, bool) {
	email, ok := middleware.GetUserEmail(c)
	if !ok || email == "" {
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return email, true
}

// ListForBusiness pages through a business's reviews, newest first
// GET /api/v1/businesses/:uen/reviews?page=&page_size=
func (ctrl *ReviewController) ListForBusiness(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	uen := c.Param("uen")
	page, err := ctrl.reviewService.GetBusinessReviews(c.Request.Context(), uen, queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		respondError(c, log, "Failed to list reviews", err, logger.Fields{"uen": uen})
		return
	}

	c.JSON(http.StatusOK, page)
}

// Create adds a review to a business
// POST /api/v1/businesses/:uen/reviews
func (ctrl *ReviewController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	email, ok := requireEmail(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if !bindJSON(c, log, &req) {
		return
	}

	uen := c.Param("uen")
	review, err := ctrl.reviewService.CreateReview(c.Request.Context(), email, uen, service.ReviewInput{
		Rating:   req.Rating,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		respondError(c, log, "Failed to create review", err, logger.Fields{"uen": uen})
		return
	}

	log.Info("Review created", logger.Fields{"review_id": review.ID, "uen": uen})
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListMine returns the signed-in user's reviews
// GET /api/v1/users/me/reviews
func (ctrl *ReviewController) ListMine(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	email, ok := requireEmail(c)
	if !ok {
		return
	}

	reviews, err := ctrl.reviewService.GetUserReviews(c.Request.Context(), email)
	if err != nil {
		respondError(c, log, "Failed to list user reviews", err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// Update edits a review the signed-in user wrote
// PUT /api/v1/reviews/:id
func (ctrl *ReviewController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	email, ok := requireEmail(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if !bindJSON(c, log, &req) {
		return
	}

	review, err := ctrl.reviewService.UpdateReview(c.Request.Context(), email, id, service.ReviewInput{
		Rating:   req.Rating,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		respondError(c, log, "Failed to update review", err, logger.Fields{"review_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

// Delete removes a review the signed-in user wrote
// DELETE /api/v1/reviews/:id
func (ctrl *ReviewController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	email, ok := requireEmail(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.reviewService.DeleteReview(c.Request.Context(), email, id); err != nil {
		respondError(c, log, "Failed to delete review", err, logger.Fields{"review_id": id})
		return
	}

	c.Status(http.StatusNoContent)
}

// Like adjusts a review's like count
// POST /api/v1/reviews/:id/like
func (ctrl *ReviewController) Like(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req LikeRequest
	if !bindJSON(c, log, &req) {
		return
	}

	count, err := ctrl.reviewService.ToggleLike(c.Request.Context(), id, *req.Clicked)
	if err != nil {
		respondError(c, log, "Failed to update review like", err, logger.Fields{"review_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "like_count": count})
}
