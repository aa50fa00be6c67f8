package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/internal/app/filter"
	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

type BusinessController struct {
	businessService *service.BusinessService
}

func NewBusinessController(businessService *service.BusinessService) *BusinessController {
	return &BusinessController{businessService: businessService}
}

type BusinessRequest struct {
	UEN            string                     `json:"uen"`
	Name           string                     `json:"business_name" binding:"required"`
	Category       string                     `json:"business_category"`
	Description    string                     `json:"description"`
	Address        string                     `json:"address"`
	Latitude       *float64                   `json:"latitude"`
	Longitude      *float64                   `json:"longitude"`
	Phone          string                     `json:"phone"`
	Website        string                     `json:"website"`
	ImageURL       string                     `json:"image_url"`
	PriceTier      string                     `json:"price_tier"`
	Open247        bool                       `json:"open247"`
	OffersDelivery bool                       `json:"offers_delivery"`
	OffersPickup   bool                       `json:"offers_pickup"`
	PaymentOptions []string                   `json:"payment_options"`
	OpeningHours   map[string]model.HoursView `json:"opening_hours"`
}

func (r BusinessRequest) input() service.BusinessInput {
	return service.BusinessInput{
		UEN:            r.UEN,
		Name:           r.Name,
		Category:       r.Category,
		Description:    r.Description,
		Address:        r.Address,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Phone:          r.Phone,
		Website:        r.Website,
		ImageURL:       r.ImageURL,
		PriceTier:      r.PriceTier,
		Open247:        r.Open247,
		OffersDelivery: r.OffersDelivery,
		OffersPickup:   r.OffersPickup,
		PaymentOptions: r.PaymentOptions,
		OpeningHours:   r.OpeningHours,
	}
}

func businessList(businesses []model.BusinessView) gin.H {
	return gin.H{
		"businesses": businesses,
		"count":      len(businesses),
	}
}

// List returns every business, newest first
// GET /api/v1/businesses
func (ctrl *BusinessController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	businesses, err := ctrl.businessService.GetAllBusinesses(c.Request.Context())
	if err != nil {
		respondError(c, log, "Failed to list businesses", err, nil)
		return
	}

	c.JSON(http.StatusOK, businessList(businesses))
}

// Filter applies a directory filter
// POST /api/v1/businesses/filter
func (ctrl *BusinessController) Filter(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req filter.Request
	if !bindJSON(c, log, &req) {
		return
	}

	businesses, err := ctrl.businessService.GetFilteredBusinesses(c.Request.Context(), req)
	if err != nil {
		respondError(c, log, "Failed to filter businesses", err, nil)
		return
	}

	c.JSON(http.StatusOK, businessList(businesses))
}

// Search resolves a free-text business name to a single business
// GET /api/v1/businesses/search?name=
func (ctrl *BusinessController) Search(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	name := c.Query("name")
	ref, err := ctrl.businessService.SearchBusinessByName(c.Request.Context(), name)
	if err != nil {
		respondError(c, log, "Business name search failed", err, logger.Fields{"name": name})
		return
	}
	if ref == nil {
		apperrors.NotFound(c, apperrors.BusinessNotFound, "no business matches this name")
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": ref})
}

// Get returns one business
// GET /api/v1/businesses/:uen
func (ctrl *BusinessController) Get(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	uen := c.Param("uen")
	business, err := ctrl.businessService.GetBusinessByUEN(c.Request.Context(), uen)
	if err != nil {
		respondError(c, log, "Failed to get business", err, logger.Fields{"uen": uen})
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// Owned lists the signed-in user's businesses
// GET /api/v1/businesses/owned
func (ctrl *BusinessController) Owned(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	businesses, err := ctrl.businessService.GetOwnedBusinesses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, "Failed to list owned businesses", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, businessList(businesses))
}

// Create registers a business owned by the signed-in user
// POST /api/v1/businesses
func (ctrl *BusinessController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req BusinessRequest
	if !bindJSON(c, log, &req) {
		return
	}

	business, err := ctrl.businessService.RegisterBusiness(c.Request.Context(), userID, req.input())
	if err != nil {
		respondError(c, log, "Failed to register business", err, logger.Fields{
			"user_id": userID,
			"uen":     req.UEN,
		})
		return
	}

	log.Info("Business registered", logger.Fields{"user_id": userID, "uen": business.UEN})
	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// Update replaces a business owned by the signed-in user
// PUT /api/v1/businesses/:uen
func (ctrl *BusinessController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req BusinessRequest
	if !bindJSON(c, log, &req) {
		return
	}

	uen := c.Param("uen")
	business, err := ctrl.businessService.UpdateBusiness(c.Request.Context(), userID, uen, req.input())
	if err != nil {
		respondError(c, log, "Failed to update business", err, logger.Fields{"user_id": userID, "uen": uen})
		return
	}

	log.Info("Business updated", logger.Fields{"user_id": userID, "uen": uen})
	c.JSON(http.StatusOK, gin.H{"business": business})
}

// Delete removes a business owned by the signed-in user
// DELETE /api/v1/businesses/:uen
func (ctrl *BusinessController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	uen := c.Param("uen")
	if err := ctrl.businessService.DeleteBusiness(c.Request.Context(), userID, uen); err != nil {
		respondError(c, log, "Failed to delete business", err, logger.Fields{"user_id": userID, "uen": uen})
		return
	}

	log.Info("Business deleted", logger.Fields{"user_id": userID, "uen": uen})
	c.Status(http.StatusNoContent)
}
