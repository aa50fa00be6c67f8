package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

// UserController serves referral codes, referrals and vouchers of the
// signed-in user.
type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

type ApplyReferralRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

// GetReferralCode returns the code the user hands out
// GET /api/v1/users/me/referral-code
func (ctrl *UserController) GetReferralCode(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := ctrl.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, "Failed to load referral code", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"referral_code": user.ReferralCode})
}

// ListReferrals returns referrals made with the user's code
// GET /api/v1/users/me/referrals
func (ctrl *UserController) ListReferrals(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	referrals, err := ctrl.userService.ListReferrals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, "Failed to list referrals", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"count":     len(referrals),
	})
}

// ListVouchers returns the user's vouchers
// GET /api/v1/users/me/vouchers
func (ctrl *UserController) ListVouchers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	vouchers, err := ctrl.userService.ListVouchers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, "Failed to list vouchers", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vouchers": vouchers,
		"count":    len(vouchers),
	})
}

// GetReferral returns the referral the user signed up with
// GET /api/v1/users/me/referral
func (ctrl *UserController) GetReferral(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := ctrl.userService.GetReferral(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, "Failed to load referral", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral": result.Referral,
		"vouchers": result.Vouchers,
	})
}

// ApplyReferral redeems another user's referral code
// POST /api/v1/users/me/referral
func (ctrl *UserController) ApplyReferral(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req ApplyReferralRequest
	if !bindJSON(c, log, &req) {
		return
	}

	result, err := ctrl.userService.HandleReferral(c.Request.Context(), req.ReferralCode, userID)
	if err != nil {
		respondError(c, log, "Referral rejected", err, logger.Fields{
			"user_id":       userID,
			"referral_code": req.ReferralCode,
		})
		return
	}

	log.Info("Referral applied", logger.Fields{
		"user_id":     userID,
		"referral_id": result.Referral.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"referral": result.Referral,
		"vouchers": result.Vouchers,
	})
}

// UseVoucher redeems one of the user's vouchers
// POST /api/v1/users/me/vouchers/:id/use
func (ctrl *UserController) UseVoucher(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}
	voucherID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	voucher, err := ctrl.userService.UseVoucher(c.Request.Context(), userID, voucherID)
	if err != nil {
		respondError(c, log, "Voucher redemption failed", err, logger.Fields{
			"user_id":    userID,
			"voucher_id": voucherID,
		})
		return
	}

	log.Info("Voucher used", logger.Fields{"user_id": userID, "voucher_id": voucherID})
	c.JSON(http.StatusOK, gin.H{"voucher": voucher})
}

// ExpireVouchers runs the voucher expiry sweep immediately
// POST /api/v1/admin/vouchers/expire
func (ctrl *UserController) ExpireVouchers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	expired, err := ctrl.userService.ExpireVouchers(c.Request.Context())
	if err != nil {
		respondError(c, log, "Voucher expiry sweep failed", err, nil)
		return
	}

	log.Info("Voucher expiry sweep triggered", logger.Fields{"expired": expired})
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
