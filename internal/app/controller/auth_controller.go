package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Name         string `json:"name" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":                  user.ID,
		"email":               user.Email,
		"name":                user.Name,
		"role":                user.Role,
		"referral_code":       user.ReferralCode,
		"referred_by_user_id": user.ReferredByUserID,
		"has_business":        user.HasBusiness,
		"created_at":          user.CreatedAt,
	}
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if !bindJSON(c, log, &req) {
		return
	}

	log.Debug("Processing registration", logger.Fields{
		"email":         req.Email,
		"with_referral": req.ReferralCode != "",
	})

	user, tokens, err := ctrl.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondError(c, log, "Registration failed", err, logger.Fields{"email": req.Email})
		return
	}

	log.Info("User registered successfully", logger.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if !bindJSON(c, log, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, log, "Login failed", err, logger.Fields{"email": req.Email})
		return
	}

	log.Info("Login successful", logger.Fields{"user_id": user.ID})

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Refresh rotates a refresh token into a new pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshTokenRequest
	if !bindJSON(c, log, &req) {
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, log, "Token refresh failed", err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the access token and, when sent, the refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LogoutRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.authService.Logout(c.Request.Context(), middleware.GetAccessToken(c), req.RefreshToken); err != nil {
		respondError(c, log, "Logout failed", err, nil)
		return
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("User logged out", logger.Fields{"user_id": userID})

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the current user
// GET /api/v1/users/me
func (ctrl *AuthController) Me(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, "Failed to load current user", err, logger.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}
