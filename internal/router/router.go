package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/localbiz-backend/config"
	"github.com/ikkim/localbiz-backend/internal/app/controller"
	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/metrics"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups every HTTP handler set the router mounts. Upload and
// WS may be nil when storage or the hub is not configured.
type Controllers struct {
	Auth     *controller.AuthController
	User     *controller.UserController
	Business *controller.BusinessController
	Review   *controller.ReviewController
	Forum    *controller.ForumController
	Bookmark *controller.BookmarkController
	Upload   *controller.UploadController
	WS       *controller.WSController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
	log            *logger.Logger
}

func NewRouter(controllers Controllers, authMiddleware *middleware.AuthMiddleware, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		config:         cfg,
		log:            log,
	}
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(r.log))
	if r.config.Metrics.Enabled {
		router.Use(metrics.GinMiddleware())
	}
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "LocalBiz API is running",
		})
	})

	if r.config.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	auth := r.authMiddleware.Authenticate()
	ctl := r.controllers

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", ctl.Auth.Register)
			authGroup.POST("/login", ctl.Auth.Login)
			authGroup.POST("/refresh", ctl.Auth.Refresh)
			authGroup.POST("/logout", auth, ctl.Auth.Logout)
		}

		users := v1.Group("/users/me", auth)
		{
			users.GET("", ctl.Auth.Me)
			users.GET("/referral-code", ctl.User.GetReferralCode)
			users.GET("/referrals", ctl.User.ListReferrals)
			users.GET("/referral", ctl.User.GetReferral)
			users.POST("/referral", ctl.User.ApplyReferral)
			users.GET("/vouchers", ctl.User.ListVouchers)
			users.POST("/vouchers/:id/use", ctl.User.UseVoucher)
			users.GET("/reviews", ctl.Review.ListMine)
		}

		businesses := v1.Group("/businesses")
		{
			businesses.GET("", ctl.Business.List)
			businesses.GET("/search", ctl.Business.Search)
			businesses.POST("/filter", ctl.Business.Filter)
			businesses.GET("/owned", auth, ctl.Business.Owned)
			businesses.GET("/:uen", ctl.Business.Get)
			businesses.POST("", auth, ctl.Business.Create)
			businesses.PUT("/:uen", auth, ctl.Business.Update)
			businesses.DELETE("/:uen", auth, ctl.Business.Delete)

			businesses.GET("/:uen/reviews", ctl.Review.ListForBusiness)
			businesses.POST("/:uen/reviews", auth, ctl.Review.Create)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.PUT("/:id", auth, ctl.Review.Update)
			reviews.DELETE("/:id", auth, ctl.Review.Delete)
			reviews.POST("/:id/like", ctl.Review.Like)
		}

		forum := v1.Group("/forum")
		{
			forum.GET("/posts", ctl.Forum.ListPosts)
			forum.POST("/posts", auth, ctl.Forum.CreatePost)
			forum.GET("/posts/:id", ctl.Forum.GetPost)
			forum.DELETE("/posts/:id", auth, ctl.Forum.DeletePost)
			forum.POST("/posts/:id/replies", auth, ctl.Forum.CreateReply)
			forum.POST("/posts/:id/like", ctl.Forum.LikePost)
			forum.DELETE("/replies/:id", auth, ctl.Forum.DeleteReply)
			forum.POST("/replies/:id/like", ctl.Forum.LikeReply)
		}

		bookmarks := v1.Group("/bookmarks", auth)
		{
			bookmarks.GET("", ctl.Bookmark.List)
			bookmarks.POST("/:uen", ctl.Bookmark.Add)
			bookmarks.DELETE("/:uen", ctl.Bookmark.Remove)
		}

		admin := v1.Group("/admin", auth, r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/vouchers/expire", ctl.User.ExpireVouchers)
		}

		if ctl.Upload != nil {
			v1.POST("/uploads/presigned-url", auth, ctl.Upload.GeneratePresignedURL)
		}

		if ctl.WS != nil {
			v1.GET("/ws/forum/posts/:id", r.authMiddleware.OptionalAuthenticate(), ctl.WS.WatchPost)
		}
	}

	return router
}
