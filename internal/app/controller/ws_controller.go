package controller

import (
	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	ws "github.com/ikkim/localbiz-backend/internal/websocket"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

// WSController streams live forum updates for one post.
type WSController struct {
	hub          *ws.Hub
	forumService *service.ForumService
	upgrader     *gws.Upgrader
}

func NewWSController(hub *ws.Hub, forumService *service.ForumService, allowedOrigins []string) *WSController {
	return &WSController{
		hub:          hub,
		forumService: forumService,
		upgrader:     ws.NewUpgrader(allowedOrigins),
	}
}

// WatchPost upgrades to a websocket subscribed to the post's room. Guests may
// watch; a token (header or ?token=) identifies the user for typing notices.
// The token is never logged.
// GET /api/v1/ws/forum/posts/:id
func (ctrl *WSController) WatchPost(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := ctrl.forumService.GetPost(c.Request.Context(), postID); err != nil {
		respondError(c, log, "Cannot watch post", err, logger.Fields{"post_id": postID})
		return
	}

	userID, _ := middleware.GetUserID(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Failed to upgrade to WebSocket", logger.Fields{"error": err.Error()})
		return
	}

	ws.Serve(ctrl.hub, conn, userID, postID)

	log.Info("WebSocket connection established", logger.Fields{
		"user_id": userID,
		"post_id": postID,
	})
}
