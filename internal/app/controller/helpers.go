package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/pkg/logger"
)

// parseIDParam reads a positive numeric path parameter, answering 400 itself
// when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

// requireUser reads the authenticated user id, answering 401 when absent.
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

// respondError logs err at a level matching its kind and writes the response.
func respondError(c *gin.Context, log *logger.Logger, msg string, err error, fields logger.Fields) {
	switch apperrors.KindOf(err) {
	case apperrors.KindStore, apperrors.KindInternal:
		log.Error(msg, err, fields)
		_ = c.Error(err)
	default:
		if fields == nil {
			fields = logger.Fields{}
		}
		fields["error"] = err.Error()
		log.Warn(msg, fields)
	}
	apperrors.Respond(c, err)
}

// bindJSON binds the body, answering 400 with the binding error when it fails.
func bindJSON(c *gin.Context, log *logger.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Warn("Invalid request body", logger.Fields{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return false
	}
	return true
}
