package middleware

import (
	"errors"
	"net/http"

	"english_edu_dashboard/internal/service"
	"english_edu_dashboard/internal/util"
	"english_edu_dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionMiddleware resolves the dashboard session to its workspace. The
// stored backend token is loaded and its claims checked on every request.
func SessionMiddleware(workspaces *service.WorkspaceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := util.SessionID(c)
		if sid == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		ws, err := workspaces.Get(c.Request.Context(), sid)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUnknownSession), errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrInvalidToken):
				util.Error(c, http.StatusUnauthorized, err.Error())
			default:
				logger.Log.Warn("load workspace failed", zap.String("sessionId", sid), zap.Error(err))
				util.Unauthorized(c)
			}
			c.Abort()
			return
		}

		c.Set(util.WorkspaceKey, ws)
		c.Next()
	}
}

// GetWorkspace returns the workspace SessionMiddleware attached.
func GetWorkspace(c *gin.Context) *service.Workspace {
	v, exists := c.Get(util.WorkspaceKey)
	if !exists {
		return nil
	}
	ws, ok := v.(*service.Workspace)
	if !ok {
		return nil
	}
	return ws
}
