package util

import "github.com/gin-gonic/gin"

// SessionID reads the dashboard session from the cookie, then the header.
func SessionID(c *gin.Context) string {
	if sid, err := c.Cookie(SessionCookie); err == nil && sid != "" {
		return sid
	}
	return c.GetHeader(SessionHeader)
}
