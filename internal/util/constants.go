package util

// 会话相关
const (
	SessionCookie    = "sid"
	SessionHeader    = "X-Session-ID"
	SessionCookieAge = 7 * 24 * 3600
	WorkspaceKey     = "workspace"
)
