package util

import (
	"english_edu_dashboard/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StaleHeader marks a response served from a store cache after the backend
// call failed.
const StaleHeader = "X-Data-Stale"

// Response 看板接口统一返回；Stale 表示数据来自缓存
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Stale   bool        `json:"stale,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Stale answers with the last good copy when a refresh failed.
func Stale(c *gin.Context, data interface{}) {
	c.Header(StaleHeader, "true")
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "stale",
		Data:    data,
		Stale:   true,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

// Pending is for work the backend has accepted but not finished, such as
// essay grading.
func Pending(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{
		Code:    http.StatusAccepted,
		Message: "pending",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

// Conflict 会话状态不允许该操作（如考试进行中再次开考）
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// BadGateway reports a failed call to the learning backend.
func BadGateway(c *gin.Context, message string) {
	Error(c, http.StatusBadGateway, message)
}

func ServiceUnavailable(c *gin.Context, component string) {
	Error(c, http.StatusServiceUnavailable, component+" unavailable")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err), zap.String("path", c.FullPath()))
	InternalServerError(c)
}
