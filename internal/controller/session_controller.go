package controller

import (
	"net/http"
	"strings"

	"english_edu_dashboard/internal/middleware"
	"english_edu_dashboard/internal/service"
	"english_edu_dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionController 处理看板登录会话
type SessionController struct {
	Workspaces   *service.WorkspaceService
	SecureCookie bool
}

func NewSessionController(workspaces *service.WorkspaceService, secureCookie bool) *SessionController {
	return &SessionController{Workspaces: workspaces, SecureCookie: secureCookie}
}

// OpenSessionRequest carries the token the learning backend issued at login.
// swagger:model OpenSessionRequest
type OpenSessionRequest struct {
	Token string `json:"token"`
}

// OpenSession godoc
// @Summary 建立看板会话
// @Description 保存学习后端签发的令牌，并通过 HttpOnly Cookie 返回会话ID
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body OpenSessionRequest true "后端令牌"
// @Success 201 {object} util.Response{data=map[string]interface{}} "会话已建立"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "令牌无效或已过期"
// @Router /session [post]
func (c *SessionController) OpenSession(ctx *gin.Context) {
	var req OpenSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(req.Token, "Bearer "))
	if token == "" {
		respondError(ctx, util.ErrMissingToken)
		return
	}

	sid, claims, err := c.Workspaces.OpenSession(ctx.Request.Context(), token)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(util.SessionCookie, sid, util.SessionCookieAge, "/", "", c.SecureCookie, true)
	util.Created(ctx, gin.H{
		"session_id": sid,
		"user_id":    claims.UserID,
		"email":      claims.Email,
		"role":       claims.Role,
	})
}

// CloseSession godoc
// @Summary 退出看板会话
// @Description 删除保存的令牌并停止进行中的模考计时
// @Tags 会话
// @Produce json
// @Success 200 {object} util.Response "已退出"
// @Failure 401 {object} util.Response "未登录"
// @Router /session [delete]
func (c *SessionController) CloseSession(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	if ws == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.Workspaces.CloseSession(ctx.Request.Context(), ws.SessionID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.SetCookie(util.SessionCookie, "", -1, "/", "", c.SecureCookie, true)
	util.Success(ctx, nil)
}

// Me godoc
// @Summary 当前会话
// @Tags 会话
// @Produce json
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Router /session [get]
func (c *SessionController) Me(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	if ws == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, gin.H{
		"session_id": ws.SessionID,
		"user_id":    ws.Claims.UserID,
		"email":      ws.Claims.Email,
		"role":       ws.Claims.Role,
		"exam_phase": ws.Exam.Phase(),
	})
}
