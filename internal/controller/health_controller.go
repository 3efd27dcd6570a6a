package controller

import (
	"context"
	"time"

	"english_edu_dashboard/internal/service"
	"english_edu_dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Workspaces *service.WorkspaceService
	Hub        *service.ExamHub
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, workspaces *service.WorkspaceService, hub *service.ExamHub) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Workspaces: workspaces, Hub: hub}
}

// @Summary 健康检查
// @Description 检查服务状态；数据库与Redis未启用时不参与检查
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "依赖不可用"
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}

	// 检查数据库连接
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			util.InternalServerError(ctx)
			return
		}
		if err := sqlDB.Ping(); err != nil {
			util.ServiceUnavailable(ctx, "database")
			return
		}
		components["database"] = "up"
	}

	if c.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			util.ServiceUnavailable(ctx, "redis")
			return
		}
		components["redis"] = "up"
	}

	data := gin.H{
		"status":     "ok",
		"components": components,
	}
	if c.Workspaces != nil {
		data["workspaces"] = c.Workspaces.Count()
	}
	if c.Hub != nil {
		data["exam_streams"] = c.Hub.Count()
	}
	util.Success(ctx, data)
}
