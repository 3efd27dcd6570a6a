package controller

import (
	"english_edu_dashboard/internal/middleware"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// GameController 竞技场、任务、每日任务与经验值
type GameController struct{}

func NewGameController() *GameController {
	return &GameController{}
}

// ArenaMatchRequest 匹配请求
// swagger:model ArenaMatchRequest
type ArenaMatchRequest struct {
	Mode string `json:"mode"`
}

// ArenaAnswerRequest 对战答题
// swagger:model ArenaAnswerRequest
type ArenaAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

func rewardOf(xp int) *model.RewardResult {
	return &model.RewardResult{XPGained: xp}
}

// Match godoc
// @Summary 竞技场匹配
// @Tags 竞技场
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body ArenaMatchRequest false "模式"
// @Success 200 {object} util.Response{data=model.ArenaBattle} "成功"
// @Router /arena/match [post]
func (c *GameController) Match(ctx *gin.Context) {
	var req ArenaMatchRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	ws := middleware.GetWorkspace(ctx)
	battle, err := ws.Stores.Arena.Match(ctx.Request.Context(), req.Mode)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, battle)
}

// Battle godoc
// @Summary 对战状态
// @Tags 竞技场
// @Produce json
// @Security SessionAuth
// @Param id path string true "对战ID"
// @Success 200 {object} util.Response{data=model.ArenaBattle} "成功"
// @Router /arena/battles/{id} [get]
func (c *GameController) Battle(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	battle, err := ws.Stores.Arena.Battle(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, battle)
}

// BattleAnswer godoc
// @Summary 对战答题
// @Tags 竞技场
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "对战ID"
// @Param request body ArenaAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=model.ArenaBattle} "成功"
// @Router /arena/battles/{id}/answer [post]
func (c *GameController) BattleAnswer(ctx *gin.Context) {
	var req ArenaAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	ws := middleware.GetWorkspace(ctx)
	battle, err := ws.Stores.Arena.Answer(ctx.Request.Context(), ctx.Param("id"), req.QuestionID, req.Answer)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, battle)
}

// Quests godoc
// @Summary 任务列表
// @Tags 任务
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=[]model.Quest} "成功"
// @Router /quests [get]
func (c *GameController) Quests(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	quests, err := ws.Stores.Quests.Quests(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quests)
}

// ClaimQuest godoc
// @Summary 领取任务奖励
// @Tags 任务
// @Produce json
// @Security SessionAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response{data=model.RewardResult} "成功"
// @Failure 400 {object} util.Response "不可领取"
// @Router /quests/{id}/claim [post]
func (c *GameController) ClaimQuest(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	ws := middleware.GetWorkspace(ctx)
	reward, err := ws.Stores.Quests.Claim(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ws.Stores.XP.ApplyReward(reward)
	util.Success(ctx, reward)
}

// DailyMissions godoc
// @Summary 每日任务
// @Tags 任务
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=[]model.Mission} "成功"
// @Router /missions/daily [get]
func (c *GameController) DailyMissions(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	list, err := ws.Stores.Missions.Daily(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// CompleteMission godoc
// @Summary 完成每日任务
// @Tags 任务
// @Produce json
// @Security SessionAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response{data=model.RewardResult} "成功"
// @Router /missions/{id}/complete [post]
func (c *GameController) CompleteMission(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	ws := middleware.GetWorkspace(ctx)
	reward, err := ws.Stores.Missions.Complete(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ws.Stores.XP.ApplyReward(reward)
	util.Success(ctx, reward)
}

// XPSummary godoc
// @Summary 经验值概览
// @Tags 经验值
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=model.XPSummary} "成功"
// @Router /xp [get]
func (c *GameController) XPSummary(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	sum, err := ws.Stores.XP.Summary(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sum)
}
