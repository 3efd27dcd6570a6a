package controller

import (
	"english_edu_dashboard/internal/middleware"
	"english_edu_dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// PracticeController 语法、教材词汇、分级故事阅读
type PracticeController struct{}

func NewPracticeController() *PracticeController {
	return &PracticeController{}
}

// GrammarCheckRequest 语法练习作答
// swagger:model GrammarCheckRequest
type GrammarCheckRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// StoryProgressRequest 阅读进度
// swagger:model StoryProgressRequest
type StoryProgressRequest struct {
	Chapter *int `json:"chapter" binding:"required"`
}

// GrammarTopics godoc
// @Summary 语法专题列表
// @Tags 语法练习
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=[]model.GrammarTopic} "成功"
// @Router /grammar/topics [get]
func (c *PracticeController) GrammarTopics(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	topics, err := ws.Stores.Grammar.Topics(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// GrammarExercises godoc
// @Summary 专题练习题
// @Tags 语法练习
// @Produce json
// @Security SessionAuth
// @Param id path int true "专题ID"
// @Success 200 {object} util.Response{data=[]model.GrammarExercise} "成功"
// @Router /grammar/topics/{id}/exercises [get]
func (c *PracticeController) GrammarExercises(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	ws := middleware.GetWorkspace(ctx)
	list, err := ws.Stores.Grammar.Exercises(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GrammarCheck godoc
// @Summary 提交语法练习答案
// @Tags 语法练习
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path int true "练习ID"
// @Param request body GrammarCheckRequest true "答案"
// @Success 200 {object} util.Response{data=model.GrammarCheckResult} "成功"
// @Router /grammar/exercises/{id}/check [post]
func (c *PracticeController) GrammarCheck(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req GrammarCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ws := middleware.GetWorkspace(ctx)
	res, err := ws.Stores.Grammar.Check(ctx.Request.Context(), id, req.Answer)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if res.XPGained > 0 {
		ws.Stores.XP.ApplyReward(rewardOf(res.XPGained))
	}
	util.Success(ctx, res)
}

// TextbookUnits godoc
// @Summary 教材单元列表
// @Tags 教材词汇
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=[]model.TextbookUnit} "成功"
// @Router /textbook/units [get]
func (c *PracticeController) TextbookUnits(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	units, err := ws.Stores.Textbook.Units(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, units)
}

// TextbookUnit godoc
// @Summary 单元词汇
// @Tags 教材词汇
// @Produce json
// @Security SessionAuth
// @Param id path int true "单元ID"
// @Success 200 {object} util.Response{data=model.TextbookUnitDetail} "成功"
// @Router /textbook/units/{id} [get]
func (c *PracticeController) TextbookUnit(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	ws := middleware.GetWorkspace(ctx)
	unit, err := ws.Stores.Textbook.Unit(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, unit)
}

// Stories godoc
// @Summary 分级故事列表
// @Tags 故事阅读
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=[]model.StorySummary} "成功"
// @Router /stories [get]
func (c *PracticeController) Stories(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	list, err := ws.Stores.Story.Stories(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Story godoc
// @Summary 故事详情
// @Tags 故事阅读
// @Produce json
// @Security SessionAuth
// @Param id path int true "故事ID"
// @Success 200 {object} util.Response{data=model.StoryDetail} "成功"
// @Router /stories/{id} [get]
func (c *PracticeController) Story(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	ws := middleware.GetWorkspace(ctx)
	story, err := ws.Stores.Story.Story(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, story)
}

// SaveStoryProgress godoc
// @Summary 保存阅读进度
// @Tags 故事阅读
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path int true "故事ID"
// @Param request body StoryProgressRequest true "章节"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "章节越界"
// @Router /stories/{id}/progress [post]
func (c *PracticeController) SaveStoryProgress(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req StoryProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ws := middleware.GetWorkspace(ctx)
	if err := ws.Stores.Story.SaveProgress(ctx.Request.Context(), id, *req.Chapter); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"story_id": id, "chapter": *req.Chapter})
}
