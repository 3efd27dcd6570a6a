package controller

import (
	"context"
	"errors"

	"english_edu_dashboard/internal/middleware"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// CoachingController 写作批改、学习进度、入学测评
type CoachingController struct{}

func NewCoachingController() *CoachingController {
	return &CoachingController{}
}

// EssayRequest 作文提交
// swagger:model EssayRequest
type EssayRequest struct {
	Prompt string `json:"prompt"`
	Text   string `json:"text" binding:"required"`
}

// OnboardingAnswersRequest 入学测评答卷，键为题目ID
// swagger:model OnboardingAnswersRequest
type OnboardingAnswersRequest struct {
	Answers []model.OnboardingAnswer `json:"answers" binding:"required"`
}

// SubmitEssay godoc
// @Summary 提交作文批改
// @Description wait=true 时等待批改完成再返回
// @Tags 写作批改
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param wait query bool false "等待结果"
// @Param request body EssayRequest true "作文"
// @Success 200 {object} util.Response{data=model.EssayFeedback} "成功"
// @Success 202 {object} util.Response{data=model.EssayFeedback} "批改中"
// @Router /clinic/essays [post]
func (c *CoachingController) SubmitEssay(ctx *gin.Context) {
	var req EssayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ws := middleware.GetWorkspace(ctx)
	fb, err := ws.Stores.Clinic.Submit(ctx.Request.Context(), model.EssaySubmission{Prompt: req.Prompt, Text: req.Text})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if ctx.Query("wait") == "true" && fb.ID != "" {
		fb, err = ws.Stores.Clinic.Await(ctx.Request.Context(), fb.ID)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			respondError(ctx, err)
			return
		}
	}
	c.feedback(ctx, fb)
}

// EssayFeedback godoc
// @Summary 查询批改结果
// @Tags 写作批改
// @Produce json
// @Security SessionAuth
// @Param id path string true "作文ID"
// @Success 200 {object} util.Response{data=model.EssayFeedback} "成功"
// @Success 202 {object} util.Response{data=model.EssayFeedback} "批改中"
// @Router /clinic/essays/{id} [get]
func (c *CoachingController) EssayFeedback(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	fb, err := ws.Stores.Clinic.Feedback(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	c.feedback(ctx, fb)
}

func (c *CoachingController) feedback(ctx *gin.Context, fb *model.EssayFeedback) {
	if fb == nil {
		util.BadGateway(ctx, "empty feedback")
		return
	}
	switch fb.Status {
	case model.EssayStatusDone, model.EssayStatusFailed:
		util.Success(ctx, fb)
	default:
		util.Pending(ctx, fb)
	}
}

// Progress godoc
// @Summary 学习进度概览
// @Tags 学习进度
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=model.ProgressOverview} "成功"
// @Router /progress [get]
func (c *CoachingController) Progress(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	o, err := ws.Stores.Progress.Overview(ctx.Request.Context())
	if err != nil {
		if cached := ws.Stores.Progress.Cached(); cached != nil {
			util.Stale(ctx, cached)
			return
		}
		respondError(ctx, err)
		return
	}
	util.Success(ctx, o)
}

// OnboardingQuestions godoc
// @Summary 入学测评题目
// @Tags 入学测评
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=[]model.OnboardingQuestion} "成功"
// @Router /onboarding/questions [get]
func (c *CoachingController) OnboardingQuestions(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	qs, err := ws.Stores.Onboarding.Questions(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, qs)
}

// OnboardingSubmit godoc
// @Summary 提交入学测评
// @Description 需先获取题目，且每题都要作答
// @Tags 入学测评
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body OnboardingAnswersRequest true "答卷"
// @Success 200 {object} util.Response{data=model.OnboardingResult} "成功"
// @Failure 400 {object} util.Response "未作答完整"
// @Router /onboarding/answers [post]
func (c *CoachingController) OnboardingSubmit(ctx *gin.Context) {
	var req OnboardingAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	answers := make(map[uint]string, len(req.Answers))
	for _, a := range req.Answers {
		answers[a.QuestionID] = a.Answer
	}

	ws := middleware.GetWorkspace(ctx)
	res, err := ws.Stores.Onboarding.Submit(ctx.Request.Context(), answers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
