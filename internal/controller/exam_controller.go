package controller

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"english_edu_dashboard/internal/exam"
	"english_edu_dashboard/internal/middleware"
	"english_edu_dashboard/internal/service"
	"english_edu_dashboard/internal/store"
	"english_edu_dashboard/internal/util"
	"english_edu_dashboard/internal/view"

	"github.com/gin-gonic/gin"
)

// ExamController 处理模拟考试相关的API请求
type ExamController struct {
	Exams *service.ExamService
	Hub   *service.ExamHub
}

func NewExamController(exams *service.ExamService, hub *service.ExamHub) *ExamController {
	return &ExamController{Exams: exams, Hub: hub}
}

// StartMockRequest 开始模考请求
// swagger:model StartMockRequest
type StartMockRequest struct {
	ExamType string `json:"exam_type"`
}

// AnswerRequest sets one answer. Option-based questions send the option text
// as shown; free-text questions send text.
// swagger:model AnswerRequest
type AnswerRequest struct {
	QuestionID uint    `json:"question_id" binding:"required"`
	Option     *string `json:"option"`
	Text       *string `json:"text"`
}

// PageRequest 翻页请求，index 与 direction 二选一
// swagger:model PageRequest
type PageRequest struct {
	Index     *int   `json:"index"`
	Direction string `json:"direction" binding:"omitempty,oneof=next prev"`
}

// JumpRequest 答题卡跳题请求
// swagger:model JumpRequest
type JumpRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
}

// AnswerCardRequest 答题卡开关
// swagger:model AnswerCardRequest
type AnswerCardRequest struct {
	Open bool `json:"open"`
}

// SubmitRequest 手动交卷请求
// swagger:model SubmitRequest
type SubmitRequest struct {
	Trigger string `json:"trigger" binding:"omitempty,oneof=nav_bar answer_card"`
}

// StartMock godoc
// @Summary 开始模拟考试
// @Description 从学习后端拉取一套新试卷并开始计时
// @Tags 模拟考试
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body StartMockRequest false "考试类型"
// @Success 200 {object} util.Response{data=exam.View} "成功"
// @Failure 409 {object} util.Response "已有考试在进行"
// @Failure 502 {object} util.Response "后端错误"
// @Router /exam/mock/start [post]
func (c *ExamController) StartMock(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	var req StartMockRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	if _, err := c.Exams.Start(ctx.Request.Context(), ws, req.ExamType); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, ws.Exam.Snapshot())
}

// GetMock godoc
// @Summary 当前模考状态
// @Description 返回阶段、剩余时间、当前页、答题卡等视图数据
// @Tags 模拟考试
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=exam.View} "成功"
// @Router /exam/mock [get]
func (c *ExamController) GetMock(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	util.Success(ctx, ws.Exam.Snapshot())
}

// SetAnswer godoc
// @Summary 作答
// @Description 选择题提交选项文本，写作与语法填空提交文本
// @Tags 模拟考试
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body AnswerRequest true "答案"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 400 {object} util.Response "题目或选项无效"
// @Failure 409 {object} util.Response "没有进行中的考试"
// @Router /exam/mock/answers [post]
func (c *ExamController) SetAnswer(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	switch {
	case req.Option != nil:
		letter, err := ws.Exam.SelectOption(req.QuestionID, *req.Option)
		if err != nil {
			respondError(ctx, err)
			return
		}
		util.Success(ctx, gin.H{"question_id": req.QuestionID, "answer": letter, "answered": ws.Exam.AnsweredCount()})
	case req.Text != nil:
		words, err := ws.Exam.SetText(req.QuestionID, *req.Text)
		if err != nil {
			respondError(ctx, err)
			return
		}
		util.Success(ctx, gin.H{"question_id": req.QuestionID, "word_count": words, "answered": ws.Exam.AnsweredCount()})
	default:
		respondError(ctx, util.ErrMissingAnswer)
	}
}

// GoToPage godoc
// @Summary 翻页
// @Tags 模拟考试
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body PageRequest true "目标页"
// @Success 200 {object} util.Response{data=exam.View} "成功"
// @Failure 400 {object} util.Response "页码越界"
// @Router /exam/mock/page [post]
func (c *ExamController) GoToPage(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	var req PageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var ok bool
	switch {
	case req.Index != nil:
		ok = ws.Exam.GoToPage(*req.Index)
	case req.Direction == "next":
		ok = ws.Exam.NextPage()
	case req.Direction == "prev":
		ok = ws.Exam.PrevPage()
	default:
		util.BadRequest(ctx, "index or direction is required")
		return
	}
	if !ok {
		respondError(ctx, exam.ErrPageOutOfRange)
		return
	}
	util.Success(ctx, ws.Exam.Snapshot())
}

// JumpToQuestion godoc
// @Summary 答题卡跳题
// @Description 切换到题目所在页并滚动到该题
// @Tags 模拟考试
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body JumpRequest true "题目ID"
// @Success 200 {object} util.Response{data=exam.View} "成功"
// @Failure 400 {object} util.Response "题目不存在"
// @Router /exam/mock/jump [post]
func (c *ExamController) JumpToQuestion(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	var req JumpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !ws.Exam.JumpToQuestion(req.QuestionID) {
		respondError(ctx, exam.ErrUnknownQuestion)
		return
	}
	util.Success(ctx, ws.Exam.Snapshot())
}

// SetAnswerCard godoc
// @Summary 打开或关闭答题卡
// @Tags 模拟考试
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body AnswerCardRequest true "开关"
// @Success 200 {object} util.Response{data=exam.View} "成功"
// @Router /exam/mock/answer-card [post]
func (c *ExamController) SetAnswerCard(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	var req AnswerCardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	ws.Exam.SetAnswerCardOpen(req.Open)
	util.Success(ctx, ws.Exam.Snapshot())
}

// Submit godoc
// @Summary 交卷
// @Description 手动交卷；至少需要作答一题
// @Tags 模拟考试
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param request body SubmitRequest false "交卷入口"
// @Success 200 {object} util.Response{data=model.MockResult} "成绩"
// @Failure 400 {object} util.Response "尚未作答"
// @Failure 409 {object} util.Response "没有进行中的考试"
// @Failure 502 {object} util.Response "后端错误，可重试"
// @Router /exam/mock/submit [post]
func (c *ExamController) Submit(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	var req SubmitRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	trigger := exam.TriggerNavBar
	if req.Trigger == string(exam.TriggerAnswerCard) {
		trigger = exam.TriggerAnswerCard
	}

	res, err := c.Exams.Submit(ctx.Request.Context(), ws, trigger)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Reset godoc
// @Summary 放弃当前考试
// @Tags 模拟考试
// @Produce json
// @Security SessionAuth
// @Success 200 {object} util.Response{data=exam.View} "成功"
// @Router /exam/mock/reset [post]
func (c *ExamController) Reset(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	ws.Exam.Reset()
	util.Success(ctx, ws.Exam.Snapshot())
}

// History godoc
// @Summary 模考历史
// @Description 后端历史记录，以及本看板归档的记录
// @Tags 模拟考试
// @Produce json
// @Security SessionAuth
// @Param limit query int false "本地归档条数" default(20)
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Router /exam/mock/history [get]
func (c *ExamController) History(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	history, err := c.Exams.History(ctx.Request.Context(), ws)
	if err != nil {
		respondError(ctx, err)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	attempts, err := c.Exams.LocalAttempts(ws, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"history": history, "archived": attempts})
}

// Result godoc
// @Summary 查询某次模考成绩
// @Tags 模拟考试
// @Produce json
// @Security SessionAuth
// @Param id path string true "模考ID"
// @Success 200 {object} util.Response{data=model.MockResult} "成功"
// @Router /exam/mock/result/{id} [get]
func (c *ExamController) Result(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	res, err := ws.Stores.Exam.Result(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Archived godoc
// @Summary 本地归档的作答快照
// @Description 含提交的答案与后端返回的原始成绩
// @Tags 模拟考试
// @Produce json
// @Security SessionAuth
// @Param id path string true "模考ID"
// @Success 200 {object} util.Response{data=service.ArchivedAttempt} "成功"
// @Failure 404 {object} util.Response "没有归档"
// @Router /exam/mock/archive/{id} [get]
func (c *ExamController) Archived(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	a, err := c.Exams.Archived(ctx.Request.Context(), ws, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrArchiveDisabled) || errors.Is(err, fs.ErrNotExist) {
			util.NotFound(ctx)
			return
		}
		respondError(ctx, err)
		return
	}
	util.Success(ctx, a)
}

// Stream godoc
// @Summary 模考事件推送
// @Description WebSocket：首帧为完整视图，之后推送阶段、计时、作答、翻页事件
// @Tags 模拟考试
// @Security SessionAuth
// @Router /exam/mock/ws [get]
func (c *ExamController) Stream(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	c.Hub.ServeWs(ctx.Writer, ctx.Request, ws)
}

// Screen renders the exam as HTML. ?page=N switches page first.
func (c *ExamController) Screen(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	if p := ctx.Query("page"); p != "" {
		if idx, err := strconv.Atoi(p); err == nil {
			ws.Exam.GoToPage(idx)
		}
	}
	v := ws.Exam.Snapshot()
	ctx.HTML(http.StatusOK, view.ScreenFor(v.Phase), view.ExamData{View: v})
}

// HistoryScreen renders the attempt history as HTML.
func (c *ExamController) HistoryScreen(ctx *gin.Context) {
	ws := middleware.GetWorkspace(ctx)
	data := view.HistoryData{}
	history, err := c.Exams.History(ctx.Request.Context(), ws)
	switch {
	case err == nil:
		data.History = history
	case errors.Is(err, store.ErrBusy):
		data.History = ws.Stores.Exam.CachedHistory()
	default:
		data.History = ws.Stores.Exam.CachedHistory()
		data.Error = ws.Stores.Exam.State().LastError
	}
	ctx.HTML(http.StatusOK, view.ExamHistory, data)
}
