package app

import (
	"english_edu_dashboard/docs"
	"english_edu_dashboard/internal/middleware"

	"english_edu_dashboard/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需会话)
	a.registerPublicRoutes(router, c)

	session := middleware.SessionMiddleware(s.workspaces)

	// 2. 需要会话的接口
	api := router.Group("/api")
	api.Use(session)
	{
		api.DELETE("/session", c.session.CloseSession)
		api.GET("/session", c.session.Me)

		a.registerExamRoutes(api, c)
		a.registerPracticeRoutes(api, c)
		a.registerGameRoutes(api, c)
		a.registerCoachingRoutes(api, c)
	}

	// 3. 服务端渲染的考试页面
	pages := router.Group("/")
	pages.Use(session)
	{
		pages.GET("/exam", c.exam.Screen)
		pages.GET("/exam/history", c.exam.HistoryScreen)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	router.GET("/health", c.health.HealthCheck)
	router.GET("/api/health", c.health.HealthCheck)
	router.POST("/api/session", c.session.OpenSession)
}

func (a *App) registerExamRoutes(api *gin.RouterGroup, c *controllers) {
	mock := api.Group("/exam/mock")
	{
		mock.GET("", c.exam.GetMock)
		mock.POST("/start", c.exam.StartMock)
		mock.POST("/answers", c.exam.SetAnswer)
		mock.POST("/page", c.exam.GoToPage)
		mock.POST("/jump", c.exam.JumpToQuestion)
		mock.POST("/answer-card", c.exam.SetAnswerCard)
		mock.POST("/submit", c.exam.Submit)
		mock.POST("/reset", c.exam.Reset)
		mock.GET("/history", c.exam.History)
		mock.GET("/result/:id", c.exam.Result)
		mock.GET("/archive/:id", c.exam.Archived)
		mock.GET("/ws", c.exam.Stream)
	}
}

func (a *App) registerPracticeRoutes(api *gin.RouterGroup, c *controllers) {
	grammar := api.Group("/grammar")
	{
		grammar.GET("/topics", c.practice.GrammarTopics)
		grammar.GET("/topics/:id/exercises", c.practice.GrammarExercises)
		grammar.POST("/exercises/:id/check", c.practice.GrammarCheck)
	}

	api.GET("/textbook/units", c.practice.TextbookUnits)
	api.GET("/textbook/units/:id", c.practice.TextbookUnit)

	stories := api.Group("/stories")
	{
		stories.GET("", c.practice.Stories)
		stories.GET("/:id", c.practice.Story)
		stories.POST("/:id/progress", c.practice.SaveStoryProgress)
	}
}

func (a *App) registerGameRoutes(api *gin.RouterGroup, c *controllers) {
	arena := api.Group("/arena")
	{
		arena.POST("/match", c.game.Match)
		arena.GET("/battles/:id", c.game.Battle)
		arena.POST("/battles/:id/answer", c.game.BattleAnswer)
	}

	api.GET("/quests", c.game.Quests)
	api.POST("/quests/:id/claim", c.game.ClaimQuest)
	api.GET("/missions/daily", c.game.DailyMissions)
	api.POST("/missions/:id/complete", c.game.CompleteMission)
	api.GET("/xp", c.game.XPSummary)
}

func (a *App) registerCoachingRoutes(api *gin.RouterGroup, c *controllers) {
	clinic := api.Group("/clinic")
	{
		clinic.POST("/essays", c.coaching.SubmitEssay)
		clinic.GET("/essays/:id", c.coaching.EssayFeedback)
	}

	api.GET("/progress", c.coaching.Progress)

	onboarding := api.Group("/onboarding")
	{
		onboarding.GET("/questions", c.coaching.OnboardingQuestions)
		onboarding.POST("/answers", c.coaching.OnboardingSubmit)
	}
}
