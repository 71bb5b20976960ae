package app

import (
	"campus_exam_backend/docs"
	"campus_exam_backend/internal/config"
	"campus_exam_backend/internal/middleware"
	"campus_exam_backend/internal/model"
	"campus_exam_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerStaffRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/sessions/:id/attempts", c.attempt.StartAttempt)

	attempts := rg.Group("/attempts")
	{
		attempts.GET("/mine", c.attempt.ListMyAttempts)
		attempts.PUT("/:id/answers", c.attempt.SaveAnswer)
		attempts.POST("/:id/answers/attachment", c.attempt.UploadAnswerAttachment)
		attempts.POST("/:id/submit", c.attempt.SubmitAttempt)
		attempts.GET("/:id/result", c.result.GetAttemptResult)
	}
}

func (a *App) registerStaffRoutes(rg *gin.RouterGroup, c *controllers) {
	staff := rg.Group("/staff")
	staff.Use(middleware.RoleMiddleware(model.Staff))
	{
		staff.POST("/courses", c.examAdmin.CreateCourse)
		staff.POST("/courses/:id/lecturers", c.examAdmin.AssignLecturer)

		staff.GET("/exams", c.examAdmin.ListExams)
		staff.POST("/exams", c.examAdmin.CreateExam)
		staff.PUT("/exams/:id", c.examAdmin.UpdateExam)
		staff.PUT("/exams/:id/status", c.examAdmin.UpdateExamStatus)
		staff.GET("/exams/:id/sessions", c.examAdmin.ListSessions)
		staff.POST("/exams/:id/questions", c.examAdmin.AddQuestion)
		staff.PUT("/exams/:id/questions/:qid", c.examAdmin.UpdateQuestion)
		staff.DELETE("/exams/:id/questions/:qid", c.examAdmin.DeleteQuestion)

		staff.POST("/sessions", c.examAdmin.CreateSession)
		staff.POST("/sessions/:id/close", c.examAdmin.CloseSession)
		staff.POST("/sessions/:id/assignments", c.examAdmin.AssignStudent)

		staff.GET("/exams/:id/attempts/pending-grading", c.grading.ListPendingGrading)
		staff.POST("/attempts/:id/grade", c.grading.GradeAttempt)
	}
}
