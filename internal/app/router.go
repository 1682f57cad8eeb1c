package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	registerPublicRoutes(router, c)

	// 2. 学员路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	registerLearnerRoutes(authGroup, c)

	// 3. 管理员路由
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	registerAdminRoutes(admin, c)
}

func registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:courseId", c.course.GetCourse)
		public.GET("/courses/:courseId/modules/:moduleId", c.course.GetModule)
		public.GET("/courses/:courseId/reviews", c.course.ListReviews)

		public.GET("/blog", c.blog.ListPosts)
		public.GET("/blog/:slug", c.blog.GetPost)

		public.GET("/certificates/:id", c.certificate.VerifyCertificate)
	}
}

func registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	rg.POST("/courses/:courseId/enroll", c.course.Enroll)
	rg.GET("/enrollments", c.course.MyEnrollments)
	rg.POST("/courses/:courseId/reviews", c.course.ReviewCourse)

	assessment := rg.Group("/courses/:courseId/modules/:moduleId/assessment")
	{
		assessment.GET("", c.assessment.LoadAssessment)
		assessment.GET("/state", c.assessment.State)
		assessment.POST("/submit", c.assessment.Submit)
		assessment.POST("/submit/stream", c.assessment.SubmitStream)
		assessment.POST("/retry", c.assessment.Retry)
	}

	rg.GET("/certificates", c.certificate.MyCertificates)
}

func registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/dashboard", c.dashboard.GetDashboard)

	users := rg.Group("/users")
	{
		users.GET("", c.user.GetUsers)
		users.GET("/:id", c.user.GetUser)
		users.PUT("/:id", c.user.UpdateUser)
		users.DELETE("/:id", c.user.DeleteUser)
		users.POST("/:id/reset-password", c.user.ResetPassword)
		users.POST("/:id/disable", c.user.DisableUser)
	}

	courses := rg.Group("/courses")
	{
		courses.GET("", c.course.AdminListCourses)
		courses.POST("", c.course.CreateCourse)
		courses.GET("/:courseId", c.course.AdminGetCourse)
		courses.PUT("/:courseId", c.course.UpdateCourse)
		courses.DELETE("/:courseId", c.course.DeleteCourse)

		courses.POST("/:courseId/modules", c.course.CreateModule)
		courses.PUT("/:courseId/modules/:moduleId", c.course.UpdateModule)
		courses.DELETE("/:courseId/modules/:moduleId", c.course.DeleteModule)
		courses.POST("/:courseId/modules/:moduleId/video", c.course.UploadModuleVideo)

		courses.GET("/:courseId/modules/:moduleId/quiz", c.quiz.GetQuiz)
		courses.PUT("/:courseId/modules/:moduleId/quiz", c.quiz.SaveQuiz)
		courses.DELETE("/:courseId/modules/:moduleId/quiz", c.quiz.DeleteQuiz)
		courses.DELETE("/:courseId/modules/:moduleId/quiz/questions/:questionId/options/:position", c.quiz.RemoveOption)
	}

	blog := rg.Group("/blog")
	{
		blog.GET("", c.blog.AdminListPosts)
		blog.POST("", c.blog.CreatePost)
		blog.GET("/:id", c.blog.AdminGetPost)
		blog.PUT("/:id", c.blog.UpdatePost)
		blog.DELETE("/:id", c.blog.DeletePost)
	}
}
