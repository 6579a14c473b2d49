package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/handler"
	"github.com/lgdark7/timetable/internal/middleware"
	"github.com/lgdark7/timetable/internal/models"
	"github.com/lgdark7/timetable/internal/service"
	"github.com/lgdark7/timetable/pkg/config"
	"github.com/lgdark7/timetable/pkg/logger"
	corsmiddleware "github.com/lgdark7/timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/lgdark7/timetable/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Timetable *handler.TimetableHandler
	Leave     *handler.LeaveHandler
	Metrics   *handler.MetricsHandler
}

// Setup builds the gin engine with global middleware and the versioned API.
func Setup(cfg *config.Config, h Handlers, tokens middleware.TokenValidator, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	teacher := middleware.RequireRoles(models.RoleTeacher)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.JWT(tokens))
	{
		api.GET("/auth/me", h.Auth.Me)
		api.POST("/auth/tokens", admin, h.Auth.IssueToken)
		api.GET("/system/metrics", admin, h.Metrics.Summary)

		api.GET("/departments", h.Catalog.ListDepartments)
		api.POST("/departments", admin, h.Catalog.CreateDepartment)
		api.DELETE("/departments/:id", admin, h.Catalog.DeleteDepartment)

		api.GET("/teachers", h.Catalog.ListTeachers)
		api.POST("/teachers", admin, h.Catalog.CreateTeacher)
		api.DELETE("/teachers/:id", admin, h.Catalog.DeleteTeacher)

		api.GET("/classrooms", h.Catalog.ListClassrooms)
		api.POST("/classrooms", admin, h.Catalog.CreateClassroom)
		api.DELETE("/classrooms/:id", admin, h.Catalog.DeleteClassroom)

		api.GET("/courses", h.Catalog.ListCourses)
		api.POST("/courses", admin, h.Catalog.CreateCourse)
		api.DELETE("/courses/:id", admin, h.Catalog.DeleteCourse)

		api.GET("/allocations", h.Catalog.ListAllocations)
		api.POST("/allocations", admin, h.Catalog.CreateAllocation)
		api.DELETE("/allocations/:id", admin, h.Catalog.DeleteAllocation)

		timetable := api.Group("/timetable")
		{
			timetable.GET("", h.Timetable.List)
			timetable.DELETE("", admin, h.Timetable.Clear)
			timetable.POST("/generate", admin, h.Timetable.Generate)
			timetable.GET("/jobs/:id", admin, h.Timetable.Job)
			timetable.GET("/reports", h.Timetable.Report)
			timetable.GET("/export/departments/:id", h.Timetable.ExportDepartment)
			// Teachers are limited to their own entries by the service.
			timetable.PUT("/:id", h.Timetable.Move)
		}

		api.POST("/leaves", teacher, h.Leave.Create)
		api.GET("/leaves", h.Leave.List)
		api.POST("/leaves/:id/approve", admin, h.Leave.Approve)
		api.POST("/leaves/:id/reject", admin, h.Leave.Reject)
		api.GET("/substitutions", h.Leave.Substitutions)
	}

	return r
}
