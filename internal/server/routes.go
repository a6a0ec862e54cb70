// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jinxovich/mosprom-sracaton/internal/auth"
	"github.com/jinxovich/mosprom-sracaton/internal/controller/application"
	"github.com/jinxovich/mosprom-sracaton/internal/controller/internship"
	"github.com/jinxovich/mosprom-sracaton/internal/controller/moderation"
	"github.com/jinxovich/mosprom-sracaton/internal/controller/user"
	"github.com/jinxovich/mosprom-sracaton/internal/controller/vacancy"
	"github.com/jinxovich/mosprom-sracaton/internal/middleware"
	"github.com/jinxovich/mosprom-sracaton/internal/model"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()

	allowOriginsStr := os.Getenv("ALLOW_ORIGIN")
	allowOrigins := strings.Split(allowOriginsStr, ",")

	lAuth := auth.NewLocalAuthHandler(s.DB, s.Tokens)
	vacancyCtl := vacancy.NewVacancyController(s.DB)
	internshipCtl := internship.NewInternshipController(s.DB)
	applicationCtl := application.NewApplicationController(s.DB, s.Storage)
	moderationCtl := moderation.NewModerationController(s.DB)
	userCtl := user.NewUserController(s.DB)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.Use(middleware.EnvRateLimitMiddleware())
			authRoute.POST("register", lAuth.RegisterHandler)
			authRoute.POST("token", lAuth.LoginHandler)
		}

		// Public listing endpoints. OptionalAuth lets owners and admins see
		// their own unpublished postings by id without opening them to anyone
		// else.
		vacancyRoute := v1.Group("/vacancies")
		{
			vacancyRoute.GET("", vacancyCtl.GetVacancies)
			vacancyRoute.GET(":id", middleware.OptionalAuth(s.DB, s.Tokens), vacancyCtl.GetVacancyByID)
			vacancyRoute.POST("", middleware.RequireAuth(s.DB, s.Tokens),
				middleware.CheckRole(model.RoleHR), vacancyCtl.CreateVacancy)

			needHRAdmin := vacancyRoute.Group("")
			{
				needHRAdmin.Use(middleware.RequireAuth(s.DB, s.Tokens), middleware.CheckRole(model.RoleHR, model.RoleAdmin))
				needHRAdmin.PATCH(":id", vacancyCtl.EditVacancy)
				needHRAdmin.PATCH(":id/unpublish", vacancyCtl.UnpublishVacancy)
				needHRAdmin.DELETE(":id", vacancyCtl.DeleteVacancy)
			}
		}

		internshipRoute := v1.Group("/internships")
		{
			internshipRoute.GET("", internshipCtl.GetInternships)
			internshipRoute.GET(":id", middleware.OptionalAuth(s.DB, s.Tokens), internshipCtl.GetInternshipByID)
			internshipRoute.POST("", middleware.RequireAuth(s.DB, s.Tokens),
				middleware.CheckRole(model.RoleUniversity), internshipCtl.CreateInternship)

			needUniversityAdmin := internshipRoute.Group("")
			{
				needUniversityAdmin.Use(middleware.RequireAuth(s.DB, s.Tokens), middleware.CheckRole(model.RoleUniversity, model.RoleAdmin))
				needUniversityAdmin.PATCH(":id", internshipCtl.EditInternship)
				needUniversityAdmin.PATCH(":id/unpublish", internshipCtl.UnpublishInternship)
				needUniversityAdmin.DELETE(":id", internshipCtl.DeleteInternship)
			}
		}

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.RequireAuth(s.DB, s.Tokens))

			needAuth.GET("/users/me", userCtl.Me)

			// Own posting listings carry moderation state the public routes hide
			myRoute := needAuth.Group("/my")
			{
				myRoute.GET("vacancies", middleware.CheckRole(model.RoleHR), vacancyCtl.GetMyVacancies)
				myRoute.GET("internships", middleware.CheckRole(model.RoleUniversity), internshipCtl.GetMyInternships)
			}

			applicationRoute := needAuth.Group("/applications")
			{
				applicationRoute.POST("vacancy/:id", middleware.SizeLimit(10<<20), applicationCtl.Apply("vacancy"))
				applicationRoute.POST("internship/:id", middleware.SizeLimit(10<<20), applicationCtl.Apply("internship"))

				applicationRoute.GET("my-vacancy-applications",
					middleware.CheckRole(model.RoleHR), applicationCtl.MyVacancyApplications)
				applicationRoute.GET("my-internship-applications",
					middleware.CheckRole(model.RoleUniversity), applicationCtl.MyInternshipApplications)
				applicationRoute.GET("resume/:id",
					middleware.CheckRole(model.RoleHR, model.RoleUniversity), applicationCtl.DownloadResume)
			}

			moderationRoute := needAuth.Group("/moderation")
			{
				moderationRoute.Use(middleware.CheckRole(model.RoleAdmin))
				moderationRoute.GET("users/pending", moderationCtl.PendingUsers)
				moderationRoute.POST("users/:id/publish", moderationCtl.ApproveUser)
				moderationRoute.POST("users/:id/reject", moderationCtl.RejectUser)

				for _, kindKey := range []string{"vacancy", "internship"} {
					moderationRoute.GET(kindKey+"/pending", moderationCtl.PendingPostings(kindKey))
					moderationRoute.POST(kindKey+"/:id/publish", moderationCtl.PublishPosting(kindKey))
					moderationRoute.POST(kindKey+"/:id/reject", moderationCtl.RejectPosting(kindKey))
				}
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	resp := make(map[string]string)
	resp["message"] = "Hello World"

	c.JSON(http.StatusOK, resp)
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
