package routes

import (
	"time"

	"classched/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRegistrationRoutes registers CSV upload and job endpoints.
func RegisterRegistrationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/registrations")
	{
		api.POST("", hb.UploadRegistrationsHandler)
		api.GET("/jobs/:jobID", hb.GetIngestJobHandler)
	}
}

// RegisterScheduleRoutes registers the read-only schedule endpoints.
func RegisterScheduleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/schedules", hb.ListSchedulesHandler)
		api.GET("/schedules/instructor-counts", hb.InstructorCountsHandler)
		api.GET("/instructors", hb.ListInstructorsHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterRegistrationRoutes(r, hb)
	RegisterScheduleRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
