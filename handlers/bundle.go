package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Registration endpoints
	UploadRegistrationsHandler gin.HandlerFunc
	GetIngestJobHandler        gin.HandlerFunc

	// Schedule endpoints
	ListSchedulesHandler    gin.HandlerFunc
	InstructorCountsHandler gin.HandlerFunc
	ListInstructorsHandler  gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from the schedule and health handlers.
func NewHandlerBundle(sh *ScheduleHandler, hh *HealthHandler) *HandlerBundle {
	return &HandlerBundle{
		UploadRegistrationsHandler: sh.UploadRegistrationsHandler,
		GetIngestJobHandler:        sh.GetIngestJobHandler,
		ListSchedulesHandler:       sh.ListSchedulesHandler,
		InstructorCountsHandler:    sh.InstructorCountsHandler,
		ListInstructorsHandler:     sh.ListInstructorsHandler,
		HealthHandler:              hh.HealthHandler,
	}
}
