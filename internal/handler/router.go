package handler

import "github.com/gin-gonic/gin"

// Handlers groups the route handlers mounted under the API prefix.
type Handlers struct {
	Schedules   *ScheduleHandler
	Semesters   *SemesterHandler
	Catalog     *CatalogHandler
	Identifiers *IdentifierHandler
	Ops         *OpsHandler
}

// Register mounts every API route on group. identifierLimit guards the
// identifier allocation endpoints.
func Register(group *gin.RouterGroup, h Handlers, identifierLimit gin.HandlerFunc) {
	schedules := group.Group("/schedules")
	schedules.POST("", h.Schedules.Create)
	schedules.GET("/:id", h.Schedules.Get)
	schedules.PATCH("/:id", h.Schedules.Update)
	schedules.DELETE("/:id", h.Schedules.Delete)

	rooms := group.Group("/rooms")
	rooms.GET("/available", h.Schedules.AvailableRooms)
	rooms.POST("", h.Catalog.CreateRoom)
	rooms.GET("", h.Catalog.ListRooms)
	rooms.DELETE("/:id", h.Catalog.DeactivateRoom)
	rooms.DELETE("/:id/purge", h.Catalog.PurgeRoom)
	rooms.GET("/:id/timetable", h.Catalog.RoomTimetable)

	group.POST("/programs", h.Catalog.CreateProgram)
	group.POST("/academic-years", h.Catalog.CreateAcademicYear)
	group.POST("/classes", h.Catalog.CreateClassSection)
	group.GET("/classes/:id/timetable", h.Catalog.ClassTimetable)

	semesters := group.Group("/semesters")
	semesters.POST("", h.Semesters.Create)
	semesters.GET("/:id", h.Semesters.Get)
	semesters.PATCH("/:id", h.Semesters.Update)
	semesters.DELETE("/:id", h.Semesters.Delete)
	semesters.DELETE("/:id/purge", h.Semesters.Purge)

	if identifierLimit == nil {
		identifierLimit = func(c *gin.Context) { c.Next() }
	}
	group.POST("/identifiers", identifierLimit, h.Identifiers.Allocate)
	group.POST("/staff", identifierLimit, h.Identifiers.RegisterStaff)

	group.GET("/admin/invariants", h.Ops.Invariants)
	group.POST("/admin/invariants/audit", h.Ops.ScheduleAudit)
}
