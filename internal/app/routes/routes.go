package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/controllers"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth         *controllers.AuthController
	Course       *controllers.CourseController
	Grade        *controllers.GradeController
	Attendance   *controllers.AttendanceController
	Risk         *controllers.RiskController
	Notification *controllers.NotificationController
	Health       *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", c.Health.Ping)

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", c.Health.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/auth/me", c.Auth.Me)
	authenticated.GET("/me/courses", c.Course.MyCourses)

	professorOnly := authMiddleware.RoleRequired(models.RoleProfessor)

	courses := authenticated.Group("/courses/:courseId")
	{
		courses.GET("/grades", c.Grade.ListCourseGrades)
		courses.GET("/attendance", c.Attendance.ListCourseAttendance)
		courses.GET("/students/:studentId/risk", c.Risk.StudentRisk)

		courses.POST("/enrollments", professorOnly, c.Course.Enroll)
		courses.GET("/enrollments", professorOnly, c.Course.ListEnrollments)
		courses.POST("/grades", professorOnly, c.Grade.CreateGrade)
		courses.PUT("/grades/by-title", professorOnly, c.Grade.UpdateGradeByTitle)
		courses.POST("/attendance", professorOnly, c.Attendance.RecordAttendance)
		courses.POST("/risk-check", professorOnly, c.Risk.RunCourseCheck)
	}

	authenticated.PUT("/grades/:gradeId", professorOnly, c.Grade.UpdateGrade)
	authenticated.PUT("/attendance/:attendanceId", professorOnly, c.Attendance.UpdateAttendance)
	authenticated.GET("/students/:studentId/courses/:courseId/grades", c.Grade.ListStudentGrades)

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", c.Notification.List)
		notifications.GET("/unread-count", c.Notification.UnreadCount)
		notifications.PATCH("/read-all", c.Notification.MarkAllRead)
		notifications.PATCH("/:id/read", c.Notification.MarkRead)
		notifications.DELETE("/:id", c.Notification.Delete)
	}

	// the websocket handshake may carry its token in the query string
	v1.GET("/notifications/ws", authMiddleware.StreamAuth(), c.Notification.Stream)
}
