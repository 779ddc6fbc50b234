package controller

import "github.com/gin-gonic/gin"

// Register mounts the control API under /api/v1.
func Register(router gin.IRouter, svc ExamService, events EventStream) {
	judge := NewJudgeController(svc)
	session := NewSessionController(svc, events)

	api := router.Group("/api/v1")
	api.POST("/judge", judge.Judge)
	api.POST("/judge/stop", judge.Stop)
	api.GET("/judge/running", judge.Running)
	api.GET("/results", judge.Results)
	api.GET("/puzzles", judge.Puzzles)

	api.GET("/exam", session.Exam)
	api.GET("/config/status", session.ConfigStatus)
	api.POST("/config/local", session.LoadLocalConfig)
	api.POST("/config/remote", session.LoadRemoteConfig)
	api.POST("/student/verify", session.VerifyStudent)
	api.GET("/student", session.Student)
	api.GET("/availability", session.Availability)
	api.POST("/sync/recheck", session.Recheck)
	api.POST("/sync/submit", session.Submit)
	api.GET("/events", session.Events)
}
