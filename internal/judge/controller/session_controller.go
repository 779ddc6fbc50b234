package controller

import (
	"examclient/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// SessionController handles exam config, student identity and server sync.
type SessionController struct {
	svc    ExamService
	events EventStream
}

// NewSessionController creates a new controller.
func NewSessionController(svc ExamService, events EventStream) *SessionController {
	return &SessionController{svc: svc, events: events}
}

// Exam returns the exam header.
func (h *SessionController) Exam(c *gin.Context) {
	info, err := h.svc.ExamInfo()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// ConfigStatus reports whether a config is loaded.
func (h *SessionController) ConfigStatus(c *gin.Context) {
	response.Success(c, h.svc.ConfigStatus())
}

// LoadLocalConfig installs a config file chosen by the user.
func (h *SessionController) LoadLocalConfig(c *gin.Context) {
	var req LocalConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	if err := h.svc.LoadLocalConfig(c.Request.Context(), req.Path); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.svc.ConfigStatus())
}

// LoadRemoteConfig fetches the config from a server chosen by the user.
func (h *SessionController) LoadRemoteConfig(c *gin.Context) {
	var req RemoteConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	if err := h.svc.LoadRemoteConfig(c.Request.Context(), req.Host); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.svc.ConfigStatus())
}

// VerifyStudent checks the student id.
func (h *SessionController) VerifyStudent(c *gin.Context) {
	var req VerifyStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	info, err := h.svc.VerifyStudent(c.Request.Context(), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// Student returns the current student.
func (h *SessionController) Student(c *gin.Context) {
	response.Success(c, h.svc.Student())
}

// Availability reports whether the grading server is reachable.
func (h *SessionController) Availability(c *gin.Context) {
	response.Success(c, AvailabilityResponse{Alive: h.svc.ServerAvailability()})
}

// Recheck probes the server now and flushes pending work if it is back.
func (h *SessionController) Recheck(c *gin.Context) {
	response.Success(c, AvailabilityResponse{Alive: h.svc.Recheck(c.Request.Context())})
}

// Submit uploads the submission archive now.
func (h *SessionController) Submit(c *gin.Context) {
	response.Success(c, SubmitResponse{Uploaded: h.svc.SubmitNow(c.Request.Context())})
}

// Events upgrades to the UI websocket.
func (h *SessionController) Events(c *gin.Context) {
	h.events.ServeWS(c.Writer, c.Request)
}
