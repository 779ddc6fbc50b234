package controller

import (
	"examclient/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeController handles judging endpoints.
type JudgeController struct {
	svc ExamService
}

// NewJudgeController creates a new controller.
func NewJudgeController(svc ExamService) *JudgeController {
	return &JudgeController{svc: svc}
}

// Judge runs the student's program and returns the masked result.
func (h *JudgeController) Judge(c *gin.Context) {
	var req JudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	res, err := h.svc.Judge(c.Request.Context(), req.PuzzleID, req.SourcePath)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Stop force-stops the run in progress.
func (h *JudgeController) Stop(c *gin.Context) {
	response.Success(c, StopResponse{Stopped: h.svc.ForceStop(c.Request.Context())})
}

// Running reports the run in progress.
func (h *JudgeController) Running(c *gin.Context) {
	puzzleID, running := h.svc.Running()
	response.Success(c, RunningResponse{Running: running, PuzzleID: puzzleID})
}

// Results returns every stored result with hidden output removed.
func (h *JudgeController) Results(c *gin.Context) {
	response.Success(c, h.svc.TestResults())
}

// Puzzles lists the exam's puzzles.
func (h *JudgeController) Puzzles(c *gin.Context) {
	puzzles, err := h.svc.PuzzleSummaries()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, puzzles)
}
