package controller

import (
	"context"
	"net/http"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
	"examclient/internal/store"
)

// ExamService is what the control API needs from the judge service.
type ExamService interface {
	Judge(ctx context.Context, puzzleID, sourcePath string) (result.RunResult, error)
	ForceStop(ctx context.Context) bool
	Running() (string, bool)
	TestResults() result.Table
	PuzzleSummaries() ([]model.PuzzleSummary, error)
	ExamInfo() (model.ExamInfo, error)
	ServerAvailability() bool
	ConfigStatus() store.ConfigStatus
	VerifyStudent(ctx context.Context, studentID string) (model.StudentInformation, error)
	Student() store.Student
	LoadLocalConfig(ctx context.Context, path string) error
	LoadRemoteConfig(ctx context.Context, host string) error
	Recheck(ctx context.Context) bool
	SubmitNow(ctx context.Context) bool
}

// EventStream upgrades a request to the UI event channel.
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// JudgeRequest starts a judging run.
type JudgeRequest struct {
	PuzzleID   string `json:"puzzleId" binding:"required"`
	SourcePath string `json:"sourcePath" binding:"required"`
}

// StopResponse reports whether a run was stopped.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// RunningResponse describes the run in progress.
type RunningResponse struct {
	Running  bool   `json:"running"`
	PuzzleID string `json:"puzzleId,omitempty"`
}

// VerifyStudentRequest carries the id typed by the student.
type VerifyStudentRequest struct {
	StudentID string `json:"studentID" binding:"required"`
}

// LocalConfigRequest points at a config.json on disk.
type LocalConfigRequest struct {
	Path string `json:"path" binding:"required"`
}

// RemoteConfigRequest names the grading server to fetch config from.
type RemoteConfigRequest struct {
	Host string `json:"host" binding:"required"`
}

// SubmitResponse reports whether the submission archive was uploaded.
type SubmitResponse struct {
	Uploaded bool `json:"uploaded"`
}

// AvailabilityResponse reports server reachability.
type AvailabilityResponse struct {
	Alive bool `json:"alive"`
}
