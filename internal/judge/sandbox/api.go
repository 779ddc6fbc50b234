package sandbox

import (
	"time"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/profile"
)

// LanguageSpecRepository loads language specifications.
type LanguageSpecRepository interface {
	GetLanguageSpec(id string) (profile.LanguageSpec, error)
}

// JudgeRequest contains all data needed to judge one puzzle.
type JudgeRequest struct {
	PuzzleID   string
	LanguageID string
	// WorkRoot is the host path used to create the run workspace.
	// Empty means the system temp dir.
	WorkRoot string
	// SourcePath is the local path to the student's program.
	SourcePath string

	Groups    []model.TestCaseGroup
	TimeLimit time.Duration

	// ReceivedAt is the unix millisecond timestamp the run was accepted.
	ReceivedAt int64
}
