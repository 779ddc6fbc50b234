package runner

import (
	"context"
	"time"

	"examclient/internal/judge/sandbox/profile"
	"examclient/internal/judge/sandbox/result"
)

// RunRequest describes one test case execution.
type RunRequest struct {
	PuzzleID   string
	TestID     string
	Language   profile.LanguageSpec
	WorkDir    string
	SourcePath string
	Input      string
	Expected   string
	TimeLimit  time.Duration
}

// Runner executes one test case and classifies it.
//
// Run returns an error only when the request itself is unusable; every
// execution outcome, including a missing interpreter, becomes a verdict.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (result.CaseResult, error)
}
