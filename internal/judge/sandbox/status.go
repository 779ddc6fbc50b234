package sandbox

import (
	"context"

	"examclient/internal/judge/sandbox/result"
)

// Progress carries intermediate judge progress. It never carries program
// output, so it is safe to push for hidden cases.
type Progress struct {
	PuzzleID   string         `json:"puzzleId"`
	Total      int            `json:"total"`
	Done       int            `json:"done"`
	CaseID     string         `json:"caseId,omitempty"`
	Verdict    result.Verdict `json:"verdict,omitempty"`
	Finished   bool           `json:"finished"`
	ReceivedAt int64          `json:"receivedAt"`
}

// ProgressReporter publishes intermediate progress updates.
type ProgressReporter interface {
	ReportProgress(ctx context.Context, update Progress) error
}
