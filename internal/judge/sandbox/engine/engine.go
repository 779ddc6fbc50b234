package engine

import (
	"context"

	"examclient/internal/judge/sandbox/result"
	"examclient/internal/judge/sandbox/spec"
)

// Engine executes a RunSpec in a short-lived subprocess.
//
// Cancelling ctx terminates the process through the same SIGTERM/SIGKILL
// path as the wall-clock deadline; the returned ExecResult reports which
// of the two fired.
type Engine interface {
	Run(ctx context.Context, runSpec spec.RunSpec) (result.ExecResult, error)
}
