// Package spec defines the execution specification and resource limits.
package spec

import "time"

// ResourceLimit describes limits enforced by the engine.
type ResourceLimit struct {
	// WallTime is the hard wall-clock deadline for one run.
	WallTime time.Duration
	// KillGrace is how long a terminated process may linger before SIGKILL.
	KillGrace time.Duration
	// OutputBytes caps each of stdout and stderr.
	OutputBytes int64
}

// RunSpec is the unified execution specification for one test case.
type RunSpec struct {
	PuzzleID string
	TestID   string
	WorkDir  string
	Cmd      []string
	Env      []string
	Stdin    string
	Limits   ResourceLimit
}
