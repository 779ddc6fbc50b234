// Package result defines sandbox execution results and verdict mapping.
package result

import (
	"strconv"
	"time"
)

// Verdict represents the outcome of one test case.
type Verdict string

const (
	VerdictAC   Verdict = "AC"
	VerdictWA   Verdict = "WA"
	VerdictTLE  Verdict = "TLE"
	VerdictER   Verdict = "ER"
	VerdictSTOP Verdict = "STOP"
)

// ExitStatusTimeout replaces the numeric exit code of a timed-out run.
const ExitStatusTimeout = "terminated-by-timeout"

// ExecResult captures raw subprocess execution data.
type ExecResult struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	TimedOut  bool
	Cancelled bool
	Duration  time.Duration
}

// ExitStatus reports the numeric exit code, or ExitStatusTimeout.
func (r ExecResult) ExitStatus() string {
	if r.TimedOut {
		return ExitStatusTimeout
	}
	return strconv.Itoa(r.ExitCode)
}

// CaseResult is the judged outcome of one test case.
type CaseResult struct {
	ID            string  `json:"id"`
	StatusCode    Verdict `json:"statusCode"`
	Correct       bool    `json:"correct"`
	Output        string  `json:"output"`
	ExecutionTime int64   `json:"executionTime"`
	Error         string  `json:"error,omitempty"`
}

// GroupResult aggregates one test case group.
type GroupResult struct {
	Title        string       `json:"title"`
	ID           int          `json:"id"`
	CaseResults  []CaseResult `json:"caseResults"`
	CaseCount    int          `json:"caseCount"`
	CorrectCount int          `json:"correctCount"`
}

// Add appends a case result and updates the counters.
func (g *GroupResult) Add(res CaseResult) {
	g.CaseResults = append(g.CaseResults, res)
	g.CaseCount++
	if res.Correct {
		g.CorrectCount++
	}
}

// RunResult is the outcome of one judging run for one puzzle.
type RunResult struct {
	PuzzleID     string        `json:"puzzleId"`
	GroupResults []GroupResult `json:"groupResults"`
	CaseCount    int           `json:"caseCount"`
	CorrectCount int           `json:"correctCount"`
	Cancelled    bool          `json:"cancelled"`
	FinishedAt   int64         `json:"finishedAt"`
}

// AddGroup appends a group result and folds its counters into the run.
func (r *RunResult) AddGroup(g GroupResult) {
	if g.CaseResults == nil {
		g.CaseResults = []CaseResult{}
	}
	r.GroupResults = append(r.GroupResults, g)
	r.CaseCount += g.CaseCount
	r.CorrectCount += g.CorrectCount
}

// Clone returns a deep copy.
func (r RunResult) Clone() RunResult {
	out := r
	out.GroupResults = make([]GroupResult, len(r.GroupResults))
	for i, g := range r.GroupResults {
		g.CaseResults = append([]CaseResult{}, g.CaseResults...)
		out.GroupResults[i] = g
	}
	return out
}

// Table maps puzzle id to its latest run.
type Table map[string]RunResult

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v.Clone()
	}
	return out
}
