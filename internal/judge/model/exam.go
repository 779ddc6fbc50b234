// Package model defines the exam configuration served by the grading server.
package model

import (
	"strings"
	"time"

	appErr "examclient/pkg/errors"
)

// DefaultTimeLimit applies when the exam does not set a time limit.
const DefaultTimeLimit = 10 * time.Second

// TestCase is one input/expected-output pair.
type TestCase struct {
	ID     string `json:"id"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// TestCaseGroup groups open and hidden cases under one title.
type TestCaseGroup struct {
	Title       string     `json:"title"`
	ID          int        `json:"id"`
	OpenCases   []TestCase `json:"openTestCases"`
	HiddenCases []TestCase `json:"hiddenTestCases"`
}

// CaseCount returns the number of cases in the group.
func (g TestCaseGroup) CaseCount() int {
	return len(g.OpenCases) + len(g.HiddenCases)
}

// Puzzle is one exam question.
type Puzzle struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Language string          `json:"language"`
	Groups   []TestCaseGroup `json:"testCases"`
}

// OpenCaseIDs returns the ids of every open test case.
func (p Puzzle) OpenCaseIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, g := range p.Groups {
		for _, tc := range g.OpenCases {
			ids[tc.ID] = struct{}{}
		}
	}
	return ids
}

// CaseCount returns the number of cases across all groups.
func (p Puzzle) CaseCount() int {
	total := 0
	for _, g := range p.Groups {
		total += g.CaseCount()
	}
	return total
}

// PuzzleSummary is the UI-facing view of a puzzle.
type PuzzleSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// TestTime describes the exam window.
type TestTime struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	ForceQuit bool   `json:"forceQuit"`
}

// AccessibleUser is a pre-authorized student identity.
type AccessibleUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StudentInformation identifies the verified student.
type StudentInformation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExamConfig is the full exam configuration.
type ExamConfig struct {
	TestTitle        string           `json:"testTitle"`
	Description      string           `json:"description"`
	PublicKey        string           `json:"publicKey"`
	RemoteHost       string           `json:"remoteHost"`
	TimeLimitSeconds float64          `json:"timeLimit,omitempty"`
	AccessibleUsers  []AccessibleUser `json:"accessableUsers"`
	TestTime         TestTime         `json:"testTime"`
	Puzzles          []Puzzle         `json:"puzzles"`
}

// ExamInfo is the UI-facing exam header.
type ExamInfo struct {
	TestTitle   string   `json:"testTitle"`
	Description string   `json:"description"`
	TestTime    TestTime `json:"testTime"`
}

// TimeLimit resolves the per-case execution limit.
func (c ExamConfig) TimeLimit() time.Duration {
	if c.TimeLimitSeconds <= 0 {
		return DefaultTimeLimit
	}
	return time.Duration(c.TimeLimitSeconds * float64(time.Second))
}

// FindPuzzle looks up a puzzle by id.
func (c ExamConfig) FindPuzzle(id string) (Puzzle, bool) {
	for _, p := range c.Puzzles {
		if p.ID == id {
			return p, true
		}
	}
	return Puzzle{}, false
}

// FindUser looks up a pre-authorized student.
func (c ExamConfig) FindUser(id string) (AccessibleUser, bool) {
	id = strings.TrimSpace(id)
	for _, u := range c.AccessibleUsers {
		if u.ID == id {
			return u, true
		}
	}
	return AccessibleUser{}, false
}

// Summaries lists puzzles in declared order.
func (c ExamConfig) Summaries() []PuzzleSummary {
	out := make([]PuzzleSummary, 0, len(c.Puzzles))
	for _, p := range c.Puzzles {
		out = append(out, PuzzleSummary{ID: p.ID, Name: p.Name, Language: p.Language})
	}
	return out
}

// Info returns the exam header.
func (c ExamConfig) Info() ExamInfo {
	return ExamInfo{TestTitle: c.TestTitle, Description: c.Description, TestTime: c.TestTime}
}

// Validate checks identifiers the judge relies on.
func (c ExamConfig) Validate() error {
	seenPuzzles := make(map[string]struct{}, len(c.Puzzles))
	for _, p := range c.Puzzles {
		if p.ID == "" {
			return appErr.ValidationError("puzzle_id", "required")
		}
		if _, ok := seenPuzzles[p.ID]; ok {
			return appErr.Newf(appErr.ConfigInvalid, "duplicate puzzle id: %s", p.ID)
		}
		seenPuzzles[p.ID] = struct{}{}

		seenCases := make(map[string]struct{})
		for _, g := range p.Groups {
			for _, cases := range [][]TestCase{g.OpenCases, g.HiddenCases} {
				for _, tc := range cases {
					if tc.ID == "" {
						return appErr.ValidationError("test_case_id", "required").WithDetail("puzzle_id", p.ID)
					}
					if _, ok := seenCases[tc.ID]; ok {
						return appErr.Newf(appErr.DuplicateTestCaseID, "duplicate test case id %s in puzzle %s", tc.ID, p.ID)
					}
					seenCases[tc.ID] = struct{}{}
				}
			}
		}
	}
	return nil
}
