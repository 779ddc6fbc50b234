package sandbox

import (
	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
)

// MaskResult returns a copy of res with the output of every hidden case
// removed. A case is visible only when its id belongs to the open cases of
// some group of the puzzle. Error text is cleared as well since it can
// echo program output.
func MaskResult(res result.RunResult, puzzle model.Puzzle) result.RunResult {
	open := puzzle.OpenCaseIDs()
	masked := res.Clone()
	for gi := range masked.GroupResults {
		cases := masked.GroupResults[gi].CaseResults
		for ci := range cases {
			if _, ok := open[cases[ci].ID]; ok {
				continue
			}
			cases[ci].Output = ""
			cases[ci].Error = ""
		}
	}
	return masked
}

// MaskTable masks every run of the table. Runs whose puzzle is no longer
// configured are masked completely.
func MaskTable(table result.Table, cfg model.ExamConfig) result.Table {
	out := make(result.Table, len(table))
	for id, run := range table {
		puzzle, _ := cfg.FindPuzzle(id)
		out[id] = MaskResult(run, puzzle)
	}
	return out
}
