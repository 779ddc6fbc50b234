package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/profile"
	"examclient/internal/judge/sandbox/result"
	"examclient/internal/judge/sandbox/runner"
	appErr "examclient/pkg/errors"
)

type fakeRunner struct {
	verdicts map[string]result.Verdict
	onRun    func(req runner.RunRequest)
	runReqs  []runner.RunRequest
}

func (f *fakeRunner) Run(ctx context.Context, req runner.RunRequest) (result.CaseResult, error) {
	f.runReqs = append(f.runReqs, req)
	if f.onRun != nil {
		f.onRun(req)
	}
	verdict, ok := f.verdicts[req.TestID]
	if !ok {
		verdict = result.VerdictAC
	}
	if ctx.Err() != nil {
		verdict = result.VerdictSTOP
	}
	return result.CaseResult{
		ID:         req.TestID,
		StatusCode: verdict,
		Correct:    verdict == result.VerdictAC,
		Output:     "out-" + req.TestID,
	}, nil
}

type recordingReporter struct {
	mu      sync.Mutex
	updates []Progress
}

func (r *recordingReporter) ReportProgress(ctx context.Context, update Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
	return nil
}

func testGroups() []model.TestCaseGroup {
	return []model.TestCaseGroup{
		{
			Title:       "g1",
			ID:          1,
			OpenCases:   []model.TestCase{{ID: "1-1"}, {ID: "1-2"}},
			HiddenCases: []model.TestCase{{ID: "1-3"}},
		},
		{Title: "empty", ID: 2},
		{
			Title:       "g3",
			ID:          3,
			HiddenCases: []model.TestCase{{ID: "3-1"}, {ID: "3-2"}},
		},
	}
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.py")
	if err := os.WriteFile(path, []byte("print(1)\n"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func newTestWorker(r runner.Runner) *Worker {
	return NewWorker(r, profile.NewRegistry(profile.DefaultPython()))
}

func TestWorkerAggregation(t *testing.T) {
	r := &fakeRunner{verdicts: map[string]result.Verdict{
		"1-2": result.VerdictWA,
		"3-2": result.VerdictTLE,
	}}
	reporter := &recordingReporter{}
	worker := newTestWorker(r)
	worker.SetProgressReporter(reporter)

	res, err := worker.Execute(context.Background(), JudgeRequest{
		PuzzleID:   "p1",
		LanguageID: "Python",
		WorkRoot:   t.TempDir(),
		SourcePath: writeSource(t),
		Groups:     testGroups(),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	order := []string{"1-1", "1-2", "1-3", "3-1", "3-2"}
	if len(r.runReqs) != len(order) {
		t.Fatalf("expected %d runs, got %d", len(order), len(r.runReqs))
	}
	for i, id := range order {
		if r.runReqs[i].TestID != id {
			t.Fatalf("run %d: expected %s, got %s", i, id, r.runReqs[i].TestID)
		}
	}

	if len(res.GroupResults) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(res.GroupResults))
	}
	if res.CaseCount != 5 || res.CorrectCount != 3 {
		t.Fatalf("unexpected run counts %d/%d", res.CorrectCount, res.CaseCount)
	}
	sumCases, sumCorrect := 0, 0
	for _, g := range res.GroupResults {
		if g.CaseCount != len(g.CaseResults) {
			t.Fatalf("group %d: caseCount %d != %d results", g.ID, g.CaseCount, len(g.CaseResults))
		}
		correct := 0
		for _, c := range g.CaseResults {
			if c.Correct != (c.StatusCode == result.VerdictAC) {
				t.Fatalf("case %s: correct flag disagrees with %s", c.ID, c.StatusCode)
			}
			if c.Correct {
				correct++
			}
		}
		if correct != g.CorrectCount {
			t.Fatalf("group %d: correctCount %d != %d", g.ID, g.CorrectCount, correct)
		}
		sumCases += g.CaseCount
		sumCorrect += g.CorrectCount
	}
	if sumCases != res.CaseCount || sumCorrect != res.CorrectCount {
		t.Fatalf("run counters do not match group sums")
	}
	empty := res.GroupResults[1]
	if empty.CaseCount != 0 || empty.CaseResults == nil {
		t.Fatalf("expected empty group with zero counts, got %+v", empty)
	}
	if res.Cancelled {
		t.Fatalf("run should not be cancelled")
	}

	last := reporter.updates[len(reporter.updates)-1]
	if !last.Finished || last.Done != 5 || last.Total != 5 {
		t.Fatalf("unexpected final progress %+v", last)
	}
}

func TestWorkerCancelMidRun(t *testing.T) {
	token := NewCancelToken(context.Background())
	defer token.Release()
	r := &fakeRunner{onRun: func(req runner.RunRequest) {
		if req.TestID == "1-2" {
			token.Cancel()
		}
	}}
	worker := newTestWorker(r)

	res, err := worker.Execute(token.Context(), JudgeRequest{
		PuzzleID:   "p1",
		LanguageID: "python",
		SourcePath: writeSource(t),
		Groups:     testGroups(),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Cancelled || !token.Cancelled() {
		t.Fatalf("expected cancelled run")
	}
	if len(r.runReqs) != 2 {
		t.Fatalf("expected 2 runs before stop, got %d", len(r.runReqs))
	}
	g1 := res.GroupResults[0]
	if len(g1.CaseResults) != 2 {
		t.Fatalf("expected 2 results in first group, got %d", len(g1.CaseResults))
	}
	if g1.CaseResults[1].StatusCode != result.VerdictSTOP {
		t.Fatalf("expected in-flight case to be STOP, got %s", g1.CaseResults[1].StatusCode)
	}
	stops := 0
	for _, g := range res.GroupResults {
		for _, c := range g.CaseResults {
			if c.StatusCode == result.VerdictSTOP {
				stops++
			}
		}
	}
	if stops != 1 {
		t.Fatalf("expected exactly one STOP, got %d", stops)
	}
	if len(res.GroupResults) != 3 || res.GroupResults[2].CaseCount != 0 {
		t.Fatalf("unreached groups must appear with zero counts: %+v", res.GroupResults)
	}
}

func TestWorkerCancelBeforeFirstCase(t *testing.T) {
	token := NewCancelToken(context.Background())
	token.Cancel()
	r := &fakeRunner{}

	res, err := newTestWorker(r).Execute(token.Context(), JudgeRequest{
		PuzzleID:   "p1",
		LanguageID: "python",
		SourcePath: writeSource(t),
		Groups:     testGroups(),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(r.runReqs) != 0 {
		t.Fatalf("expected no runs, got %d", len(r.runReqs))
	}
	if !res.Cancelled || res.CaseCount != 0 || len(res.GroupResults) != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestWorkerValidation(t *testing.T) {
	worker := newTestWorker(&fakeRunner{})
	_, err := worker.Execute(context.Background(), JudgeRequest{PuzzleID: "p1", LanguageID: "python"})
	if !appErr.Is(err, appErr.ValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = worker.Execute(context.Background(), JudgeRequest{
		PuzzleID:   "p1",
		LanguageID: "cpp",
		SourcePath: writeSource(t),
	})
	if !appErr.Is(err, appErr.LanguageNotSupported) {
		t.Fatalf("expected language not supported, got %v", err)
	}

	_, err = worker.Execute(context.Background(), JudgeRequest{
		PuzzleID:   "p1",
		LanguageID: "python",
		SourcePath: filepath.Join(t.TempDir(), "missing.py"),
	})
	if !appErr.Is(err, appErr.SourceNotFound) {
		t.Fatalf("expected source not found, got %v", err)
	}
}
