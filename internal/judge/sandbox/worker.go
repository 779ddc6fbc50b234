// Package sandbox provides the worker implementation for judge runs.
package sandbox

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
	"examclient/internal/judge/sandbox/runner"
	appErr "examclient/pkg/errors"
	"examclient/pkg/utils/logger"

	"go.uber.org/zap"
)

// Worker is the sandbox scheduling unit.
// It runs every case of one puzzle sequentially and aggregates the results.
type Worker struct {
	runner           runner.Runner
	langRepo         LanguageSpecRepository
	progressReporter ProgressReporter
}

// NewWorker creates a new worker with required dependencies.
func NewWorker(runner runner.Runner, langRepo LanguageSpecRepository) *Worker {
	return &Worker{
		runner:   runner,
		langRepo: langRepo,
	}
}

// SetProgressReporter injects a reporter for intermediate updates.
func (w *Worker) SetProgressReporter(reporter ProgressReporter) {
	w.progressReporter = reporter
}

// Execute judges one program against every group of the request.
//
// Groups run in declared order, open cases before hidden cases. When ctx is
// cancelled the case in flight is recorded as STOP, later cases are not
// run, and groups that were never reached are still reported with zero
// counts.
func (w *Worker) Execute(ctx context.Context, req JudgeRequest) (result.RunResult, error) {
	if err := validateJudgeRequest(req); err != nil {
		return result.RunResult{}, err
	}
	if w.runner == nil || w.langRepo == nil {
		return result.RunResult{}, appErr.New(appErr.JudgeSystemError).WithMessage("worker dependencies are not initialized")
	}

	lang, err := w.langRepo.GetLanguageSpec(req.LanguageID)
	if err != nil {
		return result.RunResult{}, err
	}

	workDir, err := os.MkdirTemp(req.WorkRoot, "judge-"+req.PuzzleID+"-")
	if err != nil {
		return result.RunResult{}, appErr.Wrapf(err, appErr.JudgeSystemError, "create run workdir failed")
	}
	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	sourcePath, err := writeSourceFile(workDir, req.SourcePath, lang.SourceFile)
	if err != nil {
		return result.RunResult{}, err
	}

	total := 0
	for _, g := range req.Groups {
		total += g.CaseCount()
	}
	done := 0

	runRes := result.RunResult{
		PuzzleID:     req.PuzzleID,
		GroupResults: make([]result.GroupResult, 0, len(req.Groups)),
	}
	stopped := false
	w.reportProgress(ctx, req, Progress{Total: total})

	for _, group := range req.Groups {
		groupRes := result.GroupResult{
			Title:       group.Title,
			ID:          group.ID,
			CaseResults: make([]result.CaseResult, 0, group.CaseCount()),
		}
		for _, tc := range orderedCases(group) {
			if stopped || ctx.Err() != nil {
				stopped = true
				break
			}
			caseRes, runErr := w.runner.Run(ctx, runner.RunRequest{
				PuzzleID:   req.PuzzleID,
				TestID:     tc.ID,
				Language:   lang,
				WorkDir:    workDir,
				SourcePath: sourcePath,
				Input:      tc.Input,
				Expected:   tc.Output,
				TimeLimit:  req.TimeLimit,
			})
			if runErr != nil {
				return runRes, appErr.Wrapf(runErr, appErr.JudgeSystemError, "run test case %s failed", tc.ID)
			}
			groupRes.Add(caseRes)
			done++
			w.reportProgress(ctx, req, Progress{Total: total, Done: done, CaseID: caseRes.ID, Verdict: caseRes.StatusCode})
			if caseRes.StatusCode == result.VerdictSTOP {
				stopped = true
			}
		}
		runRes.AddGroup(groupRes)
	}

	runRes.Cancelled = stopped
	runRes.FinishedAt = time.Now().UnixMilli()
	w.reportProgress(ctx, req, Progress{Total: total, Done: done, Finished: true})

	logger.Info(ctx, "judge run finished",
		zap.String("puzzle_id", req.PuzzleID),
		zap.Int("case_count", runRes.CaseCount),
		zap.Int("correct_count", runRes.CorrectCount),
		zap.Bool("cancelled", runRes.Cancelled),
	)
	return runRes, nil
}

func (w *Worker) reportProgress(ctx context.Context, req JudgeRequest, update Progress) {
	if w.progressReporter == nil {
		return
	}
	update.PuzzleID = req.PuzzleID
	update.ReceivedAt = req.ReceivedAt
	if update.ReceivedAt == 0 {
		update.ReceivedAt = time.Now().UnixMilli()
	}
	// A cancelled run still reports its final state.
	if err := w.progressReporter.ReportProgress(context.WithoutCancel(ctx), update); err != nil {
		logger.Warn(ctx, "report judge progress failed", zap.Error(err))
	}
}

func orderedCases(group model.TestCaseGroup) []model.TestCase {
	cases := make([]model.TestCase, 0, group.CaseCount())
	cases = append(cases, group.OpenCases...)
	return append(cases, group.HiddenCases...)
}

func validateJudgeRequest(req JudgeRequest) error {
	if req.PuzzleID == "" {
		return appErr.ValidationError("puzzle_id", "required")
	}
	if req.LanguageID == "" {
		return appErr.ValidationError("language_id", "required")
	}
	if req.SourcePath == "" {
		return appErr.ValidationError("source_path", "required")
	}
	for _, g := range req.Groups {
		for _, tc := range orderedCases(g) {
			if tc.ID == "" {
				return appErr.ValidationError("test_id", "required")
			}
		}
	}
	return nil
}

func writeSourceFile(workDir, sourcePath, targetName string) (string, error) {
	if targetName == "" {
		return "", appErr.ValidationError("source_file_name", "required")
	}
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", appErr.NotFoundError(appErr.SourceNotFound, sourcePath)
		}
		return "", appErr.Wrapf(err, appErr.JudgeSystemError, "read source failed")
	}
	targetPath := filepath.Join(workDir, targetName)
	if err := os.WriteFile(targetPath, content, 0644); err != nil {
		return "", appErr.Wrapf(err, appErr.JudgeSystemError, "write source failed")
	}
	return targetPath, nil
}
