package runner

import (
	"context"
	"fmt"
	"strings"

	"examclient/internal/judge/sandbox/engine"
	"examclient/internal/judge/sandbox/observer"
	"examclient/internal/judge/sandbox/profile"
	"examclient/internal/judge/sandbox/result"
	"examclient/internal/judge/sandbox/spec"
	appErr "examclient/pkg/errors"

	"github.com/google/shlex"
)

const (
	msgStopped  = "execution stopped by user"
	msgTimeout  = "time limit exceeded"
	msgNoPython = "interpreter not found"
)

// DefaultRunner runs interpreted submissions through the engine.
type DefaultRunner struct {
	eng     engine.Engine
	metrics observer.MetricsRecorder
}

// NewRunner creates a new runner backed by the engine.
func NewRunner(eng engine.Engine) *DefaultRunner {
	return NewRunnerWithObserver(eng, observer.NoopMetricsRecorder{})
}

// NewRunnerWithObserver creates a new runner with metrics hooks.
func NewRunnerWithObserver(eng engine.Engine, metrics observer.MetricsRecorder) *DefaultRunner {
	if metrics == nil {
		metrics = observer.NoopMetricsRecorder{}
	}
	return &DefaultRunner{eng: eng, metrics: metrics}
}

func (r *DefaultRunner) Run(ctx context.Context, req RunRequest) (result.CaseResult, error) {
	if err := validateRunRequest(req); err != nil {
		return result.CaseResult{}, err
	}
	cmd, err := buildCommand(req.Language, req.SourcePath)
	if err != nil {
		return result.CaseResult{}, err
	}

	runSpec := spec.RunSpec{
		PuzzleID: req.PuzzleID,
		TestID:   req.TestID,
		WorkDir:  req.WorkDir,
		Cmd:      cmd,
		Env:      req.Language.Env,
		Stdin:    req.Input,
		Limits:   spec.ResourceLimit{WallTime: req.TimeLimit},
	}

	execRes, runErr := r.eng.Run(ctx, runSpec)
	caseRes := classify(req, execRes, runErr)
	r.metrics.ObserveRun(ctx, req.Language.ID, string(caseRes.StatusCode), caseRes.ExecutionTime)
	return caseRes, nil
}

// classify maps an execution to a verdict. Order matters: a stopped run
// is STOP even if it also hit the deadline.
func classify(req RunRequest, res result.ExecResult, runErr error) result.CaseResult {
	caseRes := result.CaseResult{
		ID:            req.TestID,
		Output:        res.Stdout,
		ExecutionTime: res.Duration.Milliseconds(),
	}

	switch {
	case res.Cancelled:
		caseRes.StatusCode = result.VerdictSTOP
		caseRes.Error = msgStopped
	case res.TimedOut:
		caseRes.StatusCode = result.VerdictTLE
		caseRes.Error = fmt.Sprintf("%s (%s, exit status %s)", msgTimeout, req.TimeLimit, res.ExitStatus())
	case runErr != nil:
		caseRes.StatusCode = result.VerdictER
		if appErr.Is(runErr, appErr.InterpreterNotFound) {
			caseRes.Error = fmt.Sprintf("%s: %s", msgNoPython, req.Language.Interpreter)
		} else {
			caseRes.Error = runErr.Error()
		}
	case res.ExitCode != 0:
		caseRes.StatusCode = result.VerdictER
		caseRes.Error = strings.TrimSpace(res.Stderr)
		if caseRes.Error == "" {
			caseRes.Error = "exit status " + res.ExitStatus()
		}
	case strings.TrimSpace(res.Stdout) == strings.TrimSpace(req.Expected):
		caseRes.StatusCode = result.VerdictAC
		caseRes.Error = strings.TrimSpace(res.Stderr)
	default:
		caseRes.StatusCode = result.VerdictWA
		caseRes.Error = strings.TrimSpace(res.Stderr)
	}
	caseRes.Correct = caseRes.StatusCode == result.VerdictAC
	return caseRes
}

func validateRunRequest(req RunRequest) error {
	if req.TestID == "" {
		return appErr.ValidationError("test_id", "required")
	}
	if req.SourcePath == "" {
		return appErr.ValidationError("source_path", "required")
	}
	if req.Language.ID == "" {
		return appErr.ValidationError("language_id", "required")
	}
	if req.Language.Interpreter == "" {
		return appErr.ValidationError("interpreter", "required")
	}
	return nil
}

func buildCommand(lang profile.LanguageSpec, sourcePath string) ([]string, error) {
	tpl := lang.RunCmdTpl
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	// Paths may contain spaces; quote them before splitting.
	expanded := strings.ReplaceAll(tpl, "{interpreter}", shellQuote(lang.Interpreter))
	expanded = strings.ReplaceAll(expanded, "{src}", shellQuote(sourcePath))
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	return fields, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
