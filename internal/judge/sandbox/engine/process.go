package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"examclient/internal/judge/sandbox/result"
	"examclient/internal/judge/sandbox/spec"
	appErr "examclient/pkg/errors"
	"examclient/pkg/utils/logger"

	"go.uber.org/zap"
)

type processEngine struct {
	cfg Config
}

// NewEngine creates a subprocess engine.
func NewEngine(cfg Config) Engine {
	if cfg.StdoutStderrMaxBytes <= 0 {
		cfg.StdoutStderrMaxBytes = defaultStdoutStderrMaxBytes
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = defaultKillGrace
	}
	return &processEngine{cfg: cfg}
}

func (e *processEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.ExecResult, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return result.ExecResult{}, err
	}
	if ctx.Err() != nil {
		return result.ExecResult{Cancelled: true, ExitCode: -1}, nil
	}
	limits := e.applyDefaults(runSpec.Limits)

	path, err := exec.LookPath(runSpec.Cmd[0])
	if err != nil {
		return result.ExecResult{}, interpreterError(runSpec.Cmd[0], err)
	}

	cmd := exec.Command(path, runSpec.Cmd[1:]...)
	cmd.Dir = runSpec.WorkDir
	cmd.Env = append(os.Environ(), runSpec.Env...)
	cmd.SysProcAttr = buildSysProcAttr()
	cmd.Stdin = strings.NewReader(runSpec.Stdin)
	cmd.WaitDelay = 2 * limits.KillGrace

	stdout := newLimitedBuffer(limits.OutputBytes)
	stderr := newLimitedBuffer(limits.OutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return result.ExecResult{}, interpreterError(runSpec.Cmd[0], err)
		}
		return result.ExecResult{}, appErr.Wrapf(err, appErr.ExecutionFailed, "start %s failed", runSpec.Cmd[0])
	}

	var timedOut, cancelled atomic.Bool
	done := make(chan struct{})
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		var wallTimer <-chan time.Time
		if limits.WallTime > 0 {
			timer := time.NewTimer(limits.WallTime)
			defer timer.Stop()
			wallTimer = timer.C
		}
		select {
		case <-done:
			return
		case <-ctx.Done():
			cancelled.Store(true)
		case <-wallTimer:
			timedOut.Store(true)
		}
		terminateProcessGroup(cmd.Process)
		grace := time.NewTimer(limits.KillGrace)
		defer grace.Stop()
		select {
		case <-done:
		case <-grace.C:
			logger.Warn(ctx, "process ignored SIGTERM, killing",
				zap.String("puzzle_id", runSpec.PuzzleID),
				zap.String("test_id", runSpec.TestID),
				zap.Int("pid", cmd.Process.Pid),
			)
			killProcessGroup(cmd.Process)
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	<-watchdogDone

	execResult := result.ExecResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  exitCodeFromErr(waitErr, cmd.ProcessState),
		TimedOut:  timedOut.Load(),
		Cancelled: cancelled.Load(),
		Duration:  time.Since(start),
	}
	if (execResult.TimedOut || execResult.Cancelled) && execResult.ExitCode == 0 {
		execResult.ExitCode = -1
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		logger.Warn(ctx, "wait for process failed",
			zap.String("puzzle_id", runSpec.PuzzleID),
			zap.String("test_id", runSpec.TestID),
			zap.Error(waitErr),
		)
	}
	return execResult, nil
}

func (e *processEngine) applyDefaults(limits spec.ResourceLimit) spec.ResourceLimit {
	if limits.KillGrace <= 0 {
		limits.KillGrace = e.cfg.KillGrace
	}
	if limits.OutputBytes <= 0 {
		limits.OutputBytes = e.cfg.StdoutStderrMaxBytes
	}
	return limits
}

func interpreterError(name string, err error) error {
	return appErr.Wrapf(err, appErr.InterpreterNotFound, "interpreter %s not found", name).
		WithDetail("interpreter", name)
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func validateRunSpec(runSpec spec.RunSpec) error {
	if runSpec.TestID == "" {
		return fmt.Errorf("test id is required")
	}
	if len(runSpec.Cmd) == 0 || runSpec.Cmd[0] == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}

// limitedBuffer keeps the first max bytes and silently drops the rest so a
// chatty child never blocks on a full pipe.
type limitedBuffer struct {
	buf bytes.Buffer
	max int64
}

func newLimitedBuffer(max int64) *limitedBuffer {
	return &limitedBuffer{max: max}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.max - int64(b.buf.Len())
	if remaining > 0 {
		if int64(len(p)) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
