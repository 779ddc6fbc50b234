package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox"
	"examclient/internal/judge/sandbox/result"
	"examclient/internal/remote"
	"examclient/internal/store"
	appErr "examclient/pkg/errors"
	"examclient/pkg/utils/logger"

	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"
)

const defaultSyncTimeout = 30 * time.Second

// Executor runs every case of one puzzle.
type Executor interface {
	Execute(ctx context.Context, req sandbox.JudgeRequest) (result.RunResult, error)
}

// Syncer pushes local state to the grading server.
type Syncer interface {
	SendTestResult(ctx context.Context) bool
	UploadSubmission(ctx context.Context) bool
	Recheck(ctx context.Context) bool
}

// Spool collects the latest source of every judged puzzle.
type Spool interface {
	AddFile(src, puzzleID string) error
}

// Remote is the part of the grading server API the service calls directly.
type Remote interface {
	SetBaseURL(baseURL string)
	FetchConfig(ctx context.Context) (model.ExamConfig, remote.Outcome)
	VerifyStudent(ctx context.Context, req remote.VerifyRequest) (remote.VerifyResponse, remote.Outcome)
}

// Service handles judge runs and the exam session around them.
type Service struct {
	worker           Executor
	store            *store.Store
	syncer           Syncer
	spool            Spool
	remote           Remote
	workRoot         string
	defaultTimeLimit time.Duration
	syncTimeout      time.Duration
	sem              chan struct{}

	runMu  sync.Mutex
	active *activeRun
}

type activeRun struct {
	puzzleID string
	token    *sandbox.CancelToken
}

// Config holds service dependencies and settings.
type Config struct {
	Worker           Executor
	Store            *store.Store
	Syncer           Syncer
	Spool            Spool
	Remote           Remote
	WorkRoot         string
	DefaultTimeLimit time.Duration
	SyncTimeout      time.Duration
}

// NewService creates a new judge service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Worker == nil {
		return nil, fmt.Errorf("worker is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Syncer == nil {
		return nil, fmt.Errorf("syncer is required")
	}
	if cfg.Spool == nil {
		return nil, fmt.Errorf("spool is required")
	}
	if cfg.Remote == nil {
		return nil, fmt.Errorf("remote client is required")
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = defaultSyncTimeout
	}
	return &Service{
		worker:           cfg.Worker,
		store:            cfg.Store,
		syncer:           cfg.Syncer,
		spool:            cfg.Spool,
		remote:           cfg.Remote,
		workRoot:         cfg.WorkRoot,
		defaultTimeLimit: cfg.DefaultTimeLimit,
		syncTimeout:      cfg.SyncTimeout,
		sem:              make(chan struct{}, 1),
	}, nil
}

// Judge runs the program at sourcePath against every case of the puzzle and
// returns the result with hidden case output removed.
//
// The run is detached from ctx so that a disconnecting caller does not abort
// it; ForceStop is the only way to stop a run early.
func (s *Service) Judge(ctx context.Context, puzzleID, sourcePath string) (result.RunResult, error) {
	puzzleID = strings.TrimSpace(puzzleID)
	if puzzleID == "" {
		return result.RunResult{}, appErr.ValidationError("puzzle_id", "required")
	}
	if strings.TrimSpace(sourcePath) == "" {
		return result.RunResult{}, appErr.ValidationError("source_path", "required")
	}
	cfg, ok := s.store.Config()
	if !ok {
		return result.RunResult{}, appErr.New(appErr.ConfigNotLoaded)
	}
	puzzle, ok := cfg.FindPuzzle(puzzleID)
	if !ok {
		return result.RunResult{}, appErr.NotFoundError(appErr.PuzzleNotFound, "puzzle "+puzzleID)
	}

	if !s.tryAcquireSlot() {
		return result.RunResult{}, appErr.New(appErr.JudgeBusy)
	}
	defer s.releaseSlot()

	token := sandbox.NewCancelToken(context.WithoutCancel(ctx))
	s.setActive(&activeRun{puzzleID: puzzleID, token: token})
	defer func() {
		s.setActive(nil)
		token.Release()
	}()

	logger.Action(ctx, zap.InfoLevel, "judge started",
		zap.String("puzzle_id", puzzleID),
		zap.String("source_path", sourcePath),
	)

	run, err := s.worker.Execute(token.Context(), sandbox.JudgeRequest{
		PuzzleID:   puzzleID,
		LanguageID: puzzle.Language,
		WorkRoot:   s.workRoot,
		SourcePath: sourcePath,
		Groups:     puzzle.Groups,
		TimeLimit:  s.timeLimit(cfg),
		ReceivedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Action(ctx, zap.ErrorLevel, "judge failed",
			zap.String("puzzle_id", puzzleID),
			zap.Error(err),
		)
		return result.RunResult{}, err
	}

	improved := s.isImprovement(run)
	s.store.PutResult(run)
	// The spool must hold the new source before the flag is raised, or a
	// concurrent flush could pack the old one and consume the improvement.
	if err := s.spool.AddFile(sourcePath, puzzleID); err != nil {
		logger.Warn(ctx, "copy source into submission spool failed",
			zap.String("puzzle_id", puzzleID),
			zap.Error(err),
		)
	}
	if improved {
		s.store.MarkImproved()
	}

	logger.Action(ctx, zap.InfoLevel, "judge finished",
		zap.String("puzzle_id", puzzleID),
		zap.Int("correct", run.CorrectCount),
		zap.Int("total", run.CaseCount),
		zap.Bool("improved", improved),
		zap.Bool("stopped", token.Cancelled()),
	)

	s.sendResultAsync(ctx)
	return sandbox.MaskResult(run, puzzle), nil
}

// ForceStop stops the run in progress. It reports whether a run was active.
func (s *Service) ForceStop(ctx context.Context) bool {
	s.runMu.Lock()
	active := s.active
	s.runMu.Unlock()
	if active == nil {
		return false
	}
	if active.token.Cancel() {
		logger.Action(ctx, zap.InfoLevel, "judge force stopped", zap.String("puzzle_id", active.puzzleID))
	}
	return true
}

// Running returns the puzzle currently being judged.
func (s *Service) Running() (string, bool) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.active == nil {
		return "", false
	}
	return s.active.puzzleID, true
}

// TestResults returns every stored result with hidden case output removed.
func (s *Service) TestResults() result.Table {
	cfg, _ := s.store.Config()
	return sandbox.MaskTable(s.store.Results(), cfg)
}

// PuzzleSummaries lists the exam's puzzles.
func (s *Service) PuzzleSummaries() ([]model.PuzzleSummary, error) {
	cfg, ok := s.store.Config()
	if !ok {
		return nil, appErr.New(appErr.ConfigNotLoaded)
	}
	return cfg.Summaries(), nil
}

// ExamInfo returns the exam header.
func (s *Service) ExamInfo() (model.ExamInfo, error) {
	cfg, ok := s.store.Config()
	if !ok {
		return model.ExamInfo{}, appErr.New(appErr.ConfigNotLoaded)
	}
	return cfg.Info(), nil
}

// ServerAvailability reports the last known reachability of the grading server.
func (s *Service) ServerAvailability() bool {
	return s.store.Availability()
}

// ConfigStatus reports whether an exam config is loaded and why not.
func (s *Service) ConfigStatus() store.ConfigStatus {
	return s.store.ConfigStatus()
}

// Recheck probes the server and flushes pending work when it is back.
func (s *Service) Recheck(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.syncTimeout)
	defer cancel()
	return s.syncer.Recheck(callCtx)
}

// SubmitNow packs the submission spool and uploads it right away. A failed
// upload stays pending for the next flush.
func (s *Service) SubmitNow(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.syncTimeout)
	defer cancel()
	ok := s.syncer.UploadSubmission(callCtx)
	logger.Action(ctx, zap.InfoLevel, "submission upload requested", zap.Bool("uploaded", ok))
	return ok
}

func (s *Service) timeLimit(cfg model.ExamConfig) time.Duration {
	if cfg.TimeLimitSeconds <= 0 && s.defaultTimeLimit > 0 {
		return s.defaultTimeLimit
	}
	return cfg.TimeLimit()
}

func (s *Service) isImprovement(run result.RunResult) bool {
	prev, ok := s.store.Result(run.PuzzleID)
	if !ok {
		return true
	}
	return run.CorrectCount > prev.CorrectCount
}

func (s *Service) sendResultAsync(ctx context.Context) {
	bg := context.WithoutCancel(ctx)
	threading.GoSafe(func() {
		callCtx, cancel := context.WithTimeout(bg, s.syncTimeout)
		defer cancel()
		s.syncer.SendTestResult(callCtx)
	})
}

func (s *Service) setActive(run *activeRun) {
	s.runMu.Lock()
	s.active = run
	s.runMu.Unlock()
}

func (s *Service) tryAcquireSlot() bool {
	select {
	case s.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Service) releaseSlot() {
	select {
	case <-s.sem:
	default:
	}
}
