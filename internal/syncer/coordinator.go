// Package syncer mirrors local results, action logs and submissions to the
// grading server whenever it is reachable.
package syncer

import (
	"context"
	"time"

	"examclient/internal/remote"
	"examclient/internal/store"
	"examclient/pkg/utils/logger"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/syncx"
	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"
)

const (
	defaultProbeInterval  = 10 * time.Second
	defaultRequestTimeout = 5 * time.Second
)

// Config holds sync settings.
type Config struct {
	ProbeInterval  time.Duration `yaml:"probeInterval"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// Remote is the subset of the grading server API the coordinator needs.
type Remote interface {
	Status(ctx context.Context) remote.Outcome
	PostResult(ctx context.Context, payload remote.ResultPayload) remote.Outcome
	UploadProgram(ctx context.Context, sub remote.Submission) remote.Outcome
	LogAction(ctx context.Context, entry remote.ActionLog) remote.Outcome
}

// Packer produces the current submission archive.
type Packer interface {
	Pack() ([]byte, error)
}

// Coordinator owns the pending-work queues and the single-flight flush.
type Coordinator struct {
	cfg     Config
	remote  Remote
	store   *store.Store
	packer  Packer
	pending pendingWork
	syncing *syncx.AtomicBool
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
}

// New creates a coordinator.
func New(cfg Config, rmt Remote, st *store.Store, packer Packer) *Coordinator {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = defaultProbeInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Coordinator{
		cfg:     cfg,
		remote:  rmt,
		store:   st,
		packer:  packer,
		syncing: syncx.NewAtomicBool(),
		now:     time.Now,
	}
}

// Start runs the health probe on a ticker until Stop or ctx is done. The
// probe only updates availability; it never flushes.
func (c *Coordinator) Start(ctx context.Context) {
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	threading.GoSafe(func() {
		defer close(c.done)
		c.Probe(ctx)
		ticker := time.NewTicker(c.cfg.ProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				c.Probe(ctx)
			}
		}
	})
}

// Stop halts the probe ticker and waits for it to exit.
func (c *Coordinator) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
}

// Probe checks server health and records availability.
func (c *Coordinator) Probe(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	out := c.remote.Status(callCtx)
	c.store.SetAvailability(out.OK)
	if !out.OK {
		logger.Debug(ctx, "grading server probe failed", zap.Bool("offline", out.Offline), zap.Error(out.Err))
	}
	return out.OK
}

// Recheck probes and flushes pending work when the server is back. It is a
// no-op while a flush is running.
func (c *Coordinator) Recheck(ctx context.Context) bool {
	if c.syncing.True() {
		return false
	}
	if !c.Probe(ctx) {
		return false
	}
	if c.HasPendingWork() {
		c.Flush(ctx)
	}
	return true
}

// HasPendingWork reports whether anything awaits delivery.
func (c *Coordinator) HasPendingWork() bool {
	return c.pending.any() || c.store.Improved()
}

// Syncing reports whether a flush is in progress.
func (c *Coordinator) Syncing() bool {
	return c.syncing.True()
}

// EnqueueAction appends an action log entry, enriched with the student's
// identity. Entries are never dropped. When the server is believed alive a
// background flush delivers them.
func (c *Coordinator) EnqueueAction(entry remote.ActionLog) {
	student := c.store.Student()
	if entry.StudentID == "" {
		entry.StudentID = student.Info.ID
	}
	if entry.StudentName == "" {
		entry.StudentName = student.Info.Name
	}
	if entry.MACAddress == "" {
		entry.MACAddress = c.store.MACAddress()
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = c.now().UnixMilli()
	}
	c.pending.pushBack(entry)
	if c.store.Availability() {
		c.flushAsync()
	}
}

// PendingActions returns a copy of the undelivered action logs.
func (c *Coordinator) PendingActions() []remote.ActionLog {
	return c.pending.snapshotLogs()
}

// MarkResultPending records that the result table still needs uploading.
func (c *Coordinator) MarkResultPending() {
	c.pending.setResult(true)
}

// ClearResultPending clears the pending result marker.
func (c *Coordinator) ClearResultPending() {
	c.pending.setResult(false)
}

// ResultPending reports whether a result upload is pending.
func (c *Coordinator) ResultPending() bool {
	return c.pending.resultPending()
}

// SetPendingArchive keeps the latest undelivered archive. A newer archive
// replaces an older one.
func (c *Coordinator) SetPendingArchive(data []byte) {
	c.pending.setArchive(data)
}

// ClearPendingArchive drops the pending archive.
func (c *Coordinator) ClearPendingArchive() {
	c.pending.setArchive(nil)
}

// PendingArchive returns the pending archive, or nil.
func (c *Coordinator) PendingArchive() []byte {
	return c.pending.pendingArchive()
}

func (c *Coordinator) flushAsync() {
	threading.GoSafe(func() {
		c.Flush(context.Background())
	})
}
