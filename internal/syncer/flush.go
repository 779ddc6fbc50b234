package syncer

import (
	"context"
	"fmt"

	"examclient/internal/remote"
	"examclient/pkg/utils/logger"

	"go.uber.org/zap"
)

// SendTestResult uploads the unmasked result table now. On failure the
// upload is kept pending; on success a flush delivers whatever else waits.
func (c *Coordinator) SendTestResult(ctx context.Context) bool {
	if !c.postResult(ctx) {
		c.MarkResultPending()
		return false
	}
	c.ClearResultPending()
	c.flushAsync()
	return true
}

// UploadSubmission packs the spool and uploads it. On failure the archive
// is kept as the pending archive. Only the improvement that was current
// before packing is consumed.
func (c *Coordinator) UploadSubmission(ctx context.Context) bool {
	gen, _ := c.store.ImprovedGeneration()
	data, err := c.packer.Pack()
	if err != nil {
		logger.Error(ctx, "pack submission archive failed", zap.Error(err))
		return false
	}
	if !c.uploadArchive(ctx, data) {
		c.SetPendingArchive(data)
		return false
	}
	c.ClearPendingArchive()
	c.store.ConsumeImproved(gen)
	c.flushAsync()
	return true
}

// Flush delivers pending work in order: action logs (FIFO), the pending
// result, the pending archive, then a fresh archive when a score improved.
// An improvement recorded while the archive is packed or uploaded stays
// set for the next flush.
// A failing step stops the flush and leaves its work pending. Only one
// flush runs at a time; a concurrent call returns false immediately.
func (c *Coordinator) Flush(ctx context.Context) (ran bool) {
	if !c.syncing.CompareAndSwap(false, true) {
		return false
	}
	ran = true
	defer c.syncing.Set(false)
	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "sync flush panicked", zap.String("panic", fmt.Sprint(p)))
		}
	}()

	if !c.drainActions(ctx) {
		return true
	}

	if c.ResultPending() {
		if !c.postResult(ctx) {
			return true
		}
		c.ClearResultPending()
	}

	if data := c.PendingArchive(); data != nil {
		if !c.uploadArchive(ctx, data) {
			return true
		}
		c.ClearPendingArchive()
	}

	if gen, improved := c.store.ImprovedGeneration(); improved {
		data, err := c.packer.Pack()
		if err != nil {
			logger.Error(ctx, "pack submission archive failed", zap.Error(err))
			return true
		}
		if !c.uploadArchive(ctx, data) {
			c.SetPendingArchive(data)
			return true
		}
		c.store.ConsumeImproved(gen)
	}
	return true
}

func (c *Coordinator) drainActions(ctx context.Context) bool {
	for {
		entry, ok := c.pending.popFront()
		if !ok {
			return true
		}
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		out := c.remote.LogAction(callCtx, entry)
		cancel()
		if !c.record(ctx, "log action", out) {
			c.pending.pushFront(entry)
			return false
		}
	}
}

func (c *Coordinator) postResult(ctx context.Context) bool {
	cfg, _ := c.store.Config()
	payload := remote.ResultPayload{
		StudentInformation: c.store.Student().Info,
		Key:                cfg.PublicKey,
		TestResult:         c.store.Results(),
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	if !c.record(ctx, "post result", c.remote.PostResult(callCtx, payload)) {
		return false
	}
	c.store.MarkSynced()
	return true
}

func (c *Coordinator) uploadArchive(ctx context.Context, data []byte) bool {
	student := c.store.Student().Info
	cfg, _ := c.store.Config()
	sub := remote.Submission{
		StudentID:  student.ID,
		MACAddress: c.store.MACAddress(),
		Key:        cfg.PublicKey,
		FileName:   archiveName(student.ID),
		Archive:    data,
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return c.record(ctx, "upload program", c.remote.UploadProgram(callCtx, sub))
}

// record folds a call outcome into server availability.
func (c *Coordinator) record(ctx context.Context, op string, out remote.Outcome) bool {
	c.store.SetAvailability(out.OK)
	if !out.OK {
		logger.Warn(ctx, "grading server call failed",
			zap.String("op", op),
			zap.Bool("offline", out.Offline),
			zap.Int("status", out.StatusCode),
			zap.Error(out.Err),
		)
	}
	return out.OK
}

func archiveName(studentID string) string {
	if studentID == "" {
		return "submission.zip"
	}
	return studentID + ".zip"
}
