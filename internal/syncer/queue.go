package syncer

import (
	"sync"

	"examclient/internal/remote"
)

// pendingWork holds everything not yet delivered to the server.
type pendingWork struct {
	mu      sync.Mutex
	logs    []remote.ActionLog
	result  bool
	archive []byte
}

func (p *pendingWork) pushBack(entry remote.ActionLog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logs = append(p.logs, entry)
}

func (p *pendingWork) pushFront(entry remote.ActionLog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logs = append([]remote.ActionLog{entry}, p.logs...)
}

func (p *pendingWork) popFront() (remote.ActionLog, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.logs) == 0 {
		return remote.ActionLog{}, false
	}
	entry := p.logs[0]
	p.logs[0] = remote.ActionLog{}
	p.logs = p.logs[1:]
	return entry, true
}

func (p *pendingWork) snapshotLogs() []remote.ActionLog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]remote.ActionLog(nil), p.logs...)
}

func (p *pendingWork) setResult(pending bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = pending
}

func (p *pendingWork) resultPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

func (p *pendingWork) setArchive(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.archive = data
}

func (p *pendingWork) pendingArchive() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.archive
}

func (p *pendingWork) any() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.logs) > 0 || p.result || p.archive != nil
}
