// Package store holds the process-wide runtime state of the exam client.
package store

import (
	"strings"
	"sync"

	"examclient/internal/judge/model"
	"examclient/internal/judge/sandbox/result"
)

// ConfigStatus describes whether an exam configuration is available.
type ConfigStatus struct {
	Loaded  bool   `json:"loaded"`
	Fault   bool   `json:"fault"`
	Message string `json:"message"`
}

// Student is the current student and whether the identity was verified.
type Student struct {
	Info     model.StudentInformation `json:"info"`
	Verified bool                     `json:"verified"`
}

// Store is the mutex-guarded runtime state. All getters return copies.
type Store struct {
	mu sync.RWMutex

	config       model.ExamConfig
	configStatus ConfigStatus

	student    Student
	macAddress string

	results     result.Table
	dirty       bool
	improved    bool
	improvedGen uint64

	notifyMu       sync.Mutex
	alive          bool
	onAvailability []func(bool)
}

// New creates an empty store. The improved flag starts set so the first
// successful sync uploads the submission archive.
func New() *Store {
	return &Store{
		results:  make(result.Table),
		improved: true,
	}
}

// SetConfig installs an exam configuration and clears any fault.
func (s *Store) SetConfig(cfg model.ExamConfig, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.configStatus = ConfigStatus{Loaded: true, Message: message}
}

// SetConfigFault records that no usable configuration could be loaded.
// A previously loaded configuration stays in place.
func (s *Store) SetConfigFault(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configStatus.Fault = true
	s.configStatus.Message = message
}

// Config returns the exam configuration and whether one is loaded.
func (s *Store) Config() (model.ExamConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.configStatus.Loaded
}

// ConfigStatus returns the configuration status shown to the UI.
func (s *Store) ConfigStatus() ConfigStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configStatus
}

// SetStudent records the current student.
func (s *Store) SetStudent(info model.StudentInformation, verified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.student = Student{Info: info, Verified: verified}
}

// Student returns the current student.
func (s *Store) Student() Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.student
}

// SetMACAddress overrides the detected hardware address. Addresses are
// stored lower-case.
func (s *Store) SetMACAddress(mac string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.macAddress = strings.ToLower(strings.TrimSpace(mac))
}

// MACAddress returns the hardware address reported to the server.
func (s *Store) MACAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.macAddress
}

// PutResult overwrites the latest run of a puzzle and marks the table dirty.
func (s *Store) PutResult(run result.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[run.PuzzleID] = run.Clone()
	s.dirty = true
}

// Result returns the latest run of a puzzle.
func (s *Store) Result(puzzleID string) (result.RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.results[puzzleID]
	if !ok {
		return result.RunResult{}, false
	}
	return run.Clone(), true
}

// Results returns a deep copy of the unmasked result table.
func (s *Store) Results() result.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results.Clone()
}

// Dirty reports whether results changed since the last successful upload.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkSynced clears the dirty flag.
func (s *Store) MarkSynced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// Improved reports whether a score improved since the last archive upload.
func (s *Store) Improved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.improved
}

// ImprovedGeneration returns the generation of the latest improvement and
// whether it still awaits an archive upload. Read it before packing and hand
// it to ConsumeImproved after the upload succeeds.
func (s *Store) ImprovedGeneration() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.improvedGen, s.improved
}

// MarkImproved records a new improvement. Call it only after the improved
// source is in the submission spool.
func (s *Store) MarkImproved() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.improvedGen++
	s.improved = true
	return s.improvedGen
}

// ConsumeImproved clears the flag if no improvement newer than gen was
// recorded. It reports whether the flag was cleared.
func (s *Store) ConsumeImproved(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.improvedGen != gen {
		return false
	}
	s.improved = false
	return true
}

// Availability reports whether the grading server was last seen alive.
func (s *Store) Availability() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alive
}

// SetAvailability updates server availability. Hooks run only on change,
// outside the state lock but serialized with other updates, so the last
// value a hook sees is the stored one. Hooks must not call SetAvailability.
func (s *Store) SetAvailability(alive bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := s.alive != alive
	s.alive = alive
	hooks := append([]func(bool){}, s.onAvailability...)
	s.mu.Unlock()
	if !changed {
		return
	}
	for _, hook := range hooks {
		hook(alive)
	}
}

// OnAvailabilityChange registers a hook called when availability flips.
func (s *Store) OnAvailabilityChange(hook func(bool)) {
	if hook == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAvailability = append(s.onAvailability, hook)
}
