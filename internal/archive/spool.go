// Package archive keeps the latest source of every puzzle and packs them
// for upload.
package archive

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	appErr "examclient/pkg/errors"

	"github.com/klauspost/compress/zip"
)

const sourceExt = ".py"

// Spool is a directory holding one source file per puzzle.
type Spool struct {
	mu  sync.Mutex
	dir string
}

// NewSpool creates the spool under root. An empty root uses a fresh temp dir.
func NewSpool(root string) (*Spool, error) {
	var (
		dir string
		err error
	)
	if root == "" {
		dir, err = os.MkdirTemp("", "exam-submissions-")
	} else {
		dir = root
		err = os.MkdirAll(root, 0755)
	}
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.ArchiveFailed, "create submission spool failed")
	}
	return &Spool{dir: dir}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// AddFile copies src into the spool as <puzzleID>.py, replacing any
// earlier copy.
func (s *Spool) AddFile(src, puzzleID string) error {
	name, err := entryName(puzzleID)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return appErr.NotFoundError(appErr.SourceNotFound, src)
		}
		return appErr.Wrapf(err, appErr.ArchiveFailed, "read source failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(filepath.Join(s.dir, name), content, 0644); err != nil {
		return appErr.Wrapf(err, appErr.ArchiveFailed, "write spool entry failed")
	}
	return nil
}

// Pack zips every spool entry in name order.
func (s *Spool) Pack() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.ArchiveFailed, "list spool failed")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.ArchiveFailed, "read spool entry %s failed", name)
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.ArchiveFailed, "create zip entry %s failed", name)
		}
		if _, err := w.Write(content); err != nil {
			return nil, appErr.Wrapf(err, appErr.ArchiveFailed, "write zip entry %s failed", name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, appErr.Wrapf(err, appErr.ArchiveFailed, "close zip failed")
	}
	return buf.Bytes(), nil
}

// Clear removes the spool directory.
func (s *Spool) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(s.dir); err != nil {
		return appErr.Wrapf(err, appErr.ArchiveFailed, "remove spool failed")
	}
	return nil
}

func entryName(puzzleID string) (string, error) {
	id := strings.TrimSpace(puzzleID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", appErr.ValidationError("puzzle_id", "invalid")
	}
	return id + sourceExt, nil
}
