package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNameLen = 96

// Storage owns the directory where downloaded documents and conversion
// results live until their batch is finished.
type Storage struct {
	dir string
	now func() time.Time
}

func NewStorage(dir string) (*Storage, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "docx_bot")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{dir: dir, now: time.Now}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// NewPath returns a fresh path for a file uploaded by userID. The original
// name is kept at the end so that it stays recognisable on disk.
func (s *Storage) NewPath(userID int64, name string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_%s_%s", userID, uuid.New().String(), sanitizeName(name)))
}

// Remove deletes the given files. Missing files are ignored.
func (s *Storage) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		_ = os.Remove(p)
	}
}

// Sweep removes regular files older than maxAge that are not listed in held.
// It returns how many files were removed.
func (s *Storage) Sweep(maxAge time.Duration, held []string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read storage dir: %w", err)
	}

	keep := make(map[string]struct{}, len(held))
	for _, p := range held {
		keep[filepath.Clean(p)] = struct{}{}
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if _, ok := keep[filepath.Clean(path)]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "document.docx"
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		}
		return r
	}, name)

	if len(name) <= maxNameLen {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	runes := []rune(strings.TrimSuffix(name, ext))
	for len(string(runes))+len(ext) > maxNameLen && len(runes) > 0 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ext
}
