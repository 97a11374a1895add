package fsdir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
)

// ErrNoInputFound reports a directory with no file of the fmap size.
var ErrNoInputFound = errors.New("no input fmaps found")

// Source discovers fmaps in a directory. It implements pipeline.Extractor.
//
// A file qualifies when it is a regular file (symlinks are followed) of
// exactly fmap.FileSize bytes. Names and extensions are ignored and
// subdirectories are not searched.
type Source struct {
	dir    string
	logger *slog.Logger
}

// NewSource creates a Source over dir.
func NewSource(dir string, logger *slog.Logger) *Source {
	return &Source{dir: dir, logger: logger}
}

// Discover lists qualifying files sorted by name. It returns an error
// wrapping ErrNoInputFound when nothing qualifies.
func (s *Source) Discover(_ context.Context) ([]domain.InputFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []domain.InputFile
	for _, e := range entries {
		path := filepath.Join(s.dir, e.Name())
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Debug("skipping unreadable entry", "file", e.Name(), "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if info.Size() != fmap.FileSize {
			s.logger.Debug("skipping file with wrong size", "file", e.Name(), "size", info.Size())
			continue
		}
		files = append(files, domain.InputFile{Path: path, Name: e.Name(), Size: info.Size()})
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputFound, s.dir)
	}

	abs, err := filepath.Abs(s.dir)
	if err != nil {
		abs = s.dir
	}
	s.logger.Info("found input fmaps", "count", len(files), "dir", abs)
	return files, nil
}

// Extract decodes one discovered file.
func (s *Source) Extract(_ context.Context, file domain.InputFile) (*fmap.Record, error) {
	return fmap.ReadFile(file.Path)
}
