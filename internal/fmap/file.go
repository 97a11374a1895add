package fmap

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// ReadFile decodes the fmap stored at path. The file is closed before
// ReadFile returns, including on a decode failure.
func ReadFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fmap: %w", err)
	}
	defer f.Close()

	rec, err := Decode(bufio.NewReaderSize(f, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// WriteFile encodes rec into path, truncating any existing file. A partially
// written file is removed when encoding or writing fails.
func WriteFile(path string, rec *Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fmap: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close fmap: %w", cerr)
		}
		if err != nil {
			err = errors.Join(err, removeIfExists(path))
		}
	}()

	return Encode(f, rec)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial fmap: %w", err)
	}
	return nil
}
