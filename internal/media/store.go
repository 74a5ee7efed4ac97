// Package media keeps uploaded and generated files in a flat directory.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrBadName = errors.New("invalid file name")

type Store struct {
	dir string
}

// New creates dir if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media dir %s: %w", abs, err)
	}
	return &Store{dir: abs}, nil
}

func (s *Store) Dir() string { return s.dir }

// Path resolves a stored file name to its location on disk, refusing anything
// that could escape the directory.
func (s *Store) Path(name string) (string, error) {
	lower := strings.ToLower(name)
	if name == "" || strings.Contains(lower, "..") || strings.Contains(lower, "%2e") ||
		strings.ContainsAny(name, `/\`+"\x00") {
		return "", ErrBadName
	}
	return filepath.Join(s.dir, name), nil
}

// Save copies an uploaded file into the store under "<prefix>-<uuid><ext>".
func (s *Store) Save(fh *multipart.FileHeader, prefix, ext string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := prefix + "-" + uuid.NewString() + ext
	if err := s.write(name, src); err != nil {
		return "", err
	}
	return name, nil
}

// WriteFile stores data under an explicit name, replacing any previous file.
func (s *Store) WriteFile(name string, data []byte) error {
	return s.write(name, bytes.NewReader(data))
}

func (s *Store) write(name string, r io.Reader) error {
	full, err := s.Path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), full)
}

// Remove deletes a stored file. Missing files report os.ErrNotExist.
func (s *Store) Remove(name string) error {
	full, err := s.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

func (s *Store) Exists(name string) bool {
	full, err := s.Path(name)
	if err != nil {
		return false
	}
	st, err := os.Stat(full)
	return err == nil && st.Mode().IsRegular()
}

type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// List returns regular files ending in suffix, newest first.
func (s *Store) List(suffix string) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := []FileInfo{}
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		out = append(out, FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].Name > out[j].Name
		}
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}
