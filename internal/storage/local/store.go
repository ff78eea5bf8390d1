package local

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "scene-service/pkg/errors"
	"scene-service/pkg/validator"

	"github.com/google/uuid"
)

const (
	uploadDirPerm = 0o755

	// StaticMountPath is where the upload directory is served from.
	StaticMountPath = "/static/uploads"

	errFileNotFound = "file not found"
)

// StoredFile describes one upload on disk.
type StoredFile struct {
	OriginalName string    `json:"original_name,omitempty"`
	Filename     string    `json:"filename"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	Created      time.Time `json:"created,omitempty"`
}

// Store keeps uploaded files in a single flat directory and hands out
// publicly resolvable URLs for them. Stored names are collision-resistant:
// a random identifier plus the original (compound-aware) extension.
type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, publicBaseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, uploadDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save streams src to disk under a generated name. A partially written
// file is removed before the error is returned.
func (s *Store) Save(src io.Reader, originalName string) (*StoredFile, error) {
	if err := validator.FileName(originalName); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := validator.FileExtension(originalName); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	filename := uuid.New().String() + validator.Extension(originalName)
	path := filepath.Join(s.dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return nil, apperrors.InternalServer(fmt.Sprintf("failed to save file %s", originalName), err)
	}

	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, apperrors.InternalServer(fmt.Sprintf("failed to save file %s", originalName), err)
	}

	return &StoredFile{
		OriginalName: originalName,
		Filename:     filename,
		URL:          s.FileURL(filename),
		Size:         size,
	}, nil
}

// Delete removes a stored file by its generated name. The name must be a
// bare filename; anything path-like is rejected.
func (s *Store) Delete(filename string) error {
	if err := validator.FileName(filename); err != nil {
		return apperrors.Validation(err.Error())
	}

	path := filepath.Join(s.dir, filename)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.NotFound(errFileNotFound)
		}
		return apperrors.InternalServer(fmt.Sprintf("failed to delete file %s", filename), err)
	}

	return nil
}

// List returns all stored files, newest first.
func (s *Store) List() ([]*StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.InternalServer("failed to list uploaded files", err)
	}

	var files []*StoredFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, &StoredFile{
			Filename: entry.Name(),
			URL:      s.FileURL(entry.Name()),
			Size:     info.Size(),
			Created:  info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Created.After(files[j].Created)
	})

	return files, nil
}

// FileURL builds the publicly resolvable URL for a stored filename.
func (s *Store) FileURL(filename string) string {
	return s.baseURL + StaticMountPath + "/" + filename
}

// ResolvePath maps a document image reference to a path on disk. Absolute
// URLs are stripped to their basename and resolved under the upload
// directory; anything else is treated as a path already.
func (s *Store) ResolvePath(reference string) string {
	if u, err := url.Parse(reference); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return filepath.Join(s.dir, filepath.Base(u.Path))
	}
	return reference
}

// Exists reports whether the path resolves to a regular file on disk.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
