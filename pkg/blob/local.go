package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jordanlanch/obramap/pkg/models"
)

// LocalStore keeps files on disk and serves them under baseURL/files/.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) resolve(objectPath string) (string, error) {
	clean := filepath.Clean("/" + objectPath)
	full := filepath.Join(s.root, clean)
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes storage root", objectPath)
	}
	return full, nil
}

// Path maps an object path to its file on disk, refusing paths that leave root.
func (s *LocalStore) Path(objectPath string) (string, error) {
	return s.resolve(objectPath)
}

// Upload writes r to disk.
func (s *LocalStore) Upload(_ context.Context, objectPath string, r io.Reader, _ int64, _ string) (models.Foto, error) {
	full, err := s.resolve(objectPath)
	if err != nil {
		return models.Foto{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return models.Foto{}, fmt.Errorf("failed to create dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return models.Foto{}, fmt.Errorf("failed to create %s: %w", objectPath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(full)
		return models.Foto{}, fmt.Errorf("failed to write %s: %w", objectPath, err)
	}
	if err := f.Close(); err != nil {
		return models.Foto{}, err
	}

	return models.Foto{URL: s.baseURL + "/files/" + objectPath, RefPath: objectPath}, nil
}

// DownloadURL returns the static URL; local files need no signing.
func (s *LocalStore) DownloadURL(_ context.Context, ref models.Foto) (string, error) {
	if _, err := s.resolve(ref.RefPath); err != nil {
		return "", err
	}
	return s.baseURL + "/files/" + ref.RefPath, nil
}

// Delete removes the file; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, ref models.Foto) error {
	full, err := s.resolve(ref.RefPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", ref.RefPath, err)
	}
	return nil
}
