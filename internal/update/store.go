package update

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "relwatch/internal/errors"
)

// Store persists the last known release version.
type Store interface {
	// Load returns the recorded version. found is false when nothing has
	// been recorded yet, which callers must distinguish from v0.0.0.
	Load(ctx context.Context) (v Version, found bool, err error)
	// Save replaces the recorded version.
	Save(ctx context.Context, v Version) error
}

// FileStore keeps the version as "v{major}.{minor}.{revision}" in a single
// text file. The file is opened and closed within each call.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file. A missing file is not an error.
// A file whose contents do not parse returns found=false together with an
// invalid_version error so the caller can report it.
func (s *FileStore) Load(_ context.Context) (Version, bool, error) {
	//nolint:gosec // G304: state path comes from configuration
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Version{}, false, nil
	}
	if err != nil {
		return Version{}, false, apperrors.New(apperrors.CodePersistFailed,
			fmt.Sprintf("read state %s", s.path), err)
	}

	v, err := ParseVersion(string(data))
	if err != nil {
		return Version{}, false, fmt.Errorf("state file %s: %w", s.path, err)
	}
	return v, true, nil
}

// Save writes v to a temp file beside the state file and renames it into
// place, so readers never observe a partial write.
func (s *FileStore) Save(_ context.Context, v Version) error {
	dir := filepath.Dir(s.path)
	//nolint:gosec // G301: state directory needs standard permissions
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.New(apperrors.CodePersistFailed, "create state directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return apperrors.New(apperrors.CodePersistFailed, "create temp state file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(v.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return apperrors.New(apperrors.CodePersistFailed, "write state", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return apperrors.New(apperrors.CodePersistFailed, "close state", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return apperrors.New(apperrors.CodePersistFailed, fmt.Sprintf("replace state %s", s.path), err)
	}
	return nil
}
