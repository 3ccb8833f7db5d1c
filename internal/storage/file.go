package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// File stores each (principal, module) pair as <dir>/<principal>/<module>.json.
// Writes go to a temp file in the same directory and are renamed into place,
// so a reader never sees a partial collection.
type File struct {
	dir string
	log *zap.Logger
}

// NewFile returns a file backend rooted at dir, creating it if needed.
func NewFile(dir string, log *zap.Logger) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("file backend: data directory must be set")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("file backend: creating %s: %w", dir, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &File{dir: dir, log: log}, nil
}

func (f *File) path(principalID, module string) string {
	return filepath.Join(f.dir, principalID, module+".json")
}

func (f *File) Read(ctx context.Context, principalID, module string) ([]byte, bool, error) {
	if err := validateKey(principalID, module); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.path(principalID, module))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", principalID, module, err)
	}
	return data, true, nil
}

func (f *File) Write(ctx context.Context, principalID, module string, data []byte) error {
	if err := validateKey(principalID, module); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := f.path(principalID, module)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+module+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", target, err)
	}

	f.log.Debug("collection written", zap.String("module", module), zap.Int("bytes", len(data)))
	return nil
}

func (f *File) DeleteAll(ctx context.Context, principalID string) error {
	if err := validatePart("principal id", principalID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(f.dir, principalID)); err != nil {
		return fmt.Errorf("removing data for %s: %w", principalID, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
