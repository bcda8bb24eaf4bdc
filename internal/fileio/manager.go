// Package fileio serializes file access per path. Reads share a path, writes
// hold it exclusively, and waiting for a path honours context cancellation.
package fileio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	DefaultFilePerm = 0o644
	DefaultDirPerm  = 0o755

	flagSize = 8
)

const (
	flagComplete   uint64 = 0
	flagInProgress uint64 = 1
)

var (
	ErrCorrupt         = errors.New("file is corrupt")
	ErrWriteInProgress = errors.New("file write in progress")
)

type Manager struct {
	locks *lockTable
}

func NewManager() *Manager {
	return &Manager{locks: newLockTable()}
}

// Resolve returns the cleaned absolute form of path.
func (m *Manager) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

func (m *Manager) Exists(ctx context.Context, path string) (bool, error) {
	path, unlock, err := m.lock(ctx, path, false)
	if err != nil {
		return false, err
	}
	defer unlock()

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// Create makes an empty file at path along with missing parents. An
// existing file is left untouched.
func (m *Manager) Create(ctx context.Context, path string) error {
	path, unlock, err := m.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return fmt.Errorf("create parents of %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return f.Close()
}

func (m *Manager) Read(ctx context.Context, path string) ([]byte, error) {
	path, unlock, err := m.lock(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (m *Manager) ReadString(ctx context.Context, path string) (string, error) {
	data, err := m.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write replaces the file content atomically through a temp file in the same
// directory.
func (m *Manager) Write(ctx context.Context, path string, data []byte) error {
	path, unlock, err := m.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	return writeAtomic(path, data)
}

func (m *Manager) Append(ctx context.Context, path string, data []byte) error {
	path, unlock, err := m.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return fmt.Errorf("create parents of %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return f.Close()
}

// Delete removes a file or a directory tree. A missing path is not an error.
func (m *Manager) Delete(ctx context.Context, path string) error {
	path, unlock, err := m.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// WriteFlagged writes data behind an 8 byte header. The header reads 1 until
// the content is fully written and synced, then 0.
func (m *Manager) WriteFlagged(ctx context.Context, path string, data []byte) error {
	path, unlock, err := m.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return fmt.Errorf("create parents of %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	header := make([]byte, flagSize)
	binary.BigEndian.PutUint64(header, flagInProgress)
	if _, err := f.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header of %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}

	binary.BigEndian.PutUint64(header, flagComplete)
	if _, err := f.WriteAt(header, 0); err != nil {
		_ = f.Close()
		return fmt.Errorf("complete header of %s: %w", path, err)
	}
	return f.Close()
}

// ReadFlagged returns the content written by WriteFlagged.
func (m *Manager) ReadFlagged(ctx context.Context, path string) ([]byte, error) {
	path, unlock, err := m.lock(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, flagSize)
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%s: %w", path, ErrCorrupt)
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	switch binary.BigEndian.Uint64(header) {
	case flagComplete:
	case flagInProgress:
		return nil, fmt.Errorf("%s: %w", path, ErrWriteInProgress)
	default:
		return nil, fmt.Errorf("%s: unknown header: %w", path, ErrCorrupt)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (m *Manager) lock(ctx context.Context, path string, write bool) (string, func(), error) {
	abs, err := m.Resolve(path)
	if err != nil {
		return "", nil, err
	}
	unlock, err := m.locks.acquire(ctx, abs, write)
	if err != nil {
		return "", nil, fmt.Errorf("lock %s: %w", abs, err)
	}
	return abs, unlock, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
		return fmt.Errorf("create parents of %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp file for %s: %w", path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write tmp file %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("sync tmp file %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close tmp file %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), DefaultFilePerm); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("chmod tmp file %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s with %s: %w", path, tmp.Name(), err)
	}
	return nil
}
