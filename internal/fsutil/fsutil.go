// Package fsutil holds the filesystem primitives shared by the scaffold
// workflow: the directory error type, the emptiness check, and no-clobber
// file creation.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/conn-castle/scaffold/internal/messages"
)

// Directory operations reported by DirOpError.
const (
	OpCreate = "create"
	OpRemove = "remove"
	OpRead   = "read"
)

// DirOpError reports a failed create, remove, or read of a directory.
type DirOpError struct {
	Op   string
	Path string
	Err  error
}

func (e *DirOpError) Error() string {
	return fmt.Sprintf(messages.FsutilDirOpErrFmt, e.Op, e.Path, e.Err)
}

func (e *DirOpError) Unwrap() error {
	return e.Err
}

// IsEmptyDir reports whether the directory at path has no entries.
// A missing directory counts as empty.
func IsEmptyDir(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, &DirOpError{Op: OpRead, Path: path, Err: err}
	}
	defer func() { _ = dir.Close() }()

	_, err = dir.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, &DirOpError{Op: OpRead, Path: path, Err: err}
	}
	return false, nil
}

// CreateExclusive creates name for writing and fails with fs.ErrExist when
// anything is already present at that path.
func CreateExclusive(name string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}
