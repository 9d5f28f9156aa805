//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/hamper/internal/errors"
)

// Backup files are opened with O_NOFOLLOW so a symlink swapped in after
// ValidatePath cannot redirect the read or write. Only the final path
// component is covered; ValidatePath rejects nested directories.

// createBackupTemp creates (or truncates) the temporary file an export is
// written to before it is renamed into place.
func createBackupTemp(path string) (*os.File, error) {
	fd, err := syscall.Open(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0600)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("backup path is a symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openBackup opens a backup file for import.
func openBackup(path string) (*os.File, error) {
	fd, err := syscall.Open(path, os.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	switch {
	case err == nil:
		return os.NewFile(uintptr(fd), path), nil
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("backup path is a symlink")
	case stderrors.Is(err, syscall.ENOENT):
		return nil, errors.NewFileNotFound(path)
	default:
		return nil, err
	}
}
