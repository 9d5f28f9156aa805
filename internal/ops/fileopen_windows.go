//go:build windows

package ops

import (
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/hpungsan/hamper/internal/errors"
)

// Windows has no O_NOFOLLOW; ValidatePath's Lstat check is the only guard.

func createBackupTemp(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
}

func openBackup(path string) (*os.File, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.NewFileNotFound(path)
	}
	return f, err
}
