package rename

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// classify maps a filesystem error onto a failure outcome. Permission and
// missing-path errors are recognised through the wrapped chain so that
// afero, os and syscall errors all land in the same bucket.
func classify(err error) Outcome {
	switch {
	case err == nil:
		return Renamed
	case errors.Is(err, fs.ErrPermission):
		return FailedPermission
	case errors.Is(err, fs.ErrNotExist):
		return FailedPathNotFound
	case isIOError(err):
		return FailedIO
	default:
		return FailedUnexpected
	}
}

func isIOError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return true
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	return errors.Is(err, fs.ErrExist) || errors.Is(err, fs.ErrClosed)
}
