// Package xerrors classifies errors the way rclone's fs/fserrors does
// (NotFound/retriable/fatal), adapted to the stdlib errors.Is/As idiom that
// replaced rclone's former github.com/pkg/errors usage.
package xerrors

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// ErrUnsupportedScheme is returned by a VFS provider method that the
// Archive backend doesn't implement (§4.2: "unsupported for mutating
// calls").
var ErrUnsupportedScheme = errors.New("xerrors: operation unsupported for this scheme")

// Fatal wraps an error that should abort the whole process rather than
// just the task that produced it (§7: "Panics. Reserved for invariant
// violations").
type Fatal struct{ Err error }

func (f *Fatal) Error() string { return f.Err.Error() }
func (f *Fatal) Unwrap() error { return f.Err }

// IsNotFound reports whether err is (or wraps) a not-found condition,
// across os.ErrNotExist and the sftp/ssh status-code errors this module's
// SFTP backend surfaces.
func IsNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist)
}

// IsCrossDevice reports whether err is the EXDEV condition that triggers
// the paste retry-as-copy+delete path (§4.3, §4.4, §8).
func IsCrossDevice(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EXDEV
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return IsCrossDevice(linkErr.Err)
	}
	return false
}

// IsRetriable reports whether a subprocess or network error is worth
// retrying automatically (transient network resets, EINTR-like
// conditions). The scheduler and fileops do not consult it; the only
// automatic retry (fileops' EXDEV copy+delete) uses IsCrossDevice.
func IsRetriable(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EINTR, syscall.ECONNRESET:
			return true
		}
	}
	return false
}
