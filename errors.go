package magic

import (
	"errors"
	"fmt"
	"syscall"
)

// Common errors
var (
	ErrOpen        = errors.New("magic: cannot allocate cookie")
	ErrClosed      = errors.New("magic: cookie already closed")
	ErrInvalidFlag = errors.New("magic: invalid flag")
	ErrPoolClosed  = errors.New("magic: pool closed")
)

// Error records a failed engine operation together with the diagnostic the
// engine reported for it. Message is a copy, so it stays valid after further
// calls on the same Cookie.
type Error struct {
	Op      string
	Path    string
	Message string
	Errno   syscall.Errno
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	if e.Path == "" {
		return fmt.Sprintf("magic %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("magic %s %s: %s", e.Op, e.Path, msg)
}

// Unwrap returns the OS error number behind the failure, if the engine
// recorded one. This lets errors.Is(err, fs.ErrNotExist) work.
func (e *Error) Unwrap() error {
	if e.Errno == 0 {
		return nil
	}
	return e.Errno
}

// IsNotExist reports whether err was caused by a missing file
func IsNotExist(err error) bool {
	return errors.Is(err, syscall.ENOENT)
}

// IsClosed reports whether err indicates use of a closed Cookie or Pool
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, ErrPoolClosed)
}
