package magic

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with path",
			err:  &Error{Op: "file", Path: "a.txt", Message: "cannot stat 'a.txt' (No such file or directory)"},
			want: "magic file a.txt: cannot stat 'a.txt' (No such file or directory)",
		},
		{
			name: "without path",
			err:  &Error{Op: "buffer", Message: "bad magic"},
			want: "magic buffer: bad magic",
		},
		{
			name: "without message",
			err:  &Error{Op: "load", Path: "/tmp/x"},
			want: "magic load /tmp/x: unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Op: "file", Path: "x", Errno: syscall.ENOENT})

	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected errors.Is(err, fs.ErrNotExist)")
	}
	if !IsNotExist(err) {
		t.Error("expected IsNotExist to be true")
	}

	var magicErr *Error
	if !errors.As(err, &magicErr) {
		t.Fatal("expected errors.As to find *Error")
	}
	if magicErr.Op != "file" {
		t.Errorf("Op = %q, want file", magicErr.Op)
	}

	noErrno := &Error{Op: "load"}
	if noErrno.Unwrap() != nil {
		t.Error("Unwrap() without errno should be nil")
	}
	if IsNotExist(noErrno) {
		t.Error("IsNotExist should be false without errno")
	}
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrClosed, true},
		{ErrPoolClosed, true},
		{fmt.Errorf("query: %w", ErrClosed), true},
		{ErrOpen, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsClosed(tt.err); got != tt.want {
			t.Errorf("IsClosed(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
