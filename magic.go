package magic

/*
#cgo LDFLAGS: -lmagic
#include <stdlib.h>
#include <magic.h>
*/
import "C"

import (
	"fmt"
	"os"
	"runtime"
	"syscall"
	"unsafe"
)

// Cookie owns one libmagic instance.
//
// A Cookie is not safe for concurrent use. Serialize access yourself, or give
// each goroutine its own Cookie (see Pool). Distinct Cookies are independent.
//
// Always release a Cookie with Close, typically via defer. A finalizer closes
// Cookies that become unreachable without being closed, but relying on it
// keeps native memory alive for an unpredictable time.
type Cookie struct {
	ms    C.magic_t
	flags Flags
}

// Open allocates a new Cookie configured with flags. FlagError is always
// added, so missing or unreadable inputs are reported as errors rather than
// as a silent absence of result.
//
// When allocation fails no Cookie exists and there is no diagnostic to read.
func Open(flags Flags) (*Cookie, error) {
	flags = flags.Union(FlagError)

	ms := C.magic_open(C.int(flags))
	if ms == nil {
		return nil, fmt.Errorf("%w (flags %s)", ErrOpen, flags)
	}

	c := &Cookie{ms: ms, flags: flags}
	runtime.SetFinalizer(c, (*Cookie).Close)
	return c, nil
}

// Close releases the underlying libmagic instance. Calling Close more than
// once is safe; only the first call reaches the engine.
func (c *Cookie) Close() error {
	if c.ms == nil {
		return nil
	}
	C.magic_close(c.ms)
	c.ms = nil
	runtime.SetFinalizer(c, nil)
	return nil
}

// Flags returns the flags most recently handed to the engine
func (c *Cookie) Flags() Flags {
	return c.flags
}

// SetFlags replaces the active flags for every later query. Unlike Open it
// does not add FlagError. On a closed Cookie it does nothing.
func (c *Cookie) SetFlags(flags Flags) {
	if c.ms == nil {
		return
	}
	defer runtime.KeepAlive(c)

	// magic_setflags only fails for FlagPreserveAtime on platforms without
	// utime support; the engine then keeps the remaining bits.
	C.magic_setflags(c.ms, C.int(flags))
	c.flags = flags
}

// File classifies the file at name.
//
// It returns the description and true on success. When the engine produced
// no result, ok is false and err carries the diagnostic if there is one; a
// nil err with ok false means nothing matched.
func (c *Cookie) File(name string) (string, bool, error) {
	if c.ms == nil {
		return "", false, ErrClosed
	}
	defer runtime.KeepAlive(c)

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	return c.result("file", name, C.magic_file(c.ms, cname))
}

// Buffer classifies data. The filesystem is not touched.
func (c *Cookie) Buffer(data []byte) (string, bool, error) {
	if c.ms == nil {
		return "", false, ErrClosed
	}
	defer runtime.KeepAlive(c)

	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	res := C.magic_buffer(c.ms, p, C.size_t(len(data)))
	runtime.KeepAlive(data)

	return c.result("buffer", "", res)
}

// Descriptor classifies the content behind an open file descriptor. The
// descriptor stays open and owned by the caller; its offset may move.
func (c *Cookie) Descriptor(fd int) (string, bool, error) {
	if c.ms == nil {
		return "", false, ErrClosed
	}
	defer runtime.KeepAlive(c)

	return c.result("descriptor", fmt.Sprintf("fd %d", fd), C.magic_descriptor(c.ms, C.int(fd)))
}

// FileHandle classifies an open *os.File through its descriptor.
// f is not closed.
func (c *Cookie) FileHandle(f *os.File) (string, bool, error) {
	if c.ms == nil {
		return "", false, ErrClosed
	}
	defer runtime.KeepAlive(c)
	defer runtime.KeepAlive(f)

	res := C.magic_descriptor(c.ms, C.int(f.Fd()))
	return c.result("descriptor", f.Name(), res)
}

// result converts an engine result into Go memory before anything else can
// run on the Cookie.
func (c *Cookie) result(op, path string, res *C.char) (string, bool, error) {
	if res != nil {
		return C.GoString(res), true, nil
	}
	if err := c.lastError(op, path); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// Load replaces the active database with the colon-separated list of
// database files in path. An empty path loads the default database.
func (c *Cookie) Load(path string) error {
	return c.database("load", path, func(p *C.char) C.int { return C.magic_load(c.ms, p) })
}

// Compile compiles the source rules in path into a database file next to
// it. The result is not loaded.
func (c *Cookie) Compile(path string) error {
	return c.database("compile", path, func(p *C.char) C.int { return C.magic_compile(c.ms, p) })
}

// Check validates the source rules in path without producing output
func (c *Cookie) Check(path string) error {
	return c.database("check", path, func(p *C.char) C.int { return C.magic_check(c.ms, p) })
}

// List prints the entries of the database in path to standard output.
// It exists for debugging database specifications.
func (c *Cookie) List(path string) error {
	return c.database("list", path, func(p *C.char) C.int { return C.magic_list(c.ms, p) })
}

func (c *Cookie) database(op, path string, call func(*C.char) C.int) error {
	if c.ms == nil {
		return ErrClosed
	}
	defer runtime.KeepAlive(c)

	var cpath *C.char
	if path != "" {
		cpath = C.CString(path)
		defer C.free(unsafe.Pointer(cpath))
	}

	if call(cpath) == 0 {
		return nil
	}
	return c.failure(op, path)
}

// failure reports an engine call that returned an error status, with or
// without a pending diagnostic.
func (c *Cookie) failure(op, path string) error {
	if err := c.lastError(op, path); err != nil {
		return err
	}
	return &Error{Op: op, Path: path, Errno: syscall.Errno(c.Errno())}
}

// LastError returns a copy of the diagnostic for the most recent failed
// operation. The engine overwrites it on the next call, so read it right
// after the failure. ok is false when nothing is pending.
func (c *Cookie) LastError() (string, bool) {
	if c.ms == nil {
		return "", false
	}
	defer runtime.KeepAlive(c)

	msg := C.magic_error(c.ms)
	if msg == nil {
		return "", false
	}
	return C.GoString(msg), true
}

// Errno returns the OS error number of the last failure, or 0
func (c *Cookie) Errno() int {
	if c.ms == nil {
		return 0
	}
	defer runtime.KeepAlive(c)

	return int(C.magic_errno(c.ms))
}

func (c *Cookie) lastError(op, path string) *Error {
	msg, ok := c.LastError()
	if !ok {
		return nil
	}
	return &Error{
		Op:      op,
		Path:    path,
		Message: msg,
		Errno:   syscall.Errno(c.Errno()),
	}
}

// Param names an engine resource limit
type Param int

// Engine limits readable with Cookie.Param and adjustable with SetParam
const (
	ParamIndirMax    Param = C.MAGIC_PARAM_INDIR_MAX     // recursion depth of indirect magic
	ParamNameMax     Param = C.MAGIC_PARAM_NAME_MAX      // use count of named entries
	ParamELFPhnumMax Param = C.MAGIC_PARAM_ELF_PHNUM_MAX // ELF program sections processed
	ParamELFShnumMax Param = C.MAGIC_PARAM_ELF_SHNUM_MAX // ELF sections processed
	ParamELFNotesMax Param = C.MAGIC_PARAM_ELF_NOTES_MAX // ELF notes processed
	ParamRegexMax    Param = C.MAGIC_PARAM_REGEX_MAX     // bytes scanned by regex entries
	ParamBytesMax    Param = C.MAGIC_PARAM_BYTES_MAX     // bytes read from a file
)

// Param returns the current value of an engine limit
func (c *Cookie) Param(param Param) (int, error) {
	if c.ms == nil {
		return 0, ErrClosed
	}
	defer runtime.KeepAlive(c)

	var v C.size_t
	if C.magic_getparam(c.ms, C.int(param), unsafe.Pointer(&v)) != 0 {
		return 0, c.failure("getparam", "")
	}
	return int(v), nil
}

// SetParam changes an engine limit for later queries on this Cookie
func (c *Cookie) SetParam(param Param, value int) error {
	if c.ms == nil {
		return ErrClosed
	}
	defer runtime.KeepAlive(c)

	v := C.size_t(value)
	if C.magic_setparam(c.ms, C.int(param), unsafe.Pointer(&v)) != 0 {
		return c.failure("setparam", "")
	}
	return nil
}

// Version returns the libmagic version the package is linked against,
// e.g. 545 for 5.45.
func Version() int {
	return int(C.magic_version())
}
