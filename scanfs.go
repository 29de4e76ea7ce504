package magic

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"
)

// ScanFS is Scan for an afero filesystem. The engine cannot open files
// that live outside the operating system, so each matching file is read
// up to the engine's ParamBytesMax and classified with Buffer. Results
// describe the content only, never the file system object itself.
func ScanFS(ctx context.Context, pool *Pool, fsys afero.Fs, root, pattern string, fn ScanFunc) error {
	matcher, err := compilePattern(pattern)
	if err != nil {
		return err
	}

	var limit int
	err = pool.Do(ctx, func(c *Cookie) error {
		limit, err = c.Param(ParamBytesMax)
		return err
	})
	if err != nil {
		return err
	}

	walk := func(ctx context.Context, paths chan<- string) error {
		return afero.Walk(fsys, root, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !info.Mode().IsRegular() {
				return ctx.Err()
			}
			return sendMatch(ctx, paths, matcher, root, path)
		})
	}

	classify := func(ctx context.Context, path string) (ScanResult, error) {
		data, err := readHead(fsys, path, int64(limit))
		if err != nil {
			return ScanResult{Path: path, Err: &Error{Op: "read", Path: path, Message: err.Error()}}, nil
		}

		desc, ok, err := pool.Buffer(ctx, data)
		if err != nil && (errors.Is(err, ErrPoolClosed) || ctx.Err() != nil) {
			return ScanResult{}, err
		}
		return ScanResult{Path: path, Description: desc, OK: ok, Err: err}, nil
	}

	return runScan(ctx, pool.Size(), walk, classify, fn)
}

func readHead(fsys afero.Fs, path string, limit int64) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, limit))
}
