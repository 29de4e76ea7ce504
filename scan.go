package magic

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// ScanResult is the classification of one file found by Scan
type ScanResult struct {
	// Path is the file path, rooted at the directory passed to Scan
	Path string

	// Description is the engine's answer; empty when OK is false
	Description string

	// OK is false when the engine produced no description
	OK bool

	// Err is the query failure for this file, if any
	Err error
}

// ScanFunc receives each result. Returning an error stops the scan;
// returning fs.SkipAll stops it without error. Scan never calls it from
// more than one goroutine at a time.
type ScanFunc func(result ScanResult) error

// Scan walks root and classifies every regular file whose slash-separated
// path relative to root matches pattern. An empty pattern matches
// everything. Patterns use glob syntax with "/" as separator:
//
//	"**.png"          // every .png at any depth
//	"*.{jpg,jpeg}"    // JPEGs directly under root
//	"uploads/**"      // everything below uploads
//
// Files are classified by pool.Size() workers in parallel, so results
// arrive in no particular order. Per-file query failures are delivered
// through ScanResult.Err; only walk errors, pattern errors, context
// cancellation and errors returned by fn end the scan.
func Scan(ctx context.Context, pool *Pool, root, pattern string, fn ScanFunc) error {
	matcher, err := compilePattern(pattern)
	if err != nil {
		return err
	}

	walk := func(ctx context.Context, paths chan<- string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.Type().IsRegular() {
				return ctx.Err()
			}
			return sendMatch(ctx, paths, matcher, root, path)
		})
	}

	classify := func(ctx context.Context, path string) (ScanResult, error) {
		desc, ok, err := pool.File(ctx, path)
		if err != nil && (errors.Is(err, ErrPoolClosed) || ctx.Err() != nil) {
			return ScanResult{}, err
		}
		return ScanResult{Path: path, Description: desc, OK: ok, Err: err}, nil
	}

	return runScan(ctx, pool.Size(), walk, classify, fn)
}

// runScan feeds the paths produced by walk to workers running classify and
// hands their results to fn on the calling goroutine.
func runScan(
	ctx context.Context,
	workers int,
	walk func(ctx context.Context, paths chan<- string) error,
	classify func(ctx context.Context, path string) (ScanResult, error),
	fn ScanFunc,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	paths := make(chan string)
	results := make(chan ScanResult)

	g.Go(func() error {
		defer close(paths)
		return walk(gctx, paths)
	})

	for i := 0; i < max(workers, 1); i++ {
		g.Go(func() error {
			for path := range paths {
				r, err := classify(gctx, path)
				if err != nil {
					return err
				}
				select {
				case results <- r:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	var stopErr error
	for r := range results {
		if stopErr != nil {
			continue
		}
		if err := fn(r); err != nil {
			stopErr = err
			cancel()
		}
	}
	err := <-done

	if stopErr != nil {
		if errors.Is(stopErr, fs.SkipAll) {
			return nil
		}
		return stopErr
	}
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func sendMatch(ctx context.Context, paths chan<- string, matcher glob.Glob, root, path string) error {
	if match, err := matchPath(matcher, root, path); err != nil || !match {
		if err == nil {
			err = ctx.Err()
		}
		return err
	}
	select {
	case paths <- path:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// compilePattern returns nil for the empty pattern, which matches everything.
func compilePattern(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &Error{Op: "scan", Path: pattern, Message: err.Error()}
	}
	return g, nil
}

func matchPath(matcher glob.Glob, root, path string) (bool, error) {
	if matcher == nil {
		return true, nil
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false, err
	}
	return matcher.Match(filepath.ToSlash(rel)), nil
}
