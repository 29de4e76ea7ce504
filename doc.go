// Package magic classifies content by its bytes using libmagic, the engine
// behind file(1). Given a path, a buffer or an open descriptor it returns a
// human-readable description ("PNG image data, 128 x 128, 8-bit/color RGBA,
// non-interlaced") or, with the MIME flags, a MIME answer ("image/png;
// charset=binary"). File names and extensions are never consulted.
//
// The package links against libmagic with cgo; the development headers
// (magic.h) and a compiled database are required at build and run time.
//
// # Basic Usage
//
//	cookie, err := magic.Open(magic.FlagNone)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cookie.Close()
//
//	// Load the default database
//	if err := cookie.Load(""); err != nil {
//	    log.Fatal(err)
//	}
//
//	desc, ok, err := cookie.File("logo.png")
//
//	cookie.SetFlags(magic.FlagMimeType)
//	mime, ok, err := cookie.Buffer(data)
//
// # Results
//
// Every query returns (description, ok, err):
//
//   - ok is true: the engine produced a description
//   - ok is false, err is nil: the engine ran and had nothing to say
//   - err is non-nil: the engine failed; err is an [*Error] carrying a copy
//     of the diagnostic
//
// [Open] always adds [FlagError], so a missing or unreadable file is an
// error instead of an empty answer:
//
//	_, _, err := cookie.File("missing.txt")
//	if magic.IsNotExist(err) {
//	    // cannot stat 'missing.txt' (No such file or directory)
//	}
//
// The diagnostic is also available from [Cookie.LastError] until the next
// call on the same Cookie.
//
// # Flags
//
// [Flags] is a bitmask. Combine values with [Flags.Union] or |. [FlagMime] and
// [FlagNoCheckBuiltin] are derived from their constituents. Flags can be
// parsed from text with [ParseFlags], which the configuration layer uses.
//
// # Concurrency
//
// A [Cookie] must not be used by two goroutines at once and holds no lock of
// its own. Either give each goroutine its own Cookie or share a [Pool],
// which lends Cookies out one caller at a time:
//
//	pool, err := magic.NewPool(
//	    magic.WithSize(8),
//	    magic.WithFlags(magic.FlagMimeType),
//	)
//	defer pool.Close()
//
//	mime, ok, err := pool.Buffer(ctx, data)
//
// # Caching and Reloading
//
// [CachingDetector] memoizes buffer results keyed by an xxhash of the bytes.
// [WatchDatabase] reloads a pool whenever its database files change.
//
// # Scanning
//
// [Scan] classifies every file below a directory whose relative path
// matches a glob pattern. [ScanFS] does the same for any afero filesystem
// by classifying the leading bytes of each file.
//
// # Observability
//
// Pool queries run inside OpenTelemetry spans (see [WithTracerProvider]).
// [NewMetrics] exposes Prometheus counters and histograms; pass the result
// to [WithMetrics]. Reloads and watcher events are logged through the
// *slog.Logger given to [WithLogger].
//
// # Configuration
//
// A [Detector] can be built from environment variables with the
// BEAVER_MAGIC_ prefix, or programmatically via the [Config] struct:
//
//	det, err := magic.New(&magic.Config{
//	    Flags:        "mime_type",
//	    PoolSize:     4,
//	    CacheEnabled: true,
//	})
package magic
