package magic_test

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gobeaver/magic"
	"github.com/prometheus/client_golang/prometheus"
)

func ExampleOpen() {
	cookie, err := magic.Open(magic.FlagMimeType)
	if err != nil {
		log.Fatal(err)
	}
	defer cookie.Close()

	// Load the engine's default database
	if err := cookie.Load(""); err != nil {
		log.Fatal(err)
	}

	mime, ok, err := cookie.File("/etc/hostname")
	switch {
	case err != nil:
		fmt.Println("error:", err)
	case !ok:
		fmt.Println("no description")
	default:
		fmt.Println(mime)
	}
}

func ExampleCookie_Buffer() {
	cookie, err := magic.Open(magic.FlagMime)
	if err != nil {
		log.Fatal(err)
	}
	defer cookie.Close()

	if err := cookie.Load(""); err != nil {
		log.Fatal(err)
	}

	desc, _, err := cookie.Buffer([]byte("#!/bin/sh\necho hello\n"))
	if err != nil {
		log.Fatal(err)
	}

	res := magic.ParseMIME(desc)
	fmt.Println(res.Type, res.Charset, magic.Category(res.Type))
}

func ExampleParseFlags() {
	flags, err := magic.ParseFlags("symlink|mime_type")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(flags)
	// Output: symlink|mime_type
}

func ExampleNewPool() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	metrics, err := magic.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		log.Fatal(err)
	}

	pool, err := magic.NewPool(
		magic.WithSize(4),
		magic.WithFlags(magic.FlagMimeType),
		magic.WithLogger(logger),
		magic.WithMetrics(metrics),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	ctx := context.Background()
	mime, _, err := pool.Buffer(ctx, []byte("%PDF-1.7\n"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(mime)
}

func ExampleWatchDatabase() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := magic.NewPool(magic.WithDatabase("/etc/magic.local.mgc"))
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	w, err := magic.WatchDatabase(ctx, pool,
		magic.WithDebounce(500*time.Millisecond),
		magic.WithReloadCallback(func(err error) {
			if err != nil {
				log.Printf("reload failed, keeping previous database: %v", err)
			}
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()
}

func ExampleScan() {
	pool, err := magic.NewPool(magic.WithFlags(magic.FlagMimeType))
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	err = magic.Scan(context.Background(), pool, "uploads", "**.{png,jpg}", func(r magic.ScanResult) error {
		if r.Err != nil {
			return nil
		}
		if magic.IsExecutableMIME(r.Description) {
			fmt.Println("executable disguised as image:", r.Path)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}

func ExampleNewFromEnv() {
	// BEAVER_MAGIC_FLAGS=mime_type BEAVER_MAGIC_CACHE_ENABLED=true
	det, err := magic.NewFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	defer det.Close()

	mime, _, _ := det.Buffer(context.Background(), []byte("GIF89a"))
	fmt.Println(mime)
}
