// Command magic classifies files by content, in the manner of file(1).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/gobeaver/magic"
)

type options struct {
	brief        bool
	mime         bool
	mimeType     bool
	mimeEncoding bool
	dereference  bool
	uncompress   bool
	special      bool
	keepGoing    bool
	raw          bool
	database     string
	compile      bool
	check        bool
	list         bool
	version      bool
	recursive    bool
	pattern      string
	jobs         int
	noColor      bool
	verbose      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options

	fs := flag.NewFlagSet("magic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVarP(&opts.brief, "brief", "b", false, "do not prepend filenames to output lines")
	fs.BoolVarP(&opts.mime, "mime", "i", false, "output MIME type and encoding")
	fs.BoolVar(&opts.mimeType, "mime-type", false, "output the MIME type only")
	fs.BoolVar(&opts.mimeEncoding, "mime-encoding", false, "output the MIME encoding only")
	fs.BoolVarP(&opts.dereference, "dereference", "L", false, "follow symlinks")
	fs.BoolVarP(&opts.uncompress, "uncompress", "z", false, "look inside compressed files")
	fs.BoolVarP(&opts.special, "special-files", "s", false, "read block and character devices")
	fs.BoolVarP(&opts.keepGoing, "keep-going", "k", false, "report every match, not just the first")
	fs.BoolVarP(&opts.raw, "raw", "r", false, "do not translate unprintable characters")
	fs.StringVarP(&opts.database, "magic-file", "m", "", "colon-separated list of database files")
	fs.BoolVarP(&opts.compile, "compile", "C", false, "compile the database given with -m")
	fs.BoolVarP(&opts.check, "checking-printout", "c", false, "check the database given with -m")
	fs.BoolVarP(&opts.list, "list", "l", false, "list the rules of the database given with -m")
	fs.BoolVarP(&opts.version, "version", "v", false, "print the engine version")
	fs.BoolVarP(&opts.recursive, "recursive", "R", false, "classify every file below the given directories")
	fs.StringVar(&opts.pattern, "glob", "", "with -R, only classify paths matching this pattern")
	fs.IntVarP(&opts.jobs, "jobs", "j", 4, "with -R, number of parallel engine handles")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&opts.verbose, "verbose", false, "log database reloads and diagnostics")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: magic [options] file...

Description:
  Classify files by their content. Use "-" to read standard input.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Examples:
  magic --mime-type upload.bin
  magic -R --glob '**.{png,jpg}' uploads/
  magic -m local.magic -C
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.noColor {
		color.NoColor = true
	}
	out := newPrinter(stdout, stderr, opts.brief)

	switch {
	case opts.version:
		v := magic.Version()
		fmt.Fprintf(stdout, "magic (libmagic %d.%02d)\n", v/100, v%100)
		return 0
	case opts.compile || opts.check || opts.list:
		return runDatabase(opts, out)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if opts.recursive {
		return runScan(ctx, opts, fs.Args(), out, stderr)
	}
	return runFiles(opts, fs.Args(), stdin, out)
}

func (o options) flags() magic.Flags {
	var flags magic.Flags
	set := func(on bool, f magic.Flags) {
		if on {
			flags = flags.Union(f)
		}
	}
	set(o.mime, magic.FlagMime)
	set(o.mimeType, magic.FlagMimeType)
	set(o.mimeEncoding, magic.FlagMimeEncoding)
	set(o.dereference, magic.FlagSymlink)
	set(o.uncompress, magic.FlagCompress)
	set(o.special, magic.FlagDevices)
	set(o.keepGoing, magic.FlagContinue)
	set(o.raw, magic.FlagRaw)
	return flags
}

func runDatabase(opts options, out *printer) int {
	cookie, err := magic.Open(opts.flags())
	if err != nil {
		out.fail("", err)
		return 1
	}
	defer cookie.Close()

	var op func(string) error
	switch {
	case opts.compile:
		op = cookie.Compile
	case opts.check:
		op = cookie.Check
	default:
		op = cookie.List
	}

	if err := op(opts.database); err != nil {
		out.fail(opts.database, err)
		return 1
	}
	return 0
}

func runFiles(opts options, names []string, stdin io.Reader, out *printer) int {
	cookie, err := magic.Open(opts.flags())
	if err != nil {
		out.fail("", err)
		return 1
	}
	defer cookie.Close()

	if err := cookie.Load(opts.database); err != nil {
		out.fail(opts.database, err)
		return 1
	}

	status := 0
	for _, name := range names {
		var (
			desc string
			ok   bool
			err  error
		)
		if name == "-" {
			data, readErr := io.ReadAll(stdin)
			if readErr != nil {
				out.fail("/dev/stdin", readErr)
				status = 1
				continue
			}
			desc, ok, err = cookie.Buffer(data)
			name = "/dev/stdin"
		} else {
			desc, ok, err = cookie.File(name)
		}

		if !out.result(name, desc, ok, err) {
			status = 1
		}
	}
	return status
}

func runScan(ctx context.Context, opts options, roots []string, out *printer, stderr io.Writer) int {
	logger := slog.New(slog.DiscardHandler)
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(stderr, nil))
	}

	pool, err := magic.NewPool(
		magic.WithSize(opts.jobs),
		magic.WithFlags(opts.flags()),
		magic.WithDatabase(opts.database),
		magic.WithLogger(logger),
	)
	if err != nil {
		out.fail(opts.database, err)
		return 1
	}
	defer pool.Close()

	status := 0
	for _, root := range roots {
		err := magic.Scan(ctx, pool, root, opts.pattern, func(r magic.ScanResult) error {
			if !out.result(r.Path, r.Description, r.OK, r.Err) {
				status = 1
			}
			return nil
		})
		if err != nil {
			out.fail(root, err)
			status = 1
		}
	}
	return status
}

// printer writes results in file(1) layout
type printer struct {
	stdout io.Writer
	stderr io.Writer
	brief  bool
	name   *color.Color
	errc   *color.Color
	dim    *color.Color
}

func newPrinter(stdout, stderr io.Writer, brief bool) *printer {
	return &printer{
		stdout: stdout,
		stderr: stderr,
		brief:  brief,
		name:   color.New(color.Bold),
		errc:   color.New(color.FgRed),
		dim:    color.New(color.Faint),
	}
}

// result prints one answer and reports whether it was not an error
func (p *printer) result(name, desc string, ok bool, err error) bool {
	if !p.brief {
		p.name.Fprint(p.stdout, name)
		fmt.Fprint(p.stdout, ": ")
	}

	switch {
	case err != nil:
		p.errc.Fprintln(p.stdout, err)
		return false
	case !ok:
		p.dim.Fprintln(p.stdout, "no description")
	default:
		fmt.Fprintln(p.stdout, desc)
	}
	return true
}

func (p *printer) fail(name string, err error) {
	if name != "" {
		p.errc.Fprintf(p.stderr, "magic: %s: %v\n", name, err)
		return
	}
	p.errc.Fprintf(p.stderr, "magic: %v\n", err)
}
