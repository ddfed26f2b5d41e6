package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
	"github.com/zulfikawr/fetchtrace/internal/config"
	"github.com/zulfikawr/fetchtrace/internal/errors"
	"github.com/zulfikawr/fetchtrace/internal/logging"
	"github.com/zulfikawr/fetchtrace/internal/monitor"
	"github.com/zulfikawr/fetchtrace/internal/remote"
	"github.com/zulfikawr/fetchtrace/internal/ui"
)

// patternStep is one step of a read pattern
type patternStep struct {
	op string // "seek" or "read"
	n  int64
}

// Trace executes the trace command
func Trace(args []string) error {
	// Load configuration (config file → env vars)
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.ConfigError("Failed to load configuration", err)
	}

	// Strip -v flags before flag parsing
	verbosity, filteredArgs := verbosityLevel(args)

	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	fs.Usage = traceHelp
	// Use config defaults for flags (config → env → flags precedence)
	blockSize := fs.Int("block-size", cfg.BlockSize, "fetch granularity in bytes")
	fs.IntVar(blockSize, "b", cfg.BlockSize, "")
	pattern := fs.String("pattern", "", "read pattern, e.g. seek:100,read:80")
	targets := fs.String("targets", "", "comma-separated variants to intercept")
	quiet := fs.Bool("quiet", cfg.Quiet, "suppress per-fetch lines")
	fs.BoolVar(quiet, "q", cfg.Quiet, "")
	http3 := fs.Bool("http3", cfg.EnableHTTP3, "fetch over QUIC")
	if err := fs.Parse(filteredArgs); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	// Set log level based on verbosity
	if verbosity > 0 {
		logging.SetLevel(verbosity)
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("trace requires a URL or path")
	}
	source := fs.Arg(0)

	steps, err := parsePattern(*pattern)
	if err != nil {
		return errors.PatternError(*pattern, err)
	}

	ctx := context.Background()
	f, cleanup, err := openSource(ctx, source, cfg, *http3)
	if err != nil {
		return err
	}
	defer cleanup()

	mon := monitor.New()
	mon.Verbose = !*quiet
	if *targets != "" {
		mon.Targets = strings.Split(*targets, ",")
	}

	runErr := mon.Run(func() error {
		return runPattern(ctx, f, *blockSize, steps)
	})
	// The summary is still meaningful when the workload failed partway
	mon.Summary()
	if runErr != nil {
		return runErr
	}

	return nil
}

// openSource picks the remote file variant from the source's scheme
func openSource(ctx context.Context, source string, cfg *config.Config, http3 bool) (remote.File, func(), error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		var client *http.Client
		if http3 {
			client = remote.HTTP3Client()
		}
		f, err := remote.OpenHTTP(ctx, source, client)
		if err != nil {
			return nil, nil, errors.ConnectionError(source, err)
		}
		return f, func() { _ = f.Close() }, nil

	case strings.HasPrefix(source, "ws://"), strings.HasPrefix(source, "wss://"):
		f, err := remote.OpenWS(ctx, source)
		if err != nil {
			return nil, nil, errors.ConnectionError(source, err)
		}
		return f, func() { _ = f.Close() }, nil

	case strings.HasPrefix(source, "blob://"):
		key := strings.TrimPrefix(source, "blob://")
		store, err := blobstore.Open(cfg.BlobRoot, cfg.CompressBlobs)
		if err != nil {
			return nil, nil, errors.SourceNotFoundError(source, err)
		}
		f, err := remote.OpenBlob(store, key)
		if err != nil {
			_ = store.Close()
			return nil, nil, errors.SourceNotFoundError(source, err)
		}
		return f, func() { _ = f.Close(); _ = store.Close() }, nil

	case strings.Contains(source, "://"):
		return nil, nil, errors.UnsupportedSchemeError(source)

	default:
		f, err := remote.OpenLocal(source)
		if err != nil {
			return nil, nil, errors.SourceNotFoundError(source, err)
		}
		return f, func() { _ = f.Close() }, nil
	}
}

// parsePattern parses a comma-separated pattern like seek:100,read:80.
// An empty pattern means one sequential read of the whole source.
func parsePattern(pattern string) ([]patternStep, error) {
	if pattern == "" {
		return nil, nil
	}

	var steps []patternStep
	for _, part := range strings.Split(pattern, ",") {
		op, arg, found := strings.Cut(strings.TrimSpace(part), ":")
		if !found {
			return nil, fmt.Errorf("step %q has no argument", part)
		}
		if op != "seek" && op != "read" {
			return nil, fmt.Errorf("unknown step %q", op)
		}
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("step %q needs a non-negative integer", part)
		}
		steps = append(steps, patternStep{op: op, n: n})
	}
	return steps, nil
}

// runPattern drives the read pattern through a block reader so the
// fetches the monitor sees are the coalesced ones an application
// would actually issue
func runPattern(ctx context.Context, f remote.File, blockSize int, steps []patternStep) error {
	br := remote.NewBlockReader(ctx, f, blockSize)
	defer func() { _ = br.Close() }()

	if steps == nil {
		// Default workload: sequential read to EOF
		_, err := io.Copy(io.Discard, br)
		return err
	}

	buf := make([]byte, 0)
	for _, step := range steps {
		switch step.op {
		case "seek":
			if _, err := br.Seek(step.n, io.SeekStart); err != nil {
				return err
			}
		case "read":
			if int64(cap(buf)) < step.n {
				buf = make([]byte, step.n)
			}
			// Short reads at EOF are part of the pattern, not errors
			if _, err := io.ReadFull(br, buf[:step.n]); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
				return err
			}
		}
	}
	return nil
}

func traceHelp() {
	fmt.Println(ui.Colors.Bold + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " - Run a read pattern against a source and report every fetch")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Usage:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " [flags] <url|path>")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Description:" + ui.Colors.Reset)
	fmt.Println("  Open the source, intercept its byte-range fetches, run the read")
	fmt.Println("  pattern, and print one line per fetch plus an aggregate summary.")
	fmt.Println("  The variant is inferred from the scheme: http(s)://, ws://,")
	fmt.Println("  blob://, or a plain local path.")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Flags:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Yellow + "--pattern" + ui.Colors.Reset + "         comma-separated steps, e.g. seek:4096,read:512")
	fmt.Println("  " + ui.Colors.Yellow + "-b, --block-size" + ui.Colors.Reset + "  fetch granularity in bytes (default: 65536)")
	fmt.Println("  " + ui.Colors.Yellow + "--targets" + ui.Colors.Reset + "         variants to intercept (default: all registered)")
	fmt.Println("  " + ui.Colors.Yellow + "--http3" + ui.Colors.Reset + "           fetch over QUIC instead of TCP")
	fmt.Println("  " + ui.Colors.Yellow + "-q, --quiet" + ui.Colors.Reset + "       suppress per-fetch lines, keep the summary")
	fmt.Println("  " + ui.Colors.Yellow + "-v, --verbose" + ui.Colors.Reset + "     verbose logging (use -vv or -vvv for more detail)")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Examples:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " http://127.0.0.1:8632/o/demo.bin        " + ui.Colors.Dim + "# Sequential read" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " --pattern seek:1048576,read:4096 ./f    " + ui.Colors.Dim + "# Sparse read" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " -b 1048576 blob://demo.bin              " + ui.Colors.Dim + "# 1 MB blocks" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " --targets http,local http://host/o/k   " + ui.Colors.Dim + "# Limit variants" + ui.Colors.Reset)
}
