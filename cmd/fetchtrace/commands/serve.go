package commands

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
	"github.com/zulfikawr/fetchtrace/internal/config"
	"github.com/zulfikawr/fetchtrace/internal/errors"
	"github.com/zulfikawr/fetchtrace/internal/logging"
	"github.com/zulfikawr/fetchtrace/internal/protocol"
	"github.com/zulfikawr/fetchtrace/internal/server"
	"github.com/zulfikawr/fetchtrace/internal/ui"
)

// seedKey is the object name written by --seed
const seedKey = "demo.bin"

// Serve executes the serve command
func Serve(args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.ConfigError("Failed to load configuration", err)
	}

	verbosity, filteredArgs := verbosityLevel(args)

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.Usage = serveHelp
	listen := fs.String("listen", cfg.ListenAddr, "bind address")
	fs.StringVar(listen, "l", cfg.ListenAddr, "")
	storeRoot := fs.String("store", cfg.BlobRoot, "object store root directory")
	rateLimit := fs.Float64("rate-limit", cfg.RateLimitMbps, "per-client bandwidth limit in Mbps")
	http3 := fs.Bool("http3", cfg.EnableHTTP3, "add a QUIC listener")
	compress := fs.Bool("compress", cfg.CompressBlobs, "zstd-encode stored objects")
	seedMB := fs.Int("seed", 0, "store a demo object of this many MB at startup")
	if err := fs.Parse(filteredArgs); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if verbosity > 0 {
		logging.SetLevel(verbosity)
	}

	store, err := blobstore.Open(*storeRoot, *compress)
	if err != nil {
		return fmt.Errorf("failed to open object store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if *seedMB > 0 {
		// Pseudo-random payload so compression keeps it honest
		data := make([]byte, *seedMB*1_000_000)
		rng := rand.New(rand.NewSource(42))
		_, _ = rng.Read(data)
		if err := store.Put(seedKey, data); err != nil {
			return fmt.Errorf("failed to seed demo object: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Seeded %s (%d MB)\n", seedKey, *seedMB)
	}

	srv := &server.Server{
		ListenAddr:    *listen,
		Store:         store,
		RateLimitMbps: *rateLimit,
		EnableHTTP3:   *http3,
	}

	base, err := srv.Start()
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	defer func() { _ = srv.Shutdown() }()

	fmt.Fprintf(os.Stderr, "Object server started on %s\n", srv.Addr())
	fmt.Fprintf(os.Stderr, "Store: %s\n", store.Root())
	if *rateLimit > 0 {
		fmt.Fprintf(os.Stderr, "Rate limit: %.1f Mbps per client\n", *rateLimit)
	}
	fmt.Fprintf(os.Stderr, "Objects:  %s%s{key}\n", base, protocol.ObjectPathPrefix)
	fmt.Fprintf(os.Stderr, "Fetch ws: ws://%s%s?key={key}\n", srv.Addr(), protocol.FetchSocketPath)
	fmt.Fprintf(os.Stderr, "Metrics:  %s/metrics\n", base)

	if keys, err := store.List(); err == nil && len(keys) > 0 {
		fmt.Fprintln(os.Stderr, "\nStored objects:")
		for _, key := range keys {
			if size, err := store.Stat(key); err == nil {
				fmt.Fprintf(os.Stderr, "  %s%s%s (%s)\n", ui.Colors.Green, key, ui.Colors.Reset, ui.FormatBytes(size))
			} else {
				fmt.Fprintf(os.Stderr, "  %s%s%s\n", ui.Colors.Green, key, ui.Colors.Reset)
			}
		}
	}

	fmt.Fprint(os.Stderr, "\n"+ui.Colors.Yellow+"Press Ctrl+C to stop server"+ui.Colors.Reset+"\n")

	// Wait for interrupt signal for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down gracefully...")

	return nil
}

func serveHelp() {
	fmt.Println(ui.Colors.Bold + ui.Colors.Green + "fetchtrace serve" + ui.Colors.Reset + " - Run the demo object server over a local store")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Usage:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace serve" + ui.Colors.Reset + " [flags]")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Description:" + ui.Colors.Reset)
	fmt.Println("  Serve the objects in a local store over byte-range HTTP and a")
	fmt.Println("  WebSocket fetch endpoint, so traces have a live target.")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Flags:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Yellow + "-l, --listen" + ui.Colors.Reset + "      bind address (default: 127.0.0.1:8632)")
	fmt.Println("  " + ui.Colors.Yellow + "--store" + ui.Colors.Reset + "           object store root directory")
	fmt.Println("  " + ui.Colors.Yellow + "--rate-limit" + ui.Colors.Reset + "      per-client bandwidth limit in Mbps (0 = unlimited)")
	fmt.Println("  " + ui.Colors.Yellow + "--http3" + ui.Colors.Reset + "           add a QUIC listener on the same port")
	fmt.Println("  " + ui.Colors.Yellow + "--compress" + ui.Colors.Reset + "        zstd-encode stored objects")
	fmt.Println("  " + ui.Colors.Yellow + "--seed" + ui.Colors.Reset + "            store a demo object of this many MB at startup")
	fmt.Println("  " + ui.Colors.Yellow + "-v, --verbose" + ui.Colors.Reset + "     verbose logging (use -vv or -vvv for more detail)")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Examples:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace serve" + ui.Colors.Reset + " --seed 8                 " + ui.Colors.Dim + "# Serve an 8 MB demo object" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace serve" + ui.Colors.Reset + " --rate-limit 10          " + ui.Colors.Dim + "# Throttle to readable rates" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace serve" + ui.Colors.Reset + " -l 0.0.0.0:8632 --http3  " + ui.Colors.Dim + "# Expose with QUIC" + ui.Colors.Reset)
}
