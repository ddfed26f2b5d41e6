package main

import (
	"fmt"
	"os"

	"github.com/zulfikawr/fetchtrace/cmd/fetchtrace/commands"
	"github.com/zulfikawr/fetchtrace/internal/errors"
	"github.com/zulfikawr/fetchtrace/internal/ui"
)

// filter out global flags that subcommands don't recognize
func filterGlobalFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--no-color" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func main() {
	// Determine color usage from env and global flag
	enableColors := os.Getenv("NO_COLOR") == ""
	for _, a := range os.Args[1:] {
		if a == "--no-color" {
			enableColors = false
			break
		}
	}
	if !enableColors {
		ui.Disable()
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	sub := os.Args[1]
	args := filterGlobalFlags(os.Args[2:])
	switch sub {
	case "trace":
		err = commands.Trace(args)
	case "serve":
		err = commands.Serve(args)
	case "put":
		err = commands.Put(args)
	case "config":
		err = commands.Config(args)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", sub)
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.IsUserError(err) {
			// UserErrors carry their own suggestions block
			fmt.Fprintln(os.Stderr, ui.Colors.Red+err.Error()+ui.Colors.Reset)
		} else {
			fmt.Fprintln(os.Stderr, ui.Colors.Red+"Error: "+ui.Colors.Reset+err.Error())
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(ui.Colors.Bold + "fetchtrace" + ui.Colors.Reset + " " + ui.Colors.Dim + "- trace the byte-range fetches behind a read pattern" + ui.Colors.Reset)
	fmt.Println()

	fmt.Println(ui.Colors.Bold + "Usage:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " [flags] <url|path>")
	fmt.Println("  " + ui.Colors.Green + "fetchtrace serve" + ui.Colors.Reset + " [flags]")
	fmt.Println("  " + ui.Colors.Green + "fetchtrace put" + ui.Colors.Reset + " [flags] <file> [key]")
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config" + ui.Colors.Reset + " [show|set|path|reset]")
	fmt.Println()

	fmt.Println(ui.Colors.Bold + "Commands:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Magenta + "trace" + ui.Colors.Reset + "  Run a read pattern against a source and report every fetch")
	fmt.Println("\t" + ui.Colors.Yellow + "--pattern" + ui.Colors.Reset + "         read pattern, e.g. seek:100,read:80 (default: read all)")
	fmt.Println("\t" + ui.Colors.Yellow + "-b, --block-size" + ui.Colors.Reset + "  fetch granularity in bytes")
	fmt.Println("\t" + ui.Colors.Yellow + "--targets" + ui.Colors.Reset + "         comma-separated variants to intercept (default: all)")
	fmt.Println("\t" + ui.Colors.Yellow + "--http3" + ui.Colors.Reset + "           fetch over QUIC instead of TCP")
	fmt.Println("\t" + ui.Colors.Yellow + "-q, --quiet" + ui.Colors.Reset + "       suppress per-fetch lines, keep the summary")
	fmt.Println()
	fmt.Println("  " + ui.Colors.Magenta + "serve" + ui.Colors.Reset + "  Run the demo object server over a local store")
	fmt.Println("\t" + ui.Colors.Yellow + "-l, --listen" + ui.Colors.Reset + "      bind address (default 127.0.0.1:8632)")
	fmt.Println("\t" + ui.Colors.Yellow + "--store" + ui.Colors.Reset + "           object store root directory")
	fmt.Println("\t" + ui.Colors.Yellow + "--rate-limit" + ui.Colors.Reset + "      per-client bandwidth limit in Mbps")
	fmt.Println("\t" + ui.Colors.Yellow + "--http3" + ui.Colors.Reset + "           add a QUIC listener on the same port")
	fmt.Println("\t" + ui.Colors.Yellow + "--seed" + ui.Colors.Reset + "            store a demo object of this many MB at startup")
	fmt.Println()
	fmt.Println("  " + ui.Colors.Magenta + "put" + ui.Colors.Reset + "    Store a local file as an object the server can serve")
	fmt.Println("\t" + ui.Colors.Yellow + "--store" + ui.Colors.Reset + "           object store root directory")
	fmt.Println("\t" + ui.Colors.Yellow + "--compress" + ui.Colors.Reset + "        zstd-encode the object on disk")
	fmt.Println()
	fmt.Println("  " + ui.Colors.Magenta + "config" + ui.Colors.Reset + "   Manage configuration file")
	fmt.Println("\t" + ui.Colors.Yellow + "show" + ui.Colors.Reset + "              display current configuration")
	fmt.Println("\t" + ui.Colors.Yellow + "set" + ui.Colors.Reset + "               set a configuration value")
	fmt.Println("\t" + ui.Colors.Yellow + "path" + ui.Colors.Reset + "              show config file path")
	fmt.Println("\t" + ui.Colors.Yellow + "reset" + ui.Colors.Reset + "             restore default configuration")
	fmt.Println()

	fmt.Println(ui.Colors.Bold + "Examples:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace serve" + ui.Colors.Reset + " --seed 8 " + ui.Colors.Dim + "                       # Demo server with an 8 MB object" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " http://127.0.0.1:8632/o/demo.bin " + ui.Colors.Dim + "# Trace a sequential read" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace trace" + ui.Colors.Reset + " --pattern seek:4096,read:512 ./f " + ui.Colors.Dim + "# Trace a sparse read" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace put" + ui.Colors.Reset + " ./data.parquet " + ui.Colors.Dim + "                  # Seed the object store" + ui.Colors.Reset)
	fmt.Println()
	fmt.Println(ui.Colors.Dim + "Use \"fetchtrace <command> -h\" for command-specific help." + ui.Colors.Reset)
}
