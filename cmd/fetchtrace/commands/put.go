package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zulfikawr/fetchtrace/internal/blobstore"
	"github.com/zulfikawr/fetchtrace/internal/config"
	"github.com/zulfikawr/fetchtrace/internal/errors"
	"github.com/zulfikawr/fetchtrace/internal/ui"
)

// Put executes the put command
func Put(args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.ConfigError("Failed to load configuration", err)
	}

	fs := flag.NewFlagSet("put", flag.ExitOnError)
	fs.Usage = putHelp
	storeRoot := fs.String("store", cfg.BlobRoot, "object store root directory")
	compress := fs.Bool("compress", cfg.CompressBlobs, "zstd-encode the object on disk")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("put requires a file path")
	}
	path := fs.Arg(0)

	// Key defaults to the file's base name
	key := filepath.Base(path)
	if fs.NArg() > 1 {
		key = fs.Arg(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.SourceNotFoundError(path, err)
	}

	store, err := blobstore.Open(*storeRoot, *compress)
	if err != nil {
		return fmt.Errorf("failed to open object store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Put(key, data); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}

	fmt.Printf("Stored %s%s%s (%s) in %s\n", ui.Colors.Green, key, ui.Colors.Reset,
		ui.FormatBytes(int64(len(data))), store.Root())
	return nil
}

func putHelp() {
	fmt.Println(ui.Colors.Bold + ui.Colors.Green + "fetchtrace put" + ui.Colors.Reset + " - Store a local file as an object the server can serve")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Usage:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace put" + ui.Colors.Reset + " [flags] <file> [key]")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Description:" + ui.Colors.Reset)
	fmt.Println("  Copy a local file into the object store under the given key")
	fmt.Println("  (default: the file's base name). Stored objects are served by")
	fmt.Println("  'fetchtrace serve' and readable directly as blob://<key>.")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Flags:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Yellow + "--store" + ui.Colors.Reset + "           object store root directory")
	fmt.Println("  " + ui.Colors.Yellow + "--compress" + ui.Colors.Reset + "        zstd-encode the object on disk")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Examples:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace put" + ui.Colors.Reset + " ./data.parquet              " + ui.Colors.Dim + "# Store as data.parquet" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace put" + ui.Colors.Reset + " ./big.bin demo.bin          " + ui.Colors.Dim + "# Store under another key" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace put" + ui.Colors.Reset + " --compress ./logs.json      " + ui.Colors.Dim + "# zstd-encode on disk" + ui.Colors.Reset)
}
