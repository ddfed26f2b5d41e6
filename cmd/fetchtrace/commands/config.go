package commands

import (
	"fmt"
	"strconv"

	"github.com/zulfikawr/fetchtrace/internal/config"
	"github.com/zulfikawr/fetchtrace/internal/errors"
	"github.com/zulfikawr/fetchtrace/internal/ui"
)

// Config executes the config command
func Config(args []string) error {
	if len(args) == 0 {
		configHelp()
		return nil
	}

	subcmd := args[0]
	switch subcmd {
	case "show":
		cfg, err := config.LoadConfig()
		if err != nil {
			return errors.ConfigError("Failed to load configuration", err)
		}
		configPath := config.GetConfigPath()
		fmt.Println(ui.Colors.Bold + "Current Configuration:" + ui.Colors.Reset)
		fmt.Printf("  Config file: %s\n", configPath)
		fmt.Println()
		fmt.Printf("  %-20s %d bytes\n", "Block Size:", cfg.BlockSize)
		fmt.Printf("  %-20s %s\n", "Listen Address:", cfg.ListenAddr)
		fmt.Printf("  %-20s %.1f Mbps\n", "Rate Limit:", cfg.RateLimitMbps)
		fmt.Printf("  %-20s %s\n", "Blob Root:", cfg.BlobRoot)
		fmt.Printf("  %-20s %v\n", "Compress Blobs:", cfg.CompressBlobs)
		fmt.Printf("  %-20s %v\n", "Enable HTTP/3:", cfg.EnableHTTP3)
		fmt.Printf("  %-20s %v\n", "No Color:", cfg.NoColor)
		fmt.Printf("  %-20s %v\n", "Quiet:", cfg.Quiet)

	case "set":
		if len(args) < 3 {
			return fmt.Errorf("config set requires a key and a value")
		}
		return configSet(args[1], args[2])

	case "path":
		fmt.Println(config.GetConfigPath())

	case "reset":
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return errors.ConfigError("Failed to write default configuration", err)
		}
		fmt.Printf("Restored defaults at: %s\n", config.GetConfigPath())

	case "-h", "--help", "help":
		configHelp()

	default:
		fmt.Printf("Unknown config subcommand: %s\n", subcmd)
		configHelp()
		return fmt.Errorf("unknown subcommand: %s", subcmd)
	}

	return nil
}

// configSet updates one key in the config file
func configSet(key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.ConfigError("Failed to load configuration", err)
	}

	switch key {
	case "block_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("block_size needs a positive integer, got %q", value)
		}
		cfg.BlockSize = n
	case "listen_addr":
		cfg.ListenAddr = value
	case "rate_limit_mbps":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("rate_limit_mbps needs a non-negative number, got %q", value)
		}
		cfg.RateLimitMbps = f
	case "blob_root":
		cfg.BlobRoot = value
	case "compress_blobs", "enable_http3", "no_color", "quiet":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s needs true or false, got %q", key, value)
		}
		switch key {
		case "compress_blobs":
			cfg.CompressBlobs = b
		case "enable_http3":
			cfg.EnableHTTP3 = b
		case "no_color":
			cfg.NoColor = b
		case "quiet":
			cfg.Quiet = b
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return errors.ConfigError("Failed to save configuration", err)
	}
	fmt.Printf("Set %s%s%s = %s\n", ui.Colors.Green, key, ui.Colors.Reset, value)
	return nil
}

func configHelp() {
	fmt.Println(ui.Colors.Bold + ui.Colors.Green + "fetchtrace config" + ui.Colors.Reset + " - Manage configuration file")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Usage:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config show" + ui.Colors.Reset + "             Display current configuration")
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config set" + ui.Colors.Reset + " <key> <val>  Set a configuration value")
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config path" + ui.Colors.Reset + "             Show config file path")
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config reset" + ui.Colors.Reset + "            Restore default configuration")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Configuration File:" + ui.Colors.Reset)
	fmt.Println("  Location: ~/.config/fetchtrace/fetchtrace.yaml")
	fmt.Println("  Format:   YAML")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Available Settings:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Yellow + "block_size" + ui.Colors.Reset + "         fetch granularity in bytes")
	fmt.Println("  " + ui.Colors.Yellow + "listen_addr" + ui.Colors.Reset + "        demo server bind address")
	fmt.Println("  " + ui.Colors.Yellow + "rate_limit_mbps" + ui.Colors.Reset + "    per-client bandwidth limit in Mbps")
	fmt.Println("  " + ui.Colors.Yellow + "blob_root" + ui.Colors.Reset + "          object store root directory")
	fmt.Println("  " + ui.Colors.Yellow + "compress_blobs" + ui.Colors.Reset + "     zstd-encode stored objects")
	fmt.Println("  " + ui.Colors.Yellow + "enable_http3" + ui.Colors.Reset + "       add a QUIC listener / fetch over QUIC")
	fmt.Println("  " + ui.Colors.Yellow + "no_color" + ui.Colors.Reset + "           plain terminal output")
	fmt.Println("  " + ui.Colors.Yellow + "quiet" + ui.Colors.Reset + "              suppress per-fetch lines")
	fmt.Println()
	fmt.Println(ui.Colors.Bold + "Examples:" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config show" + ui.Colors.Reset + "                      " + ui.Colors.Dim + "# View current settings" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config set block_size 1048576" + ui.Colors.Reset + "    " + ui.Colors.Dim + "# 1 MB fetches" + ui.Colors.Reset)
	fmt.Println("  " + ui.Colors.Green + "fetchtrace config reset" + ui.Colors.Reset + "                     " + ui.Colors.Dim + "# Back to defaults" + ui.Colors.Reset)
	fmt.Println()
	fmt.Println(ui.Colors.Dim + "Configuration values can also be set via environment variables:" + ui.Colors.Reset)
	fmt.Println(ui.Colors.Dim + "  FETCHTRACE_BLOCK_SIZE=1048576 fetchtrace trace http://host/o/key" + ui.Colors.Reset)
}
