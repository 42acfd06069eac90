// ABOUTME: Entry point for synapse-gateway
// ABOUTME: Runs the gateway worker, the hub and the console, plus health and session tooling

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  ___ _  _ _ __   __ _ _ __  ___  ___
 / __| || | '_ \ / _' | '_ \/ __|/ _ \
 \__ \ || | | | | (_| | |_) \__ \  __/
 |___/\_, |_| |_|\__,_| .__/|___/\___|
      |__/            |_|
`

// errRestart is returned by runServe when a stop command asked for a restart.
var errRestart = errors.New("restart requested")

// getConfigPath returns the path to the gateway config file.
// Priority: --config flag > SYNAPSE_CONFIG env var > XDG_CONFIG_HOME/synapse/gateway.yaml > ~/.config/synapse/gateway.yaml
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("SYNAPSE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "synapse", "gateway.yaml")
}

// getDataPath returns the path to the synapse data directory.
// Priority: XDG_DATA_HOME/synapse > ~/.local/share/synapse
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "synapse")
}

func usage() {
	fmt.Println("Usage: synapse-gateway <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve      Start the gateway")
	fmt.Println("  init       Create a new config file interactively")
	fmt.Println("  health     Check gateway health")
	fmt.Println("  sessions   List recorded session events")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --config PATH   config file (default $SYNAPSE_CONFIG or ~/.config/synapse/gateway.yaml)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		console := readConsole(os.Stdin)
		for {
			err = runServe(ctx, args, console)
			if !errors.Is(err, errRestart) {
				break
			}
		}
	case "init":
		err = runInit(args)
	case "health":
		err = runHealth(ctx, args)
	case "sessions":
		err = runSessions(ctx, args)
	case "version", "--version":
		fmt.Printf("synapse-gateway %s\n", version)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet creates a subcommand flag set with the shared --config flag.
func newFlagSet(name string, configPath *string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("synapse-gateway "+name, pflag.ContinueOnError)
	flagSet.StringVarP(configPath, "config", "c", "", "path to config file")
	return flagSet
}
