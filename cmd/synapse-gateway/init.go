// ABOUTME: The init subcommand: writes a config file from interactive prompts
// ABOUTME: Empty answers keep the suggested defaults

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/2389/synapse-gateway/internal/config"
)

func runInit(args []string) error {
	var configFlag string
	flagSet := newFlagSet("init", &configFlag)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("synapse-gateway configuration setup")
	fmt.Println("===================================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath(configFlag))

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.Default()

	fmt.Println("\n--- Server Configuration ---")
	cfg.Server.Interface = prompt(reader, "Bind interface", cfg.Server.Interface)
	portStr := prompt(reader, "Port", strconv.Itoa(cfg.Server.Port))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	cfg.Server.Port = port

	fmt.Println("\n--- Database Configuration ---")
	cfg.Database.Path = prompt(reader, "SQLite database path", filepath.Join(getDataPath(), "gateway.db"))

	fmt.Println("\n--- Health and Metrics ---")
	cfg.Health.GRPCAddr = prompt(reader, "gRPC health address", cfg.Health.GRPCAddr)
	enableMetrics := prompt(reader, "Enable Prometheus metrics?", "no")
	cfg.Metrics.Enabled = strings.ToLower(enableMetrics) == "yes" || strings.ToLower(enableMetrics) == "y"
	if cfg.Metrics.Enabled {
		cfg.Metrics.Addr = prompt(reader, "Metrics address", cfg.Metrics.Addr)
	}

	fmt.Println("\n--- Logging Configuration ---")
	cfg.Logging.Level = prompt(reader, "Log level (debug/info/warn/error)", cfg.Logging.Level)
	cfg.Logging.Format = prompt(reader, "Log format (text/json)", cfg.Logging.Format)

	admins := prompt(reader, "Administrators (comma separated)", "")
	for _, name := range strings.Split(admins, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Admins = append(cfg.Admins, name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := writeConfig(f, cfg); err != nil {
		f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	dataDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  synapse-gateway serve --config %s\n", outputFile)

	return nil
}

// writeConfig renders cfg as a YAML file that config.Load reads back.
func writeConfig(w io.Writer, cfg *config.Config) error {
	var b strings.Builder
	b.WriteString("# synapse-gateway configuration\n")
	b.WriteString("# Generated by synapse-gateway init\n\n")

	b.WriteString("server:\n")
	fmt.Fprintf(&b, "  interface: %q\n", cfg.Server.Interface)
	fmt.Fprintf(&b, "  port: %d\n", cfg.Server.Port)
	fmt.Fprintf(&b, "  max_frame_size: %d\n", cfg.Server.MaxFrameSize)
	fmt.Fprintf(&b, "  write_timeout: %q\n", cfg.Server.WriteTimeout.String())
	b.WriteString("\n")

	b.WriteString("database:\n")
	fmt.Fprintf(&b, "  path: %q\n", cfg.Database.Path)
	b.WriteString("\n")

	b.WriteString("hub:\n")
	fmt.Fprintf(&b, "  poll_interval: %q\n", cfg.Hub.PollInterval.String())
	b.WriteString("\n")

	b.WriteString("health:\n")
	fmt.Fprintf(&b, "  grpc_addr: %q\n", cfg.Health.GRPCAddr)
	b.WriteString("\n")

	b.WriteString("metrics:\n")
	fmt.Fprintf(&b, "  enabled: %t\n", cfg.Metrics.Enabled)
	fmt.Fprintf(&b, "  addr: %q\n", cfg.Metrics.Addr)
	fmt.Fprintf(&b, "  path: %q\n", cfg.Metrics.Path)
	b.WriteString("\n")

	b.WriteString("logging:\n")
	fmt.Fprintf(&b, "  level: %q\n", cfg.Logging.Level)
	fmt.Fprintf(&b, "  format: %q\n", cfg.Logging.Format)

	if len(cfg.Admins) > 0 {
		b.WriteString("\nadmins:\n")
		for _, name := range cfg.Admins {
			fmt.Fprintf(&b, "  - %q\n", name)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
