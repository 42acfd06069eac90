// ABOUTME: The serve subcommand: wires config, store, gateway worker, hub, health, metrics and console
// ABOUTME: Blocks until a signal, a stop command or a worker crash

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/synapse-gateway/internal/command"
	"github.com/2389/synapse-gateway/internal/config"
	"github.com/2389/synapse-gateway/internal/health"
	"github.com/2389/synapse-gateway/internal/hub"
	"github.com/2389/synapse-gateway/internal/metrics"
	"github.com/2389/synapse-gateway/internal/session"
	"github.com/2389/synapse-gateway/internal/store"
	"github.com/2389/synapse-gateway/internal/synlib"
)

// errCrashed is returned when the gateway worker exits without being asked to.
var errCrashed = errors.New("gateway worker crashed")

type stopRequest struct {
	restart bool
	message string
}

// readConsole streams stdin lines. The channel closes at EOF.
func readConsole(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// startMetrics serves the metrics endpoint until ctx is cancelled. The
// returned channel closes once the listener has been released.
func startMetrics(ctx context.Context, cfg config.MetricsConfig, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := metrics.Serve(ctx, cfg.Addr, cfg.Path, logger); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return done
}

// startHub runs h until the gateway worker exits. Cancelling ctx does not stop
// it: the close notifications produced by the worker's shutdown still have to
// reach the hub.
func startHub(ctx context.Context, h *hub.Hub) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Run(context.WithoutCancel(ctx))
	}()
	return done
}

func runServe(ctx context.Context, args []string, console <-chan string) error {
	var configFlag string
	flagSet := newFlagSet("serve", &configFlag)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	configPath := getConfigPath(configFlag)

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s (%s %s)\n\n", version, synlib.Identity, synlib.Version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Listen:    %s:%d\n", cfg.Server.Interface, cfg.Server.Port)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Health.GRPCAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("Health:    %s\n", cfg.Health.GRPCAddr)
	}
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   http://%s%s\n", cfg.Metrics.Addr, cfg.Metrics.Path)
	}
	fmt.Println()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	hs := health.NewServer(logger)
	if cfg.Health.GRPCAddr != "" {
		if err := hs.Start(cfg.Health.GRPCAddr); err != nil {
			return err
		}
		defer hs.Stop()
	}

	if cfg.Metrics.Enabled {
		metricsDone := startMetrics(runCtx, cfg.Metrics, logger)
		defer func() {
			cancel()
			<-metricsDone
		}()
	}

	logger.Info("starting synapse-gateway",
		"config", configPath,
		"interface", cfg.Server.Interface,
		"port", cfg.Server.Port,
	)

	srv, err := synlib.New(synlib.Options{
		Interface: cfg.Server.Interface,
		Port:      cfg.Server.Port,
		NewCollaborator: session.Factory(session.Options{
			TickInterval: cfg.Hub.PollInterval,
			WriteTimeout: cfg.Server.WriteTimeout,
			MaxFrameSize: cfg.Server.MaxFrameSize,
			Logger:       logger,
		}),
	}, synlib.NewSlogLogger(logger), nil)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	h := hub.New(srv, hub.Echo{}, hub.Options{
		PollInterval: cfg.Hub.PollInterval,
		Store:        st,
		OnTick:       hs.SetState,
		Logger:       logger,
	})
	hubDone := startHub(runCtx, h)

	stops := make(chan stopRequest, 1)
	commands := command.NewMap()
	commands.Register(&command.Stop{
		Shutdown: func(restart bool, message string) {
			select {
			case stops <- stopRequest{restart: restart, message: message}:
			default:
			}
		},
		Broadcaster: command.Admins{Names: cfg.Admins, Logger: logger},
		Audit:       st,
		Logger:      logger,
	}, "shutdown")
	sender := command.Console{Out: os.Stdout}

	var req stopRequest
wait:
	for {
		select {
		case <-ctx.Done():
			logger.Info("signal received, initiating shutdown")
			break wait
		case line, ok := <-console:
			if !ok {
				console = nil
				continue
			}
			if strings.TrimSpace(line) != "" {
				commands.Dispatch(ctx, sender, line)
			}
		case req = <-stops:
			break wait
		case <-srv.Done():
			break wait
		}
	}

	if req.message != "" {
		sent := h.Broadcast([]byte(req.message))
		logger.Info("sent shutdown message", "message", req.message, "sessions", sent)
	}

	state := srv.Quit()
	<-hubDone
	logger.Info("gateway stopped", "state", state.String())

	if state == synlib.StateCrashed {
		return errCrashed
	}
	if req.restart {
		logger.Info("restarting")
		return errRestart
	}
	return nil
}
