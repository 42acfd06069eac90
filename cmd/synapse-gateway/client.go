// ABOUTME: Read-only subcommands: health queries the gRPC health service,
// ABOUTME: sessions lists recorded session events from the database

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/2389/synapse-gateway/internal/config"
	"github.com/2389/synapse-gateway/internal/health"
	"github.com/2389/synapse-gateway/internal/store"
)

func runHealth(ctx context.Context, args []string) error {
	var configFlag string
	var timeout time.Duration
	flagSet := newFlagSet("health", &configFlag)
	flagSet.DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for the gateway")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath(configFlag))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Health.GRPCAddr == "" {
		return fmt.Errorf("health.grpc_addr is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := health.Check(ctx, cfg.Health.GRPCAddr)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("unhealthy: %s", status)
	}

	fmt.Println("healthy")
	return nil
}

func runSessions(ctx context.Context, args []string) error {
	var configFlag, handle, kind string
	var limit int
	flagSet := newFlagSet("sessions", &configFlag)
	flagSet.StringVar(&handle, "handle", "", "only events for this session handle")
	flagSet.StringVar(&kind, "kind", "", "only events of this kind (opened, closed)")
	flagSet.IntVarP(&limit, "limit", "n", 20, "maximum number of events")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath(configFlag))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	filter := store.SessionEventFilter{Limit: limit}
	if handle != "" {
		filter.Handle = &handle
	}
	if kind != "" {
		k := store.SessionEventKind(kind)
		filter.Kind = &k
	}

	events, err := s.ListSessionEvents(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing session events: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No session events recorded.")
		return nil
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	for _, e := range events {
		gray.Printf("%s  ", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		switch e.Kind {
		case store.SessionOpened:
			green.Printf("%-7s", e.Kind)
		default:
			yellow.Printf("%-7s", e.Kind)
		}
		fmt.Printf(" %s", e.Handle)
		if e.Kind == store.SessionClosed {
			gray.Printf("  packets=%d", e.Packets)
		}
		fmt.Println()
	}
	return nil
}
