package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/brewmon/internal/channel"
	"codeberg.org/mutker/brewmon/internal/config"
	"codeberg.org/mutker/brewmon/internal/control"
	"codeberg.org/mutker/brewmon/internal/health"
	"codeberg.org/mutker/brewmon/internal/logger"
	"codeberg.org/mutker/brewmon/internal/pid"
	"codeberg.org/mutker/brewmon/internal/status"
	"codeberg.org/mutker/brewmon/internal/telemetry"
	"codeberg.org/mutker/brewmon/internal/transport"
)

var (
	cfg       *config.Config
	endpoints transport.Endpoints
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	endpoints, err = transport.NewEndpoints(cfg.APIURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to derive endpoints")
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Command != "" {
		if err := runCommand(ctx); err != nil {
			logger.Error().Err(err).Msg("control command failed")
			os.Exit(1)
		}
		return
	}

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	if err := watch(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
}

// runCommand fires one control-plane request and exits.
func runCommand(ctx context.Context) error {
	client := control.NewClient(endpoints.API(), nil,
		control.WithTimeout(time.Duration(cfg.RequestTimeoutS)*time.Second))

	var err error
	switch cfg.Command {
	case "pause":
		err = client.Pause(ctx)
	case "resume":
		err = client.Resume(ctx)
	case "nudge-open":
		err = client.NudgeOpen(ctx)
	case "nudge-close":
		err = client.NudgeClose(ctx)
	}

	if control.IsRateLimited(err) {
		logger.Warn().Msg("Nudged too recently, retry later")
		return err
	}
	if err != nil {
		return err
	}

	logger.Info().Str("command", cfg.Command).Msg("Command accepted")
	return nil
}

// watch follows the live status channel until interrupted.
func watch(ctx context.Context) error {
	recorder, err := telemetry.NewService(telemetry.Config{
		Enabled: cfg.Telemetry,
		DBPath:  cfg.TelemetryDB,
	})
	if err != nil {
		return err
	}
	defer recorder.Close()

	kind := transport.Kind(cfg.Transport)
	ch, err := channel.New(channel.Config{
		Factory:     transport.NewFactory(kind, endpoints.StatusURL(kind)),
		BackoffBase: time.Duration(cfg.ReconnectBaseMs) * time.Millisecond,
		BackoffMax:  time.Duration(cfg.ReconnectMaxMs) * time.Millisecond,
		HistorySize: cfg.HistorySize,
	})
	if err != nil {
		return err
	}

	updates, unsubscribe := ch.Subscribe()
	defer unsubscribe()

	ch.Start()
	defer ch.Stop()

	var healthUpdates <-chan health.Report
	if cfg.Health {
		watcher, err := health.NewWatcher(
			transport.NewFactory(kind, endpoints.HealthURL(kind)),
			time.Duration(cfg.ReconnectBaseMs)*time.Millisecond,
			time.Duration(cfg.ReconnectMaxMs)*time.Millisecond,
		)
		if err != nil {
			return err
		}
		healthUpdates = watcher.Updates()
		watcher.Start()
		defer watcher.Stop()
	}

	var lastSnapshot *status.Snapshot
	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			if update.Snapshot != nil && update.Snapshot != lastSnapshot {
				lastSnapshot = update.Snapshot
				logUpdate(update)
				if err := recorder.Record(ctx, update.Snapshot); err != nil {
					logger.Warn().Err(err).Msg("failed to record snapshot")
				}
			}
		case report := <-healthUpdates:
			logHealth(report)
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// logUpdate dumps one composite update. Outside monitor mode updates
// only show at debug level.
func logUpdate(update channel.Update) {
	snapshot := update.Snapshot

	entry := logger.Debug
	if cfg.Monitor {
		entry = logger.Info
	}

	event := entry().
		Str("connection", string(update.Connection)).
		Str("brew_id", snapshot.BrewID).
		Str("state", string(snapshot.State)).
		Str("strategy", snapshot.Strategy).
		Float64("target_weight", snapshot.TargetWeight).
		Int("flow_samples", len(update.FlowHistory)).
		Int("weight_samples", len(update.WeightHistory))

	if snapshot.FlowRate.Valid {
		event = event.Float64("flow_rate", snapshot.FlowRate.Value)
	}
	if snapshot.Weight.Valid {
		event = event.Float64("weight", snapshot.Weight.Value)
	}
	if snapshot.Remaining != nil {
		event = event.Dur("remaining", *snapshot.Remaining)
	}
	if snapshot.ValvePosition != nil {
		event = event.Int("valve_position", *snapshot.ValvePosition)
	}
	if update.BrewError != nil {
		event = event.Str("error", update.BrewError.Message)
	}

	event.Msg("")
}

func logHealth(report health.Report) {
	scale := report.Scale()

	event := logger.Info().
		Bool("scale_connected", scale.Connected).
		Bool("valve_connected", report.Valve().Connected).
		Bool("influxdb_connected", report.InfluxDB().Connected)

	if scale.BatteryPct != nil {
		event = event.Int("scale_battery_pct", *scale.BatteryPct)
	}
	if scale.Weight != nil {
		event = event.Float64("scale_weight", *scale.Weight)
	}

	event.Msg("component health")
}
