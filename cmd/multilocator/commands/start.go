package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/multilocator/internal/logger"
	"github.com/marmos91/multilocator/internal/telemetry"
	"github.com/marmos91/multilocator/pkg/config"
	"github.com/marmos91/multilocator/pkg/dispatcher"
	"github.com/marmos91/multilocator/pkg/locator"
	"github.com/marmos91/multilocator/pkg/metrics"
	"github.com/marmos91/multilocator/pkg/registry"
	"github.com/marmos91/multilocator/pkg/schedule"
	mqtttransport "github.com/marmos91/multilocator/pkg/transport/mqtt"
)

// runStart is rootCmd's RunE (SPEC_FULL.md §4.13): load config, wire the
// core (locator set, registry, schedule, dispatcher) and the MQTT
// transport, then run the single event loop until SIGINT/SIGTERM.
func runStart(cmd *cobra.Command, args []string) error {
	if GetConfigFile() == "" {
		return fmt.Errorf("required flag(s) \"config\" not set")
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if broker := GetBrokerOverride(); broker != "" {
		cfg.Broker = broker
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopWatch, err := config.WatchNonStructural(ctx, GetConfigFile(), cfg)
	if err != nil {
		logger.Warn("config hot-reload watcher disabled", "error", err)
	} else {
		defer stopWatch()
	}

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "multilocator",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "multilocator",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("multilocator starting", "multilocator_id", cfg.MultilocatorID, "broker", cfg.Broker)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	metrics.InitRegistry(cfg.Metrics.Enabled)
	dispatcherMetrics := metrics.NewDispatcherMetrics()
	var recorder dispatcher.Recorder = dispatcher.NoopRecorder{}
	if dispatcherMetrics != nil {
		recorder = dispatcherMetrics
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port))
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	locatorConfigs := make([]locator.Config, 0, len(cfg.Locators))
	for _, lc := range cfg.Locators {
		locatorConfigs = append(locatorConfigs, locator.Config{
			ID:          lc.ID,
			Coordinate:  locator.Vector3(lc.Coordinate),
			Orientation: locator.Vector3(lc.Orientation),
		})
	}
	locatorSet, err := locator.NewSet(locatorConfigs, cfg.Limits.MaxLocators)
	if err != nil {
		return fmt.Errorf("failed to build locator set: %w", err)
	}

	reg := registry.New(cfg.Limits.MaxTags)
	sched := schedule.Build(locatorSet.Count(), cfg.Limits.MaxSequenceIDs)

	mqttClient, err := mqtttransport.Connect(mqtttransport.Config{
		Broker:         "tcp://" + cfg.Broker,
		ClientID:       "multilocator-" + cfg.MultilocatorID,
		IngressPrefix:  "aoa/angle",
		EgressPrefix:   "aoa/position",
		MultilocatorID: cfg.MultilocatorID,
	}, recorder)
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer mqttClient.Disconnect(250)

	for _, lc := range cfg.Locators {
		if err := mqttClient.Subscribe(ctx, lc.ID); err != nil {
			return fmt.Errorf("failed to subscribe to locator %q: %w", lc.ID, err)
		}
	}
	logger.Info("Subscribed to locators", "count", len(cfg.Locators))

	d := dispatcher.New(locatorSet, reg, sched, dispatcher.Config{
		NumSlots:        cfg.Limits.MaxSequenceIDs,
		MaxDiff:         int32(cfg.Limits.MaxSequenceDiff),
		EstimationMode:  cfg.Estimation.Mode,
		IntervalSec:     cfg.Estimation.IntervalSec,
		FilteringAmount: cfg.Estimation.FilteringAmount,
	}, mqttClient, recorder)

	dispatchDone := make(chan error, 1)
	go func() {
		dispatchDone <- d.Run(ctx, mqttClient)
	}()

	metricsDone := make(chan error, 1)
	go func() {
		metricsDone <- metricsServer.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("multilocator is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-dispatchDone; err != nil && err != context.Canceled {
			logger.Error("dispatcher shutdown error", "error", err)
			return err
		}
		<-metricsDone
		logger.Info("multilocator stopped gracefully")

	case err := <-dispatchDone:
		signal.Stop(sigChan)
		cancel()
		<-metricsDone
		if err != nil && err != context.Canceled {
			logger.Error("dispatcher error", "error", err)
			return err
		}
		logger.Info("multilocator stopped")
	}

	return nil
}
