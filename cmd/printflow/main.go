/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/printflow/pkg/config"
	"github.com/carverauto/printflow/pkg/discovery"
	"github.com/carverauto/printflow/pkg/escpos"
	"github.com/carverauto/printflow/pkg/logger"
	"github.com/carverauto/printflow/pkg/metrics"
	"github.com/carverauto/printflow/pkg/mqtt"
	"github.com/carverauto/printflow/pkg/printer"
	"github.com/carverauto/printflow/pkg/profiles"
	"github.com/carverauto/printflow/pkg/registry"
	"github.com/carverauto/printflow/pkg/render"
)

const manualPrinterID = "manual"

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/printflow/printflow.json", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mainLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.New(mainLogger)
	renderer := render.New(render.WithCrosswordClient(render.NewCrosswordClient()))

	// NewService subscribes to registry events before returning, so
	// printers registered from here on are announced to Home Assistant
	// even before Run starts consuming the stream.
	mqttService, err := mqtt.NewService(cfg.MQTT.URL, reg, renderer, mainLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return mqttService.Run(ctx) })

	g.Go(func() error {
		return metrics.Serve(ctx, cfg.Metrics.ListenAddr, mainLogger.WithComponent("metrics"))
	})

	scanner := discovery.NewNetworkScanner(mainLogger)
	discoveryService := discovery.NewService(
		scanner,
		reg,
		time.Duration(cfg.Discovery.Interval),
		time.Duration(cfg.Discovery.PrinterTimeout),
		cfg.Discovery.DefaultModel,
		mainLogger,
	)

	g.Go(func() error { return discoveryService.Run(ctx) })

	if cfg.Manual != nil {
		registerManualPrinter(ctx, cfg.Manual, reg, mainLogger)
	}

	return g.Wait()
}

// registerManualPrinter adds the statically configured printer. The model
// comes from config, or a device identity query, or falls back to the
// default profile.
func registerManualPrinter(ctx context.Context, cfg *config.ManualConfig, reg *registry.Registry, log logger.Logger) {
	factory := escpos.NetworkFactory(cfg.Host, cfg.Port)
	p := printer.New(factory, manualPrinterID, fmt.Sprintf("Configured printer at %s", cfg.Host), log)

	model := cfg.Model
	if model == "" {
		queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		queried, err := p.ModelName(queryCtx)
		if err != nil {
			log.Warn().Err(err).Str("host", cfg.Host).
				Msg("model query failed, using default profile")
		} else {
			model = queried
		}
	}

	profile := profiles.LookupOrDefault(model)

	reg.AddManual(manualPrinterID, p, profile)
	log.Info().Str("host", cfg.Host).Str("model", profile.Name).Msg("registered manual printer")
}
