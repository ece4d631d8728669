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

// Package metrics exposes Prometheus metrics for the printer fleet.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/printflow/pkg/logger"
)

var (
	// DiscoveryCyclesTotal counts completed discovery cycles.
	DiscoveryCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printflow_discovery_cycles_total",
		Help: "Total number of discovery cycles run.",
	})

	// DiscoveryErrorsTotal counts discovery cycles that failed to scan.
	DiscoveryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printflow_discovery_errors_total",
		Help: "Total number of discovery cycles that ended in a scan error.",
	})

	// RegisteredPrinters tracks the current registry size.
	RegisteredPrinters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "printflow_registered_printers",
		Help: "Current number of printers in the registry.",
	})

	// PrintersAddedTotal counts printers added to the registry.
	PrintersAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printflow_printers_added_total",
		Help: "Total number of printers added to the registry.",
	})

	// PrintersRemovedTotal counts printers evicted from the registry.
	PrintersRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printflow_printers_removed_total",
		Help: "Total number of printers removed from the registry.",
	})

	// PrintJobsTotal counts print jobs by outcome.
	PrintJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printflow_print_jobs_total",
		Help: "Total number of print jobs handled, by outcome.",
	}, []string{"outcome"})
)

// RecordJob increments the job counter with an ok/failed outcome.
func RecordJob(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}

	PrintJobsTotal.WithLabelValues(outcome).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr
// disables the listener.
func Serve(ctx context.Context, addr string, log logger.Logger) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", addr).Msg("metrics listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
