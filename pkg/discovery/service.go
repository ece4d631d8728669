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

package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/carverauto/printflow/pkg/escpos"
	"github.com/carverauto/printflow/pkg/logger"
	"github.com/carverauto/printflow/pkg/metrics"
	"github.com/carverauto/printflow/pkg/printer"
	"github.com/carverauto/printflow/pkg/profiles"
	"github.com/carverauto/printflow/pkg/registry"
)

// Service runs the periodic discovery loop and reconciles the registry
// against what each scan reports.
type Service struct {
	scanner      Scanner
	registry     *registry.Registry
	interval     time.Duration
	staleTimeout time.Duration
	defaultModel string
	log          logger.Logger

	// connFactory builds the per-printer connection factory; tests swap it
	// for a fake.
	connFactory func(host string, port int) escpos.ConnFactory
}

// NewService wires the discovery loop. staleTimeout governs eviction of
// printers that stop answering scans; defaultModel is used when a
// responder's description matches no known profile.
func NewService(
	scanner Scanner,
	reg *registry.Registry,
	interval, staleTimeout time.Duration,
	defaultModel string,
	log logger.Logger,
) *Service {
	return &Service{
		scanner:      scanner,
		registry:     reg,
		interval:     interval,
		staleTimeout: staleTimeout,
		defaultModel: defaultModel,
		log:          log.WithComponent("discovery"),
		connFactory:  escpos.NetworkFactory,
	}
}

// Run executes discovery cycles until ctx is cancelled. Cycles run in the
// loop goroutine, strictly one at a time; a failed cycle is logged and the
// next tick proceeds normally.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Dur("stale_timeout", s.staleTimeout).
		Msg("discovery loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("discovery loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one scan and reconciles the registry: add new printers, touch
// still-present ones, evict stale ones.
func (s *Service) cycle(ctx context.Context) {
	metrics.DiscoveryCyclesTotal.Inc()

	descriptors, err := s.scanner.Scan(ctx)
	if err != nil {
		metrics.DiscoveryErrorsTotal.Inc()
		s.log.Error().Err(err).Msg("discovery scan failed")

		// Eviction still runs: a broken scan must not keep dead printers
		// registered forever.
		s.evictStale()

		return
	}

	byID := make(map[string]Descriptor, len(descriptors))
	ids := make([]string, 0, len(descriptors))

	for _, d := range descriptors {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	newlyAdded, stillPresent := s.registry.Diff(ids)

	for _, id := range stillPresent {
		s.registry.Touch(id)
	}

	for _, id := range newlyAdded {
		s.register(byID[id])
	}

	s.evictStale()

	metrics.RegisteredPrinters.Set(float64(s.registry.Count()))
}

// register builds the actor for a new descriptor and adds it.
func (s *Service) register(d Descriptor) {
	profile := s.resolveProfile(d)
	p := printer.New(s.connFactory(d.Host, d.Port), d.Name, d.Description, s.log)

	s.registry.Add(d.ID, p, profile)
	metrics.PrintersAddedTotal.Inc()

	s.log.Info().Str("id", d.ID).Str("host", d.Host).Str("model", profile.Name).
		Msg("discovered printer")
}

// resolveProfile matches the SNMP-advertised description against the known
// model table, falling back to the configured default.
func (s *Service) resolveProfile(d Descriptor) *profiles.Profile {
	description := strings.ToUpper(d.Description)

	for _, model := range profiles.Models() {
		if model == profiles.DefaultModel {
			continue
		}

		if strings.Contains(description, strings.ToUpper(model)) {
			return profiles.LookupOrDefault(model)
		}
	}

	return profiles.LookupOrDefault(s.defaultModel)
}

func (s *Service) evictStale() {
	for _, id := range s.registry.Stale(s.staleTimeout) {
		s.log.Info().Str("id", id).Msg("evicting stale printer")
		s.registry.Remove(id)
		metrics.PrintersRemovedTotal.Inc()
	}
}
