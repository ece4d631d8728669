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

// Package mqtt is the broker-facing surface: it accepts print jobs on the
// per-printer command topics and announces registry changes to Home
// Assistant. Every job is handled in isolation; a bad payload or an
// unreachable device never affects other jobs or the subscription.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/carverauto/printflow/pkg/logger"
	"github.com/carverauto/printflow/pkg/metrics"
	"github.com/carverauto/printflow/pkg/program"
	"github.com/carverauto/printflow/pkg/registry"
	"github.com/carverauto/printflow/pkg/render"
)

const (
	availabilityTopic = "escpos/available"
	jobTopicFilter    = "escpos/+/print"

	payloadOnline  = "online"
	payloadOffline = "offline"

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	clientIDPrefix = "escpos"

	dispatchQueueDepth = 64
)

// printJobTopic is the command topic for one printer.
func printJobTopic(id string) string {
	return fmt.Sprintf("escpos/%s/print", id)
}

// Service bridges the broker and the printer fleet.
type Service struct {
	client   pahomqtt.Client
	registry *registry.Registry
	renderer *render.Renderer
	log      logger.Logger

	events       <-chan registry.Event
	cancelEvents func()
	done         chan struct{}

	dispatchMu  sync.Mutex
	dispatchers map[string]chan string
}

// newService wires everything except the broker connection. The registry
// subscription starts here, before Run, so printers registered between
// construction and Run still get announced.
func newService(reg *registry.Registry, renderer *render.Renderer, log logger.Logger) *Service {
	s := &Service{
		registry:    reg,
		renderer:    renderer,
		log:         log.WithComponent("mqtt"),
		done:        make(chan struct{}),
		dispatchers: make(map[string]chan string),
	}

	s.events, s.cancelEvents = reg.Subscribe()

	return s
}

// NewService connects to the broker at url with a randomized client id and
// an offline last-will on the availability topic.
func NewService(url string, reg *registry.Registry, renderer *render.Renderer, log logger.Logger) (*Service, error) {
	s := newService(reg, renderer, log)

	clientID := fmt.Sprintf("%s_%s", clientIDPrefix, uuid.NewString()[:8])

	opts := pahomqtt.NewClientOptions().
		AddBroker(url).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetWill(availabilityTopic, payloadOffline, 1, true)

	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		s.log.Warn().Err(err).Msg("broker connection lost")
	}

	s.client = pahomqtt.NewClient(opts)

	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to broker %s: timeout", url)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", url, err)
	}

	s.log.Info().Str("url", url).Str("client_id", clientID).Msg("connected to broker")

	return s, nil
}

// Run announces availability, subscribes to the job topics, and relays
// registry events to Home Assistant until ctx is cancelled. On shutdown it
// retracts availability before disconnecting.
func (s *Service) Run(ctx context.Context) error {
	if err := s.publish(availabilityTopic, []byte(payloadOnline), true); err != nil {
		return fmt.Errorf("announce availability: %w", err)
	}

	token := s.client.Subscribe(jobTopicFilter, 1, s.handleMessage)
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("subscribe %s: timeout", jobTopicFilter)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", jobTopicFilter, err)
	}

	s.log.Info().Str("topic", jobTopicFilter).Msg("listening for print jobs")

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case event := <-s.events:
			s.handleRegistryEvent(event)
		}
	}
}

func (s *Service) shutdown() {
	s.cancelEvents()
	close(s.done)

	if err := s.publish(availabilityTopic, []byte(payloadOffline), true); err != nil {
		s.log.Warn().Err(err).Msg("retracting availability")
	}

	s.client.Disconnect(uint(publishTimeout.Milliseconds()))
	s.log.Info().Msg("disconnected from broker")
}

// handleMessage routes one print job to its printer's dispatcher. Runs on
// paho's router goroutine; the heavy work happens on the dispatcher so a
// slow render or device does not stall the router.
func (s *Service) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	printerID, ok := printerIDFromTopic(msg.Topic())
	if !ok {
		s.log.Error().Str("topic", msg.Topic()).Msg("message on unexpected topic")
		return
	}

	s.dispatch(printerID, string(msg.Payload()))
}

// dispatch hands the payload to the printer's dispatcher goroutine, starting
// one on first use. One dispatcher per printer keeps jobs for the same
// printer in arrival order while printers stay independent of each other.
func (s *Service) dispatch(printerID, payload string) {
	s.dispatchMu.Lock()

	queue, ok := s.dispatchers[printerID]
	if !ok {
		queue = make(chan string, dispatchQueueDepth)
		s.dispatchers[printerID] = queue

		go s.runDispatcher(printerID, queue)
	}
	s.dispatchMu.Unlock()

	select {
	case queue <- payload:
	case <-s.done:
	}
}

func (s *Service) runDispatcher(printerID string, queue <-chan string) {
	for {
		select {
		case payload := <-queue:
			s.handlePrintJob(printerID, payload)
		case <-s.done:
			return
		}
	}
}

// handlePrintJob parses, renders and prints one job. All failures are
// logged per job; none are fatal to the service.
func (s *Service) handlePrintJob(printerID, payload string) {
	log := s.log.With().Str("printer", printerID).Logger()

	log.Info().Msg("received print job")

	entry, ok := s.registry.Get(printerID)
	if !ok {
		metrics.RecordJob(fmt.Errorf("unknown printer %s", printerID))
		log.Error().Interface("available", s.registry.List()).Msg("printer not found in registry")

		return
	}

	prog, leftover, err := program.Parse(payload)
	if err != nil {
		metrics.RecordJob(err)
		log.Error().Err(err).Msg("could not parse program")

		return
	}

	if leftover != "" {
		metrics.RecordJob(errors.New("trailing input"))
		log.Error().Str("remains", leftover).Msg("could not fully parse program")

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	commands, err := s.renderer.Render(ctx, prog, entry.Profile)
	if err != nil {
		metrics.RecordJob(err)
		log.Error().Err(err).Msg("render failed")

		return
	}

	err = entry.Printer.Print(ctx, commands)
	metrics.RecordJob(err)

	if err != nil {
		log.Error().Err(err).Msg("print failed")
		return
	}

	log.Info().Msg("print job succeeded")
}

// handleRegistryEvent mirrors registry changes into Home Assistant discovery
// topics.
func (s *Service) handleRegistryEvent(event registry.Event) {
	switch event.Type {
	case registry.EventAdded:
		config := newHAConfiguration(event.ID, event.Name, event.Description, event.Model)

		payload, err := json.Marshal(config)
		if err != nil {
			s.log.Error().Err(err).Str("id", event.ID).Msg("encoding discovery payload")
			return
		}

		if err := s.publish(haConfigTopic(event.ID), payload, true); err != nil {
			s.log.Error().Err(err).Str("id", event.ID).Msg("publishing discovery config")
			return
		}

		s.log.Info().Str("id", event.ID).Msg("published discovery config")
	case registry.EventRemoved:
		// An empty retained payload clears the entity.
		if err := s.publish(haConfigTopic(event.ID), nil, true); err != nil {
			s.log.Error().Err(err).Str("id", event.ID).Msg("publishing discovery removal")
			return
		}

		s.log.Info().Str("id", event.ID).Msg("published discovery removal")
	}
}

func (s *Service) publish(topic string, payload []byte, retained bool) error {
	token := s.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}

	return token.Error()
}

// printerIDFromTopic extracts the printer id from an escpos/{id}/print
// topic.
func printerIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "escpos" || parts[2] != "print" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
