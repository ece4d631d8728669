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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/printflow/pkg/escpos"
	"github.com/carverauto/printflow/pkg/logger"
	"github.com/carverauto/printflow/pkg/printer"
	"github.com/carverauto/printflow/pkg/profiles"
	"github.com/carverauto/printflow/pkg/registry"
)

type fakeScanner struct {
	descriptors []Descriptor
	err         error
}

func (f *fakeScanner) Scan(_ context.Context) ([]Descriptor, error) {
	return f.descriptors, f.err
}

var errNoDevice = errors.New("no device in tests")

func testService(scanner Scanner, reg *registry.Registry) *Service {
	s := NewService(scanner, reg, time.Minute, 5*time.Minute, profiles.DefaultModel, logger.NewTestLogger())
	s.connFactory = func(_ string, _ int) escpos.ConnFactory {
		return func() (escpos.Conn, error) { return nil, errNoDevice }
	}

	return s
}

func kitchenDescriptor() Descriptor {
	return Descriptor{
		ID:          "kitchen",
		Name:        "Kitchen",
		Description: "EPSON TM-T88IV",
		Host:        "192.168.1.20",
		Port:        9100,
	}
}

func TestCycleRegistersNewPrinters(t *testing.T) {
	reg := registry.New(logger.NewTestLogger())
	scanner := &fakeScanner{descriptors: []Descriptor{kitchenDescriptor()}}

	testService(scanner, reg).cycle(context.Background())

	entry, ok := reg.Get("kitchen")
	require.True(t, ok)
	assert.Equal(t, "Kitchen", entry.Printer.Name)
	assert.Equal(t, "EPSON TM-T88IV", entry.Printer.Description)
	assert.Equal(t, "TM-T88IV", entry.Profile.Name, "profile resolved from the SNMP description")
	assert.False(t, entry.Metadata.Manual)
}

func TestCycleTouchesStillPresentPrinters(t *testing.T) {
	reg := registry.New(logger.NewTestLogger())
	scanner := &fakeScanner{descriptors: []Descriptor{kitchenDescriptor()}}
	svc := testService(scanner, reg)

	svc.cycle(context.Background())

	before, _ := reg.Get("kitchen")
	firstSeen := before.Metadata.FirstSeen
	actor := before.Printer

	time.Sleep(5 * time.Millisecond)
	svc.cycle(context.Background())

	after, _ := reg.Get("kitchen")
	assert.Equal(t, firstSeen, after.Metadata.FirstSeen)
	assert.True(t, after.Metadata.LastSeen.After(firstSeen))
	assert.Same(t, actor, after.Printer, "re-sighting keeps the existing actor")
}

func TestCycleEvictsStalePrinters(t *testing.T) {
	reg := registry.New(logger.NewTestLogger())
	scanner := &fakeScanner{descriptors: []Descriptor{kitchenDescriptor()}}
	svc := testService(scanner, reg)
	svc.staleTimeout = 10 * time.Millisecond

	svc.cycle(context.Background())
	require.Equal(t, 1, reg.Count())

	// The printer stops answering scans and ages past the timeout.
	scanner.descriptors = nil

	time.Sleep(20 * time.Millisecond)
	svc.cycle(context.Background())

	assert.Equal(t, 0, reg.Count())
}

func TestCycleAbsenceAloneDoesNotEvict(t *testing.T) {
	reg := registry.New(logger.NewTestLogger())
	scanner := &fakeScanner{descriptors: []Descriptor{kitchenDescriptor()}}
	svc := testService(scanner, reg)

	svc.cycle(context.Background())

	scanner.descriptors = nil
	svc.cycle(context.Background())

	assert.Equal(t, 1, reg.Count(), "a missed scan within the stale window keeps the printer")
}

func TestCycleScanErrorKeepsLoopAndEvicts(t *testing.T) {
	reg := registry.New(logger.NewTestLogger())
	scanner := &fakeScanner{descriptors: []Descriptor{kitchenDescriptor()}}
	svc := testService(scanner, reg)
	svc.staleTimeout = 10 * time.Millisecond

	svc.cycle(context.Background())
	require.Equal(t, 1, reg.Count())

	scanner.err = errors.New("network is down")

	time.Sleep(20 * time.Millisecond)
	svc.cycle(context.Background())

	assert.Equal(t, 0, reg.Count(), "stale eviction runs even when the scan fails")
}

func TestCycleExemptsManualPrinters(t *testing.T) {
	reg := registry.New(logger.NewTestLogger())
	scanner := &fakeScanner{}
	svc := testService(scanner, reg)
	svc.staleTimeout = time.Nanosecond

	svc.register(kitchenDescriptor())

	factory := func() (escpos.Conn, error) { return nil, errNoDevice }
	reg.AddManual("manual", printer.New(factory, "Manual", "", logger.NewTestLogger()), profiles.Default())

	time.Sleep(time.Millisecond)
	svc.cycle(context.Background())

	assert.Equal(t, 1, reg.Count())

	_, ok := reg.Get("manual")
	assert.True(t, ok, "manual printers never age out")
}

func TestResolveProfileFallsBackToDefault(t *testing.T) {
	svc := testService(&fakeScanner{}, registry.New(logger.NewTestLogger()))

	d := kitchenDescriptor()
	d.Description = "Some Unknown Printer"

	assert.Equal(t, profiles.DefaultModel, svc.resolveProfile(d).Name)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	reg := registry.New(logger.NewTestLogger())
	svc := testService(&fakeScanner{}, reg)
	svc.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() { done <- svc.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("discovery loop did not stop")
	}
}
