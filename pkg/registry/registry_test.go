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

package registry

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
)

var errNoDevice = errors.New("no device in tests")

func testPrinter(name string) *printer.Printer {
	factory := func() (escpos.Conn, error) { return nil, errNoDevice }
	return printer.New(factory, name, name+" description", logger.NewTestLogger())
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(logger.NewTestLogger())
}

func drainEvents(ch <-chan Event) []Event {
	var events []Event

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}

			events = append(events, e)
		default:
			return events
		}
	}
}

func TestAddEmitsAddedOnce(t *testing.T) {
	r := testRegistry(t)

	events, cancel := r.Subscribe()
	defer cancel()

	p := testPrinter("Kitchen")
	r.Add("kitchen", p, profiles.Default())
	r.Add("kitchen", p, profiles.Default())

	got := drainEvents(events)
	require.Len(t, got, 1)
	assert.Equal(t, EventAdded, got[0].Type)
	assert.Equal(t, "kitchen", got[0].ID)
	assert.Equal(t, "Kitchen", got[0].Name)
	assert.Equal(t, profiles.DefaultModel, got[0].Model)
}

func TestAddIsIdempotentOnTimestamps(t *testing.T) {
	r := testRegistry(t)

	base := time.Now()
	current := base
	r.now = func() time.Time { return current }

	r.Add("a", testPrinter("A"), profiles.Default())

	current = base.Add(time.Minute)
	r.Add("a", testPrinter("A2"), profiles.Default())

	entry, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, base, entry.Metadata.FirstSeen)
	assert.Equal(t, base.Add(time.Minute), entry.Metadata.LastSeen)

	// The original actor handle survives re-sighting.
	assert.Equal(t, "A", entry.Printer.Name)
}

func TestTouchUpdatesLastSeenOnly(t *testing.T) {
	r := testRegistry(t)

	base := time.Now()
	current := base
	r.now = func() time.Time { return current }

	r.Add("a", testPrinter("A"), profiles.Default())

	current = base.Add(30 * time.Second)
	r.Touch("a")
	r.Touch("ghost") // no-op

	entry, _ := r.Get("a")
	assert.Equal(t, base, entry.Metadata.FirstSeen)
	assert.Equal(t, base.Add(30*time.Second), entry.Metadata.LastSeen)
	assert.Equal(t, 1, r.Count())
}

func TestRemove(t *testing.T) {
	r := testRegistry(t)

	events, cancel := r.Subscribe()
	defer cancel()

	p := testPrinter("A")
	r.Add("a", p, profiles.Default())

	entry := r.Remove("a")
	require.NotNil(t, entry)
	assert.Equal(t, 0, r.Count())

	assert.Nil(t, r.Remove("a"), "second remove is a no-op")

	got := drainEvents(events)
	require.Len(t, got, 2)
	assert.Equal(t, EventAdded, got[0].Type)
	assert.Equal(t, EventRemoved, got[1].Type)
	assert.Equal(t, "a", got[1].ID)

	// The actor handle is closed on removal.
	err := p.Print(context.Background(), []escpos.Command{escpos.Write("x")})
	assert.ErrorIs(t, err, printer.ErrClosed)
}

func TestRemoveHungPrinterDoesNotBlockRegistry(t *testing.T) {
	r := testRegistry(t)

	gate := make(chan struct{})
	t.Cleanup(func() { close(gate) })

	hungFactory := func() (escpos.Conn, error) {
		<-gate
		return nil, errNoDevice
	}

	hung := printer.New(hungFactory, "Hung", "", logger.NewTestLogger())
	r.Add("hung", hung, profiles.Default())
	r.Add("healthy", testPrinter("Healthy"), profiles.Default())

	// One job hangs on the device, the queue fills up behind it, and the
	// overflow submitters park on the full queue without a deadline.
	for i := 0; i < 80; i++ {
		go func() { _ = hung.Print(context.Background(), []escpos.Command{escpos.Write("x")}) }()
	}

	time.Sleep(20 * time.Millisecond)

	go r.Remove("hung")

	// Evicting the hung printer must not stall lookups for the rest of the
	// fleet.
	got := make(chan bool, 1)

	go func() {
		_, ok := r.Get("healthy")
		got <- ok
	}()

	select {
	case ok := <-got:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("registry lookup blocked by eviction of a hung printer")
	}
}

func TestDiff(t *testing.T) {
	r := testRegistry(t)

	r.Add("a", testPrinter("A"), profiles.Default())
	r.Add("b", testPrinter("B"), profiles.Default())

	newlyAdded, stillPresent := r.Diff([]string{"b", "c"})

	assert.Equal(t, []string{"c"}, newlyAdded)
	assert.Equal(t, []string{"b"}, stillPresent)

	// "a" is in neither set; a missed scan alone never evicts.
	assert.Equal(t, 2, r.Count())
}

func TestStaleExemptsManualEntries(t *testing.T) {
	r := testRegistry(t)

	base := time.Now()
	current := base
	r.now = func() time.Time { return current }

	r.Add("auto", testPrinter("Auto"), profiles.Default())
	r.AddManual("manual", testPrinter("Manual"), profiles.Default())

	current = base.Add(10 * time.Minute)

	stale := r.Stale(5 * time.Minute)
	assert.Equal(t, []string{"auto"}, stale)

	// Fresh entries stay off the list.
	r.Touch("auto")
	assert.Empty(t, r.Stale(5*time.Minute))
}

func TestSubscribeSeesNoHistory(t *testing.T) {
	r := testRegistry(t)

	r.Add("early", testPrinter("Early"), profiles.Default())

	events, cancel := r.Subscribe()
	defer cancel()

	assert.Empty(t, drainEvents(events), "no replay for late subscribers")

	r.Add("late", testPrinter("Late"), profiles.Default())

	got := drainEvents(events)
	require.Len(t, got, 1)
	assert.Equal(t, "late", got[0].ID)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	r := testRegistry(t)

	events, cancel := r.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		r.Add(string(rune('a'+i%26))+string(rune('0'+i/26)), testPrinter("P"), profiles.Default())
	}

	got := drainEvents(events)
	assert.Len(t, got, subscriberBuffer, "overflow events are dropped, writers never block")
}

func TestCancelClosesEventStream(t *testing.T) {
	r := testRegistry(t)

	events, cancel := r.Subscribe()
	cancel()
	cancel() // idempotent

	_, open := <-events
	assert.False(t, open)

	// Emission after cancel must not panic.
	r.Add("a", testPrinter("A"), profiles.Default())
}

func TestList(t *testing.T) {
	r := testRegistry(t)

	r.Add("kitchen", testPrinter("Kitchen"), profiles.Default())
	r.AddManual("manual", testPrinter("Manual Printer"), profiles.Default())

	assert.Equal(t, map[string]string{
		"kitchen": "Kitchen",
		"manual":  "Manual Printer",
	}, r.List())
}
