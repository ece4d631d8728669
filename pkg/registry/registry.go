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

// Package registry holds the shared, concurrency-safe map of known printers.
// All operations serialize through one RWMutex: reads run concurrently,
// writes are exclusive, and change events are emitted in the same order as
// the mutations they describe.
package registry

import (
	"sync"
	"time"

	"github.com/carverauto/printflow/pkg/logger"
	"github.com/carverauto/printflow/pkg/printer"
	"github.com/carverauto/printflow/pkg/profiles"
)

// EventType tags registry change events.
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event describes one registry change. Name, Description and Model are set
// only for EventAdded.
type Event struct {
	Type        EventType
	ID          string
	Name        string
	Description string
	Model       string
}

// Metadata tracks a printer's lifecycle in the registry. LastSeen >=
// FirstSeen always; manual entries are exempt from staleness eviction.
type Metadata struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Manual    bool
}

// Entry is one registered printer: the actor handle, its immutable
// capability profile, and lifecycle metadata.
type Entry struct {
	Printer  *printer.Printer
	Profile  *profiles.Profile
	Metadata Metadata
}

const subscriberBuffer = 16

// Registry is the printer registry. The zero value is not usable; call New.
type Registry struct {
	mu       sync.RWMutex
	printers map[string]*Entry
	subs     map[uint64]chan Event
	nextSub  uint64
	now      func() time.Time
	log      logger.Logger
}

// New creates an empty registry.
func New(log logger.Logger) *Registry {
	return &Registry{
		printers: make(map[string]*Entry),
		subs:     make(map[uint64]chan Event),
		now:      time.Now,
		log:      log.WithComponent("registry"),
	}
}

// Subscribe returns a stream of registry events and a cancel function.
// Subscribers only see events emitted after subscribing; there is no replay.
// A subscriber that falls more than subscriberBuffer events behind loses
// events rather than blocking registry writers.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSub
	r.nextSub++

	ch := make(chan Event, subscriberBuffer)
	r.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// emit delivers an event to all subscribers. Callers hold the write lock,
// so emission order matches mutation order for every subscriber.
func (r *Registry) emit(event Event) {
	for _, ch := range r.subs {
		select {
		case ch <- event:
		default:
			r.log.Warn().Str("id", event.ID).Str("event", string(event.Type)).
				Msg("dropping registry event for slow subscriber")
		}
	}
}

// Add inserts a discovered printer. If id is already present the call only
// refreshes LastSeen: the existing actor handle is kept so in-flight jobs
// survive re-sighting, and no event is emitted.
func (r *Registry) Add(id string, p *printer.Printer, profile *profiles.Profile) {
	r.add(id, p, profile, false)
}

// AddManual inserts a manually configured printer, permanently exempt from
// staleness eviction.
func (r *Registry) AddManual(id string, p *printer.Printer, profile *profiles.Profile) {
	r.add(id, p, profile, true)
}

func (r *Registry) add(id string, p *printer.Printer, profile *profiles.Profile, manual bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.printers[id]; ok {
		entry.Metadata.LastSeen = r.now()
		r.log.Debug().Str("id", id).Msg("refreshed existing printer")

		return
	}

	now := r.now()
	r.printers[id] = &Entry{
		Printer:  p,
		Profile:  profile,
		Metadata: Metadata{FirstSeen: now, LastSeen: now, Manual: manual},
	}

	r.log.Info().Str("id", id).Str("model", profile.Name).Bool("manual", manual).
		Msg("added printer to registry")

	r.emit(Event{
		Type:        EventAdded,
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		Model:       profile.Name,
	})
}

// Touch refreshes LastSeen for an existing entry. Unknown ids are a no-op.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.printers[id]; ok {
		entry.Metadata.LastSeen = r.now()
		r.log.Debug().Str("id", id).Msg("touched printer")
	}
}

// Remove deletes an entry, emits Removed and closes the actor handle.
// Returns the removed entry, or nil if the id was unknown.
func (r *Registry) Remove(id string) *Entry {
	r.mu.Lock()

	entry, ok := r.printers[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}

	delete(r.printers, id)
	r.log.Info().Str("id", id).Msg("removed printer from registry")

	r.emit(Event{Type: EventRemoved, ID: id})
	r.mu.Unlock()

	// Close outside the lock: the map no longer hands the actor out, and a
	// hung device must not stall other registry operations. Queued jobs
	// drain, later submissions get ErrClosed.
	entry.Printer.Close()

	return entry
}

// Get returns the entry for id.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.printers[id]

	return entry, ok
}

// List returns all registered ids with their display names.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.printers))
	for id, entry := range r.printers {
		out[id] = entry.Printer.Name
	}

	return out
}

// Count returns the number of registered printers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.printers)
}

// Diff splits a freshly discovered id set against the current registry under
// one consistent snapshot. Ids known to the registry but absent from
// discovered are in neither result; they only leave through staleness.
func (r *Registry) Diff(discovered []string) (newlyAdded, stillPresent []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range discovered {
		if _, ok := r.printers[id]; ok {
			stillPresent = append(stillPresent, id)
		} else {
			newlyAdded = append(newlyAdded, id)
		}
	}

	return newlyAdded, stillPresent
}

// Stale returns the ids of non-manual printers unseen for longer than
// timeout.
func (r *Registry) Stale(timeout time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()

	var stale []string

	for id, entry := range r.printers {
		if entry.Metadata.Manual {
			continue
		}

		if now.Sub(entry.Metadata.LastSeen) > timeout {
			stale = append(stale, id)
		}
	}

	return stale
}
