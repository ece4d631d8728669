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

// Package printer implements the per-device actor. Each Printer owns a
// worker goroutine with exclusive access to the device: jobs are executed
// strictly in submission order, one at a time, with a fresh connection per
// job so unreachable devices fail fast and recover on reconnect. A failed
// job is reported only to its caller; the actor keeps serving the queue.
package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/printflow/pkg/escpos"
	"github.com/carverauto/printflow/pkg/logger"
)

const jobQueueDepth = 64

// ErrClosed is returned for jobs submitted after Close.
var ErrClosed = errors.New("printer actor closed")

// Printer is the handle to one device's actor.
type Printer struct {
	Name        string
	Description string

	factory escpos.ConnFactory
	jobs    chan job
	done    chan struct{}
	log     logger.Logger

	mu         sync.RWMutex
	closed     bool
	submitting sync.WaitGroup
}

type jobKind int

const (
	jobPrint jobKind = iota
	jobModelName
)

type job struct {
	kind     jobKind
	commands []escpos.Command
	reply    chan result
}

type result struct {
	model string
	err   error
}

// New starts the actor goroutine. The returned handle is safe for
// concurrent use; Close shuts the queue down once all submitted jobs have
// drained.
func New(factory escpos.ConnFactory, name, description string, log logger.Logger) *Printer {
	p := &Printer{
		Name:        name,
		Description: description,
		factory:     factory,
		jobs:        make(chan job, jobQueueDepth),
		done:        make(chan struct{}),
		log:         log.WithComponent("printer"),
	}

	go p.run()

	return p
}

// run is the actor loop: one job at a time, in arrival order, until the
// queue is closed.
func (p *Printer) run() {
	for j := range p.jobs {
		switch j.kind {
		case jobPrint:
			j.reply <- result{err: p.executePrint(j.commands)}
		case jobModelName:
			model, err := p.queryModelName()
			j.reply <- result{model: model, err: err}
		}
	}
}

// Print submits the command sequence and waits for the device result. The
// context only stops the wait; a submitted job still completes against the
// device.
func (p *Printer) Print(ctx context.Context, commands []escpos.Command) error {
	res, err := p.submit(ctx, job{kind: jobPrint, commands: commands})
	if err != nil {
		return err
	}

	return res.err
}

// ModelName queries the device for its model identity (GS I 67).
func (p *Printer) ModelName(ctx context.Context) (string, error) {
	res, err := p.submit(ctx, job{kind: jobModelName})
	if err != nil {
		return "", err
	}

	return res.model, res.err
}

// Close shuts down the actor once pending jobs have drained. Jobs submitted
// afterwards fail with ErrClosed; callers parked on a full queue are
// released with ErrClosed rather than left waiting, so Close never blocks
// behind a hung device.
func (p *Printer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	p.closed = true
	close(p.done)
	p.mu.Unlock()

	// Every in-flight submission either enqueues or bails on done before
	// the queue closes, so the send-on-closed-channel race cannot happen.
	p.submitting.Wait()
	close(p.jobs)
}

func (p *Printer) submit(ctx context.Context, j job) (result, error) {
	j.reply = make(chan result, 1)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return result{}, ErrClosed
	}

	p.submitting.Add(1)
	p.mu.RUnlock()

	// No lock is held across the send: a full queue parks only this caller,
	// never Close or other submitters.
	select {
	case p.jobs <- j:
		p.submitting.Done()
	case <-p.done:
		p.submitting.Done()
		return result{}, ErrClosed
	case <-ctx.Done():
		p.submitting.Done()
		return result{}, ctx.Err()
	}

	select {
	case res := <-j.reply:
		return res, nil
	case <-ctx.Done():
		// The job still runs to completion; the caller just stops waiting.
		return result{}, ctx.Err()
	}
}

func (p *Printer) executePrint(commands []escpos.Command) error {
	conn, err := p.factory()
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.log.Warn().Err(cerr).Msg("closing printer connection")
		}
	}()

	p.log.Debug().Str("printer", p.Name).Int("commands", len(commands)).Msg("executing print job")

	for _, cmd := range commands {
		if err := conn.Exec(cmd); err != nil {
			return fmt.Errorf("execute %s: %w", cmd.Type, err)
		}
	}

	if err := conn.Flush(); err != nil {
		return err
	}

	p.log.Info().Str("printer", p.Name).Int("commands", len(commands)).Msg("print job completed")

	return nil
}

// queryModelName issues the ESC/POS printer-ID transmit command and reads
// back the NUL-terminated model string.
func (p *Printer) queryModelName() (string, error) {
	conn, err := p.factory()
	if err != nil {
		return "", fmt.Errorf("open device: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.log.Warn().Err(cerr).Msg("closing printer connection")
		}
	}()

	if err := conn.WriteRaw([]byte{0x1D, 0x49, 67}); err != nil {
		return "", fmt.Errorf("send identity query: %w", err)
	}

	buf := make([]byte, 82)

	n, err := conn.ReadRaw(buf)
	if err != nil {
		return "", fmt.Errorf("read identity reply: %w", err)
	}

	if n < 2 {
		return "", errors.New("short identity reply")
	}

	// The reply starts with a header byte; the model name runs to NUL.
	payload := buf[1:n]
	if i := bytes.IndexByte(payload, 0); i >= 0 {
		payload = payload[:i]
	}

	return string(payload), nil
}
