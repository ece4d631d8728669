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

// Package discovery finds receipt printers on the local network segment and
// keeps the registry in sync with what it sees. The probe is the vendor
// discovery datagram broadcast on UDP 3289; each responder is then resolved
// over SNMP for a human-readable name and description. A responder is either
// fully resolved or excluded, never partial.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/carverauto/printflow/pkg/logger"
)

const (
	// Vendor discovery probe ("EPSONP" plus the fixed query trailer).
	discoveryPort    = 3289
	broadcastAddress = "255.255.255.255"

	replyWindow    = 100 * time.Millisecond
	identityWindow = 100 * time.Millisecond

	// Hard cap on replies processed per cycle; a response flood on the
	// broadcast segment must not stall the discovery loop.
	maxReplies = 64

	// Raw print port assumed for resolved printers.
	printPort = 9100

	snmpPort      = 161
	snmpCommunity = "public"

	oidSysDescr = ".1.3.6.1.2.1.1.1.0"
	oidSysName  = ".1.3.6.1.2.1.1.5.0"
)

var discoveryProbe = append([]byte("EPSONP"), 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00)

// Descriptor identifies one fully resolved printer on the network.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Host        string
	Port        int
}

// Scanner produces printer descriptors. The network scanner is the real
// implementation; tests and the service take the interface.
type Scanner interface {
	Scan(ctx context.Context) ([]Descriptor, error)
}

// NetworkScanner discovers printers by UDP broadcast + SNMP identity.
type NetworkScanner struct {
	log logger.Logger
}

var _ Scanner = (*NetworkScanner)(nil)

// NewNetworkScanner creates the broadcast scanner.
func NewNetworkScanner(log logger.Logger) *NetworkScanner {
	return &NetworkScanner{log: log.WithComponent("discovery")}
}

// Scan broadcasts the probe, collects replies for the reply window, and
// resolves each distinct responder over SNMP concurrently. Responders whose
// identity query fails or times out are dropped silently.
func (s *NetworkScanner) Scan(ctx context.Context) ([]Descriptor, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("bind discovery socket: %w", err)
	}
	defer conn.Close()

	dst := &net.UDPAddr{IP: net.ParseIP(broadcastAddress), Port: discoveryPort}
	if _, err := conn.WriteTo(discoveryProbe, dst); err != nil {
		return nil, fmt.Errorf("send discovery probe: %w", err)
	}

	responders := s.collectResponders(ctx, conn)
	if len(responders) == 0 {
		return nil, nil
	}

	s.log.Debug().Int("responders", len(responders)).Msg("discovery probe replies collected")

	return s.resolveResponders(responders), nil
}

// collectResponders reads replies until the window closes, deduplicating by
// source IP.
func (s *NetworkScanner) collectResponders(ctx context.Context, conn net.PacketConn) []net.IP {
	deadline := time.Now().Add(replyWindow)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		s.log.Warn().Err(err).Msg("setting discovery read deadline")
		return nil
	}

	seen := make(map[string]bool)

	var responders []net.IP

	buf := make([]byte, 1024)

	for len(responders) < maxReplies {
		_, addr, err := conn.ReadFrom(buf)
		if err != nil {
			// Window closed or socket failure; either way the collection
			// phase is over.
			break
		}

		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}

		key := udpAddr.IP.String()
		if seen[key] {
			continue
		}

		seen[key] = true
		responders = append(responders, udpAddr.IP)
	}

	return responders
}

// resolveResponders issues the SNMP identity queries concurrently and keeps
// only fully resolved printers, in responder order.
func (s *NetworkScanner) resolveResponders(responders []net.IP) []Descriptor {
	resolved := make([]*Descriptor, len(responders))

	var wg sync.WaitGroup

	for i, ip := range responders {
		wg.Add(1)

		go func(i int, ip net.IP) {
			defer wg.Done()

			desc, err := s.queryIdentity(ip)
			if err != nil {
				s.log.Debug().Str("host", ip.String()).Err(err).
					Msg("dropping responder without SNMP identity")
				return
			}

			resolved[i] = desc
		}(i, ip)
	}

	wg.Wait()

	var out []Descriptor

	for _, desc := range resolved {
		if desc != nil {
			out = append(out, *desc)
		}
	}

	return out
}

// queryIdentity reads sysName and sysDescr from a responder.
func (s *NetworkScanner) queryIdentity(ip net.IP) (*Descriptor, error) {
	client := &gosnmp.GoSNMP{
		Target:    ip.String(),
		Port:      snmpPort,
		Community: snmpCommunity,
		Version:   gosnmp.Version1,
		Timeout:   identityWindow,
		Retries:   0,
		MaxOids:   gosnmp.MaxOids,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("snmp connect: %w", err)
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oidSysName, oidSysDescr})
	if err != nil {
		return nil, fmt.Errorf("snmp get: %w", err)
	}

	var name, description string

	for _, v := range result.Variables {
		if v.Type != gosnmp.OctetString {
			continue
		}

		bytes, ok := v.Value.([]byte)
		if !ok {
			continue
		}

		switch v.Name {
		case oidSysName:
			name = string(bytes)
		case oidSysDescr:
			description = string(bytes)
		}
	}

	if name == "" {
		return nil, fmt.Errorf("responder %s has no sysName", ip)
	}

	if description == "" {
		return nil, fmt.Errorf("responder %s has no sysDescr", ip)
	}

	return &Descriptor{
		ID:          strings.ToLower(name),
		Name:        name,
		Description: description,
		Host:        ip.String(),
		Port:        printPort,
	}, nil
}
