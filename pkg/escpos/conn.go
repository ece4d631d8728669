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

package escpos

import (
	"fmt"
	"net"
	"time"
)

// Conn is one open session with a physical printer. Exec stages a primitive
// command, Flush commits the staged batch to paper. ReadRaw/WriteRaw bypass
// the command encoder for read-only status and identity queries.
type Conn interface {
	Exec(cmd Command) error
	Flush() error
	WriteRaw(p []byte) error
	ReadRaw(p []byte) (int, error)
	Close() error
}

// ConnFactory opens a fresh connection to a device. Actors call it once per
// job so an unreachable printer fails fast and self-heals on reconnect.
type ConnFactory func() (Conn, error)

const dialTimeout = 5 * time.Second

// NetworkFactory returns a ConnFactory dialing a printer's raw TCP port.
func NetworkFactory(host string, port int) ConnFactory {
	return func() (Conn, error) {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), dialTimeout)
		if err != nil {
			return nil, fmt.Errorf("dial printer %s:%d: %w", host, port, err)
		}

		return newNetConn(conn), nil
	}
}
