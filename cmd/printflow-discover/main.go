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

// Command printflow-discover runs one discovery scan and prints what it
// finds. Useful for checking the broadcast segment before deploying.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/carverauto/printflow/pkg/discovery"
	"github.com/carverauto/printflow/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	mainLogger, err := logger.New(&logger.Config{Level: "warn"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	printers, err := discovery.NewNetworkScanner(mainLogger).Scan(ctx)
	if err != nil {
		return err
	}

	if len(printers) == 0 {
		fmt.Println("No printers found.")
		return nil
	}

	for _, p := range printers {
		fmt.Printf("%s\t%s:%d\t%s (%s)\n", p.ID, p.Host, p.Port, p.Name, p.Description)
	}

	return nil
}
