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

// Command printflow-docs writes the print DSL reference to stdout or a file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/carverauto/printflow/pkg/program"
)

func main() {
	output := flag.String("o", "", "Output file (stdout when empty)")
	flag.Parse()

	content := program.GenerateMarkdown()

	if *output == "" {
		fmt.Print(content)
		return
	}

	if err := os.WriteFile(*output, []byte(content), 0o644); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}

	fmt.Printf("Documentation written to: %s\n", *output)
}
