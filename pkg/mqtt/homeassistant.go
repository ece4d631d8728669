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

package mqtt

import "fmt"

// haDomain is the Home Assistant integration domain printers are announced
// under. Receipt printers act as notify targets.
const haDomain = "notify"

// HADevice is the device block of a Home Assistant discovery payload.
type HADevice struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name"`
	Model       string   `json:"model"`
}

// HAConfiguration is the discovery payload Home Assistant consumes to
// register a printer as a notify entity.
type HAConfiguration struct {
	Name              string   `json:"name"`
	CommandTopic      string   `json:"command_topic"`
	AvailabilityTopic string   `json:"availability_topic"`
	UniqueID          string   `json:"unique_id"`
	Device            HADevice `json:"device"`
}

// newHAConfiguration builds the discovery payload for one printer.
func newHAConfiguration(id, name, description, model string) HAConfiguration {
	return HAConfiguration{
		Name:              "Receipt",
		CommandTopic:      printJobTopic(id),
		AvailabilityTopic: availabilityTopic,
		UniqueID:          id,
		Device: HADevice{
			Identifiers: []string{id},
			Name:        name,
			Model:       fmt.Sprintf("%s - %s", model, description),
		},
	}
}

// haConfigTopic is the retained discovery topic for one printer.
func haConfigTopic(id string) string {
	return fmt.Sprintf("homeassistant/%s/%s/config", haDomain, id)
}
