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

// Package profiles holds the static capability table for supported printer
// models. The table is built once at init and entries are shared by pointer;
// nothing mutates a Profile after construction.
package profiles

// FontSpec describes one of a model's built-in fonts.
type FontSpec struct {
	Columns uint8
}

// Media describes the loaded paper.
type Media struct {
	DPI     uint16
	WidthPx uint16
}

// Profile is the static capability record for one printer model.
type Profile struct {
	Name  string
	Fonts []FontSpec
	Media Media
}

// Renderer fallbacks for models with incomplete capability data.
const (
	DefaultColumns uint8  = 42
	DefaultDPI     uint16 = 180
	DefaultWidthPx uint16 = 512
)

// Columns returns the character width of the primary font, or the fallback.
func (p *Profile) Columns() uint8 {
	if p != nil && len(p.Fonts) > 0 && p.Fonts[0].Columns > 0 {
		return p.Fonts[0].Columns
	}

	return DefaultColumns
}

// DPI returns the media resolution, or the fallback.
func (p *Profile) DPI() uint16 {
	if p != nil && p.Media.DPI > 0 {
		return p.Media.DPI
	}

	return DefaultDPI
}

// WidthPx returns the printable width in dots, or the fallback.
func (p *Profile) WidthPx() uint16 {
	if p != nil && p.Media.WidthPx > 0 {
		return p.Media.WidthPx
	}

	return DefaultWidthPx
}

const DefaultModel = "default"

var table = map[string]*Profile{
	DefaultModel: {
		Name:  DefaultModel,
		Fonts: []FontSpec{{Columns: 42}, {Columns: 56}},
		Media: Media{DPI: 180, WidthPx: 512},
	},
	"TM-T88IV": {
		Name:  "TM-T88IV",
		Fonts: []FontSpec{{Columns: 42}, {Columns: 56}},
		Media: Media{DPI: 180, WidthPx: 512},
	},
	"TM-T88V": {
		Name:  "TM-T88V",
		Fonts: []FontSpec{{Columns: 42}, {Columns: 56}},
		Media: Media{DPI: 180, WidthPx: 512},
	},
	"TM-T20III": {
		Name:  "TM-T20III",
		Fonts: []FontSpec{{Columns: 48}, {Columns: 64}},
		Media: Media{DPI: 203, WidthPx: 576},
	},
	"TM-m30": {
		Name:  "TM-m30",
		Fonts: []FontSpec{{Columns: 48}, {Columns: 64}},
		Media: Media{DPI: 203, WidthPx: 576},
	},
	"TM-P20": {
		Name:  "TM-P20",
		Fonts: []FontSpec{{Columns: 32}, {Columns: 42}},
		Media: Media{DPI: 203, WidthPx: 384},
	},
}

// Lookup returns the profile for a model name.
func Lookup(model string) (*Profile, bool) {
	p, ok := table[model]
	return p, ok
}

// LookupOrDefault returns the profile for a model name, falling back to the
// default profile for unknown models.
func LookupOrDefault(model string) *Profile {
	if p, ok := table[model]; ok {
		return p
	}

	return table[DefaultModel]
}

// Default returns the fallback profile.
func Default() *Profile {
	return table[DefaultModel]
}

// Models lists all known model names.
func Models() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}

	return names
}
