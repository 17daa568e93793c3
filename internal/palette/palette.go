// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package palette maps gravity anomaly samples to bitmap pixels.
//
// Samples are in units of 0.1 milligal. An even value signifies the cell
// has no altimeter measurement, an odd value signifies that it does.
// Measured cells are colored by magnitude with a fixed nine step ramp,
// cells without measurement are white.
package palette

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// A 24-bit pixel in bitmap storage order: blue, green, red
type Pixel struct {
	B, G, R uint8
}

// Returns the pixel as an opaque color for use with the image packages
func (p Pixel) Color() color.RGBA {
	return color.RGBA{R: p.R, G: p.G, B: p.B, A: 0xff}
}

// Returns the pixel as #rrggbb
func (p Pixel) Hex() string {
	c, _ := colorful.MakeColor(p.Color())
	return c.Hex()
}

// Appends the pixel to b in blue, green, red order
func (p Pixel) AppendBGR(b []byte) []byte {
	return append(b, p.B, p.G, p.R)
}

// Returned by Bin for samples without measurement
const NoData = -1

// Pixel for samples without measurement
var White = Pixel{B: 0xff, G: 0xff, R: 0xff}

// One step of the color ramp. Covers samples in [Lower, Upper)
type Step struct {
	Lower int32 `json:"lower"`
	Upper int32 `json:"upper"`
	Pixel Pixel `json:"-"`
}

// Lower and upper bounds are widened to int32 so the open ends of the ramp
// can be represented without clipping the int16 domain
var ramp = [...]Step{
	{math.MinInt16, -300, Pixel{B: 0x66, G: 0x00, R: 0x00}},
	{-300, -200, Pixel{B: 0xcc, G: 0x00, R: 0x00}},
	{-200, -100, Pixel{B: 0xcc, G: 0x66, R: 0x00}},
	{-100, 0, Pixel{B: 0xff, G: 0x99, R: 0x00}},
	{0, 100, Pixel{B: 0xaa, G: 0xdd, R: 0x00}},
	{100, 200, Pixel{B: 0x00, G: 0xff, R: 0x00}},
	{200, 300, Pixel{B: 0x66, G: 0xff, R: 0x99}},
	{300, 400, Pixel{B: 0x66, G: 0xff, R: 0xcc}},
	{400, math.MaxInt16 + 1, Pixel{B: 0x66, G: 0xff, R: 0xff}},
}

// Number of steps in the color ramp
const NumSteps = len(ramp)

// Returns a copy of the color ramp, lowest magnitudes first
func Steps() []Step {
	steps := make([]Step, len(ramp))
	copy(steps, ramp[:])
	return steps
}

// Returns true if the sample carries an altimeter measurement
func IsValid(z int16) bool {
	return z&1 != 0
}

// Returns the index of the ramp step for the given sample, or NoData
func Bin(z int16) int {
	if !IsValid(z) {
		return NoData
	}
	switch {
	case z < -300:
		return 0
	case z < -200:
		return 1
	case z < -100:
		return 2
	case z < 0:
		return 3
	case z < 100:
		return 4
	case z < 200:
		return 5
	case z < 300:
		return 6
	case z < 400:
		return 7
	default:
		return 8
	}
}

// Maps a gravity anomaly sample to its bitmap pixel
func MapSample(z int16) Pixel {
	b := Bin(z)
	if b == NoData {
		return White
	}
	return ramp[b].Pixel
}
