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

package palette

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

type mapSampleTestCase struct {
	Z     int16
	Pixel Pixel
}

func TestMapSampleBins(t *testing.T) {
	tcs := []mapSampleTestCase{
		{math.MinInt16 + 1, Pixel{0x66, 0x00, 0x00}},
		{-301, Pixel{0x66, 0x00, 0x00}},
		{-299, Pixel{0xcc, 0x00, 0x00}},
		{-201, Pixel{0xcc, 0x00, 0x00}},
		{-199, Pixel{0xcc, 0x66, 0x00}},
		{-101, Pixel{0xcc, 0x66, 0x00}},
		{-99, Pixel{0xff, 0x99, 0x00}},
		{-1, Pixel{0xff, 0x99, 0x00}},
		{1, Pixel{0xaa, 0xdd, 0x00}},
		{99, Pixel{0xaa, 0xdd, 0x00}},
		{101, Pixel{0x00, 0xff, 0x00}},
		{199, Pixel{0x00, 0xff, 0x00}},
		{201, Pixel{0x66, 0xff, 0x99}},
		{299, Pixel{0x66, 0xff, 0x99}},
		{301, Pixel{0x66, 0xff, 0xcc}},
		{399, Pixel{0x66, 0xff, 0xcc}},
		{401, Pixel{0x66, 0xff, 0xff}},
		{math.MaxInt16, Pixel{0x66, 0xff, 0xff}},
	}
	for _, tc := range tcs {
		if got := MapSample(tc.Z); got != tc.Pixel {
			t.Errorf("MapSample(%d)=%+v; want %+v", tc.Z, got, tc.Pixel)
		}
	}
}

func TestMapSampleEvenIsWhite(t *testing.T) {
	for z := math.MinInt16; z <= math.MaxInt16; z += 2 {
		if got := MapSample(int16(z)); got != White {
			t.Fatalf("MapSample(%d)=%+v; want white", z, got)
		}
		if b := Bin(int16(z)); b != NoData {
			t.Fatalf("Bin(%d)=%d; want NoData", z, b)
		}
	}
}

// Every odd sample falls into exactly one ramp step, and MapSample agrees with it
func TestMapSampleOddPartition(t *testing.T) {
	for z := math.MinInt16 + 1; z <= math.MaxInt16; z += 2 {
		matches := 0
		var step Step
		for _, s := range Steps() {
			if int32(z) >= s.Lower && int32(z) < s.Upper {
				matches++
				step = s
			}
		}
		if matches != 1 {
			t.Fatalf("z=%d matches %d ramp steps; want 1", z, matches)
		}
		if got := MapSample(int16(z)); got != step.Pixel {
			t.Fatalf("MapSample(%d)=%+v; want %+v", z, got, step.Pixel)
		}
		b := Bin(int16(z))
		if b < 0 || b >= NumSteps {
			t.Fatalf("Bin(%d)=%d; want in [0,%d)", z, b, NumSteps)
		}
	}
}

func TestStepsAreContiguous(t *testing.T) {
	steps := Steps()
	if steps[0].Lower > math.MinInt16 {
		t.Errorf("first step starts at %d; want <= %d", steps[0].Lower, math.MinInt16)
	}
	if steps[len(steps)-1].Upper <= math.MaxInt16 {
		t.Errorf("last step ends at %d; want > %d", steps[len(steps)-1].Upper, math.MaxInt16)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Lower != steps[i-1].Upper {
			t.Errorf("step %d starts at %d; want %d", i, steps[i].Lower, steps[i-1].Upper)
		}
	}

	// callers cannot modify the ramp through the returned copy
	steps[0].Pixel = White
	if MapSample(-301) == White {
		t.Errorf("Steps() exposed the internal ramp")
	}
}

func TestPixelHex(t *testing.T) {
	if got := MapSample(1).Hex(); got != "#00ddaa" {
		t.Errorf("Hex()=%s; want #00ddaa", got)
	}
	if got := White.Hex(); got != "#ffffff" {
		t.Errorf("Hex()=%s; want #ffffff", got)
	}
	if got := (Pixel{B: 1, G: 2, R: 3}).AppendBGR(nil); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("AppendBGR()=%v; want [1 2 3]", got)
	}
}

func TestLegend(t *testing.T) {
	entries := Legend()
	if len(entries) != NumSteps+1 {
		t.Fatalf("len(Legend())=%d; want %d", len(entries), NumSteps+1)
	}
	if entries[0].Lower != nil || entries[0].Upper == nil || *entries[0].Upper != -300 {
		t.Errorf("first entry bounds %v %v; want open lower, upper -300", entries[0].Lower, entries[0].Upper)
	}
	if entries[0].Label != "below -30.0 mGal" {
		t.Errorf("first label %q", entries[0].Label)
	}
	if entries[NumSteps-1].Label != "40.0 mGal and above" {
		t.Errorf("last step label %q", entries[NumSteps-1].Label)
	}
	if entries[4].Label != "0.0 to 10.0 mGal" {
		t.Errorf("entry 4 label %q", entries[4].Label)
	}

	var buf bytes.Buffer
	if err := WriteLegend(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != NumSteps+1 {
		t.Errorf("legend has %d lines; want %d", len(lines), NumSteps+1)
	}
	if !strings.HasPrefix(lines[len(lines)-1], "#ffffff") {
		t.Errorf("last legend line %q; want no data entry", lines[len(lines)-1])
	}
}
