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
	"fmt"
	"io"
	"math"
)

// A human readable legend entry for one ramp step
type LegendEntry struct {
	Label string `json:"label"`
	Lower *int32 `json:"lower,omitempty"` // inclusive, in 0.1 mGal. Nil if open
	Upper *int32 `json:"upper,omitempty"` // exclusive, in 0.1 mGal. Nil if open
	Color string `json:"color"`
}

// Returns the legend for the ramp, followed by the no data entry
func Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(ramp)+1)
	for i := range ramp {
		s := ramp[i]
		e := LegendEntry{Color: s.Pixel.Hex()}
		if s.Lower > math.MinInt16 {
			lower := s.Lower
			e.Lower = &lower
		}
		if s.Upper <= math.MaxInt16 {
			upper := s.Upper
			e.Upper = &upper
		}
		e.Label = stepLabel(e.Lower, e.Upper)
		entries = append(entries, e)
	}
	entries = append(entries, LegendEntry{Label: "no measurement", Color: White.Hex()})
	return entries
}

func stepLabel(lower, upper *int32) string {
	switch {
	case lower == nil && upper != nil:
		return fmt.Sprintf("below %.1f mGal", mGal(*upper))
	case lower != nil && upper == nil:
		return fmt.Sprintf("%.1f mGal and above", mGal(*lower))
	case lower != nil && upper != nil:
		return fmt.Sprintf("%.1f to %.1f mGal", mGal(*lower), mGal(*upper))
	}
	return "all"
}

// Converts tenths of a milligal to milligal
func mGal(tenths int32) float64 {
	return float64(tenths) / 10
}

// Writes the legend as a plain text table
func WriteLegend(w io.Writer) error {
	for _, e := range Legend() {
		if _, err := fmt.Fprintf(w, "%s  %s\n", e.Color, e.Label); err != nil {
			return err
		}
	}
	return nil
}
