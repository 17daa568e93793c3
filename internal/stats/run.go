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

// Package stats gathers statistics on gravity anomaly samples
package stats

import (
	"fmt"
	"io"

	"github.com/mlnoga/gravmap/internal/palette"
)

// Statistics over the samples visited by one conversion run.
// Purely observational, has no effect on the output
type Run struct {
	Samples int64                   `json:"samples"`
	Valid   int64                   `json:"valid"`   // samples with altimeter measurement
	Invalid int64                   `json:"invalid"` // samples without
	Min     int16                   `json:"min"`     // over all samples, in 0.1 mGal
	Max     int16                   `json:"max"`
	Bins    [palette.NumSteps]int64 `json:"bins"` // valid samples per ramp step
}

// Records one sample
func (r *Run) Add(z int16) {
	if r.Samples == 0 || z < r.Min {
		r.Min = z
	}
	if r.Samples == 0 || z > r.Max {
		r.Max = z
	}
	r.Samples++
	if b := palette.Bin(z); b == palette.NoData {
		r.Invalid++
	} else {
		r.Valid++
		r.Bins[b]++
	}
}

func (r *Run) String() string {
	return fmt.Sprintf("samples %d valid %d invalid %d min %d max %d", r.Samples, r.Valid, r.Invalid, r.Min, r.Max)
}

// Prints the statistics including per ramp step counts
func (r *Run) Describe(w io.Writer) {
	fmt.Fprintf(w, "min value read: %d\n", r.Min)
	fmt.Fprintf(w, "max value read: %d\n", r.Max)
	fmt.Fprintf(w, "samples %d, with measurement %d, without %d\n", r.Samples, r.Valid, r.Invalid)
	legend := palette.Legend()
	for i, n := range r.Bins {
		pct := 0.0
		if r.Valid > 0 {
			pct = 100 * float64(n) / float64(r.Valid)
		}
		fmt.Fprintf(w, "  %s %-24s %10d %6.2f%%\n", legend[i].Color, legend[i].Label, n, pct)
	}
}
