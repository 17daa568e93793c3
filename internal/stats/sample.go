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

package stats

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"

	"github.com/mlnoga/gravmap/internal/grid"
)

const numHistogramBins = 256

// Statistics of a grid estimated from randomly sampled cells.
// Magnitudes are in 0.1 mGal
type Summary struct {
	Samples       int     `json:"samples"`
	ValidFraction float64 `json:"validFraction"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"stdDev"`
	Median        float64 `json:"median"`
	P05           float64 `json:"p05"`
	P95           float64 `json:"p95"`
	Mode          float64 `json:"mode"` // from a normal fit to the histogram
	Run           Run     `json:"run"`
}

// Estimates statistics of the grid from n randomly chosen cells. The same seed
// selects the same cells. Samples for which the source is too short are an error
func Sample(g grid.Grid, n int, seed uint32) (*Summary, error) {
	if n <= 0 {
		return nil, errors.New("number of samples must be positive")
	}
	rng := fastrand.RNG{}
	rng.Seed(seed)

	width, height := uint32(g.Width()), uint32(g.Height())
	s := &Summary{Samples: n}
	data := make([]float64, n)
	for i := range data {
		row, col := int(rng.Uint32n(height)), int(rng.Uint32n(width))
		z, err := g.Sample(row, col)
		if err != nil {
			return nil, err
		}
		s.Run.Add(z)
		data[i] = float64(z)
	}

	s.ValidFraction = float64(s.Run.Valid) / float64(n)
	s.Min, s.Max = float64(s.Run.Min), float64(s.Run.Max)
	s.Mean, s.StdDev = stat.MeanStdDev(data, nil)
	if n == 1 {
		s.StdDev = 0
	}

	sort.Float64s(data)
	s.Median = stat.Quantile(0.5, stat.Empirical, data, nil)
	s.P05 = stat.Quantile(0.05, stat.Empirical, data, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, data, nil)

	bins := make([]int32, numHistogramBins)
	Histogram(data, s.Min, s.Max, bins)
	s.Mode = s.Median
	if mode, _, err := GetModeStdDevFromHistogram(bins, s.Min, s.Max); err == nil && mode >= s.Min && mode <= s.Max {
		s.Mode = mode
	}
	return s, nil
}

// Prints the summary in milligal
func (s *Summary) Describe(w io.Writer) {
	fmt.Fprintf(w, "Sampled %d cells, %.2f%% with altimeter measurement\n", s.Samples, 100*s.ValidFraction)
	fmt.Fprintf(w, "min %.1f max %.1f mean %.2f stddev %.2f mGal\n", s.Min/10, s.Max/10, s.Mean/10, s.StdDev/10)
	fmt.Fprintf(w, "5%% %.1f median %.1f 95%% %.1f mode %.2f mGal\n", s.P05/10, s.Median/10, s.P95/10, s.Mode/10)
	s.Run.Describe(w)
}
