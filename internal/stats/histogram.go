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
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Calculate histogram of data between min and max into given bins.
// Values outside [min,max] are ignored
func Histogram(data []float64, min, max float64, bins []int32) {
	for i := range bins {
		bins[i] = 0
	}
	if max <= min {
		if len(bins) > 0 {
			bins[0] = int32(len(data))
		}
		return
	}
	scale := float64(len(bins)-1) / (max - min)
	for _, d := range data {
		if d < min || d > max {
			continue
		}
		bins[int((d-min)*scale)]++
	}
}

// Returns the center of the bin with the given index
func binCenter(i int, min, max float64, numBins int) float64 {
	return min + (float64(i)+0.5)*(max-min)/float64(numBins-1)
}

// Returns the location and the value of the histogram peak
func GetPeak(bins []int32, min, max float64) (x, y float64) {
	maxIndex, maxValue := 0, int32(math.MinInt32)
	for i, v := range bins {
		if v > maxValue {
			maxIndex, maxValue = i, v
		}
	}
	x = binCenter(maxIndex, min, max, len(bins))
	y = float64(bins[maxIndex])
	if maxIndex+1 < len(bins) {
		y = 0.5 * float64(bins[maxIndex]+bins[maxIndex+1])
	}
	return x, y
}

// Calculates the mode and the standard deviation of the given histogram
// by fitting a normal distribution to it
func GetModeStdDevFromHistogram(bins []int32, min, max float64) (mode, stdDev float64, err error) {
	if len(bins) < 2 || max <= min {
		return 0, 0, errors.New("histogram too small to fit")
	}
	// Take an educated initial guess: the maximum value of the histogram
	peak, peakVal := GetPeak(bins, min, max)
	width := (max - min) / float64(len(bins)-1)

	// Now minimize the distance between the histogram and a normal distribution
	x0 := []float64{peakVal * width * math.Sqrt(2*math.Pi) * 5, peak, 5 * width}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, mu, sigma := x[0], x[1], x[2]
			scaler := alpha / (sigma * math.Sqrt(2*math.Pi))
			sumSqDiff := 0.0
			for i, y := range bins {
				xmusig := (binCenter(i, min, max, len(bins)) - mu) / sigma
				diff := float64(y) - scaler*math.Exp(-0.5*xmusig*xmusig)
				sumSqDiff += diff * diff
			}
			return math.Sqrt(sumSqDiff / float64(len(bins)))
		},
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, err
	}
	return result.X[1], math.Abs(result.X[2]), nil
}
