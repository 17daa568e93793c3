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

// Package convert renders a gravity anomaly grid as a 24-bit bitmap.
//
// The grid is subsampled by skipping cells, i.e. nearest neighbour on both
// axes without averaging. Each visited sample is colored with the palette
// package and written immediately, so memory use does not depend on the
// grid size unless the grid is loaded into memory.
package convert

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mlnoga/gravmap/internal/bitmap"
	"github.com/mlnoga/gravmap/internal/grid"
	"github.com/mlnoga/gravmap/internal/palette"
	"github.com/mlnoga/gravmap/internal/stats"
)

// Outcome of a successful conversion
type Result struct {
	Config       Config          `json:"config"`
	Geometry     bitmap.Geometry `json:"geometry"`
	Header       bitmap.Header   `json:"header"`
	Stats        stats.Run       `json:"stats"`
	BytesWritten int64           `json:"bytesWritten"`
	Elapsed      time.Duration   `json:"elapsed"`
}

// Converts the configured grid into a bitmap file. Configuration errors are
// reported before any file is opened. On any later error the partially
// written destination file is removed. Both files are closed on every path
func Convert(cfg *Config, logWriter io.Writer) (res *Result, err error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	geom, _ := cfg.Geometry()
	header, err := bitmap.NewHeader(geom, cfg.DPI, cfg.ImageSizeMode)
	if err != nil {
		return nil, &ConfigError{Field: "header", Value: cfg.DPI, Reason: err.Error(), Err: err}
	}
	step := cfg.Step()

	fmt.Fprintf(logWriter, "Converting %dx%d grid %s to %dx%d bitmap %s, every %d. cell\n",
		cfg.GridWidth, cfg.GridHeight, cfg.SourcePath, geom.Width, geom.Height, cfg.DestPath, step)
	fmt.Fprintf(logWriter, "row bytes %d, without padding %d, pixels %d\n", geom.RowStride, geom.RowBytes, geom.Pixels())
	header.Describe(logWriter)

	src, err := grid.Open(cfg.SourcePath, cfg.GridWidth, cfg.GridHeight, cfg.InMemory, logWriter)
	if err != nil {
		return nil, &IOError{Op: "open", Path: cfg.SourcePath, Offset: -1, Err: err}
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			res, err = nil, &IOError{Op: "close", Path: cfg.SourcePath, Offset: -1, Err: cerr}
		}
	}()

	// Fail before creating the destination if the source cannot hold the last visited sample
	lastRow, lastCol := (geom.Height-1)*step, (geom.Width-1)*step
	if lastOff := grid.Offset(cfg.GridWidth, lastRow, lastCol); lastOff+grid.BytesPerSample > src.Size() {
		return nil, &IOError{Op: "read", Path: cfg.SourcePath, Offset: lastOff, Err: &grid.RangeError{
			Path: cfg.SourcePath, Row: lastRow, Col: lastCol, Offset: lastOff, Size: src.Size(),
		}}
	}

	dest, err := os.Create(cfg.DestPath)
	if err != nil {
		return nil, &IOError{Op: "create", Path: cfg.DestPath, Offset: -1, Err: err}
	}
	closed := false
	defer func() {
		if !closed {
			dest.Close()
		}
		if err != nil {
			if rerr := os.Remove(cfg.DestPath); rerr != nil && !os.IsNotExist(rerr) {
				fmt.Fprintf(logWriter, "Unable to remove partial output %s: %s\n", cfg.DestPath, rerr)
			}
		}
	}()

	bw, err := bitmap.NewWriter(dest, header, geom)
	if err != nil {
		return nil, &IOError{Op: "write", Path: cfg.DestPath, Offset: 0, Err: err}
	}

	var run stats.Run
	for row := 0; row < geom.Height; row++ {
		srcRow := row * step
		for col := 0; col < geom.Width; col++ {
			srcCol := col * step
			z, err := src.Sample(srcRow, srcCol)
			if err != nil {
				return nil, &IOError{Op: "read", Path: cfg.SourcePath, Offset: grid.Offset(cfg.GridWidth, srcRow, srcCol), Err: err}
			}
			run.Add(z)
			if err := bw.WritePixel(palette.MapSample(z)); err != nil {
				return nil, &IOError{Op: "write", Path: cfg.DestPath, Offset: bw.Written(), Err: err}
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, &IOError{Op: "flush", Path: cfg.DestPath, Offset: bw.Written(), Err: err}
	}
	closed = true
	if err := dest.Close(); err != nil {
		return nil, &IOError{Op: "close", Path: cfg.DestPath, Offset: -1, Err: err}
	}

	res = &Result{
		Config:       *cfg,
		Geometry:     geom,
		Header:       *header,
		Stats:        run,
		BytesWritten: bw.Written(),
		Elapsed:      time.Since(start),
	}
	run.Describe(logWriter)
	fmt.Fprintf(logWriter, "Wrote %d bytes to %s in %v\n", res.BytesWritten, cfg.DestPath, res.Elapsed)
	return res, nil
}
