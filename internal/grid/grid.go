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

// Package grid reads raw gravity anomaly grids.
//
// A grid is a headerless flat file of 16-bit signed big-endian samples,
// row-major, width samples per row. See e.g.
// ftp://topex.ucsd.edu/pub/global_grav_1min/README.21.1 for the
// 21600x17280 global 1 minute grids in spherical Mercator projection.
package grid

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbnjay/memory"
)

const BytesPerSample = 2

// Random access to the samples of a grid
type Grid interface {
	Width() int  // samples per row
	Height() int // rows
	Size() int64 // bytes available from the source

	// Returns the sample at the given row and column. Fails with a
	// *RangeError if the source is too short to hold it
	Sample(row, col int) (int16, error)

	Close() error
}

// How samples are accessed
type Mode string

const (
	ModeAuto   Mode = "auto"   // stream from disk, load gzip sources into memory
	ModeAlways Mode = "always" // load the whole grid into memory
	ModeNever  Mode = "never"  // stream from disk, one read per sample
)

// Checks the mode is known
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeAlways, ModeNever, "":
		return true
	}
	return false
}

// The source holds fewer bytes than a sample requires
type RangeError struct {
	Path   string
	Row    int
	Col    int
	Offset int64 // byte offset of the sample
	Size   int64 // bytes available
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("grid %s: sample at row %d col %d (offset %d) beyond end of data (%d bytes)",
		e.Path, e.Row, e.Col, e.Offset, e.Size)
}

// Returns the byte offset of a sample in a grid of the given width
func Offset(width, row, col int) int64 {
	return (int64(row)*int64(width) + int64(col)) * BytesPerSample
}

// Bytes required to hold a grid of the given dimensions
func Bytes(width, height int) int64 {
	return int64(width) * int64(height) * BytesPerSample
}

// Returns true for gzip compressed file names, which cannot be read by offset
func IsCompressed(fileName string) bool {
	lower := strings.ToLower(fileName)
	return strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".gzip")
}

// Bytes of memory available for loading a grid, i.e. 70% of physical memory
func MemoryBudget() int64 {
	return int64(memory.TotalMemory() * 7 / 10)
}

// Opens a grid file with the given dimensions. Decompresses gzip if a .gz or .gzip suffix
// is present, which requires loading into memory
func Open(fileName string, width, height int, mode Mode, logWriter io.Writer) (Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid %s: invalid dimensions %dx%d", fileName, width, height)
	}
	compressed := IsCompressed(fileName)
	inMemory := mode == ModeAlways || (compressed && mode != ModeNever)
	if compressed && !inMemory {
		return nil, fmt.Errorf("grid %s: compressed grids must be loaded into memory", fileName)
	}

	if inMemory {
		need, budget := Bytes(width, height), MemoryBudget()
		if budget > 0 && need > budget {
			return nil, fmt.Errorf("grid %s: %d MiB needed, only %d MiB memory available", fileName, need>>20, budget>>20)
		}
		fmt.Fprintf(logWriter, "Loading %dx%d grid from %s into memory\n", width, height, fileName)
		m, err := Load(fileName, width, height)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	f, err := OpenFile(fileName, width, height)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// A grid read from disk one sample at a time. Memory use is constant in the grid size
type File struct {
	f      *os.File
	path   string
	width  int
	height int
	size   int64
	buf    [BytesPerSample]byte
}

// Opens a grid for streaming access
func OpenFile(fileName string, width, height int) (*File, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, path: fileName, width: width, height: height, size: fi.Size()}, nil
}

func (g *File) Width() int  { return g.width }
func (g *File) Height() int { return g.height }
func (g *File) Size() int64 { return g.size }

func (g *File) Sample(row, col int) (int16, error) {
	off := Offset(g.width, row, col)
	if off < 0 || off+BytesPerSample > g.size {
		return 0, &RangeError{Path: g.path, Row: row, Col: col, Offset: off, Size: g.size}
	}
	n, err := g.f.ReadAt(g.buf[:], off)
	if n < BytesPerSample {
		if err == nil || err == io.EOF {
			return 0, &RangeError{Path: g.path, Row: row, Col: col, Offset: off, Size: off + int64(n)}
		}
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(g.buf[:])), nil
}

func (g *File) Close() error {
	return g.f.Close()
}

// A grid held in memory
type Memory struct {
	path   string
	width  int
	height int
	data   []byte
}

// Creates an in-memory grid over raw big-endian sample data. Data is not copied
func NewMemory(data []byte, width, height int) *Memory {
	return &Memory{path: "memory", width: width, height: height, data: data}
}

// Loads a grid file into memory, decompressing gzip if needed. A source shorter than
// the grid dimensions is kept as is; samples beyond its end fail with a *RangeError
func Load(fileName string, width, height int) (*Memory, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if IsCompressed(fileName) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	data := make([]byte, Bytes(width, height))
	n, err := io.ReadFull(r, data)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("grid %s: %w", fileName, err)
	}
	return &Memory{path: fileName, width: width, height: height, data: data[:n]}, nil
}

func (g *Memory) Width() int  { return g.width }
func (g *Memory) Height() int { return g.height }
func (g *Memory) Size() int64 { return int64(len(g.data)) }

func (g *Memory) Sample(row, col int) (int16, error) {
	off := Offset(g.width, row, col)
	if off < 0 || off+BytesPerSample > int64(len(g.data)) {
		return 0, &RangeError{Path: g.path, Row: row, Col: col, Offset: off, Size: int64(len(g.data))}
	}
	return int16(binary.BigEndian.Uint16(g.data[off:])), nil
}

func (g *Memory) Close() error {
	g.data = nil
	return nil
}
