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

// Package bitmap writes 24-bit uncompressed BMP files.
// Format reference: https://learn.microsoft.com/en-us/windows/win32/gdi/bitmap-storage
package bitmap

import (
	"errors"
	"fmt"
	"math"
)

const (
	BitsPerPixel  = 24
	BytesPerPixel = BitsPerPixel / 8
	Planes        = 1
	Compression   = 0 // BI_RGB, uncompressed

	FileHeaderSize = 14
	InfoHeaderSize = 40
	HeaderSize     = FileHeaderSize + InfoHeaderSize
)

var ErrGeometry = errors.New("invalid bitmap geometry")

// Derived layout of the output image. All sizes in bytes unless noted
type Geometry struct {
	Width        int   `json:"width"`  // pixels
	Height       int   `json:"height"` // pixels
	BitsPerPixel int   `json:"bitsPerPixel"`
	RowBytes     int   `json:"rowBytes"`  // pixel bytes per row, without padding
	RowStride    int   `json:"rowStride"` // bytes per row, padded to a multiple of 4
	PixelBytes   int64 `json:"pixelBytes"`
	FileSize     int64 `json:"fileSize"`
}

// Computes the geometry of a 24-bit bitmap with the given dimensions in pixels
func NewGeometry(width, height int) (Geometry, error) {
	g := Geometry{Width: width, Height: height, BitsPerPixel: BitsPerPixel}
	if width <= 0 || height <= 0 {
		return g, fmt.Errorf("%w: %dx%d pixels", ErrGeometry, width, height)
	}
	// rows are padded to a 32-bit boundary
	g.RowStride = ((BitsPerPixel*width + 31) / 32) * 4
	g.RowBytes = (BitsPerPixel * width) / 8
	g.PixelBytes = int64(g.RowStride) * int64(height)
	g.FileSize = HeaderSize + g.PixelBytes
	return g, g.Validate()
}

// Number of zero bytes appended to each row
func (g Geometry) Padding() int {
	return g.RowStride - g.RowBytes
}

// Number of pixels in the image
func (g Geometry) Pixels() int64 {
	return int64(g.Width) * int64(g.Height)
}

// Checks the invariants of the geometry, i.e. a supported pixel format,
// positive dimensions, row padding in [0,4), and a file size representable in the header
func (g Geometry) Validate() error {
	if g.BitsPerPixel != BitsPerPixel {
		return fmt.Errorf("%w: %d bits per pixel, only %d is supported", ErrGeometry, g.BitsPerPixel, BitsPerPixel)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d pixels", ErrGeometry, g.Width, g.Height)
	}
	if p := g.Padding(); p < 0 || p >= 4 {
		return fmt.Errorf("%w: %d padding bytes for row stride %d and row width %d", ErrGeometry, p, g.RowStride, g.RowBytes)
	}
	if g.RowStride%4 != 0 {
		return fmt.Errorf("%w: row stride %d is not a multiple of 4", ErrGeometry, g.RowStride)
	}
	if g.FileSize > math.MaxUint32 || g.Pixels() > math.MaxUint32 || g.Width > math.MaxInt32 || g.Height > math.MaxInt32 {
		return fmt.Errorf("%w: %dx%d pixels exceed the 32-bit header fields", ErrGeometry, g.Width, g.Height)
	}
	return nil
}
