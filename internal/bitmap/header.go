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

package bitmap

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Resolution of the output in dots per inch
type DPI int

// Horizontal and vertical resolution in pixels per meter, for the supported DPI values.
// 1 pixel/inch = 39.37007874016 pixels/meter
var pixelsPerMeter = map[DPI]uint32{
	72:  2835,
	96:  3780,
	150: 5906,
	200: 7874,
	300: 11811,
}

// Returns the resolution in pixels per meter, or false if the DPI value is unsupported
func (d DPI) PixelsPerMeter() (uint32, bool) {
	ppm, ok := pixelsPerMeter[d]
	return ppm, ok
}

// Returns the supported DPI values in ascending order
func SupportedDPIs() []DPI {
	return []DPI{72, 96, 150, 200, 300}
}

// How the image size field of the info header is filled
type ImageSizeMode string

const (
	// Number of pixels, width*height. Matches the output of the original
	// gravity map converter, which downstream tools may rely on
	ImageSizePixels ImageSizeMode = "pixels"

	// Size of the padded pixel array in bytes, as the format defines it
	ImageSizeBytes ImageSizeMode = "bytes"
)

// The bitmap file header and the BITMAPINFOHEADER, field by field.
// Immutable once created
type Header struct {
	Signature       [2]byte `json:"-"`
	FileSize        uint32  `json:"fileSize"`
	Reserved        uint32  `json:"reserved"`
	PixelOffset     uint32  `json:"pixelOffset"`
	InfoSize        uint32  `json:"infoSize"`
	Width           uint32  `json:"width"`
	Height          uint32  `json:"height"` // positive, i.e. rows stored bottom-up
	Planes          uint16  `json:"planes"`
	BitsPerPixel    uint16  `json:"bitsPerPixel"`
	Compression     uint32  `json:"compression"`
	ImageSize       uint32  `json:"imageSize"`
	XPixelsPerM     uint32  `json:"xPixelsPerMeter"`
	YPixelsPerM     uint32  `json:"yPixelsPerMeter"`
	ColorsUsed      uint32  `json:"colorsUsed"`
	ColorsImportant uint32  `json:"colorsImportant"`
}

// Creates the header for the given geometry and resolution
func NewHeader(g Geometry, dpi DPI, mode ImageSizeMode) (*Header, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	ppm, ok := dpi.PixelsPerMeter()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported resolution %d dpi", ErrGeometry, dpi)
	}
	var imageSize uint32
	switch mode {
	case ImageSizePixels, "":
		imageSize = uint32(g.Pixels())
	case ImageSizeBytes:
		imageSize = uint32(g.PixelBytes)
	default:
		return nil, fmt.Errorf("%w: unknown image size mode '%s'", ErrGeometry, mode)
	}

	return &Header{
		Signature:    [2]byte{'B', 'M'},
		FileSize:     uint32(g.FileSize),
		Reserved:     0,
		PixelOffset:  HeaderSize,
		InfoSize:     InfoHeaderSize,
		Width:        uint32(g.Width),
		Height:       uint32(g.Height),
		Planes:       Planes,
		BitsPerPixel: BitsPerPixel,
		Compression:  Compression,
		ImageSize:    imageSize,
		XPixelsPerM:  ppm,
		YPixelsPerM:  ppm,
	}, nil
}

// Returns the 54 header bytes, all multi-byte fields little-endian and packed
func (h *Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	le := binary.LittleEndian

	b[0], b[1] = h.Signature[0], h.Signature[1]
	le.PutUint32(b[2:], h.FileSize)
	le.PutUint32(b[6:], h.Reserved)
	le.PutUint32(b[10:], h.PixelOffset)

	le.PutUint32(b[14:], h.InfoSize)
	le.PutUint32(b[18:], h.Width)
	le.PutUint32(b[22:], h.Height)
	le.PutUint16(b[26:], h.Planes)
	le.PutUint16(b[28:], h.BitsPerPixel)
	le.PutUint32(b[30:], h.Compression)
	le.PutUint32(b[34:], h.ImageSize)
	le.PutUint32(b[38:], h.XPixelsPerM)
	le.PutUint32(b[42:], h.YPixelsPerM)
	le.PutUint32(b[46:], h.ColorsUsed)
	le.PutUint32(b[50:], h.ColorsImportant)
	return b, nil
}

// Writes the header bytes to w
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	b, _ := h.MarshalBinary()
	n, err := w.Write(b)
	return int64(n), err
}

// Prints all header fields, one per line
func (h *Header) Describe(w io.Writer) {
	fmt.Fprintf(w, "file header signature: %c%c\n", h.Signature[0], h.Signature[1])
	fmt.Fprintf(w, "file header file size: %d\n", h.FileSize)
	fmt.Fprintf(w, "file header reserved: %d\n", h.Reserved)
	fmt.Fprintf(w, "file header offset to pixel array: %d\n", h.PixelOffset)
	fmt.Fprintf(w, "info header size: %d\n", h.InfoSize)
	fmt.Fprintf(w, "info header width: %d\n", h.Width)
	fmt.Fprintf(w, "info header height: %d\n", h.Height)
	fmt.Fprintf(w, "info header color planes: %d\n", h.Planes)
	fmt.Fprintf(w, "info header bits per pixel: %d\n", h.BitsPerPixel)
	fmt.Fprintf(w, "info header compression: %d\n", h.Compression)
	fmt.Fprintf(w, "info header image size: %d\n", h.ImageSize)
	fmt.Fprintf(w, "info header x pixels per meter: %d\n", h.XPixelsPerM)
	fmt.Fprintf(w, "info header y pixels per meter: %d\n", h.YPixelsPerM)
	fmt.Fprintf(w, "info header colors in palette: %d\n", h.ColorsUsed)
	fmt.Fprintf(w, "info header important colors: %d\n", h.ColorsImportant)
}
