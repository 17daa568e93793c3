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
	"bufio"
	"fmt"
	"io"

	"github.com/mlnoga/gravmap/internal/palette"
)

const bufLen int = 64 * 1024 // output buffer length

// Streams a bitmap: header first, then pixels row by row. Appends the row
// padding after the last pixel of each row. Rows are stored in the order
// they are written, which the format interprets as bottom to top
type Writer struct {
	w       *bufio.Writer
	geom    Geometry
	row     []byte // current row including padding
	rowPos  int    // pixel bytes written to the current row
	rows    int    // completed rows
	written int64
}

// Writes the header for the given geometry to w and returns a writer for the pixel data
func NewWriter(w io.Writer, h *Header, g Geometry) (*Writer, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(w, bufLen)
	n, err := h.WriteTo(bw)
	if err != nil {
		return nil, err
	}
	return &Writer{
		w:       bw,
		geom:    g,
		row:     make([]byte, g.RowStride), // padding bytes stay zero
		written: n,
	}, nil
}

// Appends a pixel to the current row. Writes the row when it is complete
func (bw *Writer) WritePixel(p palette.Pixel) error {
	if bw.rows >= bw.geom.Height {
		return fmt.Errorf("bitmap: pixel beyond last row %d", bw.geom.Height)
	}
	bw.row[bw.rowPos] = p.B
	bw.row[bw.rowPos+1] = p.G
	bw.row[bw.rowPos+2] = p.R
	bw.rowPos += BytesPerPixel
	if bw.rowPos < bw.geom.RowBytes {
		return nil
	}

	n, err := bw.w.Write(bw.row)
	bw.written += int64(n)
	if err != nil {
		return err
	}
	bw.rowPos = 0
	bw.rows++
	return nil
}

// Returns the number of completed rows
func (bw *Writer) Rows() int {
	return bw.rows
}

// Returns the number of bytes handed to the underlying writer, including the header
func (bw *Writer) Written() int64 {
	return bw.written
}

// Flushes buffered data. Fails if the image is incomplete
func (bw *Writer) Flush() error {
	if err := bw.w.Flush(); err != nil {
		return err
	}
	if bw.rows != bw.geom.Height || bw.rowPos != 0 {
		return fmt.Errorf("bitmap: incomplete image, %d of %d rows written", bw.rows, bw.geom.Height)
	}
	return nil
}
