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

package grid

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/valyala/fastrand"
)

// Returns random samples and their big-endian encoding
func randomGrid(width, height int) ([]int16, []byte) {
	rng := fastrand.RNG{}
	rng.Seed(uint32(width*7919 + height))
	samples := make([]int16, width*height)
	raw := make([]byte, len(samples)*BytesPerSample)
	for i := range samples {
		samples[i] = int16(rng.Uint32n(1 << 16))
		binary.BigEndian.PutUint16(raw[i*2:], uint16(samples[i]))
	}
	return samples, raw
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fileName, data, 0666); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func checkSamples(t *testing.T, g Grid, samples []int16) {
	t.Helper()
	for row := 0; row < g.Height(); row++ {
		for col := 0; col < g.Width(); col++ {
			got, err := g.Sample(row, col)
			if err != nil {
				t.Fatalf("Sample(%d,%d): %s", row, col, err)
			}
			if want := samples[row*g.Width()+col]; got != want {
				t.Fatalf("Sample(%d,%d)=%d; want %d", row, col, got, want)
			}
		}
	}
}

func TestFileAndMemoryAgree(t *testing.T) {
	width, height := 13, 7
	samples, raw := randomGrid(width, height)
	fileName := writeFile(t, "grid.img", raw)

	f, err := OpenFile(fileName, width, height)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.Size() != int64(len(raw)) {
		t.Errorf("Size()=%d; want %d", f.Size(), len(raw))
	}
	checkSamples(t, f, samples)

	m, err := Load(fileName, width, height)
	if err != nil {
		t.Fatal(err)
	}
	checkSamples(t, m, samples)
	checkSamples(t, NewMemory(raw, width, height), samples)
}

func TestBigEndianDecoding(t *testing.T) {
	raw := []byte{0x00, 0x01, 0xff, 0xff, 0x80, 0x00, 0x7f, 0xff}
	g := NewMemory(raw, 4, 1)
	for col, want := range []int16{1, -1, -32768, 32767} {
		if got, _ := g.Sample(0, col); got != want {
			t.Errorf("Sample(0,%d)=%d; want %d", col, got, want)
		}
	}
}

func TestOpenGzip(t *testing.T) {
	width, height := 9, 5
	samples, raw := randomGrid(width, height)
	fileName := writeFile(t, "grid.img.gz", gzipped(t, raw))

	g, err := Open(fileName, width, height, ModeAuto, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	if _, ok := g.(*Memory); !ok {
		t.Errorf("gzip grid opened as %T; want *Memory", g)
	}
	checkSamples(t, g, samples)

	if _, err := Open(fileName, width, height, ModeNever, io.Discard); err == nil {
		t.Errorf("streaming a gzip grid succeeded")
	}
}

func TestOpenModes(t *testing.T) {
	_, raw := randomGrid(4, 4)
	fileName := writeFile(t, "grid.img", raw)

	g, err := Open(fileName, 4, 4, ModeAuto, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*File); !ok {
		t.Errorf("ModeAuto opened %T; want *File", g)
	}
	g.Close()

	g, err = Open(fileName, 4, 4, ModeAlways, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*Memory); !ok {
		t.Errorf("ModeAlways opened %T; want *Memory", g)
	}
	g.Close()

	if _, err := Open(fileName, 0, 4, ModeAuto, io.Discard); err == nil {
		t.Errorf("zero width accepted")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.img"), 4, 4, ModeAuto, io.Discard); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err=%v; want ErrNotExist", err)
	}
	if Mode("sometimes").Valid() {
		t.Errorf("unknown mode valid")
	}
}

func TestShortSource(t *testing.T) {
	width, height := 4, 4
	_, raw := randomGrid(width, height)
	short := raw[:len(raw)-3] // last sample complete is (3,1)
	fileName := writeFile(t, "short.img", short)

	f, err := OpenFile(fileName, width, height)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	m := NewMemory(short, width, height)

	for _, g := range []Grid{f, m} {
		if _, err := g.Sample(3, 1); err != nil {
			t.Errorf("%T: Sample(3,1): %s", g, err)
		}
		_, err := g.Sample(3, 2)
		var re *RangeError
		if !errors.As(err, &re) {
			t.Fatalf("%T: Sample(3,2) err=%v; want *RangeError", g, err)
		}
		if re.Offset != Offset(width, 3, 2) || re.Row != 3 || re.Col != 2 {
			t.Errorf("%T: RangeError %+v", g, re)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(21600, 2, 3); got != (2*21600+3)*2 {
		t.Errorf("Offset=%d; want %d", got, (2*21600+3)*2)
	}
	if got := Bytes(21600, 17280); got != 746496000 {
		t.Errorf("Bytes=%d; want 746496000", got)
	}
}
