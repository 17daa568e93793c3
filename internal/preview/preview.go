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

// Package preview derives small JPEG and TIFF images from a gravity bitmap.
package preview

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Interpolation used for downscaling, by name
var Interpolators = map[string]draw.Interpolator{
	"nearest":  draw.NearestNeighbor,
	"bilinear": draw.ApproxBiLinear,
	"catmull":  draw.CatmullRom,
}

// Reads a bitmap file
func Decode(fileName string) (image.Image, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := bmp.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fileName, err)
	}
	return img, nil
}

// Scales the image down to at most maxWidth pixels wide, preserving the aspect ratio.
// Images which are narrow enough, or a non-positive maxWidth, are returned unchanged
func Scale(img image.Image, maxWidth int, interp draw.Interpolator) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	if interp == nil {
		interp = draw.NearestNeighbor
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	interp.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Reads a bitmap file and scales it down to at most maxWidth pixels wide
func Load(fileName string, maxWidth int, interp draw.Interpolator) (image.Image, error) {
	img, err := Decode(fileName)
	if err != nil {
		return nil, err
	}
	return Scale(img, maxWidth, interp), nil
}

// Write an image to JPG with the given quality
func WriteJPGToFile(img image.Image, fileName string, quality int) error {
	return writeFile(fileName, func(w io.Writer) error { return WriteJPG(w, img, quality) })
}

// Write an image to JPG with the given quality
func WriteJPG(writer io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

// Write an image to 16-bit TIFF
func WriteTIFF16ToFile(img image.Image, fileName string) error {
	return writeFile(fileName, func(w io.Writer) error { return WriteTIFF16(w, img) })
}

// Write an image to 16-bit TIFF with deflate compression
func WriteTIFF16(writer io.Writer, img image.Image) error {
	b := img.Bounds()
	img16 := image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBA64Model.Convert(img.At(x, y)).(color.RGBA64)
			img16.SetRGBA64(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return tiff.Encode(writer, img16, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

func writeFile(fileName string, encode func(io.Writer) error) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := encode(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return file.Close()
}
