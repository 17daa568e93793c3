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

package convert

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mlnoga/gravmap/internal/bitmap"
	"github.com/mlnoga/gravmap/internal/grid"
)

// Dimensions of the global 1 minute gravity grids from V16.1 onwards.
// Latitude range is -80.738 to 80.738 in spherical Mercator projection
const (
	DefaultGridWidth  = 21600
	DefaultGridHeight = 17280
)

// Settings for one conversion
type Config struct {
	SourcePath    string               `json:"sourcePath"`
	DestPath      string               `json:"destPath"`
	GridWidth     int                  `json:"gridWidth"`    // NLON, samples per row
	GridHeight    int                  `json:"gridHeight"`   // NLAT, rows
	InverseScale  int                  `json:"inverseScale"` // even. Output is 2/InverseScale of the grid in each direction
	DPI           bitmap.DPI           `json:"dpi"`
	ImageSizeMode bitmap.ImageSizeMode `json:"imageSizeMode"`
	InMemory      grid.Mode            `json:"inMemory"`
}

// Returns the default configuration: full resolution at 72 dpi
func NewConfig(sourcePath, destPath string) *Config {
	return &Config{
		SourcePath:    sourcePath,
		DestPath:      destPath,
		GridWidth:     DefaultGridWidth,
		GridHeight:    DefaultGridHeight,
		InverseScale:  2,
		DPI:           72,
		ImageSizeMode: bitmap.ImageSizePixels,
		InMemory:      grid.ModeAuto,
	}
}

// Reads a configuration from a JSON file. Unset fields keep their defaults
func LoadConfig(fileName string) (*Config, error) {
	b, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	c := NewConfig("", "")
	if err := json.Unmarshal(b, c); err != nil {
		return nil, &ConfigError{Field: "file", Value: fileName, Reason: err.Error()}
	}
	return c, nil
}

// Number of grid cells between consecutive output pixels, in each direction
func (c *Config) Step() int {
	return c.InverseScale / 2
}

// Returns the output geometry for the configuration
func (c *Config) Geometry() (bitmap.Geometry, error) {
	step := c.Step()
	if step <= 0 {
		return bitmap.Geometry{}, &ConfigError{Field: "inverseScale", Value: c.InverseScale, Reason: "must be at least 2"}
	}
	g, err := bitmap.NewGeometry(c.GridWidth/step, c.GridHeight/step)
	if err != nil {
		return g, &ConfigError{Field: "geometry", Value: [2]int{g.Width, g.Height}, Reason: err.Error(), Err: err}
	}
	return g, nil
}

// Checks the configuration before any file is touched
func (c *Config) Validate() error {
	if c.SourcePath == "" {
		return &ConfigError{Field: "sourcePath", Value: c.SourcePath, Reason: "required"}
	}
	if c.DestPath == "" {
		return &ConfigError{Field: "destPath", Value: c.DestPath, Reason: "required"}
	}
	if samePath(c.SourcePath, c.DestPath) {
		return &ConfigError{Field: "destPath", Value: c.DestPath, Reason: "must differ from the source"}
	}
	if c.GridWidth <= 0 {
		return &ConfigError{Field: "gridWidth", Value: c.GridWidth, Reason: "must be positive"}
	}
	if c.GridHeight <= 0 {
		return &ConfigError{Field: "gridHeight", Value: c.GridHeight, Reason: "must be positive"}
	}
	if c.InverseScale < 2 || c.InverseScale%2 != 0 {
		return &ConfigError{Field: "inverseScale", Value: c.InverseScale, Reason: "must be even and at least 2"}
	}
	if _, ok := c.DPI.PixelsPerMeter(); !ok {
		return &ConfigError{Field: "dpi", Value: c.DPI, Reason: "must be one of 72, 96, 150, 200 or 300"}
	}
	switch c.ImageSizeMode {
	case bitmap.ImageSizePixels, bitmap.ImageSizeBytes, "":
	default:
		return &ConfigError{Field: "imageSizeMode", Value: c.ImageSizeMode, Reason: "must be pixels or bytes"}
	}
	if !c.InMemory.Valid() {
		return &ConfigError{Field: "inMemory", Value: c.InMemory, Reason: "must be auto, always or never"}
	}
	_, err := c.Geometry()
	return err
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
