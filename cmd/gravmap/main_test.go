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

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mlnoga/gravmap/internal/convert"
	"github.com/mlnoga/gravmap/internal/grid"
)

func TestAutoName(t *testing.T) {
	tests := []struct{ name, out, ext, want string }{
		{"%auto", "grav.bmp", ".log", "grav.log"},
		{"%auto", "maps/grav", ".jpg", "maps/grav.jpg"},
		{"%auto", "", ".log", ""},
		{"run.log", "grav.bmp", ".log", "run.log"},
		{"", "grav.bmp", ".tif", ""},
	}
	for _, test := range tests {
		if got := autoName(test.name, test.out, test.ext); got != test.want {
			t.Errorf("autoName(%q,%q,%q)=%q; want %q", test.name, test.out, test.ext, got, test.want)
		}
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("in", "", "")
	fs.String("out", "out.bmp", "")
	fs.Int("width", convert.DefaultGridWidth, "")
	fs.Int("height", convert.DefaultGridHeight, "")
	fs.Int("scale", 2, "")
	fs.Int("dpi", 72, "")
	fs.String("imageSize", "pixels", "")
	fs.String("inMemory", "auto", "")
	return fs
}

func TestBuildConfigFromFlags(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Parse([]string{"-in", "grav.img", "-scale", "8", "-dpi", "300", "-inMemory", "never"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(fs, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourcePath != "grav.img" || cfg.DestPath != "out.bmp" || cfg.InverseScale != 8 ||
		cfg.DPI != 300 || cfg.InMemory != grid.ModeNever || cfg.GridWidth != convert.DefaultGridWidth {
		t.Errorf("config %+v", cfg)
	}
}

func TestBuildConfigFileOverriddenByFlags(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "cfg.json")
	json := `{"sourcePath":"a.img","destPath":"a.bmp","gridWidth":100,"gridHeight":50,"inverseScale":4,"dpi":150}`
	if err := os.WriteFile(fileName, []byte(json), 0666); err != nil {
		t.Fatal(err)
	}
	fs := newFlagSet()
	if err := fs.Parse([]string{"-out", "b.bmp", "-dpi", "96"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(fs, fileName)
	if err != nil {
		t.Fatal(err)
	}
	// flags left at their defaults do not override the file
	if cfg.SourcePath != "a.img" || cfg.DestPath != "b.bmp" || cfg.GridWidth != 100 ||
		cfg.InverseScale != 4 || cfg.DPI != 96 {
		t.Errorf("config %+v", cfg)
	}

	if _, err := buildConfig(fs, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("missing config file accepted")
	}
}
