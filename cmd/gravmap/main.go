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
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	gm "github.com/mlnoga/gravmap/internal"
	"github.com/mlnoga/gravmap/internal/bitmap"
	"github.com/mlnoga/gravmap/internal/convert"
	"github.com/mlnoga/gravmap/internal/grid"
	"github.com/mlnoga/gravmap/internal/palette"
	"github.com/mlnoga/gravmap/internal/preview"
	"github.com/mlnoga/gravmap/internal/rest"
	"github.com/mlnoga/gravmap/internal/stats"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var configFile = flag.String("config", "", "load conversion settings from JSON `file`. Flags given explicitly override it")
var settings = flag.Bool("settings", false, "print the effective conversion settings as JSON before running")

var in = flag.String("in", "", "read gravity grid from `file`, raw big-endian int16. A .gz suffix selects gzip")
var out = flag.String("out", "out.bmp", "save bitmap to `file`")
var width = flag.Int("width", convert.DefaultGridWidth, "grid width in samples per row")
var height = flag.Int("height", convert.DefaultGridHeight, "grid height in rows")
var scale = flag.Int("scale", 2, "inverse scale, even and at least 2. Every scale/2-th cell of every scale/2-th row is drawn")
var dpi = flag.Int("dpi", 72, "bitmap resolution in dots per inch, one of 72, 96, 150, 200, 300")
var imageSize = flag.String("imageSize", string(bitmap.ImageSizePixels), "header image size field: pixels (pixel count) or bytes (pixel array size)")
var inMemory = flag.String("inMemory", string(grid.ModeAuto), "load grid into memory: auto, always or never")

var logName = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var jpg = flag.String("jpg", "", "save 8bit preview of output as JPEG to `file`. `%auto` replaces suffix of output file with .jpg")
var tif = flag.String("tiff", "", "save 16bit preview of output as TIFF to `file`. `%auto` replaces suffix of output file with .tif")
var previewWidth = flag.Int("previewWidth", 2048, "maximum preview width in pixels, 0=full size")
var previewInterp = flag.String("previewInterp", "nearest", "preview scaling: nearest, bilinear or catmull")
var jpgQuality = flag.Int("jpgQuality", 95, "JPEG preview quality in [1,100]")

var samples = flag.Int("samples", 100000, "number of random cells to sample for stats")
var seed = flag.Uint("seed", 1, "random seed for stats")

var addr = flag.String("addr", ":8080", "listen on `address` for serve")
var chroot = flag.String("chroot", "", "serve: change filesystem root to `dir` before serving (requires root)")
var setuid = flag.Int("setuid", -1, "serve: change user id to `uid` before serving, -1=keep")

func main() {
	logWriter := gm.LogWriter
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(os.Stdout, `Gravmap Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (convert|stats|legend|serve|legal|version) [in.img [out.bmp]]

Commands:
  convert Render a gravity anomaly grid as 24-bit bitmap
  stats   Show statistics of randomly sampled grid cells
  legend  Show the color ramp
  serve   Serve the HTTP API
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}
	// positional file names count as explicitly set flags
	if len(args) > 1 {
		flag.Set("in", args[1])
	}
	if len(args) > 2 {
		flag.Set("out", args[2])
	}

	// Initialize logging to file in addition to stdout, if selected
	if args[0] != "convert" && *logName == "%auto" {
		*logName = ""
	}
	*logName = autoName(*logName, *out, ".log")
	if *logName != "" {
		if err := gm.LogAlsoToFile(*logName); err != nil {
			gm.LogFatalf("Unable to open logfile '%s': %s\n", *logName, err)
		}
	}
	*jpg = autoName(*jpg, *out, ".jpg")
	*tif = autoName(*tif, *out, ".tif")

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			gm.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			gm.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	var err error
	switch args[0] {
	case "convert":
		printMachine(logWriter)
		err = cmdConvert(logWriter)

	case "stats":
		printMachine(logWriter)
		err = cmdStats(logWriter)

	case "legend":
		err = palette.WriteLegend(logWriter)

	case "serve":
		if err = rest.MakeSandbox(*chroot, *setuid, logWriter); err == nil {
			fmt.Fprintf(logWriter, "Serving HTTP API on %s\n", *addr)
			err = rest.Serve(*addr)
		}

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
		printMachine(logWriter)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start))

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			gm.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			gm.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		gm.LogFatalf("Error: %s\n", err.Error())
	}
	gm.LogSync()
}

// Resolves a %auto file name by replacing the suffix of the output file name with ext
func autoName(name, out, ext string) string {
	if name != "%auto" {
		return name
	}
	if out == "" {
		return ""
	}
	return strings.TrimSuffix(out, filepath.Ext(out)) + ext
}

// Returns the conversion settings: defaults, overridden by the config file
// if given, overridden by flags. With a config file only explicitly set flags apply
func buildConfig(fs *flag.FlagSet, configFile string) (*convert.Config, error) {
	cfg := convert.NewConfig("", "")
	if configFile != "" {
		var err error
		if cfg, err = convert.LoadConfig(configFile); err != nil {
			return nil, err
		}
	}
	apply := func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "in":
			cfg.SourcePath = v.(string)
		case "out":
			cfg.DestPath = v.(string)
		case "width":
			cfg.GridWidth = v.(int)
		case "height":
			cfg.GridHeight = v.(int)
		case "scale":
			cfg.InverseScale = v.(int)
		case "dpi":
			cfg.DPI = bitmap.DPI(v.(int))
		case "imageSize":
			cfg.ImageSizeMode = bitmap.ImageSizeMode(v.(string))
		case "inMemory":
			cfg.InMemory = grid.Mode(v.(string))
		}
	}
	if configFile != "" {
		fs.Visit(apply)
	} else {
		fs.VisitAll(apply)
	}
	return cfg, nil
}

func cmdConvert(logWriter io.Writer) error {
	cfg, err := buildConfig(flag.CommandLine, *configFile)
	if err != nil {
		return err
	}
	if *settings {
		m, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(logWriter, "Converting with these settings:\n%s\n", string(m))
	}
	if _, err := convert.Convert(cfg, logWriter); err != nil {
		return err
	}
	return writePreviews(cfg.DestPath, logWriter)
}

func writePreviews(bmpName string, logWriter io.Writer) error {
	if *jpg == "" && *tif == "" {
		return nil
	}
	interp, ok := preview.Interpolators[*previewInterp]
	if !ok {
		return fmt.Errorf("unknown preview interpolation '%s'", *previewInterp)
	}
	img, err := preview.Load(bmpName, *previewWidth, interp)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if *jpg != "" {
		fmt.Fprintf(logWriter, "Writing %dx%d JPEG preview to %s\n", b.Dx(), b.Dy(), *jpg)
		if err := preview.WriteJPGToFile(img, *jpg, *jpgQuality); err != nil {
			return err
		}
	}
	if *tif != "" {
		fmt.Fprintf(logWriter, "Writing %dx%d TIFF preview to %s\n", b.Dx(), b.Dy(), *tif)
		if err := preview.WriteTIFF16ToFile(img, *tif); err != nil {
			return err
		}
	}
	return nil
}

func cmdStats(logWriter io.Writer) error {
	cfg, err := buildConfig(flag.CommandLine, *configFile)
	if err != nil {
		return err
	}
	if cfg.SourcePath == "" {
		return fmt.Errorf("no grid given, use -in")
	}
	if !cfg.InMemory.Valid() {
		return fmt.Errorf("invalid inMemory mode '%s'", cfg.InMemory)
	}
	g, err := grid.Open(cfg.SourcePath, cfg.GridWidth, cfg.GridHeight, cfg.InMemory, logWriter)
	if err != nil {
		return err
	}
	defer g.Close()

	fmt.Fprintf(logWriter, "Sampling %d cells of %dx%d grid %s\n", *samples, cfg.GridWidth, cfg.GridHeight, cfg.SourcePath)
	s, err := stats.Sample(g, *samples, uint32(*seed))
	if err != nil {
		return err
	}
	s.Describe(logWriter)
	return nil
}

// Prints CPU and memory of the machine
func printMachine(logWriter io.Writer) {
	fmt.Fprintf(logWriter, "%s, %d physical cores, %d logical cores, AVX2 %v\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.AVX2())
	fmt.Fprintf(logWriter, "%d MiB physical memory, %d MiB available for in-memory grids\n",
		memory.TotalMemory()>>20, grid.MemoryBudget()>>20)
}
