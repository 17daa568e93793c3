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

package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/gravmap/internal/convert"
	"github.com/mlnoga/gravmap/internal/grid"
	"github.com/mlnoga/gravmap/internal/palette"
	"github.com/mlnoga/gravmap/internal/stats"
	"github.com/mlnoga/gravmap/web"
)

const defaultSamples = 100000

// Returns the HTTP API router
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/legend", getLegend)
			v1.POST("/convert", postConvert)
			v1.POST("/stats", postStats)
		}
	}
	return r
}

// Serves the HTTP API on the given address, e.g. ":8080". Blocks
func Serve(addr string) error {
	return NewRouter().Run(addr)
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func getLegend(c *gin.Context) {
	c.JSON(http.StatusOK, palette.Legend())
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}

var errPathNotAllowed = errors.New("path outside current directory tree")

func checkPaths(paths ...string) error {
	for _, p := range paths {
		if !isPathAllowed(p) {
			return fmt.Errorf("%w: %s", errPathNotAllowed, p)
		}
	}
	return nil
}

// Runs a conversion, streaming the log as plain text.
// Unset fields of the request keep their defaults
func postConvert(c *gin.Context) {
	args := convert.NewConfig("", "")
	if err := c.ShouldBindJSON(args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := checkPaths(args.SourcePath, args.DestPath); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if err := args.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logWriter := c.Writer
	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err := printArgs(logWriter, "Arguments:\n", "\n", args); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	if _, err := convert.Convert(args, logWriter); err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.Flush()
}

type postStatsArgs struct {
	SourcePath string    `json:"sourcePath"`
	GridWidth  int       `json:"gridWidth"`
	GridHeight int       `json:"gridHeight"`
	InMemory   grid.Mode `json:"inMemory"`
	Samples    int       `json:"samples"`
	Seed       uint32    `json:"seed"`
}

// Estimates grid statistics from random samples and returns them as JSON
func postStats(c *gin.Context) {
	args := postStatsArgs{
		GridWidth:  convert.DefaultGridWidth,
		GridHeight: convert.DefaultGridHeight,
		InMemory:   grid.ModeAuto,
		Samples:    defaultSamples,
		Seed:       1,
	}
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if args.SourcePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sourcePath required"})
		return
	}
	if err := checkPaths(args.SourcePath); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if !args.InMemory.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid inMemory mode %q", args.InMemory)})
		return
	}

	g, err := grid.Open(args.SourcePath, args.GridWidth, args.GridHeight, args.InMemory, io.Discard)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer g.Close()

	s, err := stats.Sample(g, args.Samples, args.Seed)
	if err != nil {
		var re *grid.RangeError
		status := http.StatusInternalServerError
		if errors.As(err, &re) || args.Samples <= 0 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}
