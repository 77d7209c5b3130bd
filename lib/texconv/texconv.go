// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package texconv wires the standard conversion graph: the in-process pixel
// converters plus the etcpack and astcenc tool edges.
package texconv

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hantempo/OGLImage/lib/convgraph"
	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/pixconv"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
	"github.com/hantempo/OGLImage/lib/tool"
)

// ToolConfig configures one external tool.
type ToolConfig struct {
	// Path is the executable, looked up in $PATH unless it contains a slash.
	Path string `yaml:"path"`
	// Timeout bounds each run. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
	// KeepScratch keeps each run's scratch directory.
	KeepScratch bool `yaml:"keep_scratch"`
}

// ASTCConfig configures astcenc.
type ASTCConfig struct {
	ToolConfig `yaml:",inline"`
	// Quality is the astcenc quality preset passed when encoding.
	Quality string `yaml:"quality"`
}

// Config configures the external tools of the standard graph.
type Config struct {
	// ScratchDir is the parent of the tools' scratch directories. Empty
	// means os.TempDir.
	ScratchDir string     `yaml:"scratch_dir"`
	ETCPack    ToolConfig `yaml:"etcpack"`
	ASTCEnc    ASTCConfig `yaml:"astcenc"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ETCPack: ToolConfig{
			Path:    "etcpack",
			Timeout: 2 * time.Minute,
		},
		ASTCEnc: ASTCConfig{
			ToolConfig: ToolConfig{
				Path:    "astcenc",
				Timeout: 5 * time.Minute,
			},
			Quality: "-thorough",
		},
	}
}

// ParseConfig reads a YAML configuration from r. Fields that r does not set
// keep their DefaultConfig values. Unknown fields are an error.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); (err != nil) && (err != io.EOF) {
		return Config{}, texerr.Wrap(texerr.BadArgument, "texconv.ParseConfig", err)
	}
	if cfg.ETCPack.Timeout < 0 || cfg.ASTCEnc.Timeout < 0 {
		return Config{}, texerr.New(texerr.BadArgument, "texconv.ParseConfig", "negative timeout")
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, texerr.Wrap(texerr.NotFound, "texconv.LoadConfig", err)
		}
		return Config{}, texerr.Wrap(texerr.BadArgument, "texconv.LoadConfig", err)
	}
	cfg, err := ParseConfig(bytes.NewReader(b))
	if err != nil {
		return Config{}, errors.WithMessage(err, path)
	}
	return cfg, nil
}

func (c ToolConfig) tool(name string, scratchDir string, logger *slog.Logger) *tool.Tool {
	return &tool.Tool{
		Name:        name,
		Path:        c.Path,
		Timeout:     c.Timeout,
		KeepScratch: c.KeepScratch,
		ScratchDir:  scratchDir,
		Logger:      logger,
	}
}

type toolEdge struct {
	src, dst            glformat.Format
	inputExt, outputExt string
	extra               string
}

// etcpack writes its output next to the directory argument, named after its
// input.
var etcpackEdges = []toolEdge{
	{glformat.RGB8, glformat.ETC1RGB8, ".ppm", ".ktx", "-c etc1"},
	{glformat.ETC1RGB8, glformat.RGB8, ".ktx", ".ppm", "-c etc1"},
	{glformat.RGB8, glformat.RGB8ETC2, ".ppm", ".ktx", ""},
	{glformat.RGB8ETC2, glformat.RGB8, ".ktx", ".ppm", ""},
	{glformat.RGBA8, glformat.RGB8PunchthroughAlpha1ETC2, ".tga", ".ktx", "-f RGBA1"},
	{glformat.RGB8PunchthroughAlpha1ETC2, glformat.RGBA8, ".ktx", ".tga", "-ext TGA"},
	{glformat.RGBA8, glformat.RGBA8ETC2EAC, ".tga", ".ktx", "-f RGBA8"},
	{glformat.RGBA8ETC2EAC, glformat.RGBA8, ".ktx", ".tga", "-ext TGA"},
}

// NewGraph builds the standard conversion graph. logger may be nil, which
// means to use slog.Default.
func NewGraph(cfg Config, logger *slog.Logger) (*convgraph.Graph, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := convgraph.NewBuilder(logger)
	for _, c := range pixconv.Standard() {
		if err := b.Register(c.Src, c.Dst, c); err != nil {
			return nil, err
		}
	}

	etcpack := cfg.ETCPack.tool("etcpack", cfg.ScratchDir, logger)
	for _, e := range etcpackEdges {
		args := append([]string{"{{.Input}}", "{{.OutputDir}}", "-ktx"}, strings.Fields(e.extra)...)
		c, err := tool.NewConverter(etcpack, e.src, e.dst, e.inputExt, e.outputExt, args...)
		if err != nil {
			return nil, err
		}
		if err := b.Register(e.src, e.dst, c); err != nil {
			return nil, err
		}
	}

	astcenc := cfg.ASTCEnc.tool("astcenc", cfg.ScratchDir, logger)
	quality := strings.Fields(cfg.ASTCEnc.Quality)
	for _, f := range glformat.Formats() {
		if _, _, ok := f.ASTCBlock(); !ok {
			continue
		}
		encArgs := append([]string{"-cl", "{{.Input}}", "{{.Output}}", "{{.BlockSize}}"}, quality...)
		enc, err := tool.NewConverter(astcenc, glformat.RGBA8, f, ".ktx", ".astc", encArgs...)
		if err != nil {
			return nil, err
		}
		if err := b.Register(glformat.RGBA8, f, enc); err != nil {
			return nil, err
		}

		dec, err := tool.NewConverter(astcenc, f, glformat.RGBA8, ".astc", ".ktx", "-dl", "{{.Input}}", "{{.Output}}")
		if err != nil {
			return nil, err
		}
		if err := b.Register(f, glformat.RGBA8, dec); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Convert converts m to dst through g. See convgraph.Graph.Convert.
func Convert(ctx context.Context, g *convgraph.Graph, m teximage.Image, dst glformat.Format) (teximage.Image, error) {
	if g == nil {
		return teximage.Image{}, texerr.New(texerr.BadArgument, "texconv.Convert", "nil graph")
	}
	return g.Convert(ctx, m, dst)
}
