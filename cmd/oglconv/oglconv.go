// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// oglconv converts texture images between OpenGL internal formats.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/hantempo/OGLImage/lib/convgraph"
	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/imagefile"
	"github.com/hantempo/OGLImage/lib/texconv"
	"github.com/hantempo/OGLImage/lib/texfile"
	"github.com/hantempo/OGLImage/lib/teximage"
)

var (
	inFlag      = flag.String("in", "", "input file")
	outFlag     = flag.String("out", "", "output file")
	formatFlag  = flag.String("format", "", "output internal format")
	configFlag  = flag.String("config", "", "tool configuration file (YAML)")
	resizeFlag  = flag.String("resize", "", "resize the input to WxH before converting")
	verboseFlag = flag.Bool("v", false, "log at debug level")
	infoFlag    = flag.String("info", "", "print a file's image header")
	listFlag    = flag.Bool("list", false, "list the registered conversions")
)

const usageStr = `oglconv converts texture images between OpenGL internal formats.

Usage: choose one of

    oglconv -in src.png -out dst.ktx -format GL_ETC1_RGB8_OES
    oglconv -info file.ktx
    oglconv -list

When converting you can also pass these flags:

    -config=tools.yaml  configures the etcpack and astcenc tools
    -resize=WxH         resizes the input first; a zero W or H keeps the
                        aspect ratio
    -v                  logs each conversion step and tool command

The file extension picks the container: .ktx, .astc, .pkm or a generic image
(.bmp, .nie, .png, .ppm, .tga, .tif, .tiff; .gif, .jpg, .jpeg and .webp are
read only). A further .zst or .lz4 extension compresses the container.

Formats are named by their GL enum name (GL_RGBA8) or number (0x8058).
`

var ErrBadResizeFlag = errors.New("main: bad -resize flag")

func main() {
	if err := main1(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func main1() error {
	flag.Usage = func() { os.Stderr.WriteString(usageStr) }
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected arguments; pass files with -in, -out or -info")
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	switch {
	case *infoFlag != "":
		return info(os.Stdout, *infoFlag)
	case *listFlag:
		g, err := newGraph(logger)
		if err != nil {
			return err
		}
		return list(os.Stdout, g)
	case (*inFlag != "") && (*outFlag != "") && (*formatFlag != ""):
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return convert(ctx, logger)
	}
	return errors.New("must specify -in, -out and -format, or -info, -list or -help")
}

func newGraph(logger *slog.Logger) (*convgraph.Graph, error) {
	cfg := texconv.DefaultConfig()
	if *configFlag != "" {
		c, err := texconv.LoadConfig(*configFlag)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	return texconv.NewGraph(cfg, logger)
}

func info(w io.Writer, path string) error {
	m, err := texfile.Load(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %s\n", path, m)
	return err
}

func list(w io.Writer, g *convgraph.Graph) error {
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintf(w, "%s -> %s\t%v\n", e.Src, e.Dst, e.Converter); err != nil {
			return err
		}
	}
	return nil
}

func convert(ctx context.Context, logger *slog.Logger) error {
	dst, err := glformat.Parse(*formatFlag)
	if err != nil {
		return err
	}
	g, err := newGraph(logger)
	if err != nil {
		return err
	}

	m, err := texfile.Load(*inFlag)
	if err != nil {
		return err
	}
	logger.Debug("loaded", "path", *inFlag, "image", m)

	if *resizeFlag != "" {
		width, height, err := parseSize(*resizeFlag)
		if err != nil {
			return err
		}
		if m, err = resize(ctx, g, m, width, height); err != nil {
			return err
		}
		logger.Debug("resized", "image", m)
	}

	out, err := g.Convert(ctx, m, dst)
	if err != nil {
		return pkgerrors.Wrapf(err, "converting %s to %s", m.Format, dst)
	}
	if err := texfile.Save(*outFlag, out); err != nil {
		return err
	}
	logger.Debug("saved", "path", *outFlag, "image", out)
	return nil
}

// resize scales m, first converting it to GL_RGBA8 if it is not already a
// generic image mode.
func resize(ctx context.Context, g *convgraph.Graph, m teximage.Image, width uint32, height uint32) (teximage.Image, error) {
	if _, ok := imagefile.ModeOf(m.Format); !ok {
		rgba, err := g.Convert(ctx, m, glformat.RGBA8)
		if err != nil {
			return teximage.Image{}, pkgerrors.Wrap(err, "converting for -resize")
		}
		m = rgba
	}
	return imagefile.Resize(m, width, height)
}

func parseSize(s string) (width uint32, height uint32, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, ErrBadResizeFlag
	}
	w, err := strconv.ParseUint(ws, 10, 32)
	if err != nil {
		return 0, 0, ErrBadResizeFlag
	}
	h, err := strconv.ParseUint(hs, 10, 32)
	if err != nil {
		return 0, 0, ErrBadResizeFlag
	}
	if (w == 0) && (h == 0) {
		return 0, 0, ErrBadResizeFlag
	}
	return uint32(w), uint32(h), nil
}
