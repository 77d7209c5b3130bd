// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package tool converts texture images by running external command line
// tools, such as etcpack and astcenc, on scratch files.
//
// Each conversion saves its input into a fresh scratch directory, runs the
// tool synchronously and loads the file the tool wrote. Concurrent
// conversions never share scratch files.
package tool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/texfile"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// scratchBase is the base name of the scratch input and output files. Tools
// like etcpack name their output after their input.
const scratchBase = "texture"

// Tool is an external executable.
type Tool struct {
	// Name identifies the tool in logs and scratch directory names.
	Name string
	// Path is the executable's file name, looked up in $PATH, or its path.
	// If empty, Name is used.
	Path string
	// Timeout bounds each run. Zero means no limit.
	Timeout time.Duration
	// KeepScratch keeps the scratch directory after each run, for debugging.
	KeepScratch bool
	// ScratchDir is the parent of the scratch directories. If empty,
	// os.TempDir is used.
	ScratchDir string
	// Logger receives the command lines and the tool's output. If nil,
	// slog.Default is used.
	Logger *slog.Logger
}

func (t *Tool) logger() *slog.Logger {
	l := t.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("tool", t.Name)
}

// Lookup resolves the tool's executable.
func (t *Tool) Lookup() (string, error) {
	name := t.Path
	if name == "" {
		name = t.Name
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", texerr.Wrap(texerr.ToolUnavailable, "tool.Lookup", err)
	}
	return path, nil
}

// Run runs the tool with args in dir, logging its standard output at debug
// level and its standard error at warn level.
func (t *Tool) Run(ctx context.Context, dir string, args []string) error {
	path, err := t.Lookup()
	if err != nil {
		return err
	}
	logger := t.logger()

	runCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	logger.Debug("running", "command", strings.Join(append([]string{path}, args...), " "), "dir", dir)
	start := time.Now()
	runErr := cmd.Run()
	logLines(logger, slog.LevelDebug, "stdout", stdout.Bytes())
	logLines(logger, slog.LevelWarn, "stderr", stderr.Bytes())

	switch {
	case runErr == nil:
		logger.Debug("finished", "elapsed", time.Since(start))
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return texerr.New(texerr.ToolTimeout, "tool.Run", "%s did not finish within %v", t.Name, t.Timeout)
	}
	return texerr.Wrap(texerr.ToolFailed, "tool.Run", errors.Wrapf(runErr, "running %s", t.Name))
}

func logLines(logger *slog.Logger, level slog.Level, stream string, b []byte) {
	s := bufio.NewScanner(bytes.NewReader(b))
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			logger.Log(context.Background(), level, line, "stream", stream)
		}
	}
}

// Args are the values available to a Converter's argument templates.
type Args struct {
	// Input is the scratch input file's path.
	Input string
	// Output is the path the tool is expected to write.
	Output string
	// OutputDir is the scratch directory.
	OutputDir string
	// BlockSize is the ASTC block footprint, such as "6x5", of the
	// destination (or else source) format. It is empty for other formats.
	BlockSize string
}

// Converter converts images from Src to Dst by running Tool. The tool reads
// a file with extension InputExt and writes one with extension OutputExt.
type Converter struct {
	Tool      *Tool
	Src       glformat.Format
	Dst       glformat.Format
	InputExt  string
	OutputExt string
	// Args are text/template strings over an Args value. Arguments that
	// expand to the empty string are dropped.
	Args []string

	templates []*template.Template
}

// NewConverter returns a Converter after checking its formats, extensions
// and argument templates.
func NewConverter(t *Tool, src glformat.Format, dst glformat.Format, inputExt string, outputExt string, args ...string) (*Converter, error) {
	c := &Converter{
		Tool:      t,
		Src:       src,
		Dst:       dst,
		InputExt:  inputExt,
		OutputExt: outputExt,
		Args:      args,
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Converter) compile() error {
	if c.templates != nil {
		return nil
	}
	if c.Tool == nil {
		return texerr.New(texerr.BadArgument, "tool.NewConverter", "nil tool")
	}
	for _, f := range []glformat.Format{c.Src, c.Dst} {
		if _, err := glformat.Lookup(f); err != nil {
			return err
		}
	}
	if (c.InputExt == "") || (c.OutputExt == "") || strings.EqualFold(c.InputExt, c.OutputExt) {
		return texerr.New(texerr.BadArgument, "tool.NewConverter",
			"input and output extensions %q and %q must differ", c.InputExt, c.OutputExt)
	}
	templates := make([]*template.Template, len(c.Args))
	for i, arg := range c.Args {
		tmpl, err := template.New(fmt.Sprintf("arg%d", i)).Option("missingkey=error").Parse(arg)
		if err != nil {
			return texerr.Wrap(texerr.BadArgument, "tool.NewConverter", err)
		}
		templates[i] = tmpl
	}
	c.templates = templates
	return nil
}

func (c *Converter) String() string {
	return fmt.Sprintf("%s(%s -> %s)", c.Tool.Name, c.Src, c.Dst)
}

func (c *Converter) blockSize() string {
	for _, f := range []glformat.Format{c.Dst, c.Src} {
		if info, err := glformat.Lookup(f); (err == nil) && (info.Family == glformat.FamilyASTC) {
			return fmt.Sprintf("%dx%d", info.BlockWidth, info.BlockHeight)
		}
	}
	return ""
}

func (c *Converter) expand(a Args) ([]string, error) {
	ret := make([]string, 0, len(c.templates))
	for _, tmpl := range c.templates {
		buf := &strings.Builder{}
		if err := tmpl.Execute(buf, a); err != nil {
			return nil, texerr.Wrap(texerr.BadArgument, "tool.Convert", err)
		}
		if buf.Len() > 0 {
			ret = append(ret, buf.String())
		}
	}
	return ret, nil
}

// Convert converts m, whose format must be c.Src.
//
// An empty m yields an empty image of format c.Dst without running the tool.
// On failure, Convert returns an empty image of format c.Dst, sized for m's
// dimensions, alongside the error.
func (c *Converter) Convert(ctx context.Context, m teximage.Image) (teximage.Image, error) {
	if err := c.compile(); err != nil {
		return teximage.Image{}, err
	}
	if m.Format != c.Src {
		return teximage.Image{}, texerr.New(texerr.BadArgument, "tool.Convert", "%v cannot convert %s", c, m.Format)
	}
	empty, err := teximage.NewEmpty(c.Dst, m.Width, m.Height)
	if err != nil {
		return teximage.Image{}, err
	}
	if m.IsEmpty() {
		return empty, nil
	}

	logger := c.Tool.logger()
	if _, err := c.Tool.Lookup(); err != nil {
		logger.Warn("tool is unavailable; returning an empty image", "dst", c.Dst, "err", err)
		return empty, err
	}

	dir, err := os.MkdirTemp(c.Tool.ScratchDir, c.Tool.Name+"-*")
	if err != nil {
		return empty, texerr.Wrap(texerr.ToolFailed, "tool.Convert", err)
	}
	defer func() {
		if c.Tool.KeepScratch {
			logger.Info("keeping scratch directory", "dir", dir)
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("could not remove scratch directory", "dir", dir, "err", err)
		}
	}()

	a := Args{
		Input:     filepath.Join(dir, scratchBase+c.InputExt),
		Output:    filepath.Join(dir, scratchBase+c.OutputExt),
		OutputDir: dir,
		BlockSize: c.blockSize(),
	}
	args, err := c.expand(a)
	if err != nil {
		return empty, err
	}

	if err := texfile.Save(a.Input, m); err != nil {
		return empty, err
	}
	if err := c.Tool.Run(ctx, dir, args); err != nil {
		return empty, err
	}

	out, err := texfile.Load(a.Output)
	if err != nil {
		return empty, err
	}
	out, err = conform(out, c.Dst)
	if err != nil {
		return empty, err
	}
	if (out.Width != m.Width) || (out.Height != m.Height) {
		return empty, texerr.New(texerr.Container, "tool.Convert",
			"%s wrote a %dx%d image, want %dx%d", c.Tool.Name, out.Width, out.Height, m.Width, m.Height)
	}
	return out, nil
}

// conform checks that a tool's output has format dst. Generic image files
// without alpha load as GL_RGB8, so GL_RGB8 output is widened when dst is
// GL_RGBA8.
func conform(m teximage.Image, dst glformat.Format) (teximage.Image, error) {
	if m.Format == dst {
		return m, nil
	}
	if (m.Format == glformat.RGB8) && (dst == glformat.RGBA8) {
		data := make([]byte, 0, (len(m.Data)/3)*4)
		for i := 0; i+3 <= len(m.Data); i += 3 {
			data = append(data, m.Data[i], m.Data[i+1], m.Data[i+2], 0xFF)
		}
		return teximage.New(dst, m.Width, m.Height, data)
	}
	return teximage.Image{}, texerr.New(texerr.Container, "tool.Convert", "tool wrote %s, want %s", m.Format, dst)
}
