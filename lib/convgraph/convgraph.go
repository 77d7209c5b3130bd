// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package convgraph routes texture conversions through a directed graph whose
// nodes are formats and whose edges are single-step converters.
//
// A conversion follows the path with the fewest hops. Among equally short
// paths, the one that visits lower numbered formats first wins, so routing
// is deterministic.
package convgraph

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// Converter converts an image by one hop.
//
// Implementations return an empty destination image, sized for the input,
// when the input is empty.
type Converter interface {
	Convert(ctx context.Context, m teximage.Image) (teximage.Image, error)
}

// Edge is a registered single-step conversion.
type Edge struct {
	Src       glformat.Format
	Dst       glformat.Format
	Converter Converter
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s: %v", e.Src, e.Dst, e.Converter)
}

type key struct {
	src glformat.Format
	dst glformat.Format
}

// Builder collects edges for a Graph. The zero value is not usable; call
// NewBuilder.
type Builder struct {
	logger *slog.Logger
	edges  map[key]Converter
}

// NewBuilder returns an empty Builder. logger may be nil, which means to use
// slog.Default.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger: logger,
		edges:  map[key]Converter{},
	}
}

func (b *Builder) check(op string, src glformat.Format, dst glformat.Format, c Converter) error {
	for _, f := range []glformat.Format{src, dst} {
		if !f.IsRegistered() {
			return texerr.New(texerr.Format, op, "unregistered format %s", f)
		}
	}
	if src == dst {
		return texerr.New(texerr.BadArgument, op, "self edge on %s", src)
	}
	if c == nil {
		return texerr.New(texerr.BadArgument, op, "nil converter for %s -> %s", src, dst)
	}
	return nil
}

// Register adds the edge src -> dst. It fails if that edge already exists.
func (b *Builder) Register(src glformat.Format, dst glformat.Format, c Converter) error {
	if err := b.check("convgraph.Register", src, dst, c); err != nil {
		return err
	}
	k := key{src, dst}
	if _, dup := b.edges[k]; dup {
		return texerr.New(texerr.BadArgument, "convgraph.Register", "duplicate edge %s -> %s", src, dst)
	}
	b.edges[k] = c
	return nil
}

// Replace adds the edge src -> dst, overwriting any existing one.
func (b *Builder) Replace(src glformat.Format, dst glformat.Format, c Converter) error {
	if err := b.check("convgraph.Replace", src, dst, c); err != nil {
		return err
	}
	b.edges[key{src, dst}] = c
	return nil
}

// Build returns an immutable Graph of the edges registered so far. The
// Builder may be reused afterwards without affecting the Graph.
func (b *Builder) Build() *Graph {
	g := &Graph{
		logger: b.logger,
		edges:  maps.Clone(b.edges),
		adj:    map[glformat.Format][]glformat.Format{},
	}
	for k := range g.edges {
		g.adj[k.src] = append(g.adj[k.src], k.dst)
	}
	for _, dsts := range g.adj {
		slices.Sort(dsts)
	}
	return g
}

// Graph is an immutable conversion graph. It is safe for concurrent use if
// its converters are.
type Graph struct {
	logger *slog.Logger
	edges  map[key]Converter
	adj    map[glformat.Format][]glformat.Format
}

// Edges returns every edge, ordered by source and then destination format.
func (g *Graph) Edges() []Edge {
	keys := maps.Keys(g.edges)
	slices.SortFunc(keys, func(a, b key) int {
		if a.src != b.src {
			return int(int64(a.src) - int64(b.src))
		}
		return int(int64(a.dst) - int64(b.dst))
	})
	ret := make([]Edge, len(keys))
	for i, k := range keys {
		ret[i] = Edge{Src: k.src, Dst: k.dst, Converter: g.edges[k]}
	}
	return ret
}

// Converter returns the converter for the edge src -> dst.
func (g *Graph) Converter(src glformat.Format, dst glformat.Format) (Converter, bool) {
	c, ok := g.edges[key{src, dst}]
	return c, ok
}

// Path returns the formats visited by the shortest conversion from src to
// dst, both included. A format's path to itself is that single format.
func (g *Graph) Path(src glformat.Format, dst glformat.Format) ([]glformat.Format, bool) {
	if src == dst {
		return []glformat.Format{src}, true
	}
	parent := map[glformat.Format]glformat.Format{src: src}
	queue := []glformat.Format{src}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, next := range g.adj[f] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = f
			if next == dst {
				return tracePath(parent, src, dst), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func tracePath(parent map[glformat.Format]glformat.Format, src glformat.Format, dst glformat.Format) []glformat.Format {
	ret := []glformat.Format{dst}
	for f := dst; f != src; {
		f = parent[f]
		ret = append(ret, f)
	}
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret
}

// Convert converts m to the format dst along the shortest path.
//
// Unregistered formats are an error. When no path exists, Convert returns an
// empty image of m's format and dimensions with a NoConversionPath error.
//
// A hop that fails with a degradable error (see texerr.Degradable) yields an
// empty image and the remaining hops still run, each turning an empty input
// into an empty output. The result is then an empty image of format dst,
// returned with the first such error. Any other error aborts the conversion.
func (g *Graph) Convert(ctx context.Context, m teximage.Image, dst glformat.Format) (teximage.Image, error) {
	for _, f := range []glformat.Format{m.Format, dst} {
		if !f.IsRegistered() {
			return teximage.Image{}, texerr.New(texerr.Format, "convgraph.Convert", "unregistered format %s", f)
		}
	}
	if m.Format == dst {
		return m, nil
	}

	path, ok := g.Path(m.Format, dst)
	if !ok {
		g.logger.Error("no conversion path", "src", m.Format, "dst", dst)
		empty, err := teximage.NewEmpty(m.Format, m.Width, m.Height)
		if err != nil {
			empty = teximage.Image{Width: m.Width, Height: m.Height, Format: m.Format}
		}
		return empty, texerr.New(texerr.NoConversionPath, "convgraph.Convert", "no conversion from %s to %s", m.Format, dst)
	}

	var firstErr error
	cur := m
	for i := 1; i < len(path); i++ {
		src, next := path[i-1], path[i]
		if cur.IsEmpty() {
			empty, err := teximage.NewEmpty(next, cur.Width, cur.Height)
			if err != nil {
				return teximage.Image{}, err
			}
			cur = empty
			continue
		}

		g.logger.Debug("convert", "src", src, "dst", next, "input", cur)
		out, err := g.edges[key{src, next}].Convert(ctx, cur)
		if (err == nil) && !out.IsEmpty() && (out.Format != next) {
			err = texerr.New(texerr.Container, "convgraph.Convert", "%s -> %s converter produced %s", src, next, out.Format)
		}
		if err != nil {
			if !texerr.Degradable(err) {
				return teximage.Image{}, err
			}
			g.logger.Warn("conversion failed; continuing with an empty image", "src", src, "dst", next, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			if out, err = teximage.NewEmpty(next, cur.Width, cur.Height); err != nil {
				return teximage.Image{}, err
			}
		}
		g.logger.Debug("converted", "output", out)
		cur = out
	}
	return cur, firstErr
}
