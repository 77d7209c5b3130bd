// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texconv"
	"github.com/hantempo/OGLImage/lib/texfile"
	"github.com/hantempo/OGLImage/lib/teximage"
)

func TestParseSize(tt *testing.T) {
	testCases := map[string][2]uint32{
		"64x32":  {64, 32},
		"128X0":  {128, 0},
		"0x16":   {0, 16},
		"1x1":    {1, 1},
		"4096x4": {4096, 4},
	}
	for s, want := range testCases {
		w, h, err := parseSize(s)
		require.NoError(tt, err, s)
		assert.Equal(tt, want, [2]uint32{w, h}, s)
	}

	for _, s := range []string{"", "64", "x", "0x0", "-1x4", "4x4x4", "ax4"} {
		_, _, err := parseSize(s)
		assert.ErrorIs(tt, err, ErrBadResizeFlag, s)
	}
}

func TestInfo(tt *testing.T) {
	path := filepath.Join(tt.TempDir(), "a.ktx")
	m, err := teximage.New(glformat.RGBA8, 2, 1, make([]byte, 8))
	require.NoError(tt, err)
	require.NoError(tt, texfile.Save(path, m))

	buf := &bytes.Buffer{}
	require.NoError(tt, info(buf, path))
	assert.Equal(tt, path+": Image2D: dimension(2x1), internalformat(GL_RGBA8), dataSize(8)\n", buf.String())

	assert.Error(tt, info(buf, filepath.Join(tt.TempDir(), "missing.ktx")))
}

func TestList(tt *testing.T) {
	g, err := texconv.NewGraph(texconv.DefaultConfig(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(tt, err)

	buf := &bytes.Buffer{}
	require.NoError(tt, list(buf, g))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(tt, lines, len(g.Edges()))
	assert.Contains(tt, buf.String(), "GL_RGB8 -> GL_RGB565\t")
	assert.Contains(tt, buf.String(), "GL_RGB8 -> GL_ETC1_RGB8_OES\t")
}

func TestResizeConvertsFirst(tt *testing.T) {
	g, err := texconv.NewGraph(texconv.DefaultConfig(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(tt, err)

	m, err := teximage.New(glformat.RGB565, 4, 4, make([]byte, 32))
	require.NoError(tt, err)
	got, err := resize(context.Background(), g, m, 2, 2)
	require.NoError(tt, err)
	assert.Equal(tt, uint32(2), got.Width)
	assert.Equal(tt, uint32(2), got.Height)
	assert.Equal(tt, glformat.RGBA8, got.Format)
}
