// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package texfile loads and saves texture images, choosing the file format
// from the file name extension:
//
//	.ktx   KTX 1.1 container
//	.astc  ASTC container
//	.pkm   PKM container
//	other  generic image file (see package imagefile)
//
// A trailing .zst or .lz4 extension, as in "brick.ktx.zst", wraps the inner
// format in Zstandard or LZ4 frame compression.
package texfile

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/hantempo/OGLImage/lib/astc"
	"github.com/hantempo/OGLImage/lib/imagefile"
	"github.com/hantempo/OGLImage/lib/ktx"
	"github.com/hantempo/OGLImage/lib/pkm"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// Ext returns the lower-cased extension that selects name's format, ignoring
// any compression suffix. Ext("a.KTX.zst") is ".ktx".
func Ext(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if (ext == ".zst") || (ext == ".lz4") {
		return Ext(strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return ext
}

// Load reads the texture image stored at path.
//
// A missing file yields an empty image and a NotFound error. Any other
// failure yields an empty image and a Container (or Format) error.
func Load(path string) (teximage.Image, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return teximage.Image{}, texerr.Wrap(texerr.NotFound, "texfile.Load", err)
	} else if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "texfile.Load", err)
	}
	defer f.Close()

	m, err := Decode(bufio.NewReader(f), path)
	if err != nil {
		return teximage.Image{}, errors.WithMessage(err, path)
	}
	return m, nil
}

// Save writes m to path, replacing any existing file.
//
// Saving an empty image is a no-op: no file is created.
func Save(path string, m teximage.Image) error {
	if m.IsEmpty() {
		return nil
	}
	buf := &bytes.Buffer{}
	if err := Encode(buf, path, m); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return texerr.Wrap(texerr.Container, "texfile.Save", err)
	}
	return nil
}

// Decode reads a texture image from r in the format selected by name's
// extension.
func Decode(r io.Reader, name string) (teximage.Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	inner := strings.TrimSuffix(name, filepath.Ext(name))
	switch ext {
	case ".zst":
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return teximage.Image{}, texerr.Wrap(texerr.Container, "texfile.Decode", err)
		}
		defer zr.Close()
		return Decode(zr, inner)
	case ".lz4":
		return Decode(lz4.NewReader(r), inner)
	case ".ktx":
		return ktx.Decode(r)
	case ".astc":
		return astc.Decode(r)
	case ".pkm":
		return pkm.Decode(r)
	}
	return imagefile.Decode(r, ext)
}

// Encode writes m to w in the format selected by name's extension.
//
// Encoding an empty image writes nothing.
func Encode(w io.Writer, name string, m teximage.Image) error {
	if m.IsEmpty() {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	inner := strings.TrimSuffix(name, filepath.Ext(name))
	switch ext {
	case ".zst":
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return texerr.Wrap(texerr.Container, "texfile.Encode", err)
		}
		if err := Encode(zw, inner, m); err != nil {
			zw.Close()
			return err
		}
		return texerr.Wrap(texerr.Container, "texfile.Encode", zw.Close())
	case ".lz4":
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return texerr.Wrap(texerr.Container, "texfile.Encode", err)
		}
		if err := Encode(lw, inner, m); err != nil {
			lw.Close()
			return err
		}
		return texerr.Wrap(texerr.Container, "texfile.Encode", lw.Close())
	case ".ktx":
		return ktx.Encode(w, m)
	case ".astc":
		return astc.Encode(w, m)
	case ".pkm":
		return pkm.Encode(w, m)
	}
	return imagefile.Encode(w, ext, m)
}
