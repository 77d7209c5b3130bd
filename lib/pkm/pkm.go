// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package pkm implements the PKM container format for ETC textures.
//
// A PKM file is a 16 byte header followed by the ETC blocks of a single image.
// etcpack writes PKM files unless asked for KTX.
package pkm

import (
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// Magic is the byte string prefix of every PKM image file.
const Magic = "PKM "

// HeaderSize is the size in bytes of a PKM file header.
const HeaderSize = 16

var (
	ErrBadArgument     = errors.New("pkm: bad argument")
	ErrNotAPKMFile     = errors.New("pkm: not a PKM file")
	ErrImageIsTooLarge = errors.New("pkm: image is too large")
)

var pkmToGLFormats = [12]glformat.Format{
	0x00: glformat.ETC1RGB8,
	0x01: glformat.RGB8ETC2,
	0x02: glformat.None,
	0x03: glformat.RGBA8ETC2EAC,
	0x04: glformat.RGB8PunchthroughAlpha1ETC2,
	0x05: glformat.R11EAC,
	0x06: glformat.RG11EAC,
	0x07: glformat.SignedR11EAC,
	0x08: glformat.SignedRG11EAC,
	0x09: glformat.SRGB8ETC2,
	0x0A: glformat.SRGB8Alpha8ETC2EAC,
	0x0B: glformat.SRGB8PunchthroughAlpha1ETC2,
}

// Code returns the PKM format code for f.
func Code(f glformat.Format) (code uint8, ok bool) {
	if f == glformat.None {
		return 0, false
	}
	for i, g := range pkmToGLFormats {
		if g == f {
			return uint8(i), true
		}
	}
	return 0, false
}

func etcVersion(f glformat.Format) int {
	if f == glformat.ETC1RGB8 {
		return 1
	}
	return 2
}

// Header is a decoded PKM file header.
type Header struct {
	Format glformat.Format
	Width  uint32
	Height uint32
}

func decodeHeader(r io.Reader) (Header, error) {
	buf := [HeaderSize]byte{}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Header{}, err
	} else if (buf[0] != Magic[0]) ||
		(buf[1] != Magic[1]) ||
		(buf[2] != Magic[2]) ||
		(buf[3] != Magic[3]) ||
		(buf[5] != 0x30) ||
		(buf[6] != 0x00) {
		return Header{}, ErrNotAPKMFile
	}

	version := 0
	switch buf[4] {
	case 0x31, 0x32:
		version = int(buf[4]) & 0x03
	default:
		return Header{}, ErrNotAPKMFile
	}

	format := glformat.None
	if f := int(buf[7]); f < len(pkmToGLFormats) {
		format = pkmToGLFormats[f]
	}
	if (format == glformat.None) || (etcVersion(format) != version) {
		return Header{}, pkgerrors.Wrapf(ErrNotAPKMFile, "format code 0x%02X in version %d", buf[7], version)
	}

	roundedUpWidth := (uint32(buf[8]) << 8) | uint32(buf[9])
	roundedUpHeight := (uint32(buf[10]) << 8) | uint32(buf[11])
	width := (uint32(buf[12]) << 8) | uint32(buf[13])
	height := (uint32(buf[14]) << 8) | uint32(buf[15])

	if (((width + 3) &^ 3) != roundedUpWidth) ||
		(((height + 3) &^ 3) != roundedUpHeight) {
		return Header{}, ErrNotAPKMFile
	}

	return Header{Format: format, Width: width, Height: height}, nil
}

// DecodeHeader reads a PKM header from r.
func DecodeHeader(r io.Reader) (Header, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return Header{}, texerr.Wrap(texerr.Container, "pkm.DecodeHeader", err)
	}
	return h, nil
}

// Decode reads a PKM image from r.
func Decode(r io.Reader) (teximage.Image, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "pkm.Decode", err)
	}
	size, err := glformat.SizeOf(h.Format, h.Width, h.Height)
	if err != nil {
		return teximage.Image{}, err
	}
	data, err := teximage.ReadData(r, size)
	if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "pkm.Decode", err)
	}
	return teximage.New(h.Format, h.Width, h.Height, data)
}

// Encode writes m to w in the PKM format. m's format must be an ETC format.
//
// Encoding an empty image writes nothing.
func Encode(w io.Writer, m teximage.Image) error {
	if m.IsEmpty() {
		return nil
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if (m.Width > 65532) || (m.Height > 65532) {
		return texerr.Wrap(texerr.Container, "pkm.Encode", ErrImageIsTooLarge)
	}
	code, ok := Code(m.Format)
	if !ok {
		return texerr.Wrap(texerr.Container, "pkm.Encode",
			pkgerrors.Wrapf(ErrBadArgument, "%s has no PKM format code", m.Format))
	}

	buf := [HeaderSize]byte{}
	copy(buf[:4], Magic)
	buf[0x04] = 0x30 | uint8(etcVersion(m.Format))
	buf[0x05] = 0x30
	buf[0x06] = 0x00
	buf[0x07] = code

	roundedUpW := (m.Width + 3) &^ 3
	roundedUpH := (m.Height + 3) &^ 3
	buf[0x08] = uint8(roundedUpW >> 8)
	buf[0x09] = uint8(roundedUpW >> 0)
	buf[0x0A] = uint8(roundedUpH >> 8)
	buf[0x0B] = uint8(roundedUpH >> 0)
	buf[0x0C] = uint8(m.Width >> 8)
	buf[0x0D] = uint8(m.Width >> 0)
	buf[0x0E] = uint8(m.Height >> 8)
	buf[0x0F] = uint8(m.Height >> 0)
	if _, err := w.Write(buf[:]); err != nil {
		return texerr.Wrap(texerr.Container, "pkm.Encode", err)
	}
	if _, err := w.Write(m.Data); err != nil {
		return texerr.Wrap(texerr.Container, "pkm.Encode", err)
	}
	return nil
}
