// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package astc implements the .astc container format written and read by the
// astcenc tool.
//
// An .astc file is a 16 byte header followed by 16 byte blocks:
//
//	0x00  magic 0x5CA1AB13, little-endian
//	0x04  block width, height and depth, one byte each
//	0x07  image width, height and depth, 24-bit little-endian each
//
// Only 2D images (block depth and image depth of 1) are supported. The block
// footprint selects the linear (non-sRGB) ASTC internal format.
package astc

import (
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// Magic is the byte string prefix of every .astc file.
var Magic = [4]byte{0x13, 0xAB, 0xA1, 0x5C}

// HeaderSize is the size in bytes of an .astc file header.
const HeaderSize = 16

// MaxDimension is the largest width or height a header can hold.
const MaxDimension = 0xFF_FFFF

var (
	ErrNotAnASTCFile   = errors.New("astc: not an ASTC file")
	ErrUnsupportedType = errors.New("astc: unsupported texture type")
	ErrUnknownBlock    = errors.New("astc: unknown block footprint")
	ErrImageIsTooLarge = errors.New("astc: image is too large")
)

// Header is the .astc file header.
type Header struct {
	BlockX uint8
	BlockY uint8
	BlockZ uint8

	SizeX uint32
	SizeY uint32
	SizeZ uint32
}

func (h Header) String() string {
	return fmt.Sprintf("ASTC %dx%dx%d blocks, %dx%dx%d texels",
		h.BlockX, h.BlockY, h.BlockZ,
		h.SizeX, h.SizeY, h.SizeZ)
}

// Format returns the internal format for h's block footprint.
func (h Header) Format() (glformat.Format, error) {
	if (h.BlockZ != 1) || (h.SizeZ != 1) {
		return glformat.None, pkgerrors.Wrapf(ErrUnsupportedType,
			"block depth %d, image depth %d", h.BlockZ, h.SizeZ)
	}
	f, ok := glformat.ASTCFormat(h.BlockX, h.BlockY)
	if !ok {
		return glformat.None, pkgerrors.Wrapf(ErrUnknownBlock, "%dx%d", h.BlockX, h.BlockY)
	}
	return f, nil
}

// ParseHeader parses the 16 byte .astc file header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, texerr.Wrap(texerr.Container, "astc.ParseHeader", io.ErrUnexpectedEOF)
	}
	if [4]byte(data[:4]) != Magic {
		return Header{}, texerr.Wrap(texerr.Container, "astc.ParseHeader", ErrNotAnASTCFile)
	}
	return Header{
		BlockX: data[4],
		BlockY: data[5],
		BlockZ: data[6],
		SizeX:  decodeU24LE(data[7:10]),
		SizeY:  decodeU24LE(data[10:13]),
		SizeZ:  decodeU24LE(data[13:16]),
	}, nil
}

// MarshalHeader returns the 16 byte header encoding of h.
func MarshalHeader(h Header) ([HeaderSize]byte, error) {
	if (h.SizeX > MaxDimension) || (h.SizeY > MaxDimension) || (h.SizeZ > MaxDimension) {
		return [HeaderSize]byte{}, texerr.Wrap(texerr.Container, "astc.MarshalHeader",
			pkgerrors.Wrapf(ErrImageIsTooLarge, "%dx%dx%d", h.SizeX, h.SizeY, h.SizeZ))
	}

	out := [HeaderSize]byte{}
	copy(out[0:4], Magic[:])
	out[4] = h.BlockX
	out[5] = h.BlockY
	out[6] = h.BlockZ
	encodeU24LE(out[7:10], h.SizeX)
	encodeU24LE(out[10:13], h.SizeY)
	encodeU24LE(out[13:16], h.SizeZ)
	return out, nil
}

// Decode reads a 2D .astc image from r.
func Decode(r io.Reader) (teximage.Image, error) {
	buf := [HeaderSize]byte{}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return teximage.Image{}, texerr.Wrap(texerr.Container, "astc.Decode", err)
	}
	h, err := ParseHeader(buf[:])
	if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "astc.Decode", err)
	}
	format, err := h.Format()
	if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "astc.Decode", err)
	}

	size, err := glformat.SizeOf(format, h.SizeX, h.SizeY)
	if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "astc.Decode", err)
	}
	data, err := teximage.ReadData(r, size)
	if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "astc.Decode", err)
	}
	return teximage.New(format, h.SizeX, h.SizeY, data)
}

// Encode writes m to w in the .astc format. m's format must be a linear ASTC
// format.
//
// Encoding an empty image writes nothing.
func Encode(w io.Writer, m teximage.Image) error {
	if m.IsEmpty() {
		return nil
	}
	if err := m.Validate(); err != nil {
		return err
	}
	bx, by, ok := m.Format.ASTCBlock()
	if !ok {
		return texerr.New(texerr.Container, "astc.Encode", "%s has no .astc block footprint", m.Format)
	}

	buf, err := MarshalHeader(Header{
		BlockX: bx,
		BlockY: by,
		BlockZ: 1,
		SizeX:  m.Width,
		SizeY:  m.Height,
		SizeZ:  1,
	})
	if err != nil {
		return err
	}
	if _, err := w.Write(buf[:]); err != nil {
		return texerr.Wrap(texerr.Container, "astc.Encode", err)
	}
	if _, err := w.Write(m.Data); err != nil {
		return texerr.Wrap(texerr.Container, "astc.Encode", err)
	}
	return nil
}

func decodeU24LE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) + (uint32(b[1]) * 256) + (uint32(b[2]) * 65536)
}

func encodeU24LE(dst []byte, v uint32) {
	_ = dst[2]
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}
