// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package ktx implements the KTX 1.1 (Khronos Texture) container format for
// single-level 2D textures.
//
// A KTX file is a 12 byte identifier, thirteen 32-bit header fields, optional
// key/value data and then, per mipmap level, a 32-bit imageSize followed by
// that many payload bytes. Only the first mipmap level is read.
//
// KTX is specified at
// https://registry.khronos.org/KTX/specs/1.0/ktxspec.v1.html
package ktx

import (
	"encoding/binary"
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// Identifier is the byte string prefix of every KTX 1.1 file.
var Identifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

// Endianness is the endianness field as written by this package. A reader on
// an opposite-endian machine sees 0x01020304.
const Endianness = 0x04030201

// HeaderSize is the size of the identifier plus the fixed header fields.
const HeaderSize = 64

var (
	ErrNotAKTXFile     = errors.New("ktx: not a KTX file")
	ErrUnsupportedType = errors.New("ktx: unsupported texture type")
	ErrUnknownFormat   = errors.New("ktx: unknown internal format")
	ErrSizeMismatch    = errors.New("ktx: image size mismatch")
)

// Header holds the fixed header fields that follow the identifier.
type Header struct {
	BigEndian bool

	GLType                uint32
	GLTypeSize            uint32
	GLFormat              uint32
	GLInternalFormat      uint32
	GLBaseInternalFormat  uint32
	PixelWidth            uint32
	PixelHeight           uint32
	PixelDepth            uint32
	NumberOfArrayElements uint32
	NumberOfFaces         uint32
	NumberOfMipmapLevels  uint32
	BytesOfKeyValueData   uint32
}

// Format resolves the sized internal format named by h. Headers written by
// tools that only know unsized base formats (GL_RGB, GL_RGBA) are repaired from
// their glFormat and glType.
func (h Header) Format() (glformat.Format, error) {
	if glformat.IsUnsized(h.GLInternalFormat) {
		if f, ok := glformat.FromGLFormatType(h.GLFormat, h.GLType); ok {
			return f, nil
		}
		return glformat.None, pkgerrors.Wrapf(ErrUnknownFormat,
			"unsized 0x%04X with glFormat 0x%04X, glType 0x%04X", h.GLInternalFormat, h.GLFormat, h.GLType)
	}
	f := glformat.Format(h.GLInternalFormat)
	if !f.IsRegistered() {
		return glformat.None, pkgerrors.Wrapf(ErrUnknownFormat, "0x%04X", h.GLInternalFormat)
	}
	return f, nil
}

type reader struct {
	src   io.Reader
	order binary.ByteOrder
	buf   [4]byte
	err   error
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if _, err := io.ReadFull(r.src, r.buf[:]); err != nil {
		r.err = err
		return 0
	}
	return r.order.Uint32(r.buf[:])
}

func containerError(op string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return texerr.Wrap(texerr.Container, op, err)
}

func decodeHeader(src io.Reader) (Header, error) {
	ident := [12]byte{}
	if _, err := io.ReadFull(src, ident[:]); err != nil {
		return Header{}, err
	} else if ident != Identifier {
		return Header{}, ErrNotAKTXFile
	}

	r := &reader{src: src, order: binary.LittleEndian}
	h := Header{}
	switch r.u32() {
	case Endianness:
	case 0x01020304:
		r.order = binary.BigEndian
		h.BigEndian = true
	default:
		if r.err != nil {
			return Header{}, r.err
		}
		return Header{}, pkgerrors.WithMessage(ErrNotAKTXFile, "bad endianness field")
	}

	h.GLType = r.u32()
	h.GLTypeSize = r.u32()
	h.GLFormat = r.u32()
	h.GLInternalFormat = r.u32()
	h.GLBaseInternalFormat = r.u32()
	h.PixelWidth = r.u32()
	h.PixelHeight = r.u32()
	h.PixelDepth = r.u32()
	h.NumberOfArrayElements = r.u32()
	h.NumberOfFaces = r.u32()
	h.NumberOfMipmapLevels = r.u32()
	h.BytesOfKeyValueData = r.u32()
	if r.err != nil {
		return Header{}, r.err
	}
	return h, nil
}

// DecodeHeader reads a KTX identifier and header from r.
func DecodeHeader(r io.Reader) (Header, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return Header{}, containerError("ktx.DecodeHeader", err)
	}
	return h, nil
}

// Decode reads a single-level 2D KTX image from r.
//
// The payload size is cross-checked against the format registry.
func Decode(r io.Reader) (teximage.Image, error) {
	m, err := decode(r)
	if err != nil {
		return teximage.Image{}, containerError("ktx.Decode", err)
	}
	return m, nil
}

func decode(src io.Reader) (teximage.Image, error) {
	h, err := decodeHeader(src)
	if err != nil {
		return teximage.Image{}, err
	}

	if (h.PixelDepth > 1) || (h.NumberOfArrayElements != 0) || (h.NumberOfFaces != 1) {
		return teximage.Image{}, pkgerrors.Wrapf(ErrUnsupportedType,
			"depth %d, array elements %d, faces %d", h.PixelDepth, h.NumberOfArrayElements, h.NumberOfFaces)
	}
	format, err := h.Format()
	if err != nil {
		return teximage.Image{}, err
	}

	if _, err := io.CopyN(io.Discard, src, int64(h.BytesOfKeyValueData)); err != nil {
		return teximage.Image{}, err
	}

	r := &reader{src: src, order: binary.LittleEndian}
	if h.BigEndian {
		r.order = binary.BigEndian
	}
	imageSize := r.u32()
	if r.err != nil {
		return teximage.Image{}, r.err
	}

	// A 1D texture has a pixelHeight of zero and one row of pixels.
	width, height := h.PixelWidth, max(h.PixelHeight, 1)
	want, err := glformat.SizeOf(format, width, height)
	if err != nil {
		return teximage.Image{}, err
	}
	if imageSize != want {
		return teximage.Image{}, pkgerrors.Wrapf(ErrSizeMismatch,
			"%dx%d %s: imageSize %d, want %d", width, height, format, imageSize, want)
	}

	data, err := teximage.ReadData(src, imageSize)
	if err != nil {
		return teximage.Image{}, err
	}
	if h.BigEndian {
		swapUnits(data, int(h.GLTypeSize))
	}
	return teximage.New(format, width, height, data)
}

// swapUnits reverses the byte order of each n-byte unit of data in place.
func swapUnits(data []byte, n int) {
	if (n != 2) && (n != 4) {
		return
	}
	for i := 0; i+n <= len(data); i += n {
		for j := 0; j < n/2; j++ {
			data[i+j], data[i+n-1-j] = data[i+n-1-j], data[i+j]
		}
	}
}

// Encode writes m to w as a little-endian single-level KTX file.
//
// Encoding an empty image writes nothing.
func Encode(w io.Writer, m teximage.Image) error {
	if m.IsEmpty() {
		return nil
	}
	if err := m.Validate(); err != nil {
		return err
	}
	info, err := glformat.Lookup(m.Format)
	if err != nil {
		return err
	}

	buf := [HeaderSize + 4]byte{}
	copy(buf[:12], Identifier[:])
	fields := [14]uint32{
		Endianness,
		info.GLType,
		info.GLTypeSize,
		info.GLFormat,
		uint32(m.Format),
		info.GLBaseInternalFormat,
		m.Width,
		m.Height,
		0, // pixelDepth
		0, // numberOfArrayElements
		1, // numberOfFaces
		1, // numberOfMipmapLevels
		0, // bytesOfKeyValueData
		m.DataSize,
	}
	for i, v := range fields {
		binary.LittleEndian.PutUint32(buf[12+(4*i):], v)
	}

	if _, err := w.Write(buf[:]); err != nil {
		return texerr.Wrap(texerr.Container, "ktx.Encode", err)
	}
	if _, err := w.Write(m.Data); err != nil {
		return texerr.Wrap(texerr.Container, "ktx.Encode", err)
	}
	return nil
}
