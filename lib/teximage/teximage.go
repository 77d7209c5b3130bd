// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package teximage implements the in-memory 2D texture image.
//
// An Image whose Data is nil is empty. Empty images stand in for conversions
// that could not run, and they may still report the payload size the
// conversion would have produced. Callers test for emptiness with IsEmpty,
// never by looking at DataSize.
package teximage

import (
	"fmt"
	"io"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
)

// Image is a 2D texture image. Images are values: nothing in this module
// modifies an Image's Data after construction.
type Image struct {
	// The width of the image, in pixels.
	Width uint32
	// The height of the image, in pixels.
	Height uint32
	// The internal format of Data.
	Format glformat.Format
	// The payload size for Format at Width×Height.
	DataSize uint32
	// The payload. nil means the image is empty.
	Data []byte
}

// New returns an Image holding data, which must be exactly the size that the
// format registry computes for format, width and height.
func New(format glformat.Format, width uint32, height uint32, data []byte) (Image, error) {
	size, err := glformat.SizeOf(format, width, height)
	if err != nil {
		return Image{}, err
	}
	if data == nil {
		data = []byte{}
	}
	if uint64(len(data)) != uint64(size) {
		return Image{}, texerr.New(texerr.BadArgument, "teximage.New",
			"%dx%d %s needs %d bytes, got %d", width, height, format, size, len(data))
	}
	return Image{
		Width:    width,
		Height:   height,
		Format:   format,
		DataSize: size,
		Data:     data,
	}, nil
}

// NewEmpty returns an empty Image whose DataSize is the payload size for
// format at width×height.
func NewEmpty(format glformat.Format, width uint32, height uint32) (Image, error) {
	size, err := glformat.SizeOf(format, width, height)
	if err != nil {
		return Image{}, err
	}
	return Image{
		Width:    width,
		Height:   height,
		Format:   format,
		DataSize: size,
	}, nil
}

// IsEmpty returns whether m has no payload.
func (m Image) IsEmpty() bool {
	return m.Data == nil
}

// Validate checks that a non-empty m satisfies the size invariant.
func (m Image) Validate() error {
	if m.IsEmpty() {
		return nil
	}
	size, err := glformat.SizeOf(m.Format, m.Width, m.Height)
	if err != nil {
		return err
	}
	if (m.DataSize != size) || (uint64(len(m.Data)) != uint64(size)) {
		return texerr.New(texerr.BadArgument, "teximage.Validate",
			"%dx%d %s needs %d bytes, has DataSize %d and %d bytes of data",
			m.Width, m.Height, m.Format, size, m.DataSize, len(m.Data))
	}
	return nil
}

func (m Image) String() string {
	s := fmt.Sprintf("Image2D: dimension(%dx%d), internalformat(%s), dataSize(%d)",
		m.Width, m.Height, m.Format, m.DataSize)
	if m.IsEmpty() {
		s += ", empty"
	}
	return s
}

// ReadData reads a payload of exactly size bytes from r. Memory use is
// bounded by the bytes actually read, not by size. A short read is
// io.ErrUnexpectedEOF.
func ReadData(r io.Reader, size uint32) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != uint64(size) {
		return nil, io.ErrUnexpectedEOF
	}
	return data, nil
}
