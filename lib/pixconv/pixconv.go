// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package pixconv implements per-pixel conversions between uncompressed
// texture formats.
//
// All quantization truncates. Packed 16-bit formats hold their first channel
// in the most significant bits and are stored little-endian.
package pixconv

import (
	"context"
	"fmt"
	"math"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// PixelFunc converts one pixel. src and dst are exactly one source and one
// destination pixel long.
type PixelFunc func(dst []byte, src []byte)

// Converter converts images from Src to Dst one pixel at a time.
type Converter struct {
	Src glformat.Format
	Dst glformat.Format

	pixel  PixelFunc
	srcBPP int
	dstBPP int
}

// New returns a Converter between two uncompressed formats.
func New(src glformat.Format, dst glformat.Format, pixel PixelFunc) (*Converter, error) {
	srcBPP, err := glformat.BytesPerPixel(src)
	if err != nil {
		return nil, err
	}
	dstBPP, err := glformat.BytesPerPixel(dst)
	if err != nil {
		return nil, err
	}
	if pixel == nil {
		return nil, texerr.New(texerr.BadArgument, "pixconv.New", "nil pixel function")
	}
	return &Converter{
		Src:    src,
		Dst:    dst,
		pixel:  pixel,
		srcBPP: srcBPP,
		dstBPP: dstBPP,
	}, nil
}

func (c *Converter) String() string {
	return fmt.Sprintf("pixconv(%s -> %s)", c.Src, c.Dst)
}

// Convert converts m, whose format must be c.Src. An empty m converts to an
// empty image of format c.Dst and the same dimensions.
func (c *Converter) Convert(ctx context.Context, m teximage.Image) (teximage.Image, error) {
	if err := ctx.Err(); err != nil {
		return teximage.Image{}, err
	}
	if m.Format != c.Src {
		return teximage.Image{}, texerr.New(texerr.BadArgument, "pixconv.Convert",
			"%v cannot convert %s", c, m.Format)
	}
	if m.IsEmpty() {
		return teximage.NewEmpty(c.Dst, m.Width, m.Height)
	}
	if err := m.Validate(); err != nil {
		return teximage.Image{}, err
	}

	n := len(m.Data) / c.srcBPP
	data := make([]byte, n*c.dstBPP)
	for i := 0; i < n; i++ {
		c.pixel(data[i*c.dstBPP:(i+1)*c.dstBPP], m.Data[i*c.srcBPP:(i+1)*c.srcBPP])
	}
	return teximage.New(c.Dst, m.Width, m.Height, data)
}

func mustNew(src glformat.Format, dst glformat.Format, pixel PixelFunc) *Converter {
	c, err := New(src, dst, pixel)
	if err != nil {
		panic(err)
	}
	return c
}

func mustBits(f glformat.Format) []uint8 {
	info, err := glformat.Lookup(f)
	if err != nil {
		panic(err)
	}
	return info.Bits
}

// Standard returns the built-in converters.
func Standard() []*Converter {
	return []*Converter{
		mustNew(glformat.RGB8, glformat.RGBA8, addAlpha),
		mustNew(glformat.RGBA8, glformat.RGB8, dropAlpha),

		mustNew(glformat.RGB8, glformat.RGB565, Pack(mustBits(glformat.RGB565))),
		mustNew(glformat.RGB565, glformat.RGB8, Unpack(mustBits(glformat.RGB565))),
		mustNew(glformat.RGBA8, glformat.RGBA4, Pack(mustBits(glformat.RGBA4))),
		mustNew(glformat.RGBA4, glformat.RGBA8, Unpack(mustBits(glformat.RGBA4))),
		mustNew(glformat.RGBA8, glformat.RGB5A1, Pack(mustBits(glformat.RGB5A1))),
		mustNew(glformat.RGB5A1, glformat.RGBA8, Unpack(mustBits(glformat.RGB5A1))),

		mustNew(glformat.SRGB8, glformat.RGB8, sRGBToLinear),
		mustNew(glformat.RGB8, glformat.SRGB8, linearToSRGB),
		mustNew(glformat.SRGB8Alpha8, glformat.RGBA8, sRGBToLinear),
		mustNew(glformat.RGBA8, glformat.SRGB8Alpha8, linearToSRGB),
	}
}

func addAlpha(dst []byte, src []byte) {
	dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xFF
}

func dropAlpha(dst []byte, src []byte) {
	dst[0], dst[1], dst[2] = src[0], src[1], src[2]
}

// Pack returns a PixelFunc that quantizes 8-bit channels to the given bit
// widths, c*(2^b-1)/255, and packs them into a little-endian integer.
func Pack(bits []uint8) PixelFunc {
	return func(dst []byte, src []byte) {
		v := uint32(0)
		for i, b := range bits {
			maxQ := (uint32(1) << b) - 1
			v = (v << b) | ((uint32(src[i]) * maxQ) / 0xFF)
		}
		for i := range dst {
			dst[i] = uint8(v >> (8 * i))
		}
	}
}

// Unpack returns the PixelFunc that reverses Pack, widening each channel with
// q*255/(2^b-1).
func Unpack(bits []uint8) PixelFunc {
	total := uint(0)
	for _, b := range bits {
		total += uint(b)
	}
	return func(dst []byte, src []byte) {
		v := uint32(0)
		for i := range src {
			v |= uint32(src[i]) << (8 * i)
		}
		shift := total
		for i, b := range bits {
			shift -= uint(b)
			maxQ := (uint32(1) << b) - 1
			dst[i] = uint8((((v >> shift) & maxQ) * 0xFF) / maxQ)
		}
	}
}

var (
	decodeTable [256]uint8
	encodeTable [256]uint8
)

func init() {
	for i := 0; i < 256; i++ {
		decodeTable[i] = SRGBToLinear(uint8(i))
		encodeTable[i] = LinearToSRGB(uint8(i))
	}
}

// SRGBToLinear decodes one sRGB channel value.
func SRGBToLinear(s uint8) uint8 {
	c := float64(s) / 255
	if c > 0.04045 {
		c = math.Pow((c+0.055)/1.055, 2.4)
	} else {
		c = c / 12.92
	}
	return uint8(c * 255)
}

// LinearToSRGB encodes one linear channel value.
func LinearToSRGB(l uint8) uint8 {
	c := float64(l) / 255
	if c >= 0.0031308 {
		c = (1.055 * math.Pow(c, 1/2.4)) - 0.055
	} else {
		c = c * 12.92
	}
	return uint8(c * 255)
}

// sRGBToLinear and linearToSRGB leave a fourth (alpha) channel unchanged.

func sRGBToLinear(dst []byte, src []byte) {
	for i := 0; i < 3; i++ {
		dst[i] = decodeTable[src[i]]
	}
	if len(dst) == 4 {
		dst[3] = src[3]
	}
}

func linearToSRGB(dst []byte, src []byte) {
	for i := 0; i < 3; i++ {
		dst[i] = encodeTable[src[i]]
	}
	if len(dst) == 4 {
		dst[3] = src[3]
	}
}
