// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package nie implements the NIE (Naive) image file format.
//
// It is an incomplete implementation (and hence an internal package), only
// providing the BGRA 4 and 8 bytes per pixel variants.
//
// NIE is specified at
// https://github.com/google/wuffs/blob/main/doc/spec/nie-spec.md
package nie

import (
	"bufio"
	"errors"
	"image"
	"image/color"
	"io"
)

// Magic is the byte string prefix of every NIE image file.
const Magic = "n\xc3\xafE"

func init() {
	image.RegisterFormat("nie", Magic, Decode, DecodeConfig)
}

var (
	ErrBadArgument          = errors.New("nie: bad argument")
	ErrNotANIEFile          = errors.New("nie: not a NIE file")
	ErrImageIsTooLarge      = errors.New("nie: image is too large")
	ErrUnsupportedImageType = errors.New("nie: unsupported image type")
)

// Depth is the number of bytes per pixel.
type Depth int

const (
	Depth4 Depth = 4
	Depth8 Depth = 8
)

type header struct {
	premultiplied bool
	depth         Depth
	width         int
	height        int
}

func decodeHeader(r io.Reader) (header, error) {
	buf := [16]byte{}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return header{}, err
	} else if (string(buf[:4]) != Magic) || (buf[4] != 0xFF) || (buf[5] != 'b') {
		return header{}, ErrNotANIEFile
	}

	h := header{}
	switch buf[6] {
	case 'n':
	case 'p':
		h.premultiplied = true
	default:
		return header{}, ErrNotANIEFile
	}
	switch buf[7] {
	case '4':
		h.depth = Depth4
	case '8':
		h.depth = Depth8
	default:
		return header{}, ErrNotANIEFile
	}

	w, hh := u32LE(buf[8:12]), u32LE(buf[12:16])
	if (w > 0x7FFF_FFFF) || (hh > 0x7FFF_FFFF) {
		return header{}, ErrNotANIEFile
	} else if (uint64(w) * uint64(hh)) > (1 << 28) {
		return header{}, ErrImageIsTooLarge
	}
	h.width, h.height = int(w), int(hh)
	return h, nil
}

func (h header) colorModel() color.Model {
	switch {
	case h.premultiplied && (h.depth == Depth8):
		return color.RGBA64Model
	case h.premultiplied:
		return color.RGBAModel
	case h.depth == Depth8:
		return color.NRGBA64Model
	}
	return color.NRGBAModel
}

// DecodeConfig reads a NIE image configuration from r.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: h.colorModel(),
		Width:      h.width,
		Height:     h.height,
	}, nil
}

// Decode reads a NIE image from r. It returns an *image.NRGBA, *image.NRGBA64,
// *image.RGBA or *image.RGBA64, depending on the file's alpha premultiplication
// and depth.
func Decode(r io.Reader) (image.Image, error) {
	h, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, h.width, h.height)
	rowBytes := h.width * int(h.depth)
	row := make([]byte, rowBytes)

	var pix []byte
	var stride int
	var ret image.Image
	switch {
	case h.premultiplied && (h.depth == Depth8):
		m := image.NewRGBA64(rect)
		pix, stride, ret = m.Pix, m.Stride, m
	case h.premultiplied:
		m := image.NewRGBA(rect)
		pix, stride, ret = m.Pix, m.Stride, m
	case h.depth == Depth8:
		m := image.NewNRGBA64(rect)
		pix, stride, ret = m.Pix, m.Stride, m
	default:
		m := image.NewNRGBA(rect)
		pix, stride, ret = m.Pix, m.Stride, m
	}

	for y := 0; y < h.height; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		dst := pix[y*stride : (y*stride)+rowBytes]
		if h.depth == Depth4 {
			// BGRA to RGBA.
			for i := 0; i < rowBytes; i += 4 {
				dst[i+0] = row[i+2]
				dst[i+1] = row[i+1]
				dst[i+2] = row[i+0]
				dst[i+3] = row[i+3]
			}
		} else {
			// Little-endian BGRA to big-endian RGBA.
			for i := 0; i < rowBytes; i += 8 {
				dst[i+0], dst[i+1] = row[i+5], row[i+4]
				dst[i+2], dst[i+3] = row[i+3], row[i+2]
				dst[i+4], dst[i+5] = row[i+1], row[i+0]
				dst[i+6], dst[i+7] = row[i+7], row[i+6]
			}
		}
	}
	return ret, nil
}

// Encode writes m to w as a NIE file in BGRA order with non-premultiplied
// alpha and the given depth.
func Encode(w io.Writer, m image.Image, depth Depth) error {
	if (depth != Depth4) && (depth != Depth8) {
		return ErrBadArgument
	}
	b := m.Bounds()
	if (uint64(b.Dx()) > 0xFFFF_FFFF) || (uint64(b.Dy()) > 0xFFFF_FFFF) {
		return ErrImageIsTooLarge
	}

	bw := bufio.NewWriter(w)
	hdr := []byte{0x6E, 0xC3, 0xAF, 0x45, 0xFF, 'b', 'n', byte('0' + depth)}
	hdr = appendU32LE(hdr, uint32(b.Dx()))
	hdr = appendU32LE(hdr, uint32(b.Dy()))
	if _, err := bw.Write(hdr); err != nil {
		return err
	}

	px := make([]byte, 0, 8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px = px[:0]
			if depth == Depth4 {
				at := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
				px = append(px, at.B, at.G, at.R, at.A)
			} else {
				at := toNRGBA64(m.At(x, y))
				px = append(px,
					uint8(at.B>>0), uint8(at.B>>8),
					uint8(at.G>>0), uint8(at.G>>8),
					uint8(at.R>>0), uint8(at.R>>8),
					uint8(at.A>>0), uint8(at.A>>8),
				)
			}
			if _, err := bw.Write(px); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// toNRGBA64 widens 8-bit non-premultiplied colors without a round trip
// through premultiplied alpha.
func toNRGBA64(c color.Color) color.NRGBA64 {
	if c, ok := c.(color.NRGBA); ok {
		return color.NRGBA64{
			R: uint16(c.R) * 0x101,
			G: uint16(c.G) * 0x101,
			B: uint16(c.B) * 0x101,
			A: uint16(c.A) * 0x101,
		}
	}
	return color.NRGBA64Model.Convert(c).(color.NRGBA64)
}

func u32LE(b []byte) uint32 {
	return (uint32(b[0]) << 0) |
		(uint32(b[1]) << 8) |
		(uint32(b[2]) << 16) |
		(uint32(b[3]) << 24)
}

func appendU32LE(b []byte, u uint32) []byte {
	return append(b,
		uint8(u>>0),
		uint8(u>>8),
		uint8(u>>16),
		uint8(u>>24),
	)
}
