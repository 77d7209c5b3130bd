// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package imagefile converts between generic image files (PNG, BMP, TIFF,
// PPM, TGA, NIE and, decode only, GIF, JPEG and WebP) and uncompressed texture
// images.
//
// Decoded images become GL_RGB8 when their pixel type has no alpha channel
// (or is fully opaque) and GL_RGBA8 otherwise. Only those two formats can be
// encoded.
package imagefile

import (
	"bufio"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/spakin/netpbm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/hantempo/OGLImage/internal/nie"
	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

// Mode names the channel layout of a generic image.
type Mode string

const (
	ModeRGB  Mode = "RGB"
	ModeRGBA Mode = "RGBA"
)

var modeFormats = map[Mode]glformat.Format{
	ModeRGB:  glformat.RGB8,
	ModeRGBA: glformat.RGBA8,
}

// FormatOf returns the texture format for mode.
func FormatOf(mode Mode) (glformat.Format, bool) {
	f, ok := modeFormats[mode]
	return f, ok
}

// ModeOf returns the image mode for the texture format f.
func ModeOf(f glformat.Format) (Mode, bool) {
	for mode, g := range modeFormats {
		if g == f {
			return mode, true
		}
	}
	return "", false
}

type encodeFunc func(w io.Writer, m image.Image, mode Mode) error

var encoders = map[string]encodeFunc{
	".bmp":  encodeBMP,
	".nie":  encodeNIE,
	".png":  encodePNG,
	".ppm":  encodePPM,
	".tga":  encodeTGA,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeBMP(w io.Writer, m image.Image, mode Mode) error { return bmp.Encode(w, m) }

func encodeNIE(w io.Writer, m image.Image, mode Mode) error { return nie.Encode(w, m, nie.Depth4) }

func encodePNG(w io.Writer, m image.Image, mode Mode) error { return png.Encode(w, m) }

func encodeTGA(w io.Writer, m image.Image, mode Mode) error { return tga.Encode(w, m) }

func encodeTIFF(w io.Writer, m image.Image, mode Mode) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
}

func encodePPM(w io.Writer, m image.Image, mode Mode) error {
	if mode != ModeRGB {
		return texerr.New(texerr.Format, "imagefile.Encode", "PPM cannot hold mode %s", mode)
	}
	return netpbm.Encode(w, m, &netpbm.EncodeOptions{Format: netpbm.PPM, MaxValue: 255})
}

// CanEncode returns whether Encode supports the file extension ext, such as
// ".png".
func CanEncode(ext string) bool {
	_, ok := encoders[strings.ToLower(ext)]
	return ok
}

type decoder struct {
	name string
	// magic is the file prefix. A '?' matches any byte.
	magic  string
	decode func(r io.Reader) (image.Image, error)
	// mode classifies a decoded image. nil means modeOfImage.
	mode func(m image.Image) Mode
}

var decoders = []decoder{
	{"png", "\x89PNG\r\n\x1a\n", png.Decode, nil},
	{"gif", "GIF87a", gif.Decode, nil},
	{"gif", "GIF89a", gif.Decode, nil},
	{"jpeg", "\xff\xd8", jpeg.Decode, nil},
	{"bmp", "BM????\x00\x00\x00\x00", bmp.Decode, nil},
	{"tiff", "II*\x00", tiff.Decode, nil},
	{"tiff", "MM\x00*", tiff.Decode, nil},
	{"webp", "RIFF????WEBPVP8", webp.Decode, nil},
	{"nie", nie.Magic, nie.Decode, nil},
	{"pgm", "P2", decodeNetpbm, modeOfNetpbm},
	{"ppm", "P3", decodeNetpbm, modeOfNetpbm},
	{"pgm", "P5", decodeNetpbm, modeOfNetpbm},
	{"ppm", "P6", decodeNetpbm, modeOfNetpbm},
	{"pam", "P7", decodeNetpbm, modeOfNetpbm},
}

// tgaDecoder is used by file extension. TGA files have no magic number.
var tgaDecoder = decoder{"tga", "", tga.Decode, modeOfTGA}

func decodeNetpbm(r io.Reader) (image.Image, error) {
	m, err := netpbm.Decode(r, nil)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func modeOfNetpbm(m image.Image) Mode {
	if p, ok := m.(netpbm.Image); ok && p.HasAlpha() {
		return ModeRGBA
	}
	return ModeRGB
}

func modeOfTGA(m image.Image) Mode {
	if o, ok := m.(interface{ Opaque() bool }); ok && o.Opaque() {
		return ModeRGB
	}
	return modeOfImage(m)
}

func match(magic string, b []byte) bool {
	if len(magic) > len(b) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if (magic[i] != '?') && (magic[i] != b[i]) {
			return false
		}
	}
	return true
}

func sniff(r *bufio.Reader, ext string) (decoder, bool) {
	b, _ := r.Peek(16)
	for _, d := range decoders {
		if match(d.magic, b) {
			return d, true
		}
	}
	if strings.ToLower(ext) == ".tga" {
		return tgaDecoder, true
	}
	return decoder{}, false
}

// Decode reads a generic image file from r. The format is identified by its
// magic number. ext is the file name extension, such as ".png", and is only
// consulted for formats without a magic number.
func Decode(r io.Reader, ext string) (teximage.Image, error) {
	br := bufio.NewReader(r)
	d, ok := sniff(br, ext)
	if !ok {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "imagefile.Decode", errors.Wrapf(image.ErrFormat, "decoding %q image", ext))
	}
	m, err := d.decode(br)
	if err != nil {
		return teximage.Image{}, texerr.Wrap(texerr.Container, "imagefile.Decode", errors.Wrapf(err, "decoding %s image", d.name))
	}
	mode := modeOfImage(m)
	if d.mode != nil {
		mode = d.mode(m)
	}
	return fromImage(m, mode)
}

// Encode writes m to w in the generic image format selected by ext, such as
// ".png". m's format must be GL_RGB8 or GL_RGBA8.
//
// Encoding an empty image writes nothing.
func Encode(w io.Writer, ext string, m teximage.Image) error {
	if m.IsEmpty() {
		return nil
	}
	enc, ok := encoders[strings.ToLower(ext)]
	if !ok {
		return texerr.New(texerr.Format, "imagefile.Encode", "no encoder for %q files", ext)
	}
	mode, ok := ModeOf(m.Format)
	if !ok {
		return texerr.New(texerr.Format, "imagefile.Encode", "%s is not a generic image mode", m.Format)
	}
	src, err := ToImage(m)
	if err != nil {
		return err
	}
	if err := enc(w, src, mode); err != nil {
		if texerr.CodeOf(err) == texerr.Format {
			return err
		}
		return texerr.Wrap(texerr.Container, "imagefile.Encode", err)
	}
	return nil
}

// modeOfImage classifies m's pixel type. Types without an alpha channel map
// to ModeRGB, as do opaque RGBA and paletted images.
func modeOfImage(m image.Image) Mode {
	switch m := m.(type) {
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return ModeRGB
	case *image.RGBA:
		if m.Opaque() {
			return ModeRGB
		}
	case *image.RGBA64:
		if m.Opaque() {
			return ModeRGB
		}
	case *image.Paletted:
		if m.Opaque() {
			return ModeRGB
		}
	}
	return ModeRGBA
}

// FromImage converts m to a GL_RGB8 or GL_RGBA8 texture image with
// non-premultiplied alpha.
func FromImage(m image.Image) (teximage.Image, error) {
	return fromImage(m, modeOfImage(m))
}

func fromImage(m image.Image, mode Mode) (teximage.Image, error) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if (uint64(w) > 0xFFFF_FFFF) || (uint64(h) > 0xFFFF_FFFF) {
		return teximage.Image{}, texerr.New(texerr.BadArgument, "imagefile.FromImage", "image is too large")
	}

	n := 4
	if mode == ModeRGB {
		n = 3
	}
	data := make([]byte, 0, w*h*n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := nrgbaAt(m, x, y)
			data = append(data, c.R, c.G, c.B)
			if mode == ModeRGBA {
				data = append(data, c.A)
			}
		}
	}
	return teximage.New(modeFormats[mode], uint32(w), uint32(h), data)
}

func nrgbaAt(m image.Image, x int, y int) color.NRGBA {
	switch m := m.(type) {
	case *image.NRGBA:
		return m.NRGBAAt(x, y)
	case *image.NRGBA64:
		c := m.NRGBA64At(x, y)
		return color.NRGBA{uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8), uint8(c.A >> 8)}
	}
	return color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
}

// ToImage converts a GL_RGB8 or GL_RGBA8 texture image to an *image.RGBA (for
// GL_RGB8, always opaque) or an *image.NRGBA (for GL_RGBA8).
func ToImage(m teximage.Image) (image.Image, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.IsEmpty() {
		return nil, texerr.New(texerr.BadArgument, "imagefile.ToImage", "image is empty")
	}
	rect := image.Rect(0, 0, int(m.Width), int(m.Height))
	switch m.Format {
	case glformat.RGB8:
		dst := image.NewRGBA(rect)
		for i, j := 0, 0; i < len(m.Data); i, j = i+3, j+4 {
			dst.Pix[j+0] = m.Data[i+0]
			dst.Pix[j+1] = m.Data[i+1]
			dst.Pix[j+2] = m.Data[i+2]
			dst.Pix[j+3] = 0xFF
		}
		return dst, nil
	case glformat.RGBA8:
		dst := image.NewNRGBA(rect)
		copy(dst.Pix, m.Data)
		return dst, nil
	}
	return nil, texerr.New(texerr.Format, "imagefile.ToImage", "%s is not a generic image mode", m.Format)
}

// Resize scales a GL_RGB8 or GL_RGBA8 image to width×height with Lanczos
// resampling. A zero width or height preserves the aspect ratio.
func Resize(m teximage.Image, width uint32, height uint32) (teximage.Image, error) {
	if m.IsEmpty() {
		return m, nil
	}
	src, err := ToImage(m)
	if err != nil {
		return teximage.Image{}, err
	}
	dst := resize.Resize(uint(width), uint(height), src, resize.Lanczos3)

	ret, err := FromImage(dst)
	if err != nil {
		return teximage.Image{}, err
	}
	if ret.Format == m.Format {
		return ret, nil
	}
	return reformat(ret, m.Format)
}

// reformat converts between GL_RGB8 and GL_RGBA8 when resampling changed
// whether the image looks opaque.
func reformat(m teximage.Image, f glformat.Format) (teximage.Image, error) {
	n := int(m.Width) * int(m.Height)
	var data []byte
	switch {
	case (m.Format == glformat.RGBA8) && (f == glformat.RGB8):
		data = make([]byte, 0, n*3)
		for i := 0; i < len(m.Data); i += 4 {
			data = append(data, m.Data[i:i+3]...)
		}
	case (m.Format == glformat.RGB8) && (f == glformat.RGBA8):
		data = make([]byte, 0, n*4)
		for i := 0; i < len(m.Data); i += 3 {
			data = append(data, m.Data[i:i+3]...)
			data = append(data, 0xFF)
		}
	default:
		return teximage.Image{}, texerr.New(texerr.Format, "imagefile.Resize", "cannot convert %s to %s", m.Format, f)
	}
	return teximage.New(f, m.Width, m.Height, data)
}
