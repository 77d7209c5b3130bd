// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package nie

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestEncodeBN4(tt *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xFF})
	m.SetNRGBA(1, 0, color.NRGBA{R: 0x44, G: 0x55, B: 0x66, A: 0x80})

	buf := &bytes.Buffer{}
	if err := Encode(buf, m, Depth4); err != nil {
		tt.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x6E, 0xC3, 0xAF, 0x45, 0xFF, 'b', 'n', '4',
		0x02, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x33, 0x22, 0x11, 0xFF, 0x66, 0x55, 0x44, 0x80,
	}
	if got := buf.Bytes(); !bytes.Equal(got, want) {
		tt.Errorf("got\n% 02X\nwant\n% 02X", got, want)
	}
}

func TestRoundTrip(tt *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 13)
	}

	for _, depth := range []Depth{Depth4, Depth8} {
		buf := &bytes.Buffer{}
		if err := Encode(buf, src, depth); err != nil {
			tt.Fatalf("depth=%d: Encode: %v", depth, err)
		}

		config, err := DecodeConfig(bytes.NewReader(buf.Bytes()))
		if err != nil {
			tt.Fatalf("depth=%d: DecodeConfig: %v", depth, err)
		} else if (config.Width != 3) || (config.Height != 2) {
			tt.Fatalf("depth=%d: DecodeConfig: got %dx%d", depth, config.Width, config.Height)
		}

		got, err := Decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			tt.Fatalf("depth=%d: Decode: %v", depth, err)
		}
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				var g color.NRGBA
				switch got := got.(type) {
				case *image.NRGBA:
					g = got.NRGBAAt(x, y)
				case *image.NRGBA64:
					c := got.NRGBA64At(x, y)
					g = color.NRGBA{uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8), uint8(c.A >> 8)}
				default:
					tt.Fatalf("depth=%d: Decode: unexpected type %T", depth, got)
				}
				if w := src.NRGBAAt(x, y); g != w {
					tt.Errorf("depth=%d: (%d, %d): got %v, want %v", depth, x, y, g, w)
				}
			}
		}
	}
}

func TestImageDecode(tt *testing.T) {
	buf := &bytes.Buffer{}
	if err := Encode(buf, image.NewNRGBA(image.Rect(0, 0, 1, 1)), Depth4); err != nil {
		tt.Fatalf("Encode: %v", err)
	}
	_, name, err := image.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		tt.Fatalf("image.Decode: %v", err)
	} else if name != "nie" {
		tt.Errorf("image.Decode: got format %q, want %q", name, "nie")
	}
}

func TestDecodeRejects(tt *testing.T) {
	testCases := map[string][]byte{
		"empty":       nil,
		"bad magic":   []byte("nie\xff\xffbn4\x01\x00\x00\x00\x01\x00\x00\x00"),
		"bad depth":   []byte("n\xc3\xafE\xffbn2\x01\x00\x00\x00\x01\x00\x00\x00"),
		"short pixel": []byte("n\xc3\xafE\xffbn4\x01\x00\x00\x00\x01\x00\x00\x00\x00"),
	}
	for name, src := range testCases {
		if _, err := Decode(bytes.NewReader(src)); err == nil {
			tt.Errorf("tc=%q: got nil error", name)
		}
	}
}
