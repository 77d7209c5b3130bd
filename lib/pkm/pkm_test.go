// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package pkm

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

func TestRoundTrip(tt *testing.T) {
	testCases := []struct {
		format glformat.Format
		w, h   uint32
	}{
		{glformat.ETC1RGB8, 24, 32},
		{glformat.ETC1RGB8, 21, 32},
		{glformat.RGB8ETC2, 80, 60},
		{glformat.RGBA8ETC2EAC, 54, 64},
		{glformat.RGB8PunchthroughAlpha1ETC2, 1, 1},
		{glformat.R11EAC, 64, 62},
		{glformat.SignedR11EAC, 4, 4},
		{glformat.RG11EAC, 5, 3},
		{glformat.SignedRG11EAC, 8, 8},
		{glformat.SRGB8ETC2, 12, 4},
		{glformat.SRGB8Alpha8ETC2EAC, 4, 12},
		{glformat.SRGB8PunchthroughAlpha1ETC2, 7, 7},
	}

	for _, tc := range testCases {
		size, err := glformat.SizeOf(tc.format, tc.w, tc.h)
		if err != nil {
			tt.Fatalf("tc=%s: SizeOf: %v", tc.format, err)
		}
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i * 3)
		}
		src, err := teximage.New(tc.format, tc.w, tc.h, data)
		if err != nil {
			tt.Fatalf("tc=%s: teximage.New: %v", tc.format, err)
		}

		buf := &bytes.Buffer{}
		if err := Encode(buf, src); err != nil {
			tt.Errorf("tc=%s: Encode: %v", tc.format, err)
			continue
		}
		got, err := Decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			tt.Errorf("tc=%s: Decode: %v", tc.format, err)
			continue
		}
		if (got.Format != src.Format) || (got.Width != src.Width) || (got.Height != src.Height) {
			tt.Errorf("tc=%s: got %v, want %v", tc.format, got, src)
			continue
		}
		if !bytes.Equal(got.Data, src.Data) {
			tt.Errorf("tc=%s: payloads differ", tc.format)
		}
	}
}

func TestEncodeHeader(tt *testing.T) {
	src, err := teximage.New(glformat.ETC1RGB8, 21, 32, make([]byte, 6*8*8))
	if err != nil {
		tt.Fatalf("teximage.New: %v", err)
	}
	buf := &bytes.Buffer{}
	if err := Encode(buf, src); err != nil {
		tt.Fatalf("Encode: %v", err)
	}
	want := []byte{'P', 'K', 'M', ' ', '1', '0', 0x00, 0x00, 0x00, 24, 0x00, 32, 0x00, 21, 0x00, 32}
	if got := buf.Bytes()[:HeaderSize]; !bytes.Equal(got, want) {
		tt.Errorf("header:\n got % 02X\nwant % 02X", got, want)
	}
}

func TestEncodeRejectsNonETC(tt *testing.T) {
	src, err := teximage.New(glformat.RGBAASTC4x4, 4, 4, make([]byte, 16))
	if err != nil {
		tt.Fatalf("teximage.New: %v", err)
	}
	if err := Encode(&bytes.Buffer{}, src); !texerr.Is(err, texerr.Container) {
		tt.Errorf("Encode: got %v, want a Container error", err)
	}
}

func TestDecodeRejects(tt *testing.T) {
	valid := []byte{'P', 'K', 'M', ' ', '2', '0', 0x00, 0x01, 0x00, 4, 0x00, 4, 0x00, 4, 0x00, 4}
	mutate := func(i int, b byte) []byte {
		ret := append([]byte(nil), valid...)
		ret[i] = b
		return append(ret, make([]byte, 8)...)
	}

	testCases := map[string][]byte{
		"empty":            nil,
		"short header":     valid[:8],
		"short payload":    append(append([]byte(nil), valid...), 1, 2, 3),
		"bad magic":        mutate(0, 'Q'),
		"bad version":      mutate(4, '3'),
		"version mismatch": mutate(7, 0x00),
		"reserved code":    mutate(7, 0x02),
		"unknown code":     mutate(7, 0x0C),
		"bad padding":      mutate(9, 8),
	}
	for name, src := range testCases {
		if _, err := Decode(bytes.NewReader(src)); !texerr.Is(err, texerr.Container) {
			tt.Errorf("tc=%q: got %v, want a Container error", name, err)
		}
	}
}

func TestDecodeOverstatedDimensions(tt *testing.T) {
	// 65532×65532 ETC2 RGB claims a 2 GiB payload that is not there.
	src := []byte{'P', 'K', 'M', ' ', '2', '0', 0x00, 0x01, 0xFF, 0xFC, 0xFF, 0xFC, 0xFF, 0xFC, 0xFF, 0xFC}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	m, err := Decode(bytes.NewReader(src))
	runtime.ReadMemStats(&after)

	if !texerr.Is(err, texerr.Container) || !errors.Is(err, io.ErrUnexpectedEOF) {
		tt.Fatalf("Decode: got %v, want a Container error wrapping io.ErrUnexpectedEOF", err)
	}
	if !m.IsEmpty() {
		tt.Errorf("Decode: got %v, want an empty image", m)
	}
	if n := after.TotalAlloc - before.TotalAlloc; n >= 1<<20 {
		tt.Errorf("Decode allocated %d bytes", n)
	}
}
