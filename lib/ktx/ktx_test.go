// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ktx

import (
	"bytes"
	"encoding/binary"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantempo/OGLImage/lib/glformat"
	"github.com/hantempo/OGLImage/lib/texerr"
	"github.com/hantempo/OGLImage/lib/teximage"
)

func mustImage(tt *testing.T, f glformat.Format, w uint32, h uint32, data []byte) teximage.Image {
	m, err := teximage.New(f, w, h, data)
	require.NoError(tt, err)
	return m
}

// buildKTX hand-assembles a KTX file with the given byte order.
func buildKTX(order binary.AppendByteOrder, fields [12]uint32, kv []byte, imageSize uint32, payload []byte) []byte {
	buf := append([]byte(nil), Identifier[:]...)
	buf = order.AppendUint32(buf, Endianness)
	for _, v := range fields {
		buf = order.AppendUint32(buf, v)
	}
	buf = append(buf, kv...)
	buf = order.AppendUint32(buf, imageSize)
	return append(buf, payload...)
}

func TestRoundTrip(tt *testing.T) {
	for _, f := range glformat.Formats() {
		for _, dim := range [][2]uint32{{1, 1}, {5, 3}, {16, 9}} {
			w, h := dim[0], dim[1]
			size, err := glformat.SizeOf(f, w, h)
			require.NoError(tt, err)
			data := make([]byte, size)
			for i := range data {
				data[i] = byte(i * 7)
			}
			src := mustImage(tt, f, w, h, data)

			buf := &bytes.Buffer{}
			require.NoError(tt, Encode(buf, src), "tc=%s %dx%d", f, w, h)
			assert.Equal(tt, HeaderSize+4+int(size), buf.Len(), "tc=%s %dx%d", f, w, h)

			got, err := Decode(bytes.NewReader(buf.Bytes()))
			require.NoError(tt, err, "tc=%s %dx%d", f, w, h)
			assert.Equal(tt, src, got, "tc=%s %dx%d", f, w, h)
		}
	}
}

func TestDecodeOverstatedImageSize(tt *testing.T) {
	const w, h = 8192, 8192
	fields := [12]uint32{
		glformat.GL_UNSIGNED_BYTE, 1, glformat.GL_RGBA, uint32(glformat.RGBA8), glformat.GL_RGBA,
		w, h, 0, 0, 1, 1, 0,
	}
	src := buildKTX(binary.LittleEndian, fields, nil, w*h*4, nil)
	require.Len(tt, src, HeaderSize+4)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	got, err := Decode(bytes.NewReader(src))
	runtime.ReadMemStats(&after)

	assert.True(tt, texerr.Is(err, texerr.Container), "%v", err)
	assert.ErrorIs(tt, err, io.ErrUnexpectedEOF)
	assert.True(tt, got.IsEmpty())
	assert.Less(tt, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestEncodeHeaderFields(tt *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(tt, Encode(buf, mustImage(tt, glformat.ETC1RGB8, 4, 4, make([]byte, 8))))

	h, err := DecodeHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(tt, err)
	assert.False(tt, h.BigEndian)
	assert.Equal(tt, uint32(0), h.GLType)
	assert.Equal(tt, uint32(1), h.GLTypeSize)
	assert.Equal(tt, uint32(0), h.GLFormat)
	assert.Equal(tt, uint32(glformat.ETC1RGB8), h.GLInternalFormat)
	assert.Equal(tt, uint32(glformat.GL_RGB), h.GLBaseInternalFormat)
	assert.Equal(tt, uint32(4), h.PixelWidth)
	assert.Equal(tt, uint32(4), h.PixelHeight)
	assert.Equal(tt, uint32(1), h.NumberOfFaces)
	assert.Equal(tt, uint32(1), h.NumberOfMipmapLevels)

	buf.Reset()
	require.NoError(tt, Encode(buf, mustImage(tt, glformat.RGB8, 1, 1, []byte{1, 2, 3})))
	h, err = DecodeHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(tt, err)
	assert.Equal(tt, uint32(glformat.GL_UNSIGNED_BYTE), h.GLType)
	assert.Equal(tt, uint32(1), h.GLTypeSize)
	assert.Equal(tt, uint32(glformat.GL_RGB), h.GLFormat)
}

func TestEncodeEmptyWritesNothing(tt *testing.T) {
	m, err := teximage.NewEmpty(glformat.RGB8, 4, 4)
	require.NoError(tt, err)
	buf := &bytes.Buffer{}
	require.NoError(tt, Encode(buf, m))
	assert.Zero(tt, buf.Len())
}

func TestDecodeRepairsUnsizedFormat(tt *testing.T) {
	fields := [12]uint32{
		glformat.GL_UNSIGNED_BYTE, 1, glformat.GL_RGBA, glformat.GL_RGBA, glformat.GL_RGBA,
		1, 1, 0, 0, 1, 1, 0,
	}
	got, err := Decode(bytes.NewReader(buildKTX(binary.LittleEndian, fields, nil, 4, []byte{1, 2, 3, 4})))
	require.NoError(tt, err)
	assert.Equal(tt, glformat.RGBA8, got.Format)
	assert.Equal(tt, []byte{1, 2, 3, 4}, got.Data)

	fields[0], fields[2], fields[3] = glformat.GL_UNSIGNED_SHORT_5_6_5, glformat.GL_RGB, glformat.GL_RGB
	fields[1] = 2
	got, err = Decode(bytes.NewReader(buildKTX(binary.LittleEndian, fields, nil, 2, []byte{0x53, 0x00})))
	require.NoError(tt, err)
	assert.Equal(tt, glformat.RGB565, got.Format)

	fields[0], fields[2], fields[3] = glformat.GL_UNSIGNED_BYTE, glformat.GL_RED, glformat.GL_RGB
	_, err = Decode(bytes.NewReader(buildKTX(binary.LittleEndian, fields, nil, 1, []byte{1})))
	assert.True(tt, texerr.Is(err, texerr.Container), "%v", err)
}

func TestDecodeSkipsKeyValueData(tt *testing.T) {
	kv := []byte("\x0c\x00\x00\x00KTXorientation=rd\x00\x00\x00")
	fields := [12]uint32{
		glformat.GL_UNSIGNED_BYTE, 1, glformat.GL_RGB, uint32(glformat.RGB8), glformat.GL_RGB,
		1, 1, 0, 0, 1, 1, uint32(len(kv)),
	}
	got, err := Decode(bytes.NewReader(buildKTX(binary.LittleEndian, fields, kv, 3, []byte{9, 8, 7})))
	require.NoError(tt, err)
	assert.Equal(tt, []byte{9, 8, 7}, got.Data)
}

func TestDecodeBigEndian(tt *testing.T) {
	fields := [12]uint32{
		glformat.GL_UNSIGNED_SHORT_5_6_5, 2, glformat.GL_RGB, uint32(glformat.RGB565), glformat.GL_RGB,
		2, 1, 0, 0, 1, 1, 0,
	}
	src := buildKTX(binary.BigEndian, fields, nil, 4, []byte{0xF8, 0x7D, 0x00, 0x53})

	h, err := DecodeHeader(bytes.NewReader(src))
	require.NoError(tt, err)
	assert.True(tt, h.BigEndian)
	assert.Equal(tt, uint32(2), h.PixelWidth)

	got, err := Decode(bytes.NewReader(src))
	require.NoError(tt, err)
	assert.Equal(tt, []byte{0x7D, 0xF8, 0x53, 0x00}, got.Data)
}

func TestDecodeOneDimensional(tt *testing.T) {
	fields := [12]uint32{
		glformat.GL_UNSIGNED_BYTE, 1, glformat.GL_RGB, uint32(glformat.RGB8), glformat.GL_RGB,
		2, 0, 0, 0, 1, 1, 0,
	}
	got, err := Decode(bytes.NewReader(buildKTX(binary.LittleEndian, fields, nil, 6, make([]byte, 6))))
	require.NoError(tt, err)
	assert.Equal(tt, uint32(2), got.Width)
	assert.Equal(tt, uint32(1), got.Height)
}

func TestDecodeRejects(tt *testing.T) {
	valid := [12]uint32{
		glformat.GL_UNSIGNED_BYTE, 1, glformat.GL_RGB, uint32(glformat.RGB8), glformat.GL_RGB,
		1, 1, 0, 0, 1, 1, 0,
	}

	testCases := map[string][]byte{
		"empty":     nil,
		"truncated": buildKTX(binary.LittleEndian, valid, nil, 3, []byte{1, 2})[:40],
		"short":     buildKTX(binary.LittleEndian, valid, nil, 3, []byte{1, 2}),
		"bad size":  buildKTX(binary.LittleEndian, valid, nil, 4, []byte{1, 2, 3, 4}),
	}

	badMagic := buildKTX(binary.LittleEndian, valid, nil, 3, []byte{1, 2, 3})
	badMagic[1] = 'k'
	testCases["bad magic"] = badMagic

	badEndian := buildKTX(binary.LittleEndian, valid, nil, 3, []byte{1, 2, 3})
	badEndian[12] = 0xFF
	testCases["bad endianness"] = badEndian

	cube := valid
	cube[9] = 6
	testCases["cube map"] = buildKTX(binary.LittleEndian, cube, nil, 3, []byte{1, 2, 3})

	array := valid
	array[8] = 2
	testCases["array"] = buildKTX(binary.LittleEndian, array, nil, 3, []byte{1, 2, 3})

	unknown := valid
	unknown[3] = 0x1234
	testCases["unknown format"] = buildKTX(binary.LittleEndian, unknown, nil, 3, []byte{1, 2, 3})

	for name, src := range testCases {
		_, err := Decode(bytes.NewReader(src))
		assert.True(tt, texerr.Is(err, texerr.Container), "tc=%q: %v", name, err)
	}
}
