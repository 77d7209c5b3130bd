// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package glformat is the registry of GPU internal pixel formats.
//
// A Format is an OpenGL internal format enum value, such as 0x8051 for
// GL_RGB8 or 0x8D64 for GL_ETC1_RGB8_OES. Each registered Format is either
// uncompressed, described by its bytes per pixel and channel bit widths, or
// block-compressed, described by its block footprint and bytes per block. It
// is never both.
//
// Querying an unregistered Format is a configuration defect and always
// returns a texerr.Format error. There are no zero-valued defaults.
package glformat

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hantempo/OGLImage/lib/texerr"
)

// Format is an OpenGL internal format enum value.
type Format uint32

// Family groups Formats by how their payload is laid out.
type Family uint8

const (
	FamilyUncompressed = Family(1)
	FamilyETC          = Family(2)
	FamilyASTC         = Family(3)
)

func (f Family) String() string {
	switch f {
	case FamilyUncompressed:
		return "uncompressed"
	case FamilyETC:
		return "etc"
	case FamilyASTC:
		return "astc"
	}
	return "unknown"
}

// Info is the static description of a registered Format.
type Info struct {
	Name   string
	Family Family
	// SRGB is whether color channels are sRGB encoded.
	SRGB bool
	// Components counts the color channels, including alpha.
	Components int

	// BytesPerPixel and Bits describe uncompressed formats. Bits holds one
	// bit width per component, most significant first for packed formats.
	BytesPerPixel int
	Bits          []uint8

	// BlockWidth, BlockHeight and BlockBytes describe compressed formats.
	BlockWidth  int
	BlockHeight int
	BlockBytes  int

	// GLType, GLTypeSize and GLFormat are the values written to a KTX header.
	// Compressed formats use 0, 1 and 0.
	GLType               uint32
	GLTypeSize           uint32
	GLFormat             uint32
	GLBaseInternalFormat uint32
}

// IsCompressed returns whether the Info describes a block-compressed format.
func (i Info) IsCompressed() bool {
	return i.BlockBytes != 0
}

// IsPacked returns whether an uncompressed format stores its components in
// sub-byte bit fields of a single little-endian word.
func (i Info) IsPacked() bool {
	if i.IsCompressed() {
		return false
	}
	for _, b := range i.Bits {
		if b != 8 {
			return true
		}
	}
	return false
}

func uncompressed(name string, srgb bool, bpp int, bits []uint8, glType uint32, glTypeSize uint32, glFormat uint32) Info {
	return Info{
		Name:                 name,
		Family:               FamilyUncompressed,
		SRGB:                 srgb,
		Components:           len(bits),
		BytesPerPixel:        bpp,
		Bits:                 bits,
		GLType:               glType,
		GLTypeSize:           glTypeSize,
		GLFormat:             glFormat,
		GLBaseInternalFormat: glFormat,
	}
}

func compressed(name string, family Family, srgb bool, components int, bw int, bh int, blockBytes int, base uint32) Info {
	return Info{
		Name:                 name,
		Family:               family,
		SRGB:                 srgb,
		Components:           components,
		BlockWidth:           bw,
		BlockHeight:          bh,
		BlockBytes:           blockBytes,
		GLType:               0,
		GLTypeSize:           1,
		GLFormat:             0,
		GLBaseInternalFormat: base,
	}
}

var table = map[Format]Info{
	RGB8:        uncompressed("GL_RGB8", false, 3, []uint8{8, 8, 8}, GL_UNSIGNED_BYTE, 1, GL_RGB),
	RGBA8:       uncompressed("GL_RGBA8", false, 4, []uint8{8, 8, 8, 8}, GL_UNSIGNED_BYTE, 1, GL_RGBA),
	SRGB8:       uncompressed("GL_SRGB8", true, 3, []uint8{8, 8, 8}, GL_UNSIGNED_BYTE, 1, GL_RGB),
	SRGB8Alpha8: uncompressed("GL_SRGB8_ALPHA8", true, 4, []uint8{8, 8, 8, 8}, GL_UNSIGNED_BYTE, 1, GL_RGBA),
	RGB565:      uncompressed("GL_RGB565", false, 2, []uint8{5, 6, 5}, GL_UNSIGNED_SHORT_5_6_5, 2, GL_RGB),
	RGBA4:       uncompressed("GL_RGBA4", false, 2, []uint8{4, 4, 4, 4}, GL_UNSIGNED_SHORT_4_4_4_4, 2, GL_RGBA),
	RGB5A1:      uncompressed("GL_RGB5_A1", false, 2, []uint8{5, 5, 5, 1}, GL_UNSIGNED_SHORT_5_5_5_1, 2, GL_RGBA),

	ETC1RGB8: compressed("GL_ETC1_RGB8_OES", FamilyETC, false, 3, 4, 4, 8, GL_RGB),

	R11EAC:                      compressed("GL_COMPRESSED_R11_EAC", FamilyETC, false, 1, 4, 4, 8, GL_RED),
	SignedR11EAC:                compressed("GL_COMPRESSED_SIGNED_R11_EAC", FamilyETC, false, 1, 4, 4, 8, GL_RED),
	RG11EAC:                     compressed("GL_COMPRESSED_RG11_EAC", FamilyETC, false, 2, 4, 4, 16, GL_RG),
	SignedRG11EAC:               compressed("GL_COMPRESSED_SIGNED_RG11_EAC", FamilyETC, false, 2, 4, 4, 16, GL_RG),
	RGB8ETC2:                    compressed("GL_COMPRESSED_RGB8_ETC2", FamilyETC, false, 3, 4, 4, 8, GL_RGB),
	SRGB8ETC2:                   compressed("GL_COMPRESSED_SRGB8_ETC2", FamilyETC, true, 3, 4, 4, 8, GL_RGB),
	RGB8PunchthroughAlpha1ETC2:  compressed("GL_COMPRESSED_RGB8_PUNCHTHROUGH_ALPHA1_ETC2", FamilyETC, false, 4, 4, 4, 8, GL_RGBA),
	SRGB8PunchthroughAlpha1ETC2: compressed("GL_COMPRESSED_SRGB8_PUNCHTHROUGH_ALPHA1_ETC2", FamilyETC, true, 4, 4, 4, 8, GL_RGBA),
	RGBA8ETC2EAC:                compressed("GL_COMPRESSED_RGBA8_ETC2_EAC", FamilyETC, false, 4, 4, 4, 16, GL_RGBA),
	SRGB8Alpha8ETC2EAC:          compressed("GL_COMPRESSED_SRGB8_ALPHA8_ETC2_EAC", FamilyETC, true, 4, 4, 4, 16, GL_RGBA),
}

// astcFootprints lists the 2D ASTC block footprints in enum order.
var astcFootprints = [14][2]int{
	{4, 4}, {5, 4}, {5, 5}, {6, 5}, {6, 6}, {8, 5}, {8, 6},
	{8, 8}, {10, 5}, {10, 6}, {10, 8}, {10, 10}, {12, 10}, {12, 12},
}

// astcByBlock maps a Layout B block footprint to its (linear) ASTC format.
var astcByBlock = map[[2]uint8]Format{}

var byName = map[string]Format{}

func init() {
	for i, fp := range astcFootprints {
		w, h := fp[0], fp[1]
		table[RGBAASTC4x4+Format(i)] = compressed(
			fmt.Sprintf("GL_COMPRESSED_RGBA_ASTC_%dx%d_KHR", w, h), FamilyASTC, false, 4, w, h, 16, GL_RGBA)
		table[SRGB8Alpha8ASTC4x4+Format(i)] = compressed(
			fmt.Sprintf("GL_COMPRESSED_SRGB8_ALPHA8_ASTC_%dx%d_KHR", w, h), FamilyASTC, true, 4, w, h, 16, GL_RGBA)
	}

	for f, info := range table {
		if (info.BytesPerPixel != 0) == info.IsCompressed() {
			panic("glformat: " + info.Name + " must be exactly one of uncompressed or compressed")
		}
		upper := strings.ToUpper(info.Name)
		if _, dup := byName[upper]; dup {
			panic("glformat: duplicate name " + info.Name)
		}
		byName[upper] = f

		if (info.Family != FamilyASTC) || info.SRGB {
			continue
		}
		key := [2]uint8{uint8(info.BlockWidth), uint8(info.BlockHeight)}
		if other, dup := astcByBlock[key]; dup {
			panic(fmt.Sprintf("glformat: %s and %s share the ASTC block footprint %dx%d",
				info.Name, table[other].Name, key[0], key[1]))
		}
		astcByBlock[key] = f
	}
}

func formatError(op string, f Format) error {
	return texerr.New(texerr.Format, op, "unregistered format %s", f)
}

// Lookup returns the static description of f.
func Lookup(f Format) (Info, error) {
	info, ok := table[f]
	if !ok {
		return Info{}, formatError("glformat.Lookup", f)
	}
	return info, nil
}

// IsRegistered returns whether f is in the registry.
func (f Format) IsRegistered() bool {
	_, ok := table[f]
	return ok
}

// IsCompressed returns whether f is a registered block-compressed format.
func (f Format) IsCompressed() bool {
	return table[f].IsCompressed()
}

// String returns the GL enum name of f, such as "GL_RGB8". Unregistered values
// print in hexadecimal.
func (f Format) String() string {
	if info, ok := table[f]; ok {
		return info.Name
	}
	if f == None {
		return "GL_NONE"
	}
	return fmt.Sprintf("GL_0x%04X", uint32(f))
}

// ASTCBlock returns the Layout B block footprint of f. ok is false for formats
// outside the footprint table, including the sRGB ASTC formats.
func (f Format) ASTCBlock() (bx uint8, by uint8, ok bool) {
	info := table[f]
	if (info.Family != FamilyASTC) || info.SRGB {
		return 0, 0, false
	}
	return uint8(info.BlockWidth), uint8(info.BlockHeight), true
}

// ASTCFormat returns the ASTC format for a Layout B block footprint.
func ASTCFormat(bx uint8, by uint8) (Format, bool) {
	f, ok := astcByBlock[[2]uint8{bx, by}]
	return f, ok
}

// BytesPerPixel returns the size of one pixel of an uncompressed format.
func BytesPerPixel(f Format) (int, error) {
	info, ok := table[f]
	if !ok {
		return 0, formatError("glformat.BytesPerPixel", f)
	} else if info.IsCompressed() {
		return 0, texerr.New(texerr.Format, "glformat.BytesPerPixel", "%s is block-compressed", f)
	}
	return info.BytesPerPixel, nil
}

// ComponentCount returns the number of channels of f.
func ComponentCount(f Format) (int, error) {
	info, ok := table[f]
	if !ok {
		return 0, formatError("glformat.ComponentCount", f)
	}
	return info.Components, nil
}

// BlockDimension returns the block footprint and bytes per block of a
// compressed format.
func BlockDimension(f Format) (width int, height int, blockBytes int, err error) {
	info, ok := table[f]
	if !ok {
		return 0, 0, 0, formatError("glformat.BlockDimension", f)
	} else if !info.IsCompressed() {
		return 0, 0, 0, texerr.New(texerr.Format, "glformat.BlockDimension", "%s is not block-compressed", f)
	}
	return info.BlockWidth, info.BlockHeight, info.BlockBytes, nil
}

// SizeOf returns the payload size of a width×height image in format f.
//
// Block-compressed sizes round partial blocks up.
func SizeOf(f Format, width uint32, height uint32) (uint32, error) {
	info, ok := table[f]
	if !ok {
		return 0, formatError("glformat.SizeOf", f)
	}

	var n uint64
	if info.IsCompressed() {
		bw, bh := uint64(info.BlockWidth), uint64(info.BlockHeight)
		blocksX := (uint64(width) + bw - 1) / bw
		blocksY := (uint64(height) + bh - 1) / bh
		n = blocksX * blocksY * uint64(info.BlockBytes)
	} else {
		n = uint64(width) * uint64(height) * uint64(info.BytesPerPixel)
	}

	if n > 0xFFFF_FFFF {
		return 0, texerr.New(texerr.Format, "glformat.SizeOf",
			"%dx%d %s does not fit in 32 bits", width, height, f)
	}
	return uint32(n), nil
}

// reverse maps the (format, type) pair of a KTX header to a sized format.
var reverse = map[[2]uint32]Format{
	{GL_RGB, GL_UNSIGNED_BYTE}:           RGB8,
	{GL_RGBA, GL_UNSIGNED_BYTE}:          RGBA8,
	{GL_RGB, GL_UNSIGNED_SHORT_5_6_5}:    RGB565,
	{GL_RGBA, GL_UNSIGNED_SHORT_4_4_4_4}: RGBA4,
	{GL_RGBA, GL_UNSIGNED_SHORT_5_5_5_1}: RGB5A1,
}

// IsUnsized returns whether v is an unsized base internal format, which some
// tools write in place of a sized one.
func IsUnsized(v uint32) bool {
	switch v {
	case GL_RED, GL_RG, GL_RGB, GL_RGBA:
		return true
	}
	return false
}

// FromGLFormatType resolves a sized format from a KTX glFormat and glType pair.
func FromGLFormatType(glFormat uint32, glType uint32) (Format, bool) {
	f, ok := reverse[[2]uint32{glFormat, glType}]
	return f, ok
}

// Formats returns every registered format in ascending numeric order.
func Formats() []Format {
	ret := maps.Keys(table)
	slices.Sort(ret)
	return ret
}

// Parse returns the format named s. Names are matched case-insensitively, the
// "GL_" prefix is optional and hexadecimal enum values such as "0x8D64" are
// accepted.
func Parse(s string) (Format, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(name, "0X") {
		v, err := strconv.ParseUint(name[2:], 16, 32)
		if err != nil {
			return None, texerr.Wrap(texerr.Format, "glformat.Parse", err)
		}
		if f := Format(v); f.IsRegistered() {
			return f, nil
		}
		return None, formatError("glformat.Parse", Format(v))
	}
	if !strings.HasPrefix(name, "GL_") {
		name = "GL_" + name
	}
	if f, ok := byName[name]; ok {
		return f, nil
	}
	return None, texerr.New(texerr.Format, "glformat.Parse", "unknown format name %q", s)
}
