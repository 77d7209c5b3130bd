// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package glformat

// OpenGL enum values used in KTX headers next to the internal format.
const (
	GL_NONE = 0x0000

	GL_UNSIGNED_BYTE          = 0x1401
	GL_UNSIGNED_SHORT         = 0x1403
	GL_UNSIGNED_SHORT_4_4_4_4 = 0x8033
	GL_UNSIGNED_SHORT_5_5_5_1 = 0x8034
	GL_UNSIGNED_SHORT_5_6_5   = 0x8363

	GL_RED  = 0x1903
	GL_RGB  = 0x1907
	GL_RGBA = 0x1908
	GL_RG   = 0x8227
)

// Internal formats. The numeric values are the OpenGL (and KTX) enum values so
// that container files interoperate with other tools.
const (
	None = Format(GL_NONE)

	RGB8        = Format(0x8051) // GL_RGB8
	RGBA4       = Format(0x8056) // GL_RGBA4
	RGB5A1      = Format(0x8057) // GL_RGB5_A1
	RGBA8       = Format(0x8058) // GL_RGBA8
	SRGB8       = Format(0x8C41) // GL_SRGB8
	SRGB8Alpha8 = Format(0x8C43) // GL_SRGB8_ALPHA8
	RGB565      = Format(0x8D62) // GL_RGB565

	ETC1RGB8 = Format(0x8D64) // GL_ETC1_RGB8_OES

	R11EAC                      = Format(0x9270)
	SignedR11EAC                = Format(0x9271)
	RG11EAC                     = Format(0x9272)
	SignedRG11EAC               = Format(0x9273)
	RGB8ETC2                    = Format(0x9274)
	SRGB8ETC2                   = Format(0x9275)
	RGB8PunchthroughAlpha1ETC2  = Format(0x9276)
	SRGB8PunchthroughAlpha1ETC2 = Format(0x9277)
	RGBA8ETC2EAC                = Format(0x9278)
	SRGB8Alpha8ETC2EAC          = Format(0x9279)

	RGBAASTC4x4   = Format(0x93B0)
	RGBAASTC5x4   = Format(0x93B1)
	RGBAASTC5x5   = Format(0x93B2)
	RGBAASTC6x5   = Format(0x93B3)
	RGBAASTC6x6   = Format(0x93B4)
	RGBAASTC8x5   = Format(0x93B5)
	RGBAASTC8x6   = Format(0x93B6)
	RGBAASTC8x8   = Format(0x93B7)
	RGBAASTC10x5  = Format(0x93B8)
	RGBAASTC10x6  = Format(0x93B9)
	RGBAASTC10x8  = Format(0x93BA)
	RGBAASTC10x10 = Format(0x93BB)
	RGBAASTC12x10 = Format(0x93BC)
	RGBAASTC12x12 = Format(0x93BD)

	SRGB8Alpha8ASTC4x4   = Format(0x93D0)
	SRGB8Alpha8ASTC5x4   = Format(0x93D1)
	SRGB8Alpha8ASTC5x5   = Format(0x93D2)
	SRGB8Alpha8ASTC6x5   = Format(0x93D3)
	SRGB8Alpha8ASTC6x6   = Format(0x93D4)
	SRGB8Alpha8ASTC8x5   = Format(0x93D5)
	SRGB8Alpha8ASTC8x6   = Format(0x93D6)
	SRGB8Alpha8ASTC8x8   = Format(0x93D7)
	SRGB8Alpha8ASTC10x5  = Format(0x93D8)
	SRGB8Alpha8ASTC10x6  = Format(0x93D9)
	SRGB8Alpha8ASTC10x8  = Format(0x93DA)
	SRGB8Alpha8ASTC10x10 = Format(0x93DB)
	SRGB8Alpha8ASTC12x10 = Format(0x93DC)
	SRGB8Alpha8ASTC12x12 = Format(0x93DD)
)
