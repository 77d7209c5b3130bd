// Copyright 2025 The OGLImage Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package texerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hantempo/OGLImage/lib/texerr"
)

func TestCodeString(tt *testing.T) {
	cases := []struct {
		code texerr.Code
		want string
	}{
		{texerr.OK, "OK"},
		{texerr.Format, "FormatError"},
		{texerr.Container, "ContainerError"},
		{texerr.NotFound, "NotFoundError"},
		{texerr.ToolUnavailable, "ToolUnavailableError"},
		{texerr.ToolTimeout, "ToolTimeoutError"},
		{texerr.ToolFailed, "ToolFailedError"},
		{texerr.NoConversionPath, "NoConversionPathError"},
		{texerr.BadArgument, "BadArgumentError"},
		{texerr.Code(0xDEAD), ""},
	}
	for _, c := range cases {
		assert.Equal(tt, c.want, c.code.String(), "code %d", uint32(c.code))
	}
}

func TestCodeOf(tt *testing.T) {
	assert.Equal(tt, texerr.OK, texerr.CodeOf(nil))
	assert.Equal(tt, texerr.BadArgument, texerr.CodeOf(errors.New("plain")))

	err := texerr.New(texerr.Container, "ktx.Decode", "bad magic")
	assert.Equal(tt, texerr.Container, texerr.CodeOf(err))
	assert.Equal(tt, texerr.Container, texerr.CodeOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(tt, "ktx.Decode: ContainerError: bad magic", err.Error())
}

func TestWrap(tt *testing.T) {
	assert.NoError(tt, texerr.Wrap(texerr.Container, "op", nil))

	cause := errors.New("unexpected EOF")
	err := texerr.Wrap(texerr.Container, "astc.Decode", cause)
	assert.True(tt, texerr.Is(err, texerr.Container))
	assert.ErrorIs(tt, err, cause)

	again := texerr.Wrap(texerr.Container, "texfile.Load", err)
	assert.True(tt, texerr.Is(again, texerr.Container))
	assert.ErrorIs(tt, again, cause)
	assert.Contains(tt, again.Error(), "astc.Decode")
}

func TestDegradable(tt *testing.T) {
	degradable := []texerr.Code{
		texerr.Container, texerr.NotFound, texerr.ToolUnavailable,
		texerr.ToolTimeout, texerr.ToolFailed, texerr.NoConversionPath,
	}
	for _, c := range degradable {
		assert.True(tt, texerr.Degradable(texerr.New(c, "op", "x")), c.String())
	}
	assert.False(tt, texerr.Degradable(nil))
	assert.False(tt, texerr.Degradable(texerr.New(texerr.Format, "op", "x")))
	assert.False(tt, texerr.Degradable(texerr.New(texerr.BadArgument, "op", "x")))
	assert.False(tt, texerr.Degradable(errors.New("plain")))
}
