// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

// FrameContext carries per-frame values forwarded to materials when they
// pack their uniforms. The cache never interprets it.
type FrameContext struct {
	Model      f32.Mat4
	View       f32.Mat4
	Projection f32.Mat4
	Time       float32
}

// Material describes how a drawable is shaded.
//
// BindingRevision must change whenever the textures or samplers the
// material binds change; the cache then rebuilds the bind groups without
// touching any buffer.
type Material interface {
	pipeline.Material

	// UniformSize is the size in bytes of the material's uniform block.
	UniformSize() uint64

	// WriteUniforms packs the uniform block into dst, which is at least
	// UniformSize bytes long.
	WriteUniforms(dst []byte, fc *FrameContext)

	BindingRevision() uint64
}

// Texture is a sampled texture bound by a material.
type Texture struct {
	View    hal.TextureView
	Sampler hal.Sampler
}

// TextureProvider is implemented by materials that sample textures.
// Texture i is bound with its sampler at binding 1+2i and its view at
// binding 2+2i of group 0.
type TextureProvider interface {
	Textures(device hal.Device) ([]Texture, error)
}

// IBLTextures are the image-based lighting inputs bound at group 1.
type IBLTextures struct {
	Prefiltered hal.TextureView // cube
	Irradiance  hal.TextureView // cube
	BRDFLUT     hal.TextureView // 2D
	Sampler     hal.Sampler
}

// IBLProvider is implemented by materials lit by an environment map.
// Returning nil textures selects the cache's neutral fallback.
type IBLProvider interface {
	IBLTextures(device hal.Device) (*IBLTextures, error)
}
