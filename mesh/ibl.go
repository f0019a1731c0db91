// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// fallbackIBL is a neutral environment used when an IBLProvider material
// has no textures yet: a black 1x1 cube serving as both prefiltered and
// irradiance map, and a 1x1 BRDF LUT with scale 1 and bias 0.
type fallbackIBL struct {
	cube     hal.Texture
	cubeView hal.TextureView
	lut      hal.Texture
	lutView  hal.TextureView
	sampler  hal.Sampler
}

func (f *fallbackIBL) textures() *IBLTextures {
	return &IBLTextures{
		Prefiltered: f.cubeView,
		Irradiance:  f.cubeView,
		BRDFLUT:     f.lutView,
		Sampler:     f.sampler,
	}
}

//nolint:funlen // GPU texture descriptors are inherently verbose
func newFallbackIBL(device hal.Device, queue hal.Queue) (*fallbackIBL, error) {
	f := &fallbackIBL{}
	ok := false
	defer func() {
		if !ok {
			f.destroy(device)
		}
	}()

	var err error
	f.cube, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "ibl_fallback_cube",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 6},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: fallback cube texture: %w", err)
	}
	black := []byte{0, 0, 0, 255}
	for face := uint32(0); face < 6; face++ {
		if err := queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: f.cube, Origin: hal.Origin3D{Z: face}},
			black,
			&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
			&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		); err != nil {
			return nil, fmt.Errorf("mesh: upload fallback cube face %d: %w", face, err)
		}
	}
	f.cubeView, err = device.CreateTextureView(f.cube, &hal.TextureViewDescriptor{
		Label:           "ibl_fallback_cube_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimensionCube,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 6,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: fallback cube view: %w", err)
	}

	f.lut, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "ibl_fallback_brdf_lut",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: fallback BRDF LUT: %w", err)
	}
	if err := queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: f.lut},
		[]byte{255, 0, 0, 255},
		&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	); err != nil {
		return nil, fmt.Errorf("mesh: upload fallback BRDF LUT: %w", err)
	}
	f.lutView, err = device.CreateTextureView(f.lut, &hal.TextureViewDescriptor{
		Label:           "ibl_fallback_brdf_lut_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: fallback BRDF LUT view: %w", err)
	}

	f.sampler, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "ibl_fallback_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: fallback sampler: %w", err)
	}
	ok = true
	return f, nil
}

func (f *fallbackIBL) destroy(device hal.Device) {
	if f.sampler != nil {
		device.DestroySampler(f.sampler)
		f.sampler = nil
	}
	if f.lutView != nil {
		device.DestroyTextureView(f.lutView)
		f.lutView = nil
	}
	if f.lut != nil {
		device.DestroyTexture(f.lut)
		f.lut = nil
	}
	if f.cubeView != nil {
		device.DestroyTextureView(f.cubeView)
		f.cubeView = nil
	}
	if f.cube != nil {
		device.DestroyTexture(f.cube)
		f.cube = nil
	}
}
