// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"

	"github.com/gogpu/gfxcore/cache"
	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Default entry point names used when a material does not implement
// [EntryPoints].
const (
	DefaultVertexEntryPoint   = "vs_main"
	DefaultFragmentEntryPoint = "fs_main"
)

// Material is the part of a material the render pipeline depends on.
// Materials that share a TypeTag must produce identical shaders, vertex
// layouts and blend state.
type Material interface {
	TypeTag() string
	Topology() gputypes.PrimitiveTopology
	VertexShader() string
	FragmentShader() string
	VertexLayout() []gputypes.VertexBufferLayout
}

// EntryPoints overrides the default shader entry point names.
type EntryPoints interface {
	VertexEntryPoint() string
	FragmentEntryPoint() string
}

// Blended is implemented by materials that render with blending.
type Blended interface {
	Blend() *gputypes.BlendState
}

// Key identifies a render pipeline within a PipelineCache.
type Key struct {
	TypeTag  string
	Topology gputypes.PrimitiveTopology
}

func (k Key) String() string {
	return k.TypeTag + "/" + k.Topology.String()
}

// TargetFormat describes the attachments every pipeline of a cache renders
// into. A zero Depth disables the depth test. A zero SampleCount means 1.
type TargetFormat struct {
	Color       gputypes.TextureFormat
	Depth       gputypes.TextureFormat
	SampleCount uint32
}

// RenderPipeline is a compiled render pipeline and the layouts it was
// created with. It is owned by the PipelineCache that returned it.
type RenderPipeline struct {
	Key      Key
	Pipeline hal.RenderPipeline
	Layout   hal.PipelineLayout

	layout  *ExplicitLayout
	modules []hal.ShaderModule
}

// BindGroupLayout returns the bind group layout of group i.
func (p *RenderPipeline) BindGroupLayout(i int) (hal.BindGroupLayout, bool) {
	return p.layout.BindGroupLayout(i)
}

// BindGroupLayoutCount returns the number of bind groups the pipeline uses.
func (p *RenderPipeline) BindGroupLayoutCount() int {
	if p.layout == nil {
		return 0
	}
	return len(p.layout.Groups)
}

func (p *RenderPipeline) destroy(device hal.Device) {
	if p.Pipeline != nil {
		device.DestroyRenderPipeline(p.Pipeline)
		p.Pipeline = nil
	}
	p.layout.Destroy(device)
	p.Layout = nil
	for _, m := range p.modules {
		device.DestroyShaderModule(m)
	}
	p.modules = nil
}

// PipelineCache memoizes render pipelines for one device by material type
// tag and primitive topology.
//
// PipelineCache is safe for concurrent use.
type PipelineCache struct {
	device hal.Device
	target TargetFormat
	store  *cache.Store[Key, *RenderPipeline]
}

// NewPipelineCache returns an empty cache for pipelines rendering into
// target on device.
func NewPipelineCache(device hal.Device, target TargetFormat) *PipelineCache {
	if target.SampleCount == 0 {
		target.SampleCount = 1
	}
	c := &PipelineCache{device: device, target: target}
	c.store = cache.New(func(_ Key, p *RenderPipeline) {
		p.destroy(c.device)
	})
	return c
}

// Target returns the attachment formats the cache compiles for.
func (c *PipelineCache) Target() TargetFormat { return c.target }

// GetOrCreate returns the pipeline for m's (type tag, topology), compiling
// it on first use. Later calls with an equal key return the same pointer
// without any device work.
func (c *PipelineCache) GetOrCreate(m Material) (*RenderPipeline, error) {
	if c.device == nil {
		return nil, ErrNilDevice
	}
	if m == nil {
		return nil, fmt.Errorf("%w: nil material", ErrInvalidMaterial)
	}
	key := Key{TypeTag: m.TypeTag(), Topology: m.Topology()}
	if key.TypeTag == "" {
		return nil, fmt.Errorf("%w: empty type tag", ErrInvalidMaterial)
	}
	if m.VertexShader() == "" || m.FragmentShader() == "" {
		return nil, fmt.Errorf("%w: %s has no shader source", ErrInvalidMaterial, key)
	}
	return c.store.GetOrCreate(key, func() (*RenderPipeline, error) {
		p, err := c.create(key, m)
		if err != nil {
			return nil, fmt.Errorf("create render pipeline %s: %w", key, err)
		}
		gpu.Logger().Debug("pipeline: render pipeline created", "key", key.String())
		return p, nil
	})
}

// Len returns the number of cached pipelines.
func (c *PipelineCache) Len() int { return c.store.Len() }

// Stats returns cache hit statistics.
func (c *PipelineCache) Stats() cache.Stats { return c.store.Stats() }

// ResetStats zeroes the hit and miss counters.
func (c *PipelineCache) ResetStats() { c.store.ResetStats() }

// Clear destroys every cached pipeline. Use it on teardown or after the
// device is lost.
func (c *PipelineCache) Clear() { c.store.Clear() }

//nolint:funlen // GPU pipeline descriptors are inherently verbose
func (c *PipelineCache) create(key Key, m Material) (*RenderPipeline, error) {
	vsEntry, fsEntry := DefaultVertexEntryPoint, DefaultFragmentEntryPoint
	if ep, ok := m.(EntryPoints); ok {
		if name := ep.VertexEntryPoint(); name != "" {
			vsEntry = name
		}
		if name := ep.FragmentEntryPoint(); name != "" {
			fsEntry = name
		}
	}

	vsSource, fsSource := m.VertexShader(), m.FragmentShader()
	shared := vsSource == fsSource
	var refl *Reflection
	if shared {
		r, err := Reflect(vsSource, gputypes.ShaderStageVertex|gputypes.ShaderStageFragment)
		if err != nil {
			return nil, err
		}
		refl = r
	} else {
		vr, err := Reflect(vsSource, gputypes.ShaderStageVertex)
		if err != nil {
			return nil, fmt.Errorf("vertex: %w", err)
		}
		fr, err := Reflect(fsSource, gputypes.ShaderStageFragment)
		if err != nil {
			return nil, fmt.Errorf("fragment: %w", err)
		}
		refl = vr.Merge(fr)
	}
	if _, ok := refl.EntryPoint(vsEntry, gputypes.ShaderStageVertex); !ok {
		return nil, fmt.Errorf("%w: vertex %q", ErrEntryPointNotFound, vsEntry)
	}
	if _, ok := refl.EntryPoint(fsEntry, gputypes.ShaderStageFragment); !ok {
		return nil, fmt.Errorf("%w: fragment %q", ErrEntryPointNotFound, fsEntry)
	}

	p := &RenderPipeline{Key: key}
	ok := false
	defer func() {
		if !ok {
			p.destroy(c.device)
		}
	}()

	label := key.TypeTag
	vsModule, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_vs",
		Source: hal.ShaderSource{WGSL: vsSource},
	})
	if err != nil {
		return nil, fmt.Errorf("compile vertex shader: %w", err)
	}
	p.modules = append(p.modules, vsModule)
	fsModule := vsModule
	if !shared {
		fsModule, err = c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  label + "_fs",
			Source: hal.ShaderSource{WGSL: fsSource},
		})
		if err != nil {
			return nil, fmt.Errorf("compile fragment shader: %w", err)
		}
		p.modules = append(p.modules, fsModule)
	}

	layout, err := NewExplicitLayout(c.device, label, refl.Groups)
	if err != nil {
		return nil, err
	}
	p.layout = layout
	p.Layout = layout.Layout

	var blend *gputypes.BlendState
	if b, isBlended := m.(Blended); isBlended {
		blend = b.Blend()
	}

	var depth *hal.DepthStencilState
	if c.target.Depth != gputypes.TextureFormatUndefined {
		depth = &hal.DepthStencilState{
			Format:            c.target.Depth,
			DepthWriteEnabled: blend == nil,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront:      hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
			StencilBack:       hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
		}
	}

	cull := gputypes.CullModeBack
	if key.Topology != gputypes.PrimitiveTopologyTriangleList && key.Topology != gputypes.PrimitiveTopologyTriangleStrip {
		cull = gputypes.CullModeNone
	}

	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: layout.Layout,
		Vertex: hal.VertexState{
			Module:     vsModule,
			EntryPoint: vsEntry,
			Buffers:    m.VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     fsModule,
			EntryPoint: fsEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    c.target.Color,
					Blend:     blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: depth,
		Multisample: gputypes.MultisampleState{
			Count: c.target.SampleCount,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  key.Topology,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  cull,
		},
	})
	if err != nil {
		return nil, err
	}
	p.Pipeline = pipeline
	ok = true
	return p, nil
}
