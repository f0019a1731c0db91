// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"testing"

	"github.com/gogpu/gfxcore/internal/gputest"
	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const basicShader = `
struct Uniforms {
    mvp: mat4x4<f32>,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return u.mvp * vec4<f32>(pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.color;
}
`

const texturedShader = `
struct Uniforms {
    mvp: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var albedo_sampler: sampler;
@group(0) @binding(2) var albedo: texture_2d<f32>;
@group(0) @binding(3) var normal_sampler: sampler;
@group(0) @binding(4) var normal_map: texture_2d<f32>;

@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return u.mvp * vec4<f32>(pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

const instancedShader = `
struct Uniforms {
    view_proj: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(1) @binding(0) var<storage, read> instances: array<vec4<f32>>;

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @builtin(instance_index) i: u32) -> @builtin(position) vec4<f32> {
    return u.view_proj * vec4<f32>(pos + instances[i * 2u].xyz, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

const litInstancedShader = `
struct Uniforms {
    view_proj: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(1) @binding(0) var prefiltered: texture_cube<f32>;
@group(1) @binding(1) var irradiance: texture_cube<f32>;
@group(1) @binding(2) var brdf_lut: texture_2d<f32>;
@group(1) @binding(3) var ibl_sampler: sampler;
@group(2) @binding(0) var<storage, read> instances: array<vec4<f32>>;

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @builtin(instance_index) i: u32) -> @builtin(position) vec4<f32> {
    return u.view_proj * vec4<f32>(pos + instances[i * 2u].xyz, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

type testMaterial struct {
	tag      string
	shader   string
	topology gputypes.PrimitiveTopology
	size     uint64
	revision uint64
	written  int
}

func (m *testMaterial) TypeTag() string                      { return m.tag }
func (m *testMaterial) Topology() gputypes.PrimitiveTopology { return m.topology }
func (m *testMaterial) VertexShader() string                 { return m.shader }
func (m *testMaterial) FragmentShader() string               { return m.shader }
func (m *testMaterial) UniformSize() uint64                  { return m.size }
func (m *testMaterial) BindingRevision() uint64              { return m.revision }

func (m *testMaterial) VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: 12,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}}
}

func (m *testMaterial) WriteUniforms(dst []byte, _ *FrameContext) {
	m.written++
	for i := range dst {
		dst[i] = 0xAB
	}
}

type texturedMaterial struct {
	testMaterial
	textures []Texture
}

func (m *texturedMaterial) Textures(hal.Device) ([]Texture, error) { return m.textures, nil }

type litMaterial struct {
	testMaterial
	ibl *IBLTextures
}

func (m *litMaterial) IBLTextures(hal.Device) (*IBLTextures, error) { return m.ibl, nil }

func newMaterial(tag, shader string) *testMaterial {
	return &testMaterial{
		tag:      tag,
		shader:   shader,
		topology: gputypes.PrimitiveTopologyTriangleList,
		size:     80,
	}
}

// quad is two triangles over four vertices.
func quad(m Material) *Object {
	vertices := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	}
	return NewObject(vertices, 3, []uint32{0, 1, 2, 0, 2, 3}, m)
}

type fixture struct {
	dev       *gputest.Device
	queue     *gputest.Queue
	pipelines *pipeline.PipelineCache
	meshes    *Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev, queue := gputest.New(t)
	return &fixture{
		dev:   dev,
		queue: queue,
		pipelines: pipeline.NewPipelineCache(dev, pipeline.TargetFormat{
			Color: gputypes.TextureFormatBGRA8Unorm,
			Depth: gputypes.TextureFormatDepth24Plus,
		}),
		meshes: NewCache(dev, queue),
	}
}

func (f *fixture) resources(t *testing.T, d Drawable) *Resources {
	t.Helper()
	p, err := f.pipelines.GetOrCreate(d.Material())
	if err != nil {
		t.Fatalf("pipeline GetOrCreate() error = %v", err)
	}
	r, err := f.meshes.GetOrCreate(d, p)
	if err != nil {
		t.Fatalf("mesh GetOrCreate() error = %v", err)
	}
	return r
}

func (f *fixture) bufferDesc(t *testing.T, label string) *hal.BufferDescriptor {
	t.Helper()
	for _, d := range f.dev.Buffers {
		if d.Label == label {
			return d
		}
	}
	t.Fatalf("no buffer labelled %q", label)
	return nil
}

func (f *fixture) pipeline(t *testing.T, m Material) *pipeline.RenderPipeline {
	t.Helper()
	p, err := f.pipelines.GetOrCreate(m)
	if err != nil {
		t.Fatalf("pipeline GetOrCreate() error = %v", err)
	}
	return p
}

func (f *fixture) lastBindGroup(t *testing.T) *hal.BindGroupDescriptor {
	t.Helper()
	if len(f.dev.BindGroups) == 0 {
		t.Fatal("no bind groups created")
	}
	return f.dev.BindGroups[len(f.dev.BindGroups)-1]
}

func (f *fixture) newView(t *testing.T, label string) hal.TextureView {
	t.Helper()
	v, err := f.dev.CreateTextureView(nil, &hal.TextureViewDescriptor{Label: label})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func (f *fixture) newSampler(t *testing.T, label string) hal.Sampler {
	t.Helper()
	s, err := f.dev.CreateSampler(&hal.SamplerDescriptor{Label: label})
	if err != nil {
		t.Fatal(err)
	}
	return s
}
