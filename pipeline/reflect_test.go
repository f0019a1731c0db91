// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

const texturedShader = `
struct Uniforms {
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var samp: sampler;
@group(0) @binding(2) var tex: texture_2d<f32>;

@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.color;
}
`

const storageShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64, 2)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    dst[id.x] = src[id.x] * 2.0;
}
`

const sparseGroupShader = `
@group(1) @binding(0) var<uniform> scale: vec4<f32>;

@compute @workgroup_size(1)
fn main() {
}
`

func TestReflectTexturedMaterial(t *testing.T) {
	r, err := Reflect(texturedShader, gputypes.ShaderStageVertex|gputypes.ShaderStageFragment)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	if len(r.Groups) != 1 {
		t.Fatalf("len(Groups) = %d, want 1", len(r.Groups))
	}
	g := r.Groups[0]
	if len(g) != 3 {
		t.Fatalf("len(Groups[0]) = %d, want 3", len(g))
	}
	for i, e := range g {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d binding = %d, want sorted", i, e.Binding)
		}
		if e.Visibility != gputypes.ShaderStageVertex|gputypes.ShaderStageFragment {
			t.Errorf("entry %d visibility = %v", i, e.Visibility)
		}
	}
	if g[0].Buffer == nil || g[0].Buffer.Type != gputypes.BufferBindingTypeUniform {
		t.Errorf("binding 0 = %+v, want uniform buffer", g[0])
	}
	if g[1].Sampler == nil || g[1].Sampler.Type != gputypes.SamplerBindingTypeFiltering {
		t.Errorf("binding 1 = %+v, want filtering sampler", g[1])
	}
	if g[2].Texture == nil || g[2].Texture.ViewDimension != gputypes.TextureViewDimension2D ||
		g[2].Texture.SampleType != gputypes.TextureSampleTypeFloat {
		t.Errorf("binding 2 = %+v, want 2D float texture", g[2])
	}

	if _, ok := r.EntryPoint("vs_main", gputypes.ShaderStageVertex); !ok {
		t.Error("vs_main not found as vertex entry point")
	}
	if _, ok := r.EntryPoint("vs_main", gputypes.ShaderStageFragment); ok {
		t.Error("vs_main must not match the fragment stage")
	}
}

func TestReflectStorageAccess(t *testing.T) {
	r, err := Reflect(storageShader, gputypes.ShaderStageCompute)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	g := r.Groups[0]
	if len(g) != 2 {
		t.Fatalf("len(Groups[0]) = %d, want 2", len(g))
	}
	if g[0].Buffer.Type != gputypes.BufferBindingTypeReadOnlyStorage {
		t.Errorf("read storage type = %v, want read-only storage", g[0].Buffer.Type)
	}
	if g[1].Buffer.Type != gputypes.BufferBindingTypeStorage {
		t.Errorf("read_write storage type = %v, want storage", g[1].Buffer.Type)
	}

	ep, ok := r.EntryPoint("main", gputypes.ShaderStageCompute)
	if !ok {
		t.Fatal("main not found as compute entry point")
	}
	if ep.Workgroup != [3]uint32{64, 2, 1} {
		t.Errorf("Workgroup = %v, want [64 2 1]", ep.Workgroup)
	}
}

func TestReflectDenseGroups(t *testing.T) {
	r, err := Reflect(sparseGroupShader, gputypes.ShaderStageCompute)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	if len(r.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(r.Groups))
	}
	if len(r.Groups[0]) != 0 {
		t.Errorf("group 0 has %d entries, want empty", len(r.Groups[0]))
	}
	if len(r.Groups[1]) != 1 {
		t.Errorf("group 1 has %d entries, want 1", len(r.Groups[1]))
	}
}

func TestReflectMerge(t *testing.T) {
	vs := &Reflection{Groups: [][]gputypes.BindGroupLayoutEntry{{
		{Binding: 0, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{}},
	}}}
	fs := &Reflection{Groups: [][]gputypes.BindGroupLayoutEntry{
		{
			{Binding: 2, Visibility: gputypes.ShaderStageFragment},
			{Binding: 0, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{}},
		},
		{
			{Binding: 0, Visibility: gputypes.ShaderStageFragment},
		},
	}}

	m := vs.Merge(fs)
	if len(m.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(m.Groups))
	}
	g0 := m.Groups[0]
	if len(g0) != 2 || g0[0].Binding != 0 || g0[1].Binding != 2 {
		t.Fatalf("group 0 = %+v, want bindings [0 2]", g0)
	}
	if g0[0].Visibility != gputypes.ShaderStageVertex|gputypes.ShaderStageFragment {
		t.Errorf("shared binding visibility = %v, want vertex|fragment", g0[0].Visibility)
	}
	if vs.Groups[0][0].Visibility != gputypes.ShaderStageVertex {
		t.Error("Merge must not modify its receiver")
	}
}

func TestReflectInvalid(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"syntax", "fn main( {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reflect(tt.source, gputypes.ShaderStageCompute)
			if !errors.Is(err, ErrInvalidShader) {
				t.Errorf("Reflect() error = %v, want ErrInvalidShader", err)
			}
		})
	}
}

func TestHashSource(t *testing.T) {
	a := HashSource(storageShader)
	if len(a) != 16 {
		t.Errorf("len(HashSource()) = %d, want 16", len(a))
	}
	if HashSource(storageShader) != a {
		t.Error("HashSource is not deterministic")
	}
	if HashSource(storageShader+" ") == a {
		t.Error("whitespace change must change the hash")
	}
	// FNV-1a 64 offset basis for the empty input.
	if got := HashSource(""); got != "cbf29ce484222325" {
		t.Errorf("HashSource(\"\") = %s, want cbf29ce484222325", got)
	}
}
