// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"testing"

	"github.com/gogpu/gfxcore/internal/gputest"
	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const doubleShader = `
@group(0) @binding(0) var<storage, read_write> data: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] * 2.0;
}
`

const twoGroupShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(1) @binding(0) var<storage, read_write> dst: array<f32>;

@compute @workgroup_size(64)
fn copy_values(@builtin(global_invocation_id) id: vec3<u32>) {
    dst[id.x] = src[id.x];
}
`

type fixture struct {
	dev       *gputest.Device
	queue     *gputest.Queue
	pipelines *pipeline.ComputePipelineCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev, queue := gputest.New(t)
	pipelines := pipeline.NewComputePipelineCache()
	t.Cleanup(func() { pipelines.Clear(dev) })
	return &fixture{dev: dev, queue: queue, pipelines: pipelines}
}

func (f *fixture) pipeline(t *testing.T, source, entryPoint string) *pipeline.ComputePipeline {
	t.Helper()
	p, err := f.pipelines.GetOrCreate(f.dev, source, nil, "", entryPoint)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	return p
}

func (f *fixture) buffer(t *testing.T, size uint64) *Buffer {
	t.Helper()
	b, err := NewBuffer(f.dev, f.queue, size)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	t.Cleanup(b.Destroy)
	return b
}

// bindGroup builds a caller-owned bind group for group 0 of p.
func (f *fixture) bindGroup(t *testing.T, p *pipeline.ComputePipeline, b *Buffer) hal.BindGroup {
	t.Helper()
	layout, ok := p.BindGroupLayout(0)
	if !ok {
		t.Fatal("pipeline has no group 0 layout")
	}
	g, err := f.dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "test_group",
		Layout:  layout,
		Entries: []gputypes.BindGroupEntry{b.Binding(0)},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.dev.DestroyBindGroup(g) })
	return g
}
