// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gputest provides a noop-backend GPU harness for gfxcore tests.
//
// The noop backend hands out zero-sized placeholder objects for most
// resources, so two textures or two bind groups compare equal. Device wraps
// the noop device so every created object is a distinct *Resource, counts
// creations and destructions per kind, records descriptors, can simulate
// timestamp query support, and can inject failures. Encoder records the
// passes, dispatches, copies and query resolves issued through it.
package gputest

import (
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Resource kinds used as counter keys.
const (
	KindBuffer          = "buffer"
	KindTexture         = "texture"
	KindTextureView     = "view"
	KindSampler         = "sampler"
	KindBindGroupLayout = "bind-group-layout"
	KindBindGroup       = "bind-group"
	KindPipelineLayout  = "pipeline-layout"
	KindShaderModule    = "shader-module"
	KindRenderPipeline  = "render-pipeline"
	KindComputePipeline = "compute-pipeline"
	KindQuerySet        = "query-set"
)

// Resource is a distinct placeholder for any non-buffer HAL object.
type Resource struct {
	Kind  string
	ID    int
	Label string
}

func (r *Resource) Destroy()                             {}
func (r *Resource) NativeHandle() uintptr                { return uintptr(r.ID) }
func (r *Resource) CurrentUsage() gputypes.TextureUsage { return 0 }
func (r *Resource) AddPendingRef()                       {}
func (r *Resource) DecPendingRef()                       {}

// String returns "kind#id".
func (r *Resource) String() string { return fmt.Sprintf("%s#%d", r.Kind, r.ID) }

// Device wraps a noop hal.Device with distinct handles and call counters.
type Device struct {
	hal.Device

	mu        sync.Mutex
	nextID    int
	created   map[string]int
	destroyed map[string]int

	// Timestamps makes CreateQuerySet succeed instead of returning
	// hal.ErrTimestampsNotSupported.
	Timestamps bool

	// QueryValues are written into the destination buffer by
	// Encoder.ResolveQuerySet, starting at the first resolved query.
	QueryValues []uint64

	// FailTexture, when set, is consulted before each texture creation.
	FailTexture func(desc *hal.TextureDescriptor) error

	// FailBindGroup, when set, is consulted before each bind group creation.
	FailBindGroup func(desc *hal.BindGroupDescriptor) error

	// FailBeginEncoding and FailEndEncoding, when set, are returned from
	// Encoder.BeginEncoding and Encoder.EndEncoding.
	FailBeginEncoding error
	FailEndEncoding   error

	Buffers     []*hal.BufferDescriptor
	Textures    []*hal.TextureDescriptor
	BindGroups  []*hal.BindGroupDescriptor
	BGLayouts   []*hal.BindGroupLayoutDescriptor
	Shaders     []*hal.ShaderModuleDescriptor
	Encoders    []*Encoder
	RenderDescs []*hal.RenderPipelineDescriptor
}

// New opens a noop device and queue and wraps them. Cleanup is registered
// on t.
func New(t testing.TB) (*Device, *Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("no noop adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	d := &Device{
		Device:    openDev.Device,
		created:   make(map[string]int),
		destroyed: make(map[string]int),
	}
	return d, &Queue{Queue: openDev.Queue, writes: make(map[hal.Buffer]int)}
}

// Created returns how many objects of kind were created.
func (d *Device) Created(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind]
}

// Destroyed returns how many objects of kind were destroyed.
func (d *Device) Destroyed(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed[kind]
}

// Live returns created minus destroyed for kind.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind] - d.destroyed[kind]
}

func (d *Device) newResource(kind, label string) *Resource {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.created[kind]++
	return &Resource{Kind: kind, ID: d.nextID, Label: label}
}

func (d *Device) countDestroy(kind string) {
	d.mu.Lock()
	d.destroyed[kind]++
	d.mu.Unlock()
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	buf, err := d.Device.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.created[KindBuffer]++
	d.Buffers = append(d.Buffers, desc)
	d.mu.Unlock()
	return buf, nil
}

func (d *Device) DestroyBuffer(b hal.Buffer) {
	d.countDestroy(KindBuffer)
	d.Device.DestroyBuffer(b)
}

func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.FailTexture != nil {
		if err := d.FailTexture(desc); err != nil {
			return nil, err
		}
	}
	d.mu.Lock()
	d.Textures = append(d.Textures, desc)
	d.mu.Unlock()
	return d.newResource(KindTexture, desc.Label), nil
}

func (d *Device) DestroyTexture(hal.Texture) { d.countDestroy(KindTexture) }

func (d *Device) CreateTextureView(_ hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	label := ""
	if desc != nil {
		label = desc.Label
	}
	return d.newResource(KindTextureView, label), nil
}

func (d *Device) DestroyTextureView(hal.TextureView) { d.countDestroy(KindTextureView) }

func (d *Device) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	return d.newResource(KindSampler, desc.Label), nil
}

func (d *Device) DestroySampler(hal.Sampler) { d.countDestroy(KindSampler) }

func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	d.mu.Lock()
	d.BGLayouts = append(d.BGLayouts, desc)
	d.mu.Unlock()
	return d.newResource(KindBindGroupLayout, desc.Label), nil
}

func (d *Device) DestroyBindGroupLayout(hal.BindGroupLayout) { d.countDestroy(KindBindGroupLayout) }

func (d *Device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if d.FailBindGroup != nil {
		if err := d.FailBindGroup(desc); err != nil {
			return nil, err
		}
	}
	d.mu.Lock()
	d.BindGroups = append(d.BindGroups, desc)
	d.mu.Unlock()
	return d.newResource(KindBindGroup, desc.Label), nil
}

func (d *Device) DestroyBindGroup(hal.BindGroup) { d.countDestroy(KindBindGroup) }

func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return d.newResource(KindPipelineLayout, desc.Label), nil
}

func (d *Device) DestroyPipelineLayout(hal.PipelineLayout) { d.countDestroy(KindPipelineLayout) }

func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.mu.Lock()
	d.Shaders = append(d.Shaders, desc)
	d.mu.Unlock()
	return d.newResource(KindShaderModule, desc.Label), nil
}

func (d *Device) DestroyShaderModule(hal.ShaderModule) { d.countDestroy(KindShaderModule) }

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.mu.Lock()
	d.RenderDescs = append(d.RenderDescs, desc)
	d.mu.Unlock()
	return d.newResource(KindRenderPipeline, desc.Label), nil
}

func (d *Device) DestroyRenderPipeline(hal.RenderPipeline) { d.countDestroy(KindRenderPipeline) }

func (d *Device) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return d.newResource(KindComputePipeline, desc.Label), nil
}

func (d *Device) DestroyComputePipeline(hal.ComputePipeline) { d.countDestroy(KindComputePipeline) }

func (d *Device) CreateQuerySet(desc *hal.QuerySetDescriptor) (hal.QuerySet, error) {
	if !d.Timestamps {
		return d.Device.CreateQuerySet(desc)
	}
	return d.newResource(KindQuerySet, desc.Label), nil
}

func (d *Device) DestroyQuerySet(hal.QuerySet) { d.countDestroy(KindQuerySet) }

func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	inner, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	enc := &Encoder{CommandEncoder: inner, device: d}
	d.mu.Lock()
	d.Encoders = append(d.Encoders, enc)
	d.mu.Unlock()
	return enc, nil
}

// LastEncoder returns the most recently created encoder, or nil.
func (d *Device) LastEncoder() *Encoder {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Encoders) == 0 {
		return nil
	}
	return d.Encoders[len(d.Encoders)-1]
}

// writeBuffer stores data into a noop buffer through its mapping.
func (d *Device) writeBuffer(buf hal.Buffer, offset uint64, data []byte) {
	mapping, err := d.Device.MapBuffer(buf, offset, uint64(len(data)))
	if err != nil || mapping.Ptr == nil {
		return
	}
	copy(unsafe.Slice((*byte)(mapping.Ptr), len(data)), data)
}

// readBuffer copies size bytes out of a noop buffer.
func (d *Device) readBuffer(buf hal.Buffer, offset, size uint64) []byte {
	mapping, err := d.Device.MapBuffer(buf, offset, size)
	if err != nil || mapping.Ptr == nil {
		return nil
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), size))
	return out
}

func (d *Device) resolveQueries(first, count uint32, dst hal.Buffer, offset uint64) {
	data := make([]byte, 8*count)
	for i := uint32(0); i < count; i++ {
		q := int(first + i)
		if q < len(d.QueryValues) {
			binary.LittleEndian.PutUint64(data[8*i:], d.QueryValues[q])
		}
	}
	d.writeBuffer(dst, offset, data)
}

// Queue wraps a noop hal.Queue and counts submissions and buffer writes.
type Queue struct {
	hal.Queue

	mu      sync.Mutex
	submits int
	writes  map[hal.Buffer]int

	// FailWrite, when set, is returned from WriteBuffer.
	FailWrite error
}

func (q *Queue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	q.mu.Lock()
	q.submits++
	q.mu.Unlock()
	return q.Queue.Submit(cmds)
}

func (q *Queue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	if q.FailWrite != nil {
		return q.FailWrite
	}
	q.mu.Lock()
	q.writes[buf]++
	q.mu.Unlock()
	return q.Queue.WriteBuffer(buf, offset, data)
}

// Submits returns the number of Submit calls.
func (q *Queue) Submits() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.submits
}

// Writes returns the number of WriteBuffer calls that targeted buf.
func (q *Queue) Writes(buf hal.Buffer) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.writes[buf]
}
