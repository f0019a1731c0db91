// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfxcore

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxcore/compute"
	"github.com/gogpu/gfxcore/mesh"
	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/gfxcore/target"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Core bundles the caches of one device: render pipelines, compute
// pipelines and per-drawable mesh resources. It also creates the compute
// and render target objects that share its device and configuration.
//
// Core does not own the device or queue; Close releases only what the
// caches created.
type Core struct {
	// Pipelines compiles render pipelines for the core's color format,
	// depth format and sample count.
	Pipelines *pipeline.PipelineCache

	// ComputePipelines compiles compute pipelines by source hash.
	ComputePipelines *pipeline.ComputePipelineCache

	// Meshes owns the buffers and bind groups of drawables.
	Meshes *mesh.Cache

	device hal.Device
	queue  hal.Queue
	opts   options

	mu     sync.Mutex
	closed bool
}

// New returns a Core for device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Core, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}

	c := &Core{
		Pipelines: pipeline.NewPipelineCache(device, pipeline.TargetFormat{
			Color:       o.colorFormat,
			Depth:       o.depthFormat,
			SampleCount: o.sampleCount,
		}),
		ComputePipelines: pipeline.NewComputePipelineCache(),
		Meshes:           mesh.NewCache(device, queue),
		device:           device,
		queue:            queue,
		opts:             o,
	}
	Logger().Info("gfxcore: core created",
		"color", o.colorFormat, "depth", o.depthFormat, "samples", o.sampleCount)
	return c, nil
}

// FromProvider returns a Core for the device and queue of a shared GPU
// context. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. The color format defaults to the
// provider's surface format.
func FromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Core, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}
	if f := p.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		opts = append([]Option{WithColorFormat(f)}, opts...)
	}
	return New(device, queue, opts...)
}

// Device returns the HAL device.
func (c *Core) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *Core) Queue() hal.Queue { return c.queue }

// ColorFormat returns the color format of render pipelines and targets.
func (c *Core) ColorFormat() gputypes.TextureFormat { return c.opts.colorFormat }

// DepthFormat returns the depth format of render pipelines and targets.
func (c *Core) DepthFormat() gputypes.TextureFormat { return c.opts.depthFormat }

// SampleCount returns the MSAA sample count.
func (c *Core) SampleCount() uint32 { return c.opts.sampleCount }

// Features returns the device features declared with WithFeatures.
func (c *Core) Features() gputypes.Features { return c.opts.features }

// Prepare returns the render pipeline for d's material and d's GPU
// resources, creating or refreshing both as needed. The result is ready for
// Resources.Draw.
func (c *Core) Prepare(d mesh.Drawable) (*mesh.Resources, *pipeline.RenderPipeline, error) {
	if err := c.check(); err != nil {
		return nil, nil, err
	}
	if d == nil || d.Material() == nil {
		return nil, nil, mesh.ErrInvalidDrawable
	}
	p, err := c.Pipelines.GetOrCreate(d.Material())
	if err != nil {
		return nil, nil, err
	}
	r, err := c.Meshes.GetOrCreate(d, p)
	if err != nil {
		return nil, nil, err
	}
	return r, p, nil
}

// NewBatch returns a compute batch that resolves shaders through
// ComputePipelines.
func (c *Core) NewBatch(opts ...compute.BatchOption) (*compute.Batch, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return compute.NewBatch(c.device, c.queue, c.ComputePipelines, opts...), nil
}

// NewPass compiles, or fetches from ComputePipelines, the pipeline for
// source and entryPoint and returns a pass dispatching it.
func (c *Core) NewPass(source, entryPoint string, opts ...compute.PassOption) (*compute.Pass, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if entryPoint == "" {
		entryPoint = compute.DefaultEntryPoint
	}
	p, err := c.ComputePipelines.GetOrCreate(c.device, source, nil, entryPoint, entryPoint)
	if err != nil {
		return nil, err
	}
	return compute.NewPass(c.device, c.queue, p, opts...)
}

// NewProfiler returns a profiler that is supported when the core was
// created with gputypes.FeatureTimestampQuery.
func (c *Core) NewProfiler() (*compute.Profiler, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return compute.NewProfiler(c.device, c.queue, c.opts.features)
}

// NewBuffer returns a storage buffer of size bytes.
func (c *Core) NewBuffer(size uint64, opts ...compute.BufferOption) (*compute.Buffer, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return compute.NewBuffer(c.device, c.queue, size, opts...)
}

// NewRenderTargets returns render targets for surface sized to window,
// using the core's color format, depth format and sample count. opts are
// applied after the core's defaults.
func (c *Core) NewRenderTargets(surface hal.Surface, window gpucontext.WindowProvider, opts ...target.Option) (*target.RenderTargets, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	opts = append([]target.Option{target.WithDepthFormat(c.opts.depthFormat)}, opts...)
	return target.New(c.device, surface, c.opts.colorFormat, window, c.opts.sampleCount, opts...)
}

// Close disposes every mesh resource and clears both pipeline caches.
// It is safe to call more than once.
func (c *Core) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	meshes := c.Meshes.Len()
	c.Meshes.DisposeAll()
	c.Pipelines.Clear()
	c.ComputePipelines.Clear(c.device)
	Logger().Info("gfxcore: core closed", "meshes", meshes)
}

func (c *Core) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
