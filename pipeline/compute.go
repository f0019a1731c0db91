// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxcore/cache"
	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ComputePipeline is a compiled compute pipeline.
type ComputePipeline struct {
	Pipeline hal.ComputePipeline
	Layout   hal.PipelineLayout
	Label    string

	workgroup  [3]uint32
	layout     *ExplicitLayout
	ownsLayout bool
	module     hal.ShaderModule
}

// BindGroupLayout returns the bind group layout of group i.
func (p *ComputePipeline) BindGroupLayout(i int) (hal.BindGroupLayout, bool) {
	return p.layout.BindGroupLayout(i)
}

// BindGroupLayoutCount returns the number of bind groups the pipeline uses.
func (p *ComputePipeline) BindGroupLayoutCount() int {
	if p.layout == nil {
		return 0
	}
	return len(p.layout.Groups)
}

// Workgroup returns the @workgroup_size declared by the entry point.
func (p *ComputePipeline) Workgroup() [3]uint32 { return p.workgroup }

// Destroy releases the pipeline and its shader module. A layout created by
// reflection is released too; an explicit layout stays with its owner.
//
// Pipelines returned from the cache are destroyed by
// [ComputePipelineCache.Clear]; call Destroy only on pipelines compiled
// with an explicit layout.
func (p *ComputePipeline) Destroy(device hal.Device) {
	if p == nil || device == nil {
		return
	}
	if p.Pipeline != nil {
		device.DestroyComputePipeline(p.Pipeline)
		p.Pipeline = nil
	}
	if p.ownsLayout {
		p.layout.Destroy(device)
	}
	p.layout = nil
	p.Layout = nil
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// ComputePipelineCache memoizes compute pipelines per device, keyed by
// [HashSource](source) + ":" + entry point.
//
// ComputePipelineCache is safe for concurrent use.
type ComputePipelineCache struct {
	mu     sync.Mutex
	stores map[hal.Device]*cache.Store[string, *ComputePipeline]
}

// NewComputePipelineCache returns an empty cache.
func NewComputePipelineCache() *ComputePipelineCache {
	return &ComputePipelineCache{
		stores: make(map[hal.Device]*cache.Store[string, *ComputePipeline]),
	}
}

// GetOrCreate returns a compute pipeline for source and entryPoint.
//
// With a nil layout the bind group layouts are reflected from source and
// the pipeline is cached: identical source and entry point on the same
// device return the same pointer. With an explicit layout the pipeline is
// always compiled fresh, never stored, and owned by the caller.
func (c *ComputePipelineCache) GetOrCreate(device hal.Device, source string, layout *ExplicitLayout, label, entryPoint string) (*ComputePipeline, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidShader)
	}
	if entryPoint == "" {
		return nil, fmt.Errorf("%w: empty entry point", ErrInvalidShader)
	}
	if layout != nil {
		return createCompute(device, source, layout, label, entryPoint)
	}
	key := computeKey(source, entryPoint)
	return c.store(device, true).GetOrCreate(key, func() (*ComputePipeline, error) {
		p, err := createCompute(device, source, nil, label, entryPoint)
		if err != nil {
			return nil, err
		}
		gpu.Logger().Debug("pipeline: compute pipeline created", "key", key, "label", label)
		return p, nil
	})
}

// Has reports whether an auto-layout pipeline for source and entryPoint is
// cached for device.
func (c *ComputePipelineCache) Has(device hal.Device, source, entryPoint string) bool {
	s := c.store(device, false)
	return s != nil && s.Has(computeKey(source, entryPoint))
}

// Len returns the number of pipelines cached for device.
func (c *ComputePipelineCache) Len(device hal.Device) int {
	s := c.store(device, false)
	if s == nil {
		return 0
	}
	return s.Len()
}

// Stats returns the hit statistics of device's pipelines.
func (c *ComputePipelineCache) Stats(device hal.Device) cache.Stats {
	s := c.store(device, false)
	if s == nil {
		return cache.Stats{}
	}
	return s.Stats()
}

// Clear destroys every pipeline cached for device and forgets the device.
func (c *ComputePipelineCache) Clear(device hal.Device) {
	c.mu.Lock()
	s := c.stores[device]
	delete(c.stores, device)
	c.mu.Unlock()
	if s != nil {
		s.Clear()
	}
}

// ClearAll destroys every cached pipeline on every device.
func (c *ComputePipelineCache) ClearAll() {
	c.mu.Lock()
	stores := c.stores
	c.stores = make(map[hal.Device]*cache.Store[string, *ComputePipeline])
	c.mu.Unlock()
	for _, s := range stores {
		s.Clear()
	}
}

func (c *ComputePipelineCache) store(device hal.Device, create bool) *cache.Store[string, *ComputePipeline] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stores[device]
	if s == nil && create {
		s = cache.New(func(_ string, p *ComputePipeline) { p.Destroy(device) })
		c.stores[device] = s
	}
	return s
}

func createCompute(device hal.Device, source string, layout *ExplicitLayout, label, entryPoint string) (*ComputePipeline, error) {
	refl, err := Reflect(source, gputypes.ShaderStageCompute)
	if err != nil {
		return nil, err
	}
	ep, found := refl.EntryPoint(entryPoint, gputypes.ShaderStageCompute)
	if !found {
		return nil, fmt.Errorf("%w: compute %q", ErrEntryPointNotFound, entryPoint)
	}
	if label == "" {
		label = entryPoint
	}

	p := &ComputePipeline{Label: label, workgroup: ep.Workgroup}
	ok := false
	defer func() {
		if !ok {
			p.Destroy(device)
		}
	}()

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("compile compute shader %s: %w", label, err)
	}
	p.module = module

	if layout == nil {
		layout, err = NewExplicitLayout(device, label, refl.Groups)
		if err != nil {
			return nil, fmt.Errorf("compute pipeline %s: %w", label, err)
		}
		p.ownsLayout = true
	}
	p.layout = layout
	p.Layout = layout.Layout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: layout.Layout,
		Compute: hal.ComputeState{
			Module:                        module,
			EntryPoint:                    entryPoint,
			ZeroInitializeWorkgroupMemory: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create compute pipeline %s: %w", label, err)
	}
	p.Pipeline = pipeline
	ok = true
	return p, nil
}
