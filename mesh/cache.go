// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxcore/cache"
	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// iblGroup is the bind group index of image-based lighting inputs.
const iblGroup = 1

// Cache owns the GPU resources of every drawable drawn on one device.
//
// Cache is safe for concurrent use, though a frame is normally built from
// a single goroutine.
type Cache struct {
	device hal.Device
	queue  hal.Queue

	mu       sync.Mutex
	store    *cache.Store[Handle, *Resources]
	fallback *fallbackIBL
}

// NewCache returns an empty cache for device and queue.
func NewCache(device hal.Device, queue hal.Queue) *Cache {
	c := &Cache{device: device, queue: queue}
	c.store = cache.New(func(_ Handle, r *Resources) {
		r.destroy(c.device)
	})
	return c
}

// GetOrCreate returns the resources of d for drawing with p, creating or
// refreshing them as needed:
//
//   - a changed type tag or topology, a pending rebuild, or different
//     instance data drops every resource and builds anew;
//   - a changed binding revision rebuilds only the bind groups;
//   - an instance storage buffer disposed by its InstancedMesh is recreated
//     and only the instance bind group is rebuilt;
//   - otherwise the existing resources are returned.
//
// Instance data of an instanced drawable is uploaded whenever it is dirty.
func (c *Cache) GetOrCreate(d Drawable, p *pipeline.RenderPipeline) (*Resources, error) {
	if c.device == nil || c.queue == nil {
		return nil, ErrNilDevice
	}
	if d == nil || p == nil {
		return nil, fmt.Errorf("%w: nil drawable or pipeline", ErrInvalidDrawable)
	}
	m := d.Material()
	if m == nil {
		return nil, fmt.Errorf("%w: drawable %d has no material", ErrInvalidDrawable, d.Handle())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h := d.Handle()
	im := instancesOf(d)
	if r, found := c.store.Get(h); found {
		stale := r.TypeTag != m.TypeTag() || r.Topology != m.Topology() ||
			r.instances != im || d.NeedsRebuild()
		if !stale {
			if rev := m.BindingRevision(); rev != r.BindingRevision {
				if err := c.rebind(r, m, p); err != nil {
					return nil, err
				}
			}
			if r.instances != nil && r.instances.storage() != r.instanceBuffer {
				if err := c.rebindInstances(r, p); err != nil {
					return nil, err
				}
			}
			if err := c.syncInstances(r); err != nil {
				return nil, err
			}
			return r, nil
		}
		gpu.Logger().Debug("mesh: rebuilding resources", "handle", uint64(h), "type", m.TypeTag())
		c.store.Delete(h)
		d.ClearRebuild()
	}

	r, err := c.build(d, m, im, p)
	if err != nil {
		return nil, err
	}
	c.store.Set(h, r)
	if d.NeedsRebuild() {
		d.ClearRebuild()
	}
	if err := c.syncInstances(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Has reports whether resources are cached for h.
func (c *Cache) Has(h Handle) bool { return c.store.Has(h) }

// Len returns the number of drawables with cached resources.
func (c *Cache) Len() int { return c.store.Len() }

// Stats returns cache hit statistics.
func (c *Cache) Stats() cache.Stats { return c.store.Stats() }

// ResetStats zeroes the hit and miss counters.
func (c *Cache) ResetStats() { c.store.ResetStats() }

// Dispose destroys the resources of d, if any.
func (c *Cache) Dispose(d Drawable) {
	if d == nil {
		return
	}
	c.DisposeHandle(d.Handle())
}

// DisposeHandle destroys the resources cached for h, if any.
func (c *Cache) DisposeHandle(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(h)
}

// DisposeAll destroys every cached resource and the fallback IBL textures.
func (c *Cache) DisposeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Clear()
	if c.fallback != nil {
		c.fallback.destroy(c.device)
		c.fallback = nil
	}
}

func instancesOf(d Drawable) *InstancedMesh {
	if in, ok := d.(Instanced); ok {
		return in.Instances()
	}
	return nil
}

//nolint:funlen // buffer and bind group creation are inherently verbose
func (c *Cache) build(d Drawable, m Material, im *InstancedMesh, p *pipeline.RenderPipeline) (*Resources, error) {
	tag := m.TypeTag()
	r := &Resources{
		Handle:          d.Handle(),
		TypeTag:         tag,
		Topology:        m.Topology(),
		BindingRevision: m.BindingRevision(),
		VertexCount:     uint32(d.VertexCount()),
	}
	ok := false
	defer func() {
		if !ok {
			r.destroy(c.device)
		}
	}()

	var err error
	r.VertexBuffer, err = gpu.CreateBufferInit(c.device, c.queue, tag+"_vertices",
		gputypes.BufferUsageVertex, gpu.Float32Bytes(d.Vertices()))
	if err != nil {
		return nil, fmt.Errorf("mesh: %s vertex buffer: %w", tag, err)
	}

	indices := d.Indices()
	if r.Topology == gputypes.PrimitiveTopologyLineList {
		indices = d.WireframeIndices()
	}
	data, format := packIndices(indices)
	r.IndexBuffer, err = gpu.CreateBufferInit(c.device, c.queue, tag+"_indices",
		gputypes.BufferUsageIndex, data)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s index buffer: %w", tag, err)
	}
	r.IndexCount = uint32(len(indices))
	r.IndexFormat = format

	r.UniformSize = UniformBufferSize(m.UniformSize())
	r.UniformBuffer, err = gpu.CreateBuffer(c.device, tag+"_uniforms", r.UniformSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s uniform buffer: %w", tag, err)
	}

	r.BindGroup, r.IBLBindGroup, err = c.materialBindGroups(r, m, p)
	if err != nil {
		return nil, err
	}

	if im != nil {
		if err := c.bindInstances(r, im, p); err != nil {
			return nil, err
		}
	}

	ok = true
	gpu.Logger().Debug("mesh: resources created",
		"handle", uint64(r.Handle), "type", tag,
		"vertices", r.VertexCount, "indices", r.IndexCount, "instances", r.InstanceCount)
	return r, nil
}

// rebind replaces the material bind groups of r. The old groups are
// destroyed only once the new ones exist.
func (c *Cache) rebind(r *Resources, m Material, p *pipeline.RenderPipeline) error {
	primary, ibl, err := c.materialBindGroups(r, m, p)
	if err != nil {
		return err
	}
	gpu.DestroyBindGroups(c.device, r.BindGroup, r.IBLBindGroup)
	r.BindGroup, r.IBLBindGroup = primary, ibl
	r.BindingRevision = m.BindingRevision()
	gpu.Logger().Debug("mesh: bind groups rebuilt", "handle", uint64(r.Handle), "revision", r.BindingRevision)
	return nil
}

// materialBindGroups builds group 0 (uniforms and textures) and, for an
// IBLProvider, group 1.
func (c *Cache) materialBindGroups(r *Resources, m Material, p *pipeline.RenderPipeline) (primary, ibl hal.BindGroup, err error) {
	layout, found := p.BindGroupLayout(0)
	if !found {
		return nil, nil, fmt.Errorf("%w: %s group 0", ErrMissingLayout, r.TypeTag)
	}
	entries := []gputypes.BindGroupEntry{{
		Binding: 0,
		Resource: gputypes.BufferBinding{
			Buffer: r.UniformBuffer.NativeHandle(),
			Size:   r.UniformSize,
		},
	}}
	if tp, isTextured := m.(TextureProvider); isTextured {
		textures, err := tp.Textures(c.device)
		if err != nil {
			return nil, nil, fmt.Errorf("mesh: %s textures: %w", r.TypeTag, err)
		}
		for i, t := range textures {
			entries = append(entries,
				gputypes.BindGroupEntry{
					Binding:  uint32(1 + 2*i),
					Resource: gputypes.SamplerBinding{Sampler: t.Sampler.NativeHandle()},
				},
				gputypes.BindGroupEntry{
					Binding:  uint32(2 + 2*i),
					Resource: gputypes.TextureViewBinding{TextureView: t.View.NativeHandle()},
				},
			)
		}
	}
	primary, err = c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   r.TypeTag + "_bind_group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("mesh: %s bind group: %w", r.TypeTag, err)
	}

	provider, isLit := m.(IBLProvider)
	if !isLit {
		return primary, nil, nil
	}
	ibl, err = c.iblBindGroup(r.TypeTag, provider, p)
	if err != nil {
		c.device.DestroyBindGroup(primary)
		return nil, nil, err
	}
	return primary, ibl, nil
}

func (c *Cache) iblBindGroup(tag string, provider IBLProvider, p *pipeline.RenderPipeline) (hal.BindGroup, error) {
	layout, found := p.BindGroupLayout(iblGroup)
	if !found {
		return nil, fmt.Errorf("%w: %s IBL group %d", ErrMissingLayout, tag, iblGroup)
	}
	textures, err := provider.IBLTextures(c.device)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s IBL textures: %w", tag, err)
	}
	if textures == nil {
		if c.fallback == nil {
			f, err := newFallbackIBL(c.device, c.queue)
			if err != nil {
				return nil, err
			}
			c.fallback = f
		}
		textures = c.fallback.textures()
	}
	group, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  tag + "_ibl_bind_group",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: textures.Prefiltered.NativeHandle()}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: textures.Irradiance.NativeHandle()}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: textures.BRDFLUT.NativeHandle()}},
			{Binding: 3, Resource: gputypes.SamplerBinding{Sampler: textures.Sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mesh: %s IBL bind group: %w", tag, err)
	}
	return group, nil
}

// bindInstances builds the instance bind group right after the material
// groups: group 1 without IBL, group 2 with it.
func (c *Cache) bindInstances(r *Resources, im *InstancedMesh, p *pipeline.RenderPipeline) error {
	r.InstanceGroup = 1
	if r.IBLBindGroup != nil {
		r.InstanceGroup = 2
	}
	layout, found := p.BindGroupLayout(int(r.InstanceGroup))
	if !found {
		return fmt.Errorf("%w: material %s, group %d", ErrMissingInstanceLayout, r.TypeTag, r.InstanceGroup)
	}
	buf, err := im.StorageBuffer(c.device, c.queue)
	if err != nil {
		return err
	}
	group, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  r.TypeTag + "_instances",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{{
			Binding: 0,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Size:   gpu.BufferSize(BytesPerInstance(im.Mode()) * uint64(im.Count())),
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("mesh: %s instance bind group: %w", r.TypeTag, err)
	}
	r.InstanceBindGroup = group
	r.InstanceCount = uint32(im.Count())
	r.instances, r.instanceBuffer = im, buf
	return nil
}

// rebindInstances rebuilds the instance bind group after the storage buffer
// it was built over went away, recreating the buffer.
func (c *Cache) rebindInstances(r *Resources, p *pipeline.RenderPipeline) error {
	old := r.InstanceBindGroup
	if err := c.bindInstances(r, r.instances, p); err != nil {
		return err
	}
	gpu.DestroyBindGroups(c.device, old)
	gpu.Logger().Debug("mesh: instance bind group rebuilt", "handle", uint64(r.Handle))
	return nil
}

func (c *Cache) syncInstances(r *Resources) error {
	if r.instances == nil {
		return nil
	}
	_, err := r.instances.UpdateStorageBuffer(c.queue)
	return err
}
