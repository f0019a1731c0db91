// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command gfxdemo drives gfxcore headless on the noop backend: it renders a
// few frames of an instanced grid into MSAA render targets, then doubles a
// buffer of numbers with a compute batch and reads the result back.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/gogpu/gfxcore"
	"github.com/gogpu/gfxcore/compute"
	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gfxcore/mesh"
	"github.com/gogpu/gfxcore/target"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/math/f32"
)

const gridShader = `
struct Uniforms {
    view_proj: mat4x4<f32>,
    time: f32,
}

struct Instance {
    position: vec4<f32>,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(1) @binding(0) var<storage, read> instances: array<Instance>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @builtin(instance_index) i: u32) -> VertexOutput {
    var out: VertexOutput;
    out.position = u.view_proj * vec4<f32>(pos + instances[i].position.xyz, 1.0);
    out.color = instances[i].color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

const doubleShader = `
@group(0) @binding(0) var<storage, read_write> data: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] * 2.0;
}
`

// gridMaterial draws instanced quads colored per instance.
type gridMaterial struct{}

func (gridMaterial) TypeTag() string                      { return "grid" }
func (gridMaterial) Topology() gputypes.PrimitiveTopology { return gputypes.PrimitiveTopologyTriangleList }
func (gridMaterial) VertexShader() string                 { return gridShader }
func (gridMaterial) FragmentShader() string               { return gridShader }
func (gridMaterial) UniformSize() uint64                  { return 80 }
func (gridMaterial) BindingRevision() uint64              { return 0 }

func (gridMaterial) VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: 12,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}}
}

// WriteUniforms packs projection*view in column-major order followed by the
// frame time.
func (gridMaterial) WriteUniforms(dst []byte, fc *mesh.FrameContext) {
	vp := mul(fc.Projection, fc.View)
	for col := range 4 {
		for row := range 4 {
			binary.LittleEndian.PutUint32(dst[4*(4*col+row):], math.Float32bits(vp[4*row+col]))
		}
	}
	binary.LittleEndian.PutUint32(dst[64:], math.Float32bits(fc.Time))
}

func main() {
	var (
		width   = flag.Int("width", 800, "window width in logical points")
		height  = flag.Int("height", 600, "window height in logical points")
		samples = flag.Uint("samples", 4, "MSAA sample count")
		frames  = flag.Int("frames", 3, "frames to render")
		grid    = flag.Int("grid", 8, "instances per grid row")
		count   = flag.Int("n", 1024, "numbers to double on the GPU")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		gfxcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	instance, device, queue, err := openNoop()
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	defer instance.Destroy()
	defer device.Destroy()

	core, err := gfxcore.New(device, queue, gfxcore.WithSampleCount(uint32(*samples)))
	if err != nil {
		log.Fatalf("core: %v", err)
	}
	defer core.Close()

	if err := render(core, instance, *width, *height, *frames, *grid); err != nil {
		log.Fatalf("render: %v", err)
	}
	if err := double(core, *count); err != nil {
		log.Fatalf("compute: %v", err)
	}
}

func openNoop() (hal.Instance, hal.Device, hal.Queue, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, err
	}
	return instance, open.Device, open.Queue, nil
}

func render(core *gfxcore.Core, instance hal.Instance, width, height, frames, grid int) error {
	surface, err := instance.CreateSurface(0, 0)
	if err != nil {
		return err
	}
	defer surface.Destroy()

	window := gpucontext.NullWindowProvider{W: width, H: height, SF: 1}
	targets, err := core.NewRenderTargets(surface, window)
	if err != nil {
		return err
	}
	defer targets.Dispose()

	quad := mesh.NewObject(
		[]float32{-0.4, -0.4, 0, 0.4, -0.4, 0, 0.4, 0.4, 0, -0.4, 0.4, 0},
		3,
		[]uint32{0, 1, 2, 0, 2, 3},
		gridMaterial{},
	)
	instances := mesh.NewInstancedMesh(grid*grid, mesh.InstancePositionOnly)
	for i := range grid * grid {
		x, y := float32(i%grid), float32(i/grid)
		instances.SetPositionAt(i, x-float32(grid)/2, y-float32(grid)/2, 0)
	}
	quad.SetInstances(instances)
	defer instances.Dispose(core.Device())

	fc := &mesh.FrameContext{
		Model:      identity(),
		View:       identity(),
		Projection: ortho(float32(grid)),
	}
	start := time.Now()
	for frame := range frames {
		fc.Time = float32(time.Since(start).Seconds())
		for i := range grid * grid {
			t := float32(frame+i) / float32(frames+grid*grid)
			instances.SetColorAt(i, f32.Vec4{t, 1 - t, 0.5, 1})
		}
		if err := drawFrame(core, targets, quad, fc); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		if frame == 0 {
			// Steady-state counters only.
			core.Meshes.ResetStats()
			core.Pipelines.ResetStats()
		}
	}
	w, h := targets.Size()
	stats, pstats := core.Meshes.Stats(), core.Pipelines.Stats()
	log.Printf("rendered %d frames at %dx%d x%d: %d instances, mesh cache %d hits / %d misses, pipeline cache %d hits / %d misses",
		frames, w, h, targets.SampleCount(), instances.Count(), stats.Hits, stats.Misses, pstats.Hits, pstats.Misses)
	return nil
}

func drawFrame(core *gfxcore.Core, targets *target.RenderTargets, obj *mesh.Object, fc *mesh.FrameContext) error {
	res, p, err := core.Prepare(obj)
	if err != nil {
		return err
	}
	if err := res.WriteUniforms(core.Queue(), obj.Material(), fc); err != nil {
		return err
	}

	encoder, err := gpu.BeginEncoder(core.Device(), "frame")
	if err != nil {
		return err
	}
	pass, err := targets.BeginRenderPass(encoder, gputypes.Color{R: 0.05, G: 0.05, B: 0.08, A: 1})
	if err != nil {
		encoder.DiscardEncoding()
		return err
	}
	res.Draw(pass, p)
	pass.End()
	if _, err := gpu.Submit(core.Device(), core.Queue(), encoder); err != nil {
		return err
	}
	return targets.Present(core.Queue())
}

func double(core *gfxcore.Core, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := core.NewBuffer(uint64(4*n), compute.WithBufferLabel("numbers"))
	if err != nil {
		return err
	}
	defer data.Destroy()

	values := make([]float32, n)
	for i := range values {
		values[i] = float32(i)
	}
	if err := data.WriteFloat32s(0, values); err != nil {
		return err
	}

	profiler, err := core.NewProfiler()
	if err != nil {
		return err
	}
	defer profiler.Destroy()

	batch, err := core.NewBatch(compute.WithProfiler(profiler), compute.WithBatchLabel("double"))
	if err != nil {
		return err
	}
	groups := uint32((n + 63) / 64)
	if groups == 0 {
		groups = 1
	}
	err = batch.Add(compute.Entry{
		Shader:     &compute.Shader{Source: doubleShader},
		Workgroups: []uint32{groups},
		Entries: map[string][]gputypes.BindGroupEntry{
			"0": {data.Binding(0)},
		},
	})
	if err != nil {
		return err
	}
	if err := batch.SubmitAsync(ctx); err != nil {
		return err
	}
	elapsed, err := profiler.ResolveAsync(ctx)
	if err != nil {
		return err
	}

	out, err := data.ReadFloat32sAsync(ctx)
	if err != nil {
		return err
	}
	log.Printf("dispatched %d workgroups over %d numbers (gpu time %v, profiler %s): first values %v",
		groups, n, elapsed, profiler.State(), out[:min(len(out), 4)])
	return nil
}

func identity() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// ortho maps [-extent/2, extent/2] on x and y to clip space.
func ortho(extent float32) f32.Mat4 {
	s := 2 / extent
	return f32.Mat4{
		s, 0, 0, 0,
		0, s, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// mul returns a*b for row-major matrices.
func mul(a, b f32.Mat4) f32.Mat4 {
	var m f32.Mat4
	for r := range 4 {
		for c := range 4 {
			var sum float32
			for k := range 4 {
				sum += a[4*r+k] * b[4*k+c]
			}
			m[4*r+c] = sum
		}
	}
	return m
}
