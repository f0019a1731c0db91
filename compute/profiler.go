// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// timestampBytes is the size of the begin and end timestamps.
const timestampBytes = 2 * 8

// ProfilerState is the lifecycle state of a Profiler.
type ProfilerState int

const (
	// ProfilerUnsupported means the device cannot write timestamps.
	// Every operation is a no-op.
	ProfilerUnsupported ProfilerState = iota

	// ProfilerIdle means no pass has requested timestamps yet.
	ProfilerIdle

	// ProfilerRequested means a pass was given the timestamp writes.
	ProfilerRequested

	// ProfilerResolved means the timestamps were copied to the readback
	// buffer by an encoder.
	ProfilerResolved
)

// String returns the string representation of ProfilerState.
func (s ProfilerState) String() string {
	switch s {
	case ProfilerUnsupported:
		return "Unsupported"
	case ProfilerIdle:
		return "Idle"
	case ProfilerRequested:
		return "Requested"
	case ProfilerResolved:
		return "Resolved"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Profiler measures the GPU time of one compute pass with a pair of
// timestamp queries.
//
// Usage per measurement: pass TimestampWrites to the pass descriptor, call
// Resolve on the same encoder after the pass ends, submit, then
// ResolveAsync. Pass and Batch do all but the last step.
type Profiler struct {
	device hal.Device
	queue  hal.Queue

	mu         sync.Mutex
	state      ProfilerState
	querySet   hal.QuerySet
	resolveBuf hal.Buffer
	readback   hal.Buffer
	submission uint64
}

// NewProfiler creates a profiler. When features lacks
// gputypes.FeatureTimestampQuery, or the backend reports
// hal.ErrTimestampsNotSupported, the profiler is created in the
// unsupported state and no error is returned.
func NewProfiler(device hal.Device, queue hal.Queue, features gputypes.Features) (*Profiler, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	p := &Profiler{device: device, queue: queue, state: ProfilerUnsupported}
	if !features.Contains(gputypes.FeatureTimestampQuery) {
		gpu.Logger().Debug("compute: timestamp queries not enabled, profiler disabled")
		return p, nil
	}

	querySet, err := device.CreateQuerySet(&hal.QuerySetDescriptor{
		Label: "compute_profiler_queries",
		Type:  hal.QueryTypeTimestamp,
		Count: 2,
	})
	if errors.Is(err, hal.ErrTimestampsNotSupported) {
		gpu.Logger().Warn("compute: backend has no timestamp queries, profiler disabled")
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("compute: create query set: %w", err)
	}
	p.querySet = querySet

	p.resolveBuf, err = gpu.CreateBuffer(device, "compute_profiler_resolve", timestampBytes,
		gputypes.BufferUsageQueryResolve|gputypes.BufferUsageCopySrc)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("compute: %w", err)
	}
	p.readback, err = gpu.CreateBuffer(device, "compute_profiler_readback", timestampBytes,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("compute: %w", err)
	}
	p.state = ProfilerIdle
	return p, nil
}

// Supported reports whether the profiler records timestamps.
func (p *Profiler) Supported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.querySet != nil
}

// State returns the current state.
func (p *Profiler) State() ProfilerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// TimestampWrites returns the writes that bracket a compute pass: slot 0 at
// the beginning and slot 1 at the end. It marks the profiler as requested.
// It returns nil when timestamps are unsupported.
func (p *Profiler) TimestampWrites() *hal.ComputePassTimestampWrites {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.querySet == nil {
		return nil
	}
	begin, end := uint32(0), uint32(1)
	p.state = ProfilerRequested
	return &hal.ComputePassTimestampWrites{
		QuerySet:                  p.querySet,
		BeginningOfPassWriteIndex: &begin,
		EndOfPassWriteIndex:       &end,
	}
}

// Resolve records the query resolve and the copy into the readback buffer.
// It must be encoded after the measured pass and before the submit.
func (p *Profiler) Resolve(encoder hal.CommandEncoder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.querySet == nil || p.state != ProfilerRequested {
		return
	}
	encoder.ResolveQuerySet(p.querySet, 0, 2, p.resolveBuf, 0)
	encoder.CopyBufferToBuffer(p.resolveBuf, p.readback, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: timestampBytes},
	})
	p.state = ProfilerResolved
}

// submitted records the submission that carries the resolve.
func (p *Profiler) submitted(index uint64) {
	p.mu.Lock()
	if p.state == ProfilerResolved {
		p.submission = index
	}
	p.mu.Unlock()
}

// ResolveAsync waits for the measured submission, reads both timestamps
// and returns the elapsed GPU time. A decreasing timestamp pair yields 0.
// The profiler returns to idle.
//
// When timestamps are unsupported ResolveAsync returns 0 and no error.
func (p *Profiler) ResolveAsync(ctx context.Context) (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case ProfilerUnsupported:
		return 0, nil
	case ProfilerIdle:
		return 0, ErrTimestampsNotRequested
	case ProfilerRequested:
		return 0, ErrTimestampsNotResolved
	}

	if p.submission != 0 {
		if err := gpu.Wait(ctx, p.queue, p.submission); err != nil {
			return 0, fmt.Errorf("compute: profiler: %w", err)
		}
	}
	data, err := gpu.ReadMapped(p.device, p.readback, timestampBytes)
	if err != nil {
		return 0, fmt.Errorf("compute: profiler readback: %w", err)
	}
	p.state = ProfilerIdle
	p.submission = 0

	begin := binary.LittleEndian.Uint64(data[0:8])
	end := binary.LittleEndian.Uint64(data[8:16])
	return elapsed(begin, end, p.queue.GetTimestampPeriod()), nil
}

// Reset returns a requested or resolved profiler to idle without reading.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.querySet != nil {
		p.state = ProfilerIdle
		p.submission = 0
	}
}

// Destroy releases the query set and both buffers. The profiler is
// unsupported afterwards.
func (p *Profiler) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.querySet != nil {
		p.device.DestroyQuerySet(p.querySet)
		p.querySet = nil
	}
	gpu.DestroyBuffers(p.device, p.resolveBuf, p.readback)
	p.resolveBuf, p.readback = nil, nil
	p.state = ProfilerUnsupported
}

// elapsed converts a timestamp pair to a duration using period
// nanoseconds per tick.
func elapsed(begin, end uint64, period float32) time.Duration {
	if end < begin {
		return 0
	}
	if period <= 0 {
		period = 1
	}
	return time.Duration(float64(end-begin) * float64(period))
}
