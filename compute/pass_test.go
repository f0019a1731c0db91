// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gfxcore/internal/gputest"
)

func TestPassDispatch(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, doubleShader, "main")
	g := f.bindGroup(t, p, f.buffer(t, 256))

	pass, err := NewPass(f.dev, f.queue, p, WithPassLabel("double"))
	if err != nil {
		t.Fatalf("NewPass() error = %v", err)
	}
	if err := pass.SetBindGroup(0, g).Dispatch(4); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if err := pass.Dispatch(2, 3, 4); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if f.queue.Submits() != 2 {
		t.Errorf("submits = %d, want one per Dispatch", f.queue.Submits())
	}

	enc := f.dev.LastEncoder()
	if len(enc.ComputePass) != 1 {
		t.Fatalf("passes = %d, want 1", len(enc.ComputePass))
	}
	cp := enc.ComputePass[0]
	if cp.Desc.Label != "double" || cp.Pipeline != p.Pipeline || cp.BindGroups[0] != g || !cp.Ended {
		t.Errorf("pass = %+v", cp)
	}
	if cp.Desc.TimestampWrites != nil {
		t.Error("pass without profiler must not write timestamps")
	}
	if len(cp.Dispatches) != 1 || cp.Dispatches[0] != [3]uint32{2, 3, 4} {
		t.Errorf("dispatches = %v, want [[2 3 4]]", cp.Dispatches)
	}
	if first := f.dev.Encoders[len(f.dev.Encoders)-2].ComputePass[0]; first.Dispatches[0] != [3]uint32{4, 1, 1} {
		t.Errorf("missing dimensions must default to 1, got %v", first.Dispatches[0])
	}
}

func TestPassDispatchErrors(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, doubleShader, "main")
	g := f.bindGroup(t, p, f.buffer(t, 64))
	pass, err := NewPass(f.dev, f.queue, p)
	if err != nil {
		t.Fatal(err)
	}

	if err := pass.Dispatch(1); !errors.Is(err, ErrNoBindGroups) {
		t.Errorf("Dispatch() without groups error = %v, want ErrNoBindGroups", err)
	}
	pass.SetBindGroup(0, g)
	tests := []struct {
		name string
		x    uint32
		yz   []uint32
		want error
	}{
		{"zero x", 0, nil, ErrWorkgroupCountZero},
		{"zero z", 1, []uint32{1, 0}, ErrWorkgroupCountZero},
		{"four dimensions", 1, []uint32{1, 1, 1}, ErrInvalidWorkgroups},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := pass.Dispatch(tt.x, tt.yz...); !errors.Is(err, tt.want) {
				t.Errorf("Dispatch() error = %v, want %v", err, tt.want)
			}
		})
	}
	if f.queue.Submits() != 0 {
		t.Errorf("failed dispatches submitted %d times", f.queue.Submits())
	}

	pass.ClearBindGroups()
	if err := pass.Dispatch(1); !errors.Is(err, ErrNoBindGroups) {
		t.Errorf("Dispatch() after ClearBindGroups error = %v", err)
	}

	if _, err := NewPass(f.dev, f.queue, nil); !errors.Is(err, ErrNilPipeline) {
		t.Errorf("NewPass(nil) error = %v, want ErrNilPipeline", err)
	}
}

func TestPassBindGroupOrder(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, twoGroupShader, "copy_values")
	g0 := f.bindGroup(t, p, f.buffer(t, 64))
	g1 := f.bindGroup(t, p, f.buffer(t, 64))

	pass, err := NewPass(f.dev, f.queue, p)
	if err != nil {
		t.Fatal(err)
	}
	if err := pass.SetBindGroup(1, g1).SetBindGroup(0, g0).DispatchAsync(context.Background(), 1); err != nil {
		t.Fatalf("DispatchAsync() error = %v", err)
	}
	cp := f.dev.LastEncoder().ComputePass[0]
	if cp.BindGroups[0] != g0 || cp.BindGroups[1] != g1 {
		t.Errorf("bind groups = %v", cp.BindGroups)
	}

	groups := sortedGroups(pass.groups)
	if len(groups) != 2 || groups[0].index != 0 || groups[1].index != 1 {
		t.Errorf("sortedGroups() = %+v", groups)
	}
}

func TestPassDispatchAsyncCanceled(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, doubleShader, "main")
	pass, err := NewPass(f.dev, f.queue, p)
	if err != nil {
		t.Fatal(err)
	}
	pass.SetBindGroup(0, f.bindGroup(t, p, f.buffer(t, 64)))

	// The noop queue completes on submit, so a canceled context still
	// observes completion.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pass.DispatchAsync(ctx, 1); err != nil {
		t.Errorf("DispatchAsync() error = %v", err)
	}
	if n := f.dev.Created(gputest.KindComputePipeline); n != 1 {
		t.Errorf("compute pipelines = %d, want 1", n)
	}
}
