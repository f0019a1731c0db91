// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gfxcore/internal/gputest"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestBufferSize(t *testing.T) {
	tests := []struct {
		n, want uint64
	}{
		{0, 4},
		{1, 4},
		{4, 4},
		{5, 8},
		{80, 80},
		{81, 84},
	}
	for _, tt := range tests {
		if got := gpu.BufferSize(tt.n); got != tt.want {
			t.Errorf("BufferSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestPadBytes(t *testing.T) {
	aligned := []byte{1, 2, 3, 4}
	if got := gpu.PadBytes(aligned); &got[0] != &aligned[0] {
		t.Error("aligned data must be returned unchanged")
	}
	if got := gpu.PadBytes([]byte{9}); !slices.Equal(got, []byte{9, 0, 0, 0}) {
		t.Errorf("PadBytes([9]) = %v", got)
	}
	if got := gpu.PadBytes(nil); len(got) != 4 {
		t.Errorf("len(PadBytes(nil)) = %d, want 4", len(got))
	}
}

func TestCreateBufferInitReadback(t *testing.T) {
	dev, queue := gputest.New(t)
	data := gpu.Float32Bytes([]float32{1.5, -2})

	src, err := gpu.CreateBufferInit(dev, queue, "src", gputypes.BufferUsageCopySrc, data)
	if err != nil {
		t.Fatalf("CreateBufferInit() error = %v", err)
	}
	dst, err := gpu.CreateBuffer(dev, "dst", 8, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	defer gpu.DestroyBuffers(dev, src, dst)

	enc, err := gpu.BeginEncoder(dev, "copy")
	if err != nil {
		t.Fatalf("BeginEncoder() error = %v", err)
	}
	enc.CopyBufferToBuffer(src, dst, []hal.BufferCopy{{Size: 8}})
	index, err := gpu.Submit(dev, queue, enc)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := gpu.Wait(context.Background(), queue, index); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	got, err := gpu.ReadMapped(dev, dst, 8)
	if err != nil {
		t.Fatalf("ReadMapped() error = %v", err)
	}
	if !slices.Equal(got, data) {
		t.Errorf("ReadMapped() = %v, want %v", got, data)
	}
}

func TestWaitCanceled(t *testing.T) {
	_, queue := gputest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Submission 1 was never made, so only the context can end the wait.
	if err := gpu.Wait(ctx, queue, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestNilDevice(t *testing.T) {
	if _, err := gpu.CreateBuffer(nil, "x", 4, 0); !errors.Is(err, gpu.ErrNilDevice) {
		t.Errorf("CreateBuffer(nil) error = %v", err)
	}
	if _, err := gpu.BeginEncoder(nil, "x"); !errors.Is(err, gpu.ErrNilDevice) {
		t.Errorf("BeginEncoder(nil) error = %v", err)
	}
	if _, err := gpu.CreateBufferInit(nil, nil, "x", 0, nil); !errors.Is(err, gpu.ErrNilQueue) {
		t.Errorf("CreateBufferInit(nil queue) error = %v", err)
	}
}

func TestEncodingFailureDiscards(t *testing.T) {
	dev, queue := gputest.New(t)

	dev.FailBeginEncoding = errors.New("out of memory")
	if _, err := gpu.BeginEncoder(dev, "begin"); err == nil {
		t.Fatal("BeginEncoder() must report a failed BeginEncoding")
	}
	if enc := dev.LastEncoder(); enc == nil || !enc.Discarded {
		t.Error("encoder must be discarded when BeginEncoding fails")
	}

	dev.FailBeginEncoding = nil
	dev.FailEndEncoding = errors.New("validation")
	enc, err := gpu.BeginEncoder(dev, "end")
	if err != nil {
		t.Fatalf("BeginEncoder() error = %v", err)
	}
	if _, err := gpu.Submit(dev, queue, enc); err == nil {
		t.Fatal("Submit() must report a failed EndEncoding")
	}
	if !dev.LastEncoder().Discarded {
		t.Error("encoder must be discarded when EndEncoding fails")
	}
	if queue.Submits() != 0 {
		t.Errorf("submits = %d, want 0", queue.Submits())
	}
}
