// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// pollInterval is how often Wait re-checks queue progress.
const pollInterval = 250 * time.Microsecond

// BeginEncoder creates a command encoder and starts recording.
func BeginEncoder(device hal.Device, label string) (hal.CommandEncoder, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return encoder, nil
}

// Submit finishes recording and submits the command buffer.
// It returns the submission index to pass to Wait.
func Submit(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder) (uint64, error) {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return 0, fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	index, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	Logger().Debug("gpu: submitted", "index", index)
	return index, nil
}

// Wait blocks until the queue reports submission index as completed or ctx
// is done. Submissions complete in order, so waiting on the latest index
// also covers every earlier one.
func Wait(ctx context.Context, queue hal.Queue, index uint64) error {
	if queue.PollCompleted() >= index {
		return nil
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for submission %d: %w", index, ctx.Err())
		case <-ticker.C:
			if queue.PollCompleted() >= index {
				return nil
			}
		}
	}
}
