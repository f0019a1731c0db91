// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gputest

import (
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Window is a gpucontext.WindowProvider whose logical size can be changed
// from tests. It also provides OnResize like gpucontext.EventSource.
type Window struct {
	gpucontext.NullWindowProvider

	mu       sync.Mutex
	handlers []func(width, height int)
}

// NewWindow returns a window of w×h logical points at the given scale.
func NewWindow(w, h int, scale float64) *Window {
	return &Window{NullWindowProvider: gpucontext.NullWindowProvider{W: w, H: h, SF: scale}}
}

// OnResize registers a resize callback.
func (w *Window) OnResize(fn func(width, height int)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, fn)
	w.mu.Unlock()
}

// Resize changes the logical size and notifies every registered callback.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	w.W, w.H = width, height
	handlers := append([]func(int, int){}, w.handlers...)
	w.mu.Unlock()
	for _, fn := range handlers {
		fn(width, height)
	}
}

// Size returns the current logical size.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.W, w.H
}

// Surface is a noop hal.Surface that records its configurations.
type Surface struct {
	noop.Surface

	Configs  []hal.SurfaceConfiguration
	Acquired int
}

func (s *Surface) Configure(device hal.Device, config *hal.SurfaceConfiguration) error {
	s.Configs = append(s.Configs, *config)
	return s.Surface.Configure(device, config)
}

func (s *Surface) AcquireTexture(fence hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	s.Acquired++
	return s.Surface.AcquireTexture(fence)
}
