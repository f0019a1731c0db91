// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfxcore

import (
	"log/slog"

	"github.com/gogpu/gputypes"
)

// Option configures a Core during creation.
//
// Example:
//
//	core, err := gfxcore.New(device, queue,
//		gfxcore.WithColorFormat(gputypes.TextureFormatRGBA8Unorm),
//		gfxcore.WithSampleCount(4),
//	)
type Option func(*options)

// options holds optional configuration for Core creation.
type options struct {
	logger      *slog.Logger
	colorFormat gputypes.TextureFormat
	depthFormat gputypes.TextureFormat
	sampleCount uint32
	features    gputypes.Features
}

// defaultOptions returns the default core options.
func defaultOptions() options {
	return options{
		colorFormat: gputypes.TextureFormatBGRA8Unorm,
		depthFormat: gputypes.TextureFormatDepth24Plus,
		sampleCount: 1,
	}
}

// WithLogger installs l as the package logger, as SetLogger does.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithColorFormat sets the color format render pipelines and render targets
// use. The default is BGRA8Unorm.
func WithColorFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.colorFormat = f
	}
}

// WithDepthFormat sets the depth attachment format. The default is
// Depth24Plus.
func WithDepthFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.depthFormat = f
	}
}

// WithSampleCount sets the MSAA sample count of render pipelines and render
// targets. 0 is treated as 1.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		if n == 0 {
			n = 1
		}
		o.sampleCount = n
	}
}

// WithFeatures declares the device features that were enabled when the
// device was opened. Profilers use it to decide whether timestamp queries
// are available.
func WithFeatures(f gputypes.Features) Option {
	return func(o *options) {
		o.features = f
	}
}
