// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfxcore

import (
	"log/slog"

	"github.com/gogpu/gfxcore/internal/gpu"
)

// SetLogger configures the logger for gfxcore and all its sub-packages.
// By default, gfxcore produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by gfxcore:
//   - [slog.LevelDebug]: cache hits and misses, pipeline creation, submissions
//   - [slog.LevelInfo]: lifecycle events (core created, core closed)
//   - [slog.LevelWarn]: recoverable backend failures (failed resize,
//     missing timestamp queries)
//
// Example:
//
//	gfxcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	gpu.SetLogger(l)
}

// Logger returns the current logger used by gfxcore.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return gpu.Logger()
}
