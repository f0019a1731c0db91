// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
)

// HashSource returns the FNV-1a 64-bit hash of source as 16 lowercase hex
// digits. The source is hashed byte for byte with no normalization, so
// sources that differ only in whitespace hash differently.
func HashSource(source string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source)) // fnv.Write never returns an error
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())
	return hex.EncodeToString(sum[:])
}

// computeKey builds the compute cache key for source and entry point.
func computeKey(source, entryPoint string) string {
	return HashSource(source) + ":" + entryPoint
}
