// Sample buffer pool for the render hot path
//
// Rendering resamples movement and dimmer curves for every step on
// every fixture; pooling the float64 scratch buffers keeps GC pressure
// down on large rigs.
//
// Copyright (C) 2026  Show Compiler Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package render

import "sync"

var sampleBufPool = sync.Pool{
	New: func() any {
		s := make([]float64, 0, 64)
		return &s
	},
}

// getSampleBuf returns a zeroed buffer of length n from the pool.
func getSampleBuf(n int) *[]float64 {
	p := sampleBufPool.Get().(*[]float64)
	if cap(*p) < n {
		*p = make([]float64, n)
	} else {
		*p = (*p)[:n]
		for i := range *p {
			(*p)[i] = 0
		}
	}
	return p
}

// putSampleBuf returns a buffer to the pool. Oversized buffers are
// dropped rather than pooled.
func putSampleBuf(p *[]float64) {
	if p == nil || cap(*p) > 4096 {
		return
	}
	sampleBufPool.Put(p)
}
