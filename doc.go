// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package matbench is a microbenchmark harness for dense square matrix
// multiplication.
//
// It times three kernels that compute the same product with different
// memory access patterns:
//   - Standard: i-j-k order with a per-cell local sum (B read column-wise)
//   - RowWise: i-k-j order accumulating straight into rows of C
//   - Block: i/j/k tiling with a configurable tile edge
//
// A Runner initializes A to ones and B to its row index plus one, measures
// only the kernel, and can bracket it with L1/L2 data-cache-miss hardware
// counters. Platforms without a counter facility report timing alone.
package matbench
