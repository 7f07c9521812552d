// Package parallel provides the worker pool and row-band partitioning used
// by the rasterization kernels.
//
// Kernels split the image into disjoint horizontal bands, one task per
// band, so workers never write the same pixel and the output is independent
// of goroutine scheduling. The pool itself is a small work-stealing
// executor: each worker owns a queue and steals from its siblings when idle.
package parallel
