package meshrender

import "runtime"

// Option configures a forward, backward, or batched render call.
// Use functional options to customize behavior.
//
// Example:
//
//	// Default: one worker per CPU.
//	rast, err := meshrender.Rasterize(verts, tris, 512, 512)
//
//	// Pin the worker count, e.g. for reproducing a CI failure.
//	rast, err := meshrender.Rasterize(verts, tris, 512, 512,
//	    meshrender.WithWorkers(1))
type Option func(*config)

// config holds optional per-call configuration.
type config struct {
	workers int
}

// defaultConfig returns the default call configuration.
func defaultConfig() config {
	return config{
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of worker goroutines used for pixel and batch
// parallelism. If n is zero or negative, GOMAXPROCS is used.
//
// The forward outputs do not depend on the worker count. Backward gradients
// are bit-stable for a fixed worker count; different counts may differ by
// floating-point rounding in the reduction.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		c.workers = n
	}
}
