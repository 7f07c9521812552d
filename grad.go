package meshrender

import (
	"fmt"

	"golang.org/x/image/math/f32"

	"github.com/theandrewchan/mesh-renderer/internal/parallel"
)

// Gradients is the result of a backward pass. Vertices holds the gradient
// of the loss with respect to each clip-space vertex. Gradients are not
// available for the triangle list or the image dimensions; those fields are
// zero-valued placeholders kept so the calling convention mirrors the
// forward inputs one for one.
type Gradients struct {
	// Vertices has the same shape as the forward vertex buffer. The z
	// component of every gradient is zero: z influences only depth, never
	// the barycentric weights.
	Vertices []f32.Vec4

	// Triangles is all zero; the triangle list is a fixed integer
	// structure.
	Triangles []Triangle

	// ImageWidth and ImageHeight are always zero.
	ImageWidth  float32
	ImageHeight float32
}

// Backward propagates an upstream gradient with respect to the barycentric
// buffer back to the clip-space vertex positions. upstream must hold
// width*height*3 values laid out like Buffers.Barycentrics.
//
// For each covered pixel the normalized homogeneous barycentric map is
// differentiated analytically with respect to the winning triangle's
// original (x, y, w) coordinates; uncovered pixels (all-zero weights)
// contribute nothing. Per-vertex accumulation runs over disjoint row bands
// with a fixed reduction order, so repeated calls with the same options
// produce bit-identical gradients.
func (r *Rasterization) Backward(upstream []float32, opts ...Option) (*Gradients, error) {
	if len(upstream) != r.Width*r.Height*3 {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrGradientShape, len(upstream), r.Width*r.Height*3)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	bands := parallel.Bands(r.Height, cfg.workers)
	partial := make([][]f32.Vec4, len(bands))

	pool := parallel.NewWorkerPool(cfg.workers)
	defer pool.Close()

	tasks := make([]func(), len(bands))
	for i, band := range bands {
		i := i
		y0, y1 := band[0], band[1]
		tasks[i] = func() {
			partial[i] = make([]f32.Vec4, len(r.vertices))
			r.backwardBand(upstream, y0, y1, partial[i])
		}
	}
	pool.ExecuteAll(tasks)

	out := &Gradients{
		Vertices:  make([]f32.Vec4, len(r.vertices)),
		Triangles: make([]Triangle, len(r.triangles)),
	}
	// Reduce in band order: the scatter-add stays deterministic because
	// every band accumulated its pixels in row-major order and the bands
	// are summed in a fixed sequence.
	for _, p := range partial {
		for v := range p {
			out.Vertices[v][0] += p[v][0]
			out.Vertices[v][1] += p[v][1]
			out.Vertices[v][2] += p[v][2]
			out.Vertices[v][3] += p[v][3]
		}
	}

	Logger().Debug("meshrender: backward",
		"width", r.Width, "height", r.Height, "vertices", len(r.vertices))

	return out, nil
}

// backwardBand accumulates vertex gradients for the pixel rows [y0, y1).
//
// Per pixel, with M the 3x3 matrix whose columns are the winning triangle's
// (x, y, w) coordinates and p = (px, py, 1) the pixel's homogeneous NDC
// position, the forward pass computed lambda = b / sum(b) with
// b = adj(M) * p. Differentiating that map with the quotient rule gives,
// for upstream gradient g and G = dot(g, lambda):
//
//	dL/dc_k = ((g_{k+2} - G) * (c_{k+1} x p) + (g_{k+1} - G) * (p x c_{k+2})) / sum(b)
//
// where c_k is column k, indices mod 3, and x is the cross product. The
// clipper only reparameterizes vertices, so at interior pixels the same
// expression holds with the original, unclipped vertices.
func (r *Rasterization) backwardBand(upstream []float32, y0, y1 int, grads []f32.Vec4) {
	w := r.Width
	fw := float32(w)
	fh := float32(r.Height)

	for iy := y0; iy < y1; iy++ {
		py := 1 - 2*(float32(iy)+0.5)/fh
		for ix := 0; ix < w; ix++ {
			idx := iy*w + ix
			bi := idx * 3
			// All-zero weights mark an uncovered pixel regardless of the
			// (aliased) triangle id.
			if r.Barycentrics[bi] == 0 && r.Barycentrics[bi+1] == 0 && r.Barycentrics[bi+2] == 0 {
				continue
			}
			g := f32.Vec3{upstream[bi], upstream[bi+1], upstream[bi+2]}
			if g[0] == 0 && g[1] == 0 && g[2] == 0 {
				continue
			}

			tri := r.triangles[r.TriangleIDs[idx]]
			var c [3]f32.Vec3
			for k := 0; k < 3; k++ {
				v := r.vertices[tri[k]]
				c[k] = f32.Vec3{v[0], v[1], v[3]}
			}

			px := 2*(float32(ix)+0.5)/fw - 1
			p := f32.Vec3{px, py, 1}

			b := f32.Vec3{
				dot3(cross3(c[1], c[2]), p),
				dot3(cross3(c[2], c[0]), p),
				dot3(cross3(c[0], c[1]), p),
			}
			sum := b[0] + b[1] + b[2]
			if sum < minWeightSum && sum > -minWeightSum {
				continue
			}
			inv := 1 / sum

			l := f32.Vec3{b[0] * inv, b[1] * inv, b[2] * inv}
			G := g[0]*l[0] + g[1]*l[1] + g[2]*l[2]

			for k := 0; k < 3; k++ {
				k1 := (k + 1) % 3
				k2 := (k + 2) % 3
				ca := cross3(c[k1], p)
				cb := cross3(p, c[k2])
				ga := (g[k2] - G) * inv
				gb := (g[k1] - G) * inv

				gv := &grads[tri[k]]
				gv[0] += ga*ca[0] + gb*cb[0]
				gv[1] += ga*ca[1] + gb*cb[1]
				gv[3] += ga*ca[2] + gb*cb[2]
			}
		}
	}
}
