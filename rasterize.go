package meshrender

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/theandrewchan/mesh-renderer/internal/parallel"
)

var (
	// ErrInvalidDimensions is returned when the requested image width or
	// height is not positive.
	ErrInvalidDimensions = errors.New("meshrender: image dimensions must be positive")

	// ErrTriangleIndex is returned when a triangle references a vertex
	// outside the vertex buffer.
	ErrTriangleIndex = errors.New("meshrender: triangle index out of range")

	// ErrGradientShape is returned when the upstream gradient passed to
	// Backward does not have width*height*3 elements.
	ErrGradientShape = errors.New("meshrender: upstream gradient must have width*height*3 elements")
)

const (
	// minDeterminant is the smallest screen-space determinant a triangle
	// may have and still generate coverage. Back-facing triangles have a
	// non-positive determinant; values below this cutoff are treated as
	// degenerate rather than risking a division blow-up.
	minDeterminant = 1e-9

	// minWeightSum guards the barycentric normalization.
	minWeightSum = 1e-12

	// minW guards the perspective divide during bounding-box setup.
	minW = 1e-8
)

// Buffers holds the per-pixel outputs of the forward rasterization pass.
//
// TriangleIDs stores a valid triangle id for covered pixels and 0 for
// uncovered pixels. Because 0 is also a valid triangle id, the id buffer
// must always be read together with the barycentric buffer: a pixel is
// covered if and only if its barycentric triple is not all zero (see
// Covered). Depth is +Inf where uncovered and is otherwise the interpolated
// normalized device z of the winning triangle.
type Buffers struct {
	Width  int
	Height int

	// TriangleIDs has Width*Height elements in row-major order.
	TriangleIDs []int32

	// Barycentrics has Width*Height*3 elements: the perspective-correct
	// weight triple of each pixel, ordered like the winning triangle's
	// vertex indices. All zero where uncovered; sums to 1 where covered.
	Barycentrics []float32

	// Depth has Width*Height elements of normalized device z.
	Depth []float32
}

func newBuffers(width, height int) Buffers {
	n := width * height
	b := Buffers{
		Width:        width,
		Height:       height,
		TriangleIDs:  make([]int32, n),
		Barycentrics: make([]float32, n*3),
		Depth:        make([]float32, n),
	}
	inf := math32.Inf(1)
	for i := range b.Depth {
		b.Depth[i] = inf
	}
	return b
}

// TriangleID returns the winning triangle id at (x, y). The value is only
// meaningful when Covered(x, y) is true.
func (b *Buffers) TriangleID(x, y int) int32 {
	return b.TriangleIDs[y*b.Width+x]
}

// Barycentric returns the perspective-correct weight triple at (x, y).
func (b *Buffers) Barycentric(x, y int) f32.Vec3 {
	i := (y*b.Width + x) * 3
	return f32.Vec3{b.Barycentrics[i], b.Barycentrics[i+1], b.Barycentrics[i+2]}
}

// DepthAt returns the interpolated normalized device depth at (x, y).
// The value is unspecified where Covered(x, y) is false.
func (b *Buffers) DepthAt(x, y int) float32 {
	return b.Depth[y*b.Width+x]
}

// Covered reports whether any triangle occupies the pixel at (x, y).
// This is the only reliable coverage test; TriangleID alone cannot
// distinguish "triangle 0" from "no triangle".
func (b *Buffers) Covered(x, y int) bool {
	i := (y*b.Width + x) * 3
	return b.Barycentrics[i] != 0 || b.Barycentrics[i+1] != 0 || b.Barycentrics[i+2] != 0
}

// Rasterization is the operation record of one forward pass. It embeds the
// output Buffers and owns copies of the inputs the backward pass needs, so
// a Rasterization stays valid regardless of what the caller does with its
// buffers afterwards. Construct it with Rasterize; consume the gradient
// with Backward.
type Rasterization struct {
	Buffers

	vertices  []f32.Vec4
	triangles []Triangle
}

// rasterCandidate is one clipped sub-triangle prepared for pixel iteration:
// the adjugate rows of its homogeneous (x, y, w) matrix, its determinant,
// its clip-space z values, the original-vertex barycentric triples of its
// corners, and its clamped pixel bounding box.
type rasterCandidate struct {
	id   int32
	n    [3]f32.Vec3
	det  float32
	z    [3]float32
	bary [3]f32.Vec3

	minX, maxX int
	minY, maxY int
}

// Rasterize rasterizes one mesh expressed in clip-space (x, y, z, w)
// coordinates into a width x height image. Triangles are clipped against
// the view frustum, back-facing (counter-clockwise in screen space)
// triangles are culled, and each covered pixel records the nearest
// triangle's id, perspective-correct barycentric weights, and normalized
// device depth.
//
// The depth test is a strict less-than: when two triangles interpolate to
// exactly the same depth at a pixel, the one earlier in the triangle list
// wins. Calling Rasterize twice with identical inputs produces bit-identical
// outputs.
func Rasterize(vertices []f32.Vec4, triangles []Triangle, width, height int, opts ...Option) (*Rasterization, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	for i, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || int(idx) >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d",
					ErrTriangleIndex, i, idx, len(vertices))
			}
		}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Rasterization{
		Buffers:   newBuffers(width, height),
		vertices:  append([]f32.Vec4(nil), vertices...),
		triangles: append([]Triangle(nil), triangles...),
	}

	candidates, culled := buildCandidates(r.vertices, r.triangles, width, height)

	bands := parallel.Bands(height, cfg.workers)
	pool := parallel.NewWorkerPool(cfg.workers)
	defer pool.Close()

	tasks := make([]func(), len(bands))
	for i, band := range bands {
		y0, y1 := band[0], band[1]
		tasks[i] = func() {
			rasterizeBand(&r.Buffers, candidates, y0, y1)
		}
	}
	pool.ExecuteAll(tasks)

	Logger().Debug("meshrender: rasterize",
		"width", width, "height", height,
		"triangles", len(triangles),
		"candidates", len(candidates),
		"culled", culled)

	return r, nil
}

// buildCandidates clips every triangle against the frustum and precomputes
// the per-sub-triangle rasterization setup. The returned candidates are in
// triangle-list order (sub-triangles of triangle i before those of i+1),
// which together with the strict depth test makes ties deterministic.
func buildCandidates(vertices []f32.Vec4, triangles []Triangle, width, height int) ([]rasterCandidate, int) {
	candidates := make([]rasterCandidate, 0, len(triangles))
	culled := 0

	for id, tri := range triangles {
		fan := clipTriangle(vertices[tri[0]], vertices[tri[1]], vertices[tri[2]])
		if len(fan) == 0 {
			culled++
			continue
		}
		kept := false
		for _, sub := range fan {
			if cand, ok := setupCandidate(int32(id), sub, width, height); ok {
				candidates = append(candidates, cand)
				kept = true
			}
		}
		if !kept {
			culled++
		}
	}
	return candidates, culled
}

// setupCandidate computes the homogeneous barycentric setup for one clipped
// sub-triangle. It reports false for back-facing, degenerate, or entirely
// off-screen geometry.
func setupCandidate(id int32, sub clippedTriangle, width, height int) (rasterCandidate, bool) {
	c := [3]f32.Vec3{}
	for i, v := range sub.v {
		if v.pos[3] < minW {
			return rasterCandidate{}, false
		}
		c[i] = f32.Vec3{v.pos[0], v.pos[1], v.pos[3]}
	}

	cand := rasterCandidate{
		id: id,
		n: [3]f32.Vec3{
			cross3(c[1], c[2]),
			cross3(c[2], c[0]),
			cross3(c[0], c[1]),
		},
		bary: [3]f32.Vec3{sub.v[0].bary, sub.v[1].bary, sub.v[2].bary},
	}
	cand.det = dot3(c[0], cand.n[0])
	// Clockwise screen-space winding gives a positive determinant; cull
	// the rest together with near-zero-area triangles.
	if cand.det <= minDeterminant {
		return rasterCandidate{}, false
	}
	for i, v := range sub.v {
		cand.z[i] = v.pos[2]
	}

	// Project to NDC for the pixel bounding box. Clipping bounds the NDC
	// coordinates to [-1, 1], so the box is tight without further clamping
	// tricks.
	minNX, minNY := float32(1), float32(1)
	maxNX, maxNY := float32(-1), float32(-1)
	for _, v := range sub.v {
		nx := v.pos[0] / v.pos[3]
		ny := v.pos[1] / v.pos[3]
		minNX = math32.Min(minNX, nx)
		maxNX = math32.Max(maxNX, nx)
		minNY = math32.Min(minNY, ny)
		maxNY = math32.Max(maxNY, ny)
	}

	w := float32(width)
	h := float32(height)
	cand.minX = int(math32.Ceil((minNX+1)/2*w - 0.5))
	cand.maxX = int(math32.Floor((maxNX+1)/2*w - 0.5))
	cand.minY = int(math32.Ceil((1-maxNY)/2*h - 0.5))
	cand.maxY = int(math32.Floor((1-minNY)/2*h - 0.5))
	if cand.minX < 0 {
		cand.minX = 0
	}
	if cand.maxX > width-1 {
		cand.maxX = width - 1
	}
	if cand.minY < 0 {
		cand.minY = 0
	}
	if cand.maxY > height-1 {
		cand.maxY = height - 1
	}
	if cand.minX > cand.maxX || cand.minY > cand.maxY {
		return rasterCandidate{}, false
	}
	return cand, true
}

// rasterizeBand rasterizes all candidates into the row range [y0, y1).
// Bands are disjoint across workers, so no synchronization is needed on the
// pixel buffers and the result is independent of scheduling.
func rasterizeBand(buf *Buffers, candidates []rasterCandidate, y0, y1 int) {
	w := buf.Width
	fw := float32(w)
	fh := float32(buf.Height)

	for ci := range candidates {
		cand := &candidates[ci]

		lo := cand.minY
		if lo < y0 {
			lo = y0
		}
		hi := cand.maxY
		if hi > y1-1 {
			hi = y1 - 1
		}

		for iy := lo; iy <= hi; iy++ {
			py := 1 - 2*(float32(iy)+0.5)/fh
			row := iy * w
			for ix := cand.minX; ix <= cand.maxX; ix++ {
				px := 2*(float32(ix)+0.5)/fw - 1

				b0 := cand.n[0][0]*px + cand.n[0][1]*py + cand.n[0][2]
				b1 := cand.n[1][0]*px + cand.n[1][1]*py + cand.n[1][2]
				b2 := cand.n[2][0]*px + cand.n[2][1]*py + cand.n[2][2]
				if b0 < 0 || b1 < 0 || b2 < 0 {
					continue
				}
				sum := b0 + b1 + b2
				if sum < minWeightSum {
					continue
				}

				// Normalized device depth interpolates with the affine
				// screen-space weights; in the homogeneous formulation the
				// affine denominator is exactly the determinant.
				z := (b0*cand.z[0] + b1*cand.z[1] + b2*cand.z[2]) / cand.det

				idx := row + ix
				if z >= buf.Depth[idx] {
					continue
				}

				l0 := b0 / sum
				l1 := b1 / sum
				l2 := b2 / sum

				buf.Depth[idx] = z
				buf.TriangleIDs[idx] = cand.id
				bi := idx * 3
				// Map the sub-triangle weights back onto the original three
				// vertices through the clipper's reparameterization.
				buf.Barycentrics[bi+0] = l0*cand.bary[0][0] + l1*cand.bary[1][0] + l2*cand.bary[2][0]
				buf.Barycentrics[bi+1] = l0*cand.bary[0][1] + l1*cand.bary[1][1] + l2*cand.bary[2][1]
				buf.Barycentrics[bi+2] = l0*cand.bary[0][2] + l1*cand.bary[1][2] + l2*cand.bary[2][2]
			}
		}
	}
}
