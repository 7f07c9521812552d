package meshrender

import (
	"errors"
	"reflect"
	"testing"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

func TestRenderClipSpace_ScenarioA(t *testing.T) {
	// One triangle with red/green/blue vertex colors over black: pixels
	// near the centroid blend toward equal parts, uncovered corners stay
	// exactly black.
	vertices := [][]f32.Vec4{{
		{-1, -1, 0, 1},
		{1, -1, 0, 1},
		{0, 1, 0, 1},
	}}
	attributes := [][]float32{{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}}
	triangles := []Triangle{Tri(0, 1, 2)}
	background := []float32{0, 0, 0}

	images, err := RenderClipSpace(vertices, attributes, triangles, 4, 4, background)
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}
	im := images[0]

	// The top corners lie outside the triangle and must be exactly black.
	for _, corner := range [][2]int{{0, 0}, {3, 0}} {
		px := im.At(corner[0], corner[1])
		for c, v := range px {
			if v != 0 {
				t.Errorf("corner (%d,%d) channel %d = %v, want exact 0",
					corner[0], corner[1], c, v)
			}
		}
	}

	// The pixel nearest the centroid blends all three colors; with unit
	// basis colors the channel sum equals the weight sum.
	px := im.At(1, 2)
	sum := float32(0)
	for c, v := range px {
		if v < 0.1 {
			t.Errorf("centroid pixel channel %d = %v, want a blend of all three colors", c, v)
		}
		sum += v
	}
	if math32.Abs(sum-1) > 1e-4 {
		t.Errorf("centroid pixel channel sum = %v, want 1", sum)
	}
}

func TestRenderClipSpace_ScenarioB(t *testing.T) {
	// Entirely behind the near plane: the output is the background value
	// everywhere.
	vertices := [][]f32.Vec4{{
		{0, 0, -2, 1},
		{1, 0, -2, 1},
		{0, 1, -2, 1},
	}}
	attributes := [][]float32{{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	}}
	background := []float32{0.2, 0.4, 0.6}

	images, err := RenderClipSpace(vertices, attributes, []Triangle{Tri(0, 1, 2)}, 8, 8, background)
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			px := images[0].At(x, y)
			for c := range px {
				if px[c] != background[c] {
					t.Fatalf("pixel (%d,%d) channel %d = %v, want background %v",
						x, y, c, px[c], background[c])
				}
			}
		}
	}
}

func TestRenderClipSpace_ScenarioC(t *testing.T) {
	// Two batch images with the same topology but disjoint triangle
	// placements: each output shows only its own triangle.
	left := []f32.Vec4{
		{-0.9, -0.8, 0, 1},
		{-0.1, -0.8, 0, 1},
		{-0.5, 0.8, 0, 1},
	}
	right := []f32.Vec4{
		{0.1, -0.8, 0, 1},
		{0.9, -0.8, 0, 1},
		{0.5, 0.8, 0, 1},
	}
	white := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}

	images, err := RenderClipSpace(
		[][]f32.Vec4{left, right},
		[][]float32{white, white},
		[]Triangle{Tri(0, 1, 2)},
		16, 16,
		[]float32{0, 0, 0},
	)
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}

	const w = 16
	for b, wantLeft := range []bool{true, false} {
		lit := 0
		for y := 0; y < 16; y++ {
			for x := 0; x < w; x++ {
				px := images[b].At(x, y)
				if px[0] == 0 {
					continue
				}
				lit++
				onLeft := x < w/2
				if onLeft != wantLeft {
					t.Errorf("image %d lit pixel (%d,%d) on the wrong half", b, x, y)
				}
			}
		}
		if lit == 0 {
			t.Errorf("image %d has no lit pixels", b)
		}
	}
}

func TestRenderClipSpace_Validation(t *testing.T) {
	verts := [][]f32.Vec4{{{0, 0, 0, 1}, {1, 0, 0, 1}, {0, 1, 0, 1}}}
	attrs := [][]float32{{1, 2, 3}}
	tris := []Triangle{Tri(0, 1, 2)}
	bg := []float32{0}

	tests := []struct {
		name    string
		verts   [][]f32.Vec4
		attrs   [][]float32
		w, h    int
		bg      []float32
		wantErr error
	}{
		{"zero width", verts, attrs, 0, 4, bg, ErrInvalidDimensions},
		{"negative height", verts, attrs, 4, -2, bg, ErrInvalidDimensions},
		{"empty background", verts, attrs, 4, 4, nil, ErrBackgroundShape},
		{"batch mismatch", verts, [][]float32{{1, 2, 3}, {1, 2, 3}}, 4, 4, bg, ErrBatchMismatch},
		{"attribute shape", verts, [][]float32{{1, 2}}, 4, 4, bg, ErrAttributeShape},
		{
			"vertex count mismatch",
			[][]f32.Vec4{verts[0], {{0, 0, 0, 1}}},
			[][]float32{{1, 2, 3}, {1}},
			4, 4, bg,
			ErrVertexCountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderClipSpace(tt.verts, tt.attrs, tris, tt.w, tt.h, tt.bg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RenderClipSpace() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRender_MatchesClipSpaceUnderIdentity(t *testing.T) {
	world := [][]f32.Vec3{{
		{-0.8, -0.8, 0.2},
		{0.8, -0.8, 0.2},
		{0, 0.8, 0.2},
	}}
	clip := [][]f32.Vec4{{
		{-0.8, -0.8, 0.2, 1},
		{0.8, -0.8, 0.2, 1},
		{0, 0.8, 0.2, 1},
	}}
	attrs := [][]float32{{1, 0, 0, 0, 1, 0, 0, 0, 1}}
	tris := []Triangle{Tri(0, 1, 2)}
	bg := []float32{0, 0, 0}

	fromWorld, err := Render(world, attrs, tris, []f32.Mat4{Identity4()}, 8, 8, bg)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	fromClip, err := RenderClipSpace(clip, attrs, tris, 8, 8, bg)
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}
	if !reflect.DeepEqual(fromWorld[0].Pix(), fromClip[0].Pix()) {
		t.Error("identity-camera Render differs from RenderClipSpace")
	}
}

func TestRender_CameraBatchMismatch(t *testing.T) {
	world := [][]f32.Vec3{{{0, 0, 0}}}
	_, err := Render(world, [][]float32{{1}}, nil, nil, 4, 4, []float32{0})
	if !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("Render() error = %v, want %v", err, ErrBatchMismatch)
	}
}

func TestRenderClipSpace_EmptyBatch(t *testing.T) {
	images, err := RenderClipSpace(nil, nil, []Triangle{}, 4, 4, []float32{0})
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}
	if len(images) != 0 {
		t.Errorf("got %d images for an empty batch, want 0", len(images))
	}
}

func TestRenderClipSpace_EmptyTriangleList(t *testing.T) {
	vertices := [][]f32.Vec4{{{0, 0, 0, 1}}}
	attributes := [][]float32{{5}}
	background := []float32{3}

	images, err := RenderClipSpace(vertices, attributes, nil, 4, 4, background)
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := images[0].At(x, y)[0]; got != 3 {
				t.Fatalf("pixel (%d,%d) = %v, want background 3", x, y, got)
			}
		}
	}
}

func TestRenderClipSpace_Idempotent(t *testing.T) {
	vertices := [][]f32.Vec4{{
		{-1, -1, 0, 1},
		{1, -1, 0, 1},
		{0, 1, 0, 1},
	}}
	attrs := [][]float32{{1, 0, 0, 0, 1, 0, 0, 0, 1}}
	tris := []Triangle{Tri(0, 1, 2)}
	bg := []float32{0, 0, 0}

	a, err := RenderClipSpace(vertices, attrs, tris, 16, 16, bg)
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}
	b, err := RenderClipSpace(vertices, attrs, tris, 16, 16, bg)
	if err != nil {
		t.Fatalf("RenderClipSpace() error = %v", err)
	}
	if !reflect.DeepEqual(a[0].Pix(), b[0].Pix()) {
		t.Error("two identical batched renders differ")
	}
}
