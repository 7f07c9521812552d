// Package meshrender provides a differentiable triangle rasterizer.
//
// # Overview
//
// meshrender rasterizes batches of triangle meshes given in homogeneous
// clip-space coordinates and produces, per pixel, the winning triangle id,
// perspective-correct barycentric coordinates, and normalized device depth.
// The rasterizer is differentiable: a loss gradient with respect to the
// barycentric coordinates can be propagated back to the clip-space vertex
// positions, which makes rendering usable as a step inside gradient-based
// optimization (mesh fitting, inverse rendering).
//
// # Quick Start
//
//	import meshrender "github.com/theandrewchan/mesh-renderer"
//
//	// Rasterize one image.
//	rast, err := meshrender.Rasterize(vertices, triangles, 256, 256)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Backpropagate a loss gradient to the vertices.
//	grads, err := rast.Backward(upstream)
//
//	// Or render a full batch with interpolated vertex attributes.
//	images, err := meshrender.Render(worldVerts, attrs, triangles,
//	    cameras, 256, 256, background)
//
// # Coordinate System
//
// Vertices are homogeneous clip-space coordinates (x, y, z, w) satisfying
// the frustum inequalities -w <= x, y, z <= w when visible. Pixel (0, 0) is
// the top-left corner of the image; the pixel center of column ix maps to
// normalized device x = 2*(ix+0.5)/width - 1, and row iy maps to
// y = 1 - 2*(iy+0.5)/height, so NDC y points up while image rows grow down.
// A triangle whose projected vertices wind clockwise in screen space is
// front-facing; counter-clockwise triangles are culled.
//
// # Differentiation
//
// Rasterize returns a Rasterization value that owns exactly the tensors the
// backward pass needs. Gradients flow only through vertex positions; the
// triangle list is a fixed integer structure and receives a zero-valued
// placeholder gradient. Forward and backward calls are pure functions:
// identical inputs produce bit-identical outputs.
package meshrender
