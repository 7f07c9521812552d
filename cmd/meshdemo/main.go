// Command meshdemo demonstrates the meshrender differentiable rasterizer.
//
// It renders a pair of overlapping colored triangles to a PNG, then runs a
// short gradient-descent loop that nudges a triangle's vertices so the
// barycentric weights at the image center approach an even split,
// exercising the backward pass.
package main

import (
	"flag"
	"log"

	"golang.org/x/image/math/f32"

	meshrender "github.com/theandrewchan/mesh-renderer"
)

func main() {
	var (
		width  = flag.Int("width", 512, "image width")
		height = flag.Int("height", 512, "image height")
		output = flag.String("output", "meshdemo.png", "output file")
		steps  = flag.Int("steps", 20, "gradient descent steps for the fitting demo")
	)
	flag.Parse()

	if err := renderScene(*width, *height, *output); err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	log.Printf("Scene saved to %s (%dx%d)\n", *output, *width, *height)

	fitTriangle(*width, *height, *steps)
}

// renderScene rasterizes two overlapping triangles with per-vertex colors
// over a dark background.
func renderScene(width, height int, output string) error {
	vertices := [][]f32.Vec4{{
		// Front triangle, vertex colors red/green/blue.
		{-0.8, -0.7, 0.0, 1},
		{0.8, -0.7, 0.0, 1},
		{0.0, 0.8, 0.0, 1},
		// Back triangle, partially occluded.
		{-0.9, 0.6, 0.5, 1},
		{0.2, -0.9, 0.5, 1},
		{0.9, 0.7, 0.5, 1},
	}}
	attributes := [][]float32{{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		1, 1, 0,
		0, 1, 1,
		1, 0, 1,
	}}
	triangles := []meshrender.Triangle{
		meshrender.Tri(0, 1, 2),
		meshrender.Tri(3, 4, 5),
	}
	background := []float32{0.05, 0.05, 0.1}

	images, err := meshrender.RenderClipSpace(vertices, attributes, triangles,
		width, height, background)
	if err != nil {
		return err
	}
	return images[0].SavePNG(output)
}

// fitTriangle runs gradient descent on a triangle's clip-space vertices so
// the barycentric weights at the center pixel approach (1/3, 1/3, 1/3).
func fitTriangle(width, height, steps int) {
	vertices := []f32.Vec4{
		{-0.9, -0.5, 0, 1},
		{0.3, -0.8, 0, 1},
		{0.5, 0.9, 0, 1},
	}
	triangles := []meshrender.Triangle{meshrender.Tri(0, 1, 2)}
	target := f32.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}

	cx, cy := width/2, height/2
	const rate = 0.5

	for step := 0; step < steps; step++ {
		rast, err := meshrender.Rasterize(vertices, triangles, width, height)
		if err != nil {
			log.Fatalf("Rasterize failed: %v", err)
		}
		if !rast.Covered(cx, cy) {
			log.Printf("step %d: center pixel uncovered, stopping", step)
			return
		}

		bary := rast.Barycentric(cx, cy)
		loss := float32(0)
		upstream := make([]float32, width*height*3)
		base := (cy*width + cx) * 3
		for c := 0; c < 3; c++ {
			diff := bary[c] - target[c]
			loss += diff * diff
			upstream[base+c] = 2 * diff
		}

		grads, err := rast.Backward(upstream)
		if err != nil {
			log.Fatalf("Backward failed: %v", err)
		}
		for v := range vertices {
			for c := 0; c < 4; c++ {
				vertices[v][c] -= rate * grads.Vertices[v][c]
			}
		}
		log.Printf("step %2d: loss=%.6f bary=(%.3f %.3f %.3f)",
			step, loss, bary[0], bary[1], bary[2])
	}
}
