package meshrender

import (
	"golang.org/x/image/math/f32"
)

// Triangle is a triple of vertex indices into a vertex buffer.
// The forward order of the triple defines a clockwise winding in screen
// space for a front-facing triangle; gradients never flow through these
// indices.
type Triangle [3]int32

// Tri is a convenience function to create a Triangle.
func Tri(a, b, c int32) Triangle {
	return Triangle{a, b, c}
}

// dot3 returns the dot product of two 3-vectors.
func dot3(a, b f32.Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// cross3 returns the cross product of two 3-vectors.
func cross3(a, b f32.Vec3) f32.Vec3 {
	return f32.Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// lerp4 linearly interpolates between two homogeneous positions.
func lerp4(a, b f32.Vec4, t float32) f32.Vec4 {
	return f32.Vec4{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// lerp3 linearly interpolates between two weight triples.
func lerp3(a, b f32.Vec3, t float32) f32.Vec3 {
	return f32.Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// clampf clamps x to the closed interval [lo, hi].
func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
