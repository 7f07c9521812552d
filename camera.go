package meshrender

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Matrices are row-major f32.Mat4 values multiplying column vectors:
// element (r, c) lives at index r*4+c and clip = M * (x, y, z, 1).

// Identity4 returns the 4x4 identity matrix.
func Identity4() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// MulMat4 returns the matrix product a*b.
func MulMat4(a, b f32.Mat4) f32.Mat4 {
	var m f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] +
				a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] +
				a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// TransformHomogeneous lifts world-space xyz vertices to homogeneous
// coordinates and multiplies them by a model-view-projection matrix,
// producing clip-space (x, y, z, w) vertices.
func TransformHomogeneous(m f32.Mat4, vertices []f32.Vec3) []f32.Vec4 {
	out := make([]f32.Vec4, len(vertices))
	for i, v := range vertices {
		out[i] = f32.Vec4{
			m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
			m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
			m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
			m[12]*v[0] + m[13]*v[1] + m[14]*v[2] + m[15],
		}
	}
	return out
}

// Perspective returns a right-handed perspective projection matrix with a
// vertical field of view of fovy radians. The near and far planes map to
// normalized device z of -1 and +1; the clip-space w of a transformed point
// equals its positive view-space distance along the forward axis.
func Perspective(fovy, aspect, near, far float32) f32.Mat4 {
	f := 1 / math32.Tan(fovy/2)
	return f32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), 2 * far * near / (near - far),
		0, 0, -1, 0,
	}
}

// LookAt returns a view matrix placing the camera at eye, looking toward
// center, with the given up direction.
func LookAt(eye, center, up f32.Vec3) f32.Mat4 {
	fwd := normalize3(f32.Vec3{center[0] - eye[0], center[1] - eye[1], center[2] - eye[2]})
	side := normalize3(cross3(fwd, up))
	u := cross3(side, fwd)

	return f32.Mat4{
		side[0], side[1], side[2], -dot3(side, eye),
		u[0], u[1], u[2], -dot3(u, eye),
		-fwd[0], -fwd[1], -fwd[2], dot3(fwd, eye),
		0, 0, 0, 1,
	}
}

// normalize3 returns v scaled to unit length. Zero vectors pass through
// unchanged.
func normalize3(v f32.Vec3) f32.Vec3 {
	n := math32.Sqrt(dot3(v, v))
	if n == 0 {
		return v
	}
	return f32.Vec3{v[0] / n, v[1] / n, v[2] / n}
}
