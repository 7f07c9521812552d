package meshrender

import (
	"golang.org/x/image/math/f32"
)

// clipVertex is a polygon vertex produced by frustum clipping. It carries
// both the clip-space position and the barycentric weights of that position
// with respect to the original three triangle vertices, so that rasterized
// coverage can always be expressed in original-vertex weights.
type clipVertex struct {
	pos  f32.Vec4
	bary f32.Vec3
}

// clippedTriangle is one triangle of the fan produced by clipTriangle.
// Every vertex satisfies the frustum inequalities -w <= x, y, z <= w.
type clippedTriangle struct {
	v [3]clipVertex
}

// planeDistance evaluates the signed distance of a homogeneous point to one
// of the six frustum planes. Points inside the frustum have non-negative
// distance to all planes. Plane order: x<=w, -w<=x, y<=w, -w<=y, z<=w, -w<=z.
func planeDistance(plane int, p f32.Vec4) float32 {
	switch plane {
	case 0:
		return p[3] - p[0]
	case 1:
		return p[3] + p[0]
	case 2:
		return p[3] - p[1]
	case 3:
		return p[3] + p[1]
	case 4:
		return p[3] - p[2]
	default:
		return p[3] + p[2]
	}
}

// clipTriangle clips one clip-space triangle against the six frustum planes
// using Sutherland-Hodgman polygon clipping in homogeneous coordinates, so
// the perspective divide happens only after clipping. The result is a
// triangle fan of zero or more sub-triangles whose vertices carry
// barycentric weights over the original three vertices. A triangle entirely
// outside the frustum yields an empty fan.
func clipTriangle(v0, v1, v2 f32.Vec4) []clippedTriangle {
	polygon := []clipVertex{
		{pos: v0, bary: f32.Vec3{1, 0, 0}},
		{pos: v1, bary: f32.Vec3{0, 1, 0}},
		{pos: v2, bary: f32.Vec3{0, 0, 1}},
	}

	// Up to one extra vertex per plane: 3 + 6 = 9 maximum.
	clipped := make([]clipVertex, 0, 9)

	for plane := 0; plane < 6; plane++ {
		if len(polygon) < 3 {
			return nil
		}
		clipped = clipped[:0]

		for i := range polygon {
			cur := polygon[i]
			next := polygon[(i+1)%len(polygon)]
			dc := planeDistance(plane, cur.pos)
			dn := planeDistance(plane, next.pos)

			if dc >= 0 {
				clipped = append(clipped, cur)
			}
			// Edge crosses the plane: emit the intersection point. The
			// denominator cannot vanish when the signs differ strictly.
			if (dc < 0) != (dn < 0) {
				t := dc / (dc - dn)
				clipped = append(clipped, clipVertex{
					pos:  lerp4(cur.pos, next.pos, t),
					bary: lerp3(cur.bary, next.bary, t),
				})
			}
		}

		polygon = append(polygon[:0], clipped...)
	}

	if len(polygon) < 3 {
		return nil
	}

	// Fan the convex polygon around its first vertex. Sutherland-Hodgman
	// preserves winding, so each fan triangle keeps the input orientation.
	fan := make([]clippedTriangle, 0, len(polygon)-2)
	for i := 1; i < len(polygon)-1; i++ {
		fan = append(fan, clippedTriangle{
			v: [3]clipVertex{polygon[0], polygon[i], polygon[i+1]},
		})
	}
	return fan
}
