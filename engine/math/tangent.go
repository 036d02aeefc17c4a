package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// GenerateTangents derives per-vertex tangents from triangle positions and
// texture coordinates, orthogonalised against the vertex normal. Vertices
// whose UV mapping is degenerate get any unit vector perpendicular to the
// normal.
func GenerateTangents(positions, normals []mgl32.Vec3, uvs []mgl32.Vec2, indices []uint32) []mgl32.Vec3 {
	accum := make([]mgl32.Vec3, len(positions))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(positions) || int(i1) >= len(positions) || int(i2) >= len(positions) {
			continue
		}

		e1 := positions[i1].Sub(positions[i0])
		e2 := positions[i2].Sub(positions[i0])

		var d1, d2 mgl32.Vec2
		if len(uvs) == len(positions) {
			d1 = uvs[i1].Sub(uvs[i0])
			d2 = uvs[i2].Sub(uvs[i0])
		}

		det := d1.X()*d2.Y() - d2.X()*d1.Y()
		if Abs(det) < Epsilon {
			continue
		}
		r := 1.0 / det
		t := e1.Mul(d2.Y()).Sub(e2.Mul(d1.Y())).Mul(r)

		accum[i0] = accum[i0].Add(t)
		accum[i1] = accum[i1].Add(t)
		accum[i2] = accum[i2].Add(t)
	}

	tangents := make([]mgl32.Vec3, len(positions))
	for i := range positions {
		var n mgl32.Vec3
		if i < len(normals) {
			n = normals[i]
		}
		tangents[i] = orthonormalTangent(n, accum[i])
	}
	return tangents
}

// Gram-Schmidt against n, with a fallback for degenerate input.
func orthonormalTangent(n, t mgl32.Vec3) mgl32.Vec3 {
	if n.Len() < Epsilon {
		if t.Len() < Epsilon {
			return mgl32.Vec3{1, 0, 0}
		}
		return t.Normalize()
	}
	n = n.Normalize()
	t = t.Sub(n.Mul(n.Dot(t)))
	if t.Len() < Epsilon {
		return AnyPerpendicular(n)
	}
	return t.Normalize()
}

// AnyPerpendicular returns a unit vector perpendicular to the unit vector n.
func AnyPerpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if Abs(n.X()) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return axis.Sub(n.Mul(n.Dot(axis))).Normalize()
}

func Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
