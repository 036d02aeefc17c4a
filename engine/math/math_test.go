package math

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"
)

func TestClamp(t *testing.T) {
	c := qt.New(t)

	c.Assert(Clamp(5, 0, 3), qt.Equals, 3)
	c.Assert(Clamp(uint32(1), 2, 8), qt.Equals, uint32(2))
	c.Assert(Clamp(0.5, 0.0, 1.0), qt.Equals, 0.5)
}

func TestNodeLocalMatrixPrefersExplicitMatrix(t *testing.T) {
	c := qt.New(t)

	matrix := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 4, 5, 6, 1}
	m := NodeLocalMatrix(matrix, [3]float64{9, 9, 9}, [4]float64{}, [3]float64{})
	c.Assert(m.Col(3), qt.Equals, mgl32.Vec4{4, 5, 6, 1})
}

func TestNodeLocalMatrixFromTRS(t *testing.T) {
	c := qt.New(t)

	// 90 degrees about +Y, as x, y, z, w
	half := 0.7071067811865476
	m := NodeLocalMatrix([16]float64{}, [3]float64{1, 2, 3}, [4]float64{0, half, 0, half}, [3]float64{2, 2, 2})

	p := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	c.Assert(p.Vec3().ApproxEqualThreshold(mgl32.Vec3{1, 2, 1}, 1e-5), qt.IsTrue)
}

func TestNodeLocalMatrixDefaultsToIdentity(t *testing.T) {
	c := qt.New(t)

	m := NodeLocalMatrix([16]float64{}, [3]float64{}, [4]float64{}, [3]float64{})
	c.Assert(m.ApproxEqual(mgl32.Ident4()), qt.IsTrue)
}

func TestTransformLocalIsCachedUntilChanged(t *testing.T) {
	c := qt.New(t)

	tr := TransformFromPosition(mgl32.Vec3{1, 0, 0})
	c.Assert(tr.Local().Col(3), qt.Equals, mgl32.Vec4{1, 0, 0, 1})

	tr.Translate(mgl32.Vec3{0, 2, 0})
	c.Assert(tr.Local().Col(3), qt.Equals, mgl32.Vec4{1, 2, 0, 1})

	tr.SetScale(mgl32.Vec3{3, 3, 3})
	c.Assert(tr.Local().At(0, 0), qt.Equals, float32(3))
}

func TestGenerateTangentsFollowsUAxis(t *testing.T) {
	c := qt.New(t)

	positions := []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}
	normals := []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	uvs := []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	tangents := GenerateTangents(positions, normals, uvs, indices)
	c.Assert(tangents, qt.HasLen, 4)
	for _, tangent := range tangents {
		c.Assert(tangent.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5), qt.IsTrue)
	}
}

func TestGenerateTangentsWithoutUVsIsPerpendicular(t *testing.T) {
	c := qt.New(t)

	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	normals := []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}

	tangents := GenerateTangents(positions, normals, nil, []uint32{0, 1, 2})
	for i, tangent := range tangents {
		c.Assert(Abs(tangent.Dot(normals[i])) < 1e-5, qt.IsTrue)
		c.Assert(Abs(tangent.Len()-1) < 1e-5, qt.IsTrue)
	}
}
