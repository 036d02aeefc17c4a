package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position, rotation and scale with a cached local matrix.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	local    mgl32.Mat4
	isDirty  bool
}

func TransformCreate() *Transform {
	return TransformFromPositionRotationScale(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
}

func TransformFromPosition(position mgl32.Vec3) *Transform {
	return TransformFromPositionRotationScale(position, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
}

func TransformFromPositionRotationScale(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) *Transform {
	return &Transform{
		Position: position,
		Rotation: rotation,
		Scale:    scale,
		isDirty:  true,
	}
}

func (t *Transform) SetPosition(position mgl32.Vec3) {
	t.Position = position
	t.isDirty = true
}

func (t *Transform) Translate(translation mgl32.Vec3) {
	t.Position = t.Position.Add(translation)
	t.isDirty = true
}

func (t *Transform) SetRotation(rotation mgl32.Quat) {
	t.Rotation = rotation
	t.isDirty = true
}

// Rotate applies rotation after the current one.
func (t *Transform) Rotate(rotation mgl32.Quat) {
	t.Rotation = rotation.Mul(t.Rotation).Normalize()
	t.isDirty = true
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scale = scale
	t.isDirty = true
}

// Local returns translate × rotate × scale.
func (t *Transform) Local() mgl32.Mat4 {
	if t.isDirty {
		t.local = ComposeTRS(t.Position, t.Rotation, t.Scale)
		t.isDirty = false
	}
	return t.local
}

// ComposeTRS builds translate × rotate × scale.
func ComposeTRS(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	tr := mgl32.Translate3D(translation.X(), translation.Y(), translation.Z())
	rot := rotation.Normalize().Mat4()
	sc := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return tr.Mul4(rot).Mul4(sc)
}

// NodeLocalMatrix derives a GLTF node's local transform: the explicit
// column-major matrix when one is set, else T × R × S. Zero scale and zero
// rotation mean "not set" and take their identity values.
func NodeLocalMatrix(matrix [16]float64, translation [3]float64, rotation [4]float64, scale [3]float64) mgl32.Mat4 {
	if !isZeroMatrix(matrix) && !isIdentityMatrix(matrix) {
		var m mgl32.Mat4
		for i, v := range matrix {
			m[i] = float32(v)
		}
		return m
	}

	q := mgl32.QuatIdent()
	if rotation != [4]float64{} {
		// GLTF stores x, y, z, w
		q = mgl32.Quat{
			W: float32(rotation[3]),
			V: mgl32.Vec3{float32(rotation[0]), float32(rotation[1]), float32(rotation[2])},
		}
	}
	s := mgl32.Vec3{1, 1, 1}
	if scale != [3]float64{} {
		s = Vec3FromArray(scale)
	}
	return ComposeTRS(Vec3FromArray(translation), q, s)
}

func isZeroMatrix(m [16]float64) bool {
	return m == [16]float64{}
}

func isIdentityMatrix(m [16]float64) bool {
	return m == [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}
