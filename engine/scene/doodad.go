package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/quartz/engine/math"
)

// Doodad places a model in the world.
type Doodad struct {
	Name string
	// ModelPath is relative to the asset root; doodads sharing a path share
	// one GPU model.
	ModelPath string
	Transform *math.Transform
	// Spin is an angular velocity in degrees per second around each axis,
	// applied by Update.
	Spin mgl32.Vec3
}

// NewDoodad places modelPath at the origin. An empty name gets a generated one.
func NewDoodad(name, modelPath string) *Doodad {
	if name == "" {
		name = uuid.NewString()
	}
	return &Doodad{
		Name:      name,
		ModelPath: modelPath,
		Transform: math.TransformCreate(),
	}
}

// Update advances the doodad by one fixed step of delta seconds.
func (d *Doodad) Update(delta float64) {
	if d.Spin == (mgl32.Vec3{}) {
		return
	}
	step := d.Spin.Mul(float32(delta))
	q := mgl32.AnglesToQuat(mgl32.DegToRad(step.X()), mgl32.DegToRad(step.Y()), mgl32.DegToRad(step.Z()), mgl32.XYZ)
	d.Transform.Rotate(q)
}

// World returns the doodad transform, to be combined with node transforms.
func (d *Doodad) World() mgl32.Mat4 {
	return d.Transform.Local()
}
