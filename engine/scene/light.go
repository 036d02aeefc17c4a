package scene

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

type AmbientLight struct {
	Color mgl32.Vec3
}

func (a AmbientLight) Uniform() metadata.AmbientLightUniform {
	return metadata.AmbientLightUniform{Color: a.Color}
}

// DirectionalLight shines along Direction, which need not be normalised.
type DirectionalLight struct {
	Color     mgl32.Vec3
	Direction mgl32.Vec3
}

func (d DirectionalLight) Uniform() metadata.DirectionalLightUniform {
	dir := d.Direction
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return metadata.DirectionalLightUniform{Color: d.Color, Direction: dir}
}

// PointLight attenuates with 1 / (Constant + Linear·d + Quadratic·d²).
type PointLight struct {
	Color     mgl32.Vec3
	Position  mgl32.Vec3
	Constant  float32
	Linear    float32
	Quadratic float32
}

func (p PointLight) Uniform() metadata.PointLightUniform {
	return metadata.PointLightUniform{
		Color:     p.Color,
		Position:  p.Position,
		Constant:  p.Constant,
		Linear:    p.Linear,
		Quadratic: p.Quadratic,
	}
}

// SpotLight cone angles are in degrees; the uniform carries their cosines.
type SpotLight struct {
	Color       mgl32.Vec3
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	CutOff      float32
	OuterCutOff float32
}

func (s SpotLight) Uniform() metadata.SpotLightUniform {
	dir := s.Direction
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return metadata.SpotLightUniform{
		Color:       s.Color,
		Position:    s.Position,
		Direction:   dir,
		CutOff:      float32(gomath.Cos(float64(mgl32.DegToRad(s.CutOff)))),
		OuterCutOff: float32(gomath.Cos(float64(mgl32.DegToRad(s.OuterCutOff)))),
	}
}
