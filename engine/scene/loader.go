package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/palantir/stacktrace"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/quartz/engine/assets/loaders"
	"github.com/spaghettifunk/quartz/engine/math"
)

// description is the TOML layout of a scene file. Angles are in degrees.
type description struct {
	Name        string              `toml:"name"`
	ClearColor  [3]float32          `toml:"clear_color"`
	Camera      *cameraDescription  `toml:"camera"`
	Ambient     *lightDescription   `toml:"ambient"`
	Directional *lightDescription   `toml:"directional"`
	PointLights []lightDescription  `toml:"point_lights"`
	SpotLights  []lightDescription  `toml:"spot_lights"`
	Skybox      *skyboxDescription  `toml:"skybox"`
	Doodads     []doodadDescription `toml:"doodads"`
}

type cameraDescription struct {
	Position [3]float32 `toml:"position"`
	Yaw      float32    `toml:"yaw"`
	Pitch    float32    `toml:"pitch"`
	FOV      float32    `toml:"fov"`
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
}

type lightDescription struct {
	Color       [3]float32 `toml:"color"`
	Position    [3]float32 `toml:"position"`
	Direction   [3]float32 `toml:"direction"`
	Constant    float32    `toml:"constant"`
	Linear      float32    `toml:"linear"`
	Quadratic   float32    `toml:"quadratic"`
	CutOff      float32    `toml:"cut_off"`
	OuterCutOff float32    `toml:"outer_cut_off"`
}

type skyboxDescription struct {
	Faces []string `toml:"faces"`
}

type doodadDescription struct {
	Name     string      `toml:"name"`
	Model    string      `toml:"model"`
	Position [3]float32  `toml:"position"`
	Rotation [3]float32  `toml:"rotation"`
	Scale    *[3]float32 `toml:"scale"`
	Spin     [3]float32  `toml:"spin"`
}

// Load reads a TOML scene description.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stacktrace.Propagate(err, "could not read scene file '%s'", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := Parse(data, name)
	if err != nil {
		return nil, stacktrace.Propagate(err, "invalid scene file '%s'", path)
	}
	return s, nil
}

// Parse decodes a scene description. fallbackName is used when the file
// does not name the scene. Unknown keys are rejected.
func Parse(data []byte, fallbackName string) (*Scene, error) {
	var desc description
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&desc); err != nil {
		return nil, stacktrace.Propagate(err, "could not decode scene")
	}

	name := desc.Name
	if name == "" {
		name = fallbackName
	}
	s := New(name)
	s.ClearColor = desc.ClearColor

	if cd := desc.Camera; cd != nil {
		s.Camera.SetPosition(cd.Position)
		s.Camera.SetRotation(mgl32.DegToRad(cd.Yaw), mgl32.DegToRad(cd.Pitch))
		if cd.FOV > 0 {
			s.Camera.FOV = mgl32.DegToRad(cd.FOV)
		}
		if cd.Near > 0 {
			s.Camera.Near = cd.Near
		}
		if cd.Far > 0 {
			s.Camera.Far = cd.Far
		}
		if s.Camera.Near >= s.Camera.Far {
			return nil, stacktrace.NewError("camera near plane %g is not before far plane %g", s.Camera.Near, s.Camera.Far)
		}
	}
	if desc.Ambient != nil {
		s.Ambient.Color = desc.Ambient.Color
	}
	if desc.Directional != nil {
		s.Directional = DirectionalLight{Color: desc.Directional.Color, Direction: desc.Directional.Direction}
	}
	for _, pl := range desc.PointLights {
		p := PointLight{Color: pl.Color, Position: pl.Position, Constant: pl.Constant, Linear: pl.Linear, Quadratic: pl.Quadratic}
		if p.Constant == 0 {
			p.Constant = 1
		}
		s.PointLights = append(s.PointLights, p)
	}
	for _, sl := range desc.SpotLights {
		s.SpotLights = append(s.SpotLights, SpotLight{
			Color:       sl.Color,
			Position:    sl.Position,
			Direction:   sl.Direction,
			CutOff:      sl.CutOff,
			OuterCutOff: sl.OuterCutOff,
		})
	}

	if desc.Skybox != nil {
		if len(desc.Skybox.Faces) != int(loaders.CubeFaceCount) {
			return nil, stacktrace.NewError("skybox needs %d faces, got %d", loaders.CubeFaceCount, len(desc.Skybox.Faces))
		}
		s.Skybox = &Skybox{}
		copy(s.Skybox.Faces[:], desc.Skybox.Faces)
	}

	for _, dd := range desc.Doodads {
		d := NewDoodad(dd.Name, dd.Model)
		scale := mgl32.Vec3{1, 1, 1}
		if dd.Scale != nil {
			scale = *dd.Scale
		}
		rotation := mgl32.AnglesToQuat(
			mgl32.DegToRad(dd.Rotation[0]),
			mgl32.DegToRad(dd.Rotation[1]),
			mgl32.DegToRad(dd.Rotation[2]),
			mgl32.XYZ,
		)
		d.Transform = math.TransformFromPositionRotationScale(dd.Position, rotation, scale)
		d.Spin = dd.Spin
		s.AddDoodad(d)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
