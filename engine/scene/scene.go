package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/palantir/stacktrace"

	"github.com/spaghettifunk/quartz/engine/assets/loaders"
	"github.com/spaghettifunk/quartz/engine/core"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

// Skybox names six face images in {posX, negX, posY, negY, posZ, negZ} order.
type Skybox struct {
	Faces [loaders.CubeFaceCount]string
}

// Scene is what the renderer reads each frame.
type Scene struct {
	Name        string
	Camera      *Camera
	Ambient     AmbientLight
	Directional DirectionalLight
	PointLights []PointLight
	SpotLights  []SpotLight
	Doodads     []*Doodad
	// Skybox is optional.
	Skybox     *Skybox
	ClearColor mgl32.Vec3
}

func New(name string) *Scene {
	return &Scene{
		Name:   name,
		Camera: NewCamera(),
		Ambient: AmbientLight{
			Color: mgl32.Vec3{0.1, 0.1, 0.1},
		},
		Directional: DirectionalLight{
			Color:     mgl32.Vec3{1, 1, 1},
			Direction: mgl32.Vec3{0, 0, -1},
		},
	}
}

func (s *Scene) AddDoodad(d *Doodad) {
	s.Doodads = append(s.Doodads, d)
}

// FindDoodad returns the first doodad called name, or nil.
func (s *Scene) FindDoodad(name string) *Doodad {
	for _, d := range s.Doodads {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// ModelPaths lists the distinct model paths in doodad order.
func (s *Scene) ModelPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, d := range s.Doodads {
		if d.ModelPath == "" || seen[d.ModelPath] {
			continue
		}
		seen[d.ModelPath] = true
		paths = append(paths, d.ModelPath)
	}
	return paths
}

// Update advances every doodad by one fixed step.
func (s *Scene) Update(delta float64) {
	for _, d := range s.Doodads {
		d.Update(delta)
	}
}

func (s *Scene) Validate() error {
	if s.Camera == nil {
		return stacktrace.NewError("scene '%s' has no camera", s.Name)
	}
	for i, v := range s.ClearColor {
		if v < 0 || v > 1 {
			return stacktrace.NewError("scene '%s' clear color component %d out of range", s.Name, i)
		}
	}
	if len(s.PointLights) > int(metadata.MaxNumberPointLights) {
		return stacktrace.NewError("scene '%s' has %d point lights, at most %d are supported", s.Name, len(s.PointLights), metadata.MaxNumberPointLights)
	}
	if len(s.SpotLights) > int(metadata.MaxNumberSpotLights) {
		return stacktrace.NewError("scene '%s' has %d spot lights, at most %d are supported", s.Name, len(s.SpotLights), metadata.MaxNumberSpotLights)
	}
	for _, d := range s.Doodads {
		if d.ModelPath == "" {
			return stacktrace.NewError("doodad '%s' has no model", d.Name)
		}
	}
	if s.Skybox != nil {
		for i, f := range s.Skybox.Faces {
			if f == "" {
				return stacktrace.NewError("skybox face %s is missing", loaders.CubeFace(i))
			}
		}
	}
	core.LogDebug("scene '%s': %d doodads, %d point lights, %d spot lights, skybox %t",
		s.Name, len(s.Doodads), len(s.PointLights), len(s.SpotLights), s.Skybox != nil)
	return nil
}
