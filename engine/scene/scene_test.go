package scene

import (
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"
)

const demoScene = `
name = "demo"
clear_color = [0.25, 0.4, 0.6]

[camera]
position = [0.0, 1.0, 5.0]
yaw = 90.0
fov = 60.0
far = 50.0

[ambient]
color = [0.2, 0.2, 0.2]

[directional]
color = [1.0, 0.9, 0.8]
direction = [0.0, -2.0, 0.0]

[[point_lights]]
color = [1.0, 0.0, 0.0]
position = [1.0, 2.0, 3.0]
linear = 0.09

[skybox]
faces = ["sky/px.png", "sky/nx.png", "sky/py.png", "sky/ny.png", "sky/pz.png", "sky/nz.png"]

[[doodads]]
name = "helmet"
model = "models/helmet.glb"
position = [1.0, 0.0, 0.0]
spin = [0.0, 90.0, 0.0]

[[doodads]]
model = "models/helmet.glb"
scale = [2.0, 2.0, 2.0]

[[doodads]]
name = "box"
model = "models/box.gltf"
`

func TestParseScene(t *testing.T) {
	c := qt.New(t)

	s, err := Parse([]byte(demoScene), "fallback")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Name, qt.Equals, "demo")
	c.Assert(s.ClearColor, qt.Equals, mgl32.Vec3{0.25, 0.4, 0.6})

	c.Assert(s.Camera.Position(), qt.Equals, mgl32.Vec3{0, 1, 5})
	c.Assert(s.Camera.Yaw(), qt.Equals, mgl32.DegToRad(90))
	c.Assert(s.Camera.FOV, qt.Equals, mgl32.DegToRad(60))
	c.Assert(s.Camera.Near, qt.Equals, float32(0.1))
	c.Assert(s.Camera.Far, qt.Equals, float32(50))

	c.Assert(s.Ambient.Color, qt.Equals, mgl32.Vec3{0.2, 0.2, 0.2})
	c.Assert(s.Directional.Uniform().Direction, qt.Equals, mgl32.Vec3{0, -1, 0})
	c.Assert(s.PointLights, qt.HasLen, 1)
	c.Assert(s.PointLights[0].Constant, qt.Equals, float32(1))

	c.Assert(s.Skybox, qt.Not(qt.IsNil))
	c.Assert(s.Skybox.Faces[5], qt.Equals, "sky/nz.png")

	c.Assert(s.Doodads, qt.HasLen, 3)
	c.Assert(s.FindDoodad("helmet").Spin, qt.Equals, mgl32.Vec3{0, 90, 0})
	c.Assert(s.Doodads[1].Name, qt.Not(qt.Equals), "")
	c.Assert(s.Doodads[1].Transform.Scale, qt.Equals, mgl32.Vec3{2, 2, 2})
	c.Assert(s.Doodads[2].Transform.Scale, qt.Equals, mgl32.Vec3{1, 1, 1})
	c.Assert(s.ModelPaths(), qt.DeepEquals, []string{"models/helmet.glb", "models/box.gltf"})
	c.Assert(s.FindDoodad("missing"), qt.IsNil)
}

func TestParseSceneErrors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		about string
		data  string
		err   string
	}{{
		about: "unknown key",
		data:  "colour = 1",
		err:   "(?s)could not decode scene.*",
	}, {
		about: "short skybox",
		data:  "[skybox]\nfaces = [\"a\"]",
		err:   "(?s)skybox needs 6 faces, got 1.*",
	}, {
		about: "clear color out of range",
		data:  "clear_color = [2.0, 0.0, 0.0]",
		err:   "(?s)scene 'x' clear color component 0 out of range.*",
	}, {
		about: "doodad without model",
		data:  "[[doodads]]\nname = \"empty\"",
		err:   "(?s)doodad 'empty' has no model.*",
	}, {
		about: "inverted planes",
		data:  "[camera]\nnear = 10.0\nfar = 1.0",
		err:   "(?s)camera near plane 10 is not before far plane 1.*",
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			_, err := Parse([]byte(test.data), "x")
			c.Assert(err, qt.ErrorMatches, test.err)
		})
	}
}

func TestLoadSceneUsesFileName(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.TempDir(), "empty.toml")
	c.Assert(os.WriteFile(path, []byte("clear_color = [0.0, 0.0, 0.0]"), 0o644), qt.IsNil)
	s, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Name, qt.Equals, "empty")
	c.Assert(s.Doodads, qt.HasLen, 0)
	c.Assert(s.Skybox, qt.IsNil)

	_, err = Load(filepath.Join(c.TempDir(), "missing.toml"))
	c.Assert(err, qt.ErrorMatches, "(?s)could not read scene file.*")
}

func TestValidateLightLimits(t *testing.T) {
	c := qt.New(t)

	s := New("lights")
	s.PointLights = make([]PointLight, 17)
	c.Assert(s.Validate(), qt.ErrorMatches, "(?s)scene 'lights' has 17 point lights, at most 16 are supported.*")

	s = New("sky")
	s.Skybox = &Skybox{}
	c.Assert(s.Validate(), qt.ErrorMatches, `(?s)skybox face \+x is missing.*`)
}

func TestDefaultLightsFaceTheCamera(t *testing.T) {
	c := qt.New(t)

	s := New("defaults")
	u := s.Directional.Uniform()
	c.Assert(u.Color, qt.Equals, mgl32.Vec3{1, 1, 1})

	// A quad facing +Z, seen by the default camera, is fully lit.
	normal := mgl32.Vec3{0, 0, 1}
	c.Assert(normal.Dot(u.Direction.Mul(-1)), qt.Equals, float32(1))
	c.Assert(s.Camera.Forward().Dot(normal) < 0, qt.IsTrue)
	c.Assert(s.Ambient.Color, qt.Equals, mgl32.Vec3{0.1, 0.1, 0.1})
}

func vecApprox(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-5)
}

func TestCameraBasis(t *testing.T) {
	c := qt.New(t)

	cam := NewCamera()
	c.Assert(vecApprox(cam.Forward(), mgl32.Vec3{0, 0, -1}), qt.IsTrue)
	c.Assert(vecApprox(cam.Right(), mgl32.Vec3{1, 0, 0}), qt.IsTrue)

	cam.SetRotation(mgl32.DegToRad(90), 0)
	c.Assert(vecApprox(cam.Forward(), mgl32.Vec3{1, 0, 0}), qt.IsTrue, qt.Commentf("forward %v", cam.Forward()))

	cam.Rotate(0, 10)
	c.Assert(cam.Pitch(), qt.Equals, pitchLimit)

	cam.Reset()
	cam.MoveForward(2)
	cam.MoveUp(1)
	cam.MoveRight(3)
	c.Assert(vecApprox(cam.Position(), mgl32.Vec3{3, 1, -2}), qt.IsTrue)
}

func TestCameraViewFollowsPosition(t *testing.T) {
	c := qt.New(t)

	cam := NewCamera()
	cam.SetPosition(mgl32.Vec3{0, 0, 5})
	origin := cam.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	c.Assert(origin.Vec3().ApproxEqualThreshold(mgl32.Vec3{0, 0, -5}, 1e-5), qt.IsTrue)

	cam.SetPosition(mgl32.Vec3{0, 0, 2})
	origin = cam.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	c.Assert(origin.Vec3().ApproxEqualThreshold(mgl32.Vec3{0, 0, -2}, 1e-5), qt.IsTrue)
}

func TestCameraProjectionIsVulkanClipSpace(t *testing.T) {
	c := qt.New(t)

	cam := NewCamera()
	cam.Near, cam.Far = 1, 10
	cam.SetAspect(800, 600)
	c.Assert(cam.Aspect(), qt.Equals, float32(800)/600)
	cam.SetAspect(800, 0)
	c.Assert(cam.Aspect(), qt.Equals, float32(800)/600)

	proj := cam.Projection()
	near := proj.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	c.Assert(gomath.Abs(float64(near.Z()/near.W())) < 1e-5, qt.IsTrue, qt.Commentf("near depth %v", near.Z()/near.W()))
	c.Assert(gomath.Abs(float64(far.Z()/far.W())-1) < 1e-5, qt.IsTrue, qt.Commentf("far depth %v", far.Z()/far.W()))

	// a point above the axis lands in the upper half, which is -Y in Vulkan
	up := proj.Mul4x1(mgl32.Vec4{0, 1, -5, 1})
	c.Assert(up.Y() < 0, qt.IsTrue)
}

func TestSpotLightUniformUsesCosines(t *testing.T) {
	c := qt.New(t)

	u := SpotLight{Direction: mgl32.Vec3{0, 0, -3}, CutOff: 60, OuterCutOff: 90}.Uniform()
	c.Assert(vecApprox(u.Direction, mgl32.Vec3{0, 0, -1}), qt.IsTrue)
	c.Assert(gomath.Abs(float64(u.CutOff)-0.5) < 1e-5, qt.IsTrue)
	c.Assert(gomath.Abs(float64(u.OuterCutOff)) < 1e-5, qt.IsTrue)
}

func TestDoodadSpin(t *testing.T) {
	c := qt.New(t)

	d := NewDoodad("", "m.glb")
	c.Assert(d.Name, qt.Not(qt.Equals), "")
	d.Spin = mgl32.Vec3{0, 90, 0}
	d.Update(0.5)
	d.Update(0.5)

	// +X rotated 90 degrees around +Y points along -Z
	p := d.World().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	c.Assert(vecApprox(p, mgl32.Vec3{0, 0, -1}), qt.IsTrue, qt.Commentf("got %v", p))

	s := New("spin")
	s.AddDoodad(d)
	s.Update(1)
	p = d.World().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	c.Assert(vecApprox(p, mgl32.Vec3{-1, 0, 0}), qt.IsTrue, qt.Commentf("got %v", p))
}

func TestLoadDemoScene(t *testing.T) {
	c := qt.New(t)

	s, err := Load("../../assets/scenes/demo.toml")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Name, qt.Equals, "demo")
	c.Assert(s.Doodads, qt.HasLen, 3)
	c.Assert(s.ModelPaths(), qt.DeepEquals, []string{"models/cube.gltf"})
	c.Assert(s.Skybox, qt.IsNotNil)
	c.Assert(s.Skybox.Faces[2], qt.Equals, "textures/skybox/posy.png")
	c.Assert(s.FindDoodad("floor").Spin, qt.Equals, mgl32.Vec3{})
}
