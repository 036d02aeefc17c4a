package scene

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/quartz/engine/math"
	"github.com/spaghettifunk/quartz/engine/renderer/metadata"
)

/** @brief Maps OpenGL clip space to Vulkan: Y down, depth in [0, 1]. */
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// pitch stays just short of straight up/down so the view basis never degenerates
const pitchLimit = float32(1.55334306) // 89 degrees

/**
 * @brief A perspective camera looking along -Z at zero yaw and pitch.
 * Position and angles are set through methods so the view matrix is
 * rebuilt only when needed.
 */
type Camera struct {
	position mgl32.Vec3
	/** @brief Rotation around +Y, in radians. */
	yaw float32
	/** @brief Rotation around the camera right axis, in radians. */
	pitch float32

	/** @brief Vertical field of view, in radians. */
	FOV  float32
	Near float32
	Far  float32

	aspect  float32
	view    mgl32.Mat4
	isDirty bool
}

/** @brief The name of the default camera. */
const DefaultCameraName string = "default"

func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

func (c *Camera) Reset() {
	c.position = mgl32.Vec3{}
	c.yaw = 0
	c.pitch = 0
	c.FOV = mgl32.DegToRad(45)
	c.Near = 0.1
	c.Far = 1000
	c.aspect = 16.0 / 9.0
	c.view = mgl32.Ident4()
	c.isDirty = true
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.position = position
	c.isDirty = true
}

func (c *Camera) Yaw() float32 {
	return c.yaw
}

func (c *Camera) Pitch() float32 {
	return c.pitch
}

// SetRotation sets yaw and pitch in radians. Pitch is clamped short of the poles.
func (c *Camera) SetRotation(yaw, pitch float32) {
	c.yaw = yaw
	c.pitch = math.Clamp(pitch, -pitchLimit, pitchLimit)
	c.isDirty = true
}

// Rotate adds to yaw and pitch, in radians.
func (c *Camera) Rotate(yaw, pitch float32) {
	c.SetRotation(c.yaw+yaw, c.pitch+pitch)
}

// SetAspect updates the aspect ratio from a framebuffer size. A zero height
// (minimised window) keeps the previous ratio.
func (c *Camera) SetAspect(width, height uint32) {
	if height == 0 || width == 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
}

func (c *Camera) Aspect() float32 {
	return c.aspect
}

func (c *Camera) Forward() mgl32.Vec3 {
	sy, cy := gomath.Sincos(float64(c.yaw))
	sp, cp := gomath.Sincos(float64(c.pitch))
	return mgl32.Vec3{float32(cp * sy), float32(sp), float32(-cp * cy)}
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.Forward().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) MoveForward(amount float32) {
	c.SetPosition(c.position.Add(c.Forward().Mul(amount)))
}

func (c *Camera) MoveBackward(amount float32) {
	c.SetPosition(c.position.Add(c.Backward().Mul(amount)))
}

func (c *Camera) MoveLeft(amount float32) {
	c.SetPosition(c.position.Add(c.Left().Mul(amount)))
}

func (c *Camera) MoveRight(amount float32) {
	c.SetPosition(c.position.Add(c.Right().Mul(amount)))
}

func (c *Camera) MoveUp(amount float32) {
	c.SetPosition(c.position.Add(mgl32.Vec3{0, amount, 0}))
}

func (c *Camera) MoveDown(amount float32) {
	c.SetPosition(c.position.Add(mgl32.Vec3{0, -amount, 0}))
}

func (c *Camera) View() mgl32.Mat4 {
	if c.isDirty {
		c.view = mgl32.LookAtV(c.position, c.position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
		c.isDirty = false
	}
	return c.view
}

// Projection returns a right-handed perspective matrix in Vulkan clip space.
func (c *Camera) Projection() mgl32.Mat4 {
	return vulkanClip.Mul4(mgl32.Perspective(c.FOV, c.aspect, c.Near, c.Far))
}

func (c *Camera) Uniform() metadata.CameraUniform {
	return metadata.CameraUniform{
		View:       c.View(),
		Projection: c.Projection(),
		Position:   c.position,
	}
}
