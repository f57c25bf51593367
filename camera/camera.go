// Package camera implements the orbit camera used by CAD viewports.
//
// A Transform orbits a target point: Yaw and Pitch give the orientation,
// Distance the zoom, FOV the vertical field of view. Every method returns
// a new Transform; Transform values are never shared mutably.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/cadview/engine"
)

// Defaults of the canonical view.
const (
	DefaultYaw      = -math.Pi / 4
	DefaultPitch    = math.Pi / 6
	DefaultDistance = 10.0
	DefaultFOV      = math.Pi / 4

	// DefaultMinDistance is the closest the camera may get to its target.
	DefaultMinDistance = 0.01

	// MaxPitch keeps the camera off the poles, where the view basis is undefined.
	MaxPitch = 89 * math.Pi / 180

	// FitMargin is the padding factor applied around the bounding sphere by Fit.
	FitMargin = 1.1
)

var worldUp = mgl64.Vec3{0, 1, 0}

// Transform is an orbit camera pose.
type Transform struct {
	Target   mgl64.Vec3
	Yaw      float64 // radians around the world up axis
	Pitch    float64 // radians above the horizon
	Distance float64 // from Target to the eye
	FOV      float64 // vertical field of view, radians
}

// Default returns the canonical camera: looking at the origin from the
// front-right, slightly above, at DefaultDistance.
func Default() Transform {
	return Transform{
		Yaw:      DefaultYaw,
		Pitch:    DefaultPitch,
		Distance: DefaultDistance,
		FOV:      DefaultFOV,
	}
}

// Fit returns the canonical orientation positioned so that the bounding
// sphere of b fills the view for the given aspect ratio (width/height).
// An empty b yields Default().
func Fit(b engine.Bounds, aspect float64) Transform {
	t := Default()
	if b.IsEmpty() {
		return t
	}

	r := b.Radius()
	if r <= 0 {
		r = 0.5
	}
	half := t.FOV / 2
	if aspect > 0 && aspect < 1 {
		half = math.Atan(math.Tan(half) * aspect)
	}
	t.Target = b.Center()
	t.Distance = r * FitMargin / math.Sin(half)
	return t
}

// direction is the unit vector from Target to the eye.
func (t Transform) direction() mgl64.Vec3 {
	cp := math.Cos(t.Pitch)
	return mgl64.Vec3{cp * math.Cos(t.Yaw), math.Sin(t.Pitch), cp * math.Sin(t.Yaw)}
}

// Eye returns the camera position.
func (t Transform) Eye() mgl64.Vec3 {
	return t.Target.Add(t.direction().Mul(t.Distance))
}

// Basis returns the unit view direction and the camera's right and up axes.
func (t Transform) Basis() (forward, right, up mgl64.Vec3) {
	forward = t.direction().Mul(-1)
	right = forward.Cross(worldUp).Normalize()
	up = right.Cross(forward)
	return forward, right, up
}

// Orbit rotates the camera around its target. Pitch is clamped to ±MaxPitch.
func (t Transform) Orbit(dYaw, dPitch float64) Transform {
	t.Yaw += dYaw
	t.Pitch = clamp(t.Pitch+dPitch, -MaxPitch, MaxPitch)
	return t
}

// Pan translates the target in the view plane by a pointer delta given in
// pixels. The world distance per pixel grows with Distance, so the scene
// follows the pointer at the same on-screen speed at any zoom level.
func (t Transform) Pan(dx, dy float64, viewportHeight int) Transform {
	if viewportHeight <= 0 {
		return t
	}
	perPixel := 2 * t.Distance * math.Tan(t.FOV/2) / float64(viewportHeight)
	_, right, up := t.Basis()
	t.Target = t.Target.Add(right.Mul(-dx * perPixel)).Add(up.Mul(dy * perPixel))
	return t
}

// Dolly multiplies the distance by factor, never going below minDistance.
// Non-positive or non-finite factors leave the transform unchanged.
func (t Transform) Dolly(factor, minDistance float64) Transform {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return t
	}
	t.Distance = math.Max(t.Distance*factor, minDistance)
	return t
}

// ApproxEqual reports whether both transforms match within eps.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	return t.Target.ApproxEqualThreshold(o.Target, eps) &&
		math.Abs(t.Yaw-o.Yaw) <= eps &&
		math.Abs(t.Pitch-o.Pitch) <= eps &&
		math.Abs(t.Distance-o.Distance) <= eps &&
		math.Abs(t.FOV-o.FOV) <= eps
}

// Lerp interpolates every component linearly; p = 0 gives a, p = 1 gives b.
func Lerp(a, b Transform, p float64) Transform {
	mix := func(x, y float64) float64 { return x + (y-x)*p }
	return Transform{
		Target:   a.Target.Add(b.Target.Sub(a.Target).Mul(p)),
		Yaw:      mix(a.Yaw, b.Yaw),
		Pitch:    mix(a.Pitch, b.Pitch),
		Distance: mix(a.Distance, b.Distance),
		FOV:      mix(a.FOV, b.FOV),
	}
}

// View returns the world-to-camera matrix.
func (t Transform) View() mgl64.Mat4 {
	return mgl64.LookAtV(t.Eye(), t.Target, worldUp)
}

// clipPlanes returns near and far distances scaled with the zoom level.
func (t Transform) clipPlanes() (near, far float64) {
	near = math.Max(t.Distance*1e-3, 1e-6)
	return near, t.Distance * 1e3
}

// Projection returns the perspective matrix for the given aspect ratio.
func (t Transform) Projection(aspect float64) mgl64.Mat4 {
	near, far := t.clipPlanes()
	return mgl64.Perspective(t.FOV, aspect, near, far)
}

// Projector maps world points to pixel coordinates of a viewport.
type Projector struct {
	vp   mgl64.Mat4
	near float64
	w, h float64
}

// Projector returns a Projector for a width×height viewport.
func (t Transform) Projector(width, height int) Projector {
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	near, _ := t.clipPlanes()
	return Projector{
		vp:   t.Projection(aspect).Mul4(t.View()),
		near: near,
		w:    float64(width),
		h:    float64(height),
	}
}

// Project returns the pixel position (origin top-left) and normalized depth
// of p. ok is false for points behind the near plane.
func (p Projector) Project(v mgl64.Vec3) (x, y, depth float64, ok bool) {
	c := p.vp.Mul4x1(v.Vec4(1))
	if c[3] < p.near {
		return 0, 0, 0, false
	}
	nx, ny, nz := c[0]/c[3], c[1]/c[3], c[2]/c[3]
	return (nx + 1) / 2 * p.w, (1 - ny) / 2 * p.h, nz, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
