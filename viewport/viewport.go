// Package viewport holds the per-surface view state: pixel size, camera
// and interaction mode.
//
// A Viewport is safe for concurrent use. Readers get consistent snapshots;
// writers go through Apply so that a gesture updates the camera atomically.
package viewport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/gogpu/cadview/camera"
	"github.com/gogpu/cadview/engine"
)

// ErrInvalidSize is returned by SetSize for non-positive dimensions.
var ErrInvalidSize = errors.New("viewport: width and height must be positive")

// Config configures a Viewport.
type Config struct {
	// MinDistance is the closest the camera may get to its target.
	// Zero means camera.DefaultMinDistance.
	MinDistance float64

	// Transition animates Fit and Reset. Zero applies them immediately.
	Transition time.Duration

	// Easing shapes the transition. Nil means ease.InOutCubic.
	Easing ease.TweenFunc
}

// Pointer tracks the gesture in progress.
type Pointer struct {
	Active bool
	X, Y   float64
}

// State is the mutable view state handed to Apply.
type State struct {
	Camera      camera.Transform
	Operation   Operation
	Pointer     Pointer
	Width       int
	Height      int
	MinDistance float64
}

// Viewport is the view state of one surface.
type Viewport struct {
	mu         sync.Mutex
	state      State
	transition *camera.Transition
	cfg        Config
}

// New returns a viewport with the canonical camera, orbit mode and no size.
func New(cfg Config) *Viewport {
	if !(cfg.MinDistance > 0) {
		cfg.MinDistance = camera.DefaultMinDistance
	}
	return &Viewport{
		cfg: cfg,
		state: State{
			Camera:      camera.Default(),
			Operation:   OpOrbit,
			MinDistance: cfg.MinDistance,
		},
	}
}

// SetSize sets the viewport size in pixels.
func (v *Viewport) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	v.mu.Lock()
	v.state.Width, v.state.Height = width, height
	v.mu.Unlock()
	return nil
}

// Size returns the viewport size; both are zero until SetSize succeeds.
func (v *Viewport) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Width, v.state.Height
}

func (v *Viewport) aspect() float64 {
	if v.state.Width <= 0 || v.state.Height <= 0 {
		return 1
	}
	return float64(v.state.Width) / float64(v.state.Height)
}

// Fit frames b. An empty b resets the camera.
func (v *Viewport) Fit(b engine.Bounds) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.moveTo(camera.Fit(b, v.aspect()))
}

// Reset restores the canonical camera.
func (v *Viewport) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.moveTo(camera.Default())
}

// moveTo sets the camera, animating when a transition duration is
// configured. v.mu must be held.
func (v *Viewport) moveTo(to camera.Transform) {
	if v.cfg.Transition <= 0 {
		v.transition = nil
		v.state.Camera = to
		return
	}
	from := v.state.Camera
	v.transition = camera.NewTransition(from, to, v.cfg.Transition, v.cfg.Easing)
}

// SetOperation parses and sets the interaction mode. On error the previous
// mode is kept.
func (v *Viewport) SetOperation(name string) error {
	op, err := ParseOperation(name)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.state.Operation = op
	v.mu.Unlock()
	return nil
}

// Operation returns the interaction mode.
func (v *Viewport) Operation() Operation {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Operation
}

// Camera returns the logical camera. While a transition runs this is the
// transform it is heading to.
func (v *Viewport) Camera() camera.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.transition != nil {
		return v.transition.Target()
	}
	return v.state.Camera
}

// Apply runs fn with exclusive access to the state. A running transition
// is completed first, so fn always sees the logical camera.
// Size and MinDistance changes made by fn are discarded.
func (v *Viewport) Apply(fn func(*State)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.transition != nil {
		v.state.Camera = v.transition.Target()
		v.transition = nil
	}
	s := v.state
	fn(&s)
	s.Width, s.Height, s.MinDistance = v.state.Width, v.state.Height, v.state.MinDistance
	v.state = s
}

// Snapshot advances any running transition by dt and returns a copy of the
// state to draw.
func (v *Viewport) Snapshot(dt time.Duration) State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.transition != nil {
		cam, done := v.transition.Advance(dt)
		v.state.Camera = cam
		if done {
			v.transition = nil
		}
	}
	return v.state
}

// Animating reports whether a transition is in progress.
func (v *Viewport) Animating() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.transition != nil
}
