// Package gesture translates raw pointer events into camera operations.
package gesture

import (
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/gogpu/cadview/viewport"
)

// Kind is the type of a pointer event.
type Kind int

const (
	KindUnknown Kind = iota
	KindDown
	KindMove
	KindUp
	KindScroll
	KindPinch
	KindCancel
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindDown:    "down",
	KindMove:    "move",
	KindUp:      "up",
	KindScroll:  "scroll",
	KindPinch:   "pinch",
	KindCancel:  "cancel",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseKind maps an event name such as "down" or "PointerMove" to a Kind.
// Unrecognized names yield KindUnknown.
func ParseKind(s string) Kind {
	name := cases.Fold().String(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "pointer")
	for k, n := range kindNames {
		if k != int(KindUnknown) && n == name {
			return Kind(k)
		}
	}
	return KindUnknown
}

// Event is a pointer event in viewport pixels.
type Event struct {
	Kind   Kind
	X, Y   float64
	DX, DY float64
	// Scale is the pinch or wheel zoom factor; values > 1 zoom in.
	Scale float64
}

// Default sensitivities.
const (
	DefaultOrbitSensitivity    = 0.01  // radians per pixel
	DefaultZoomDragSensitivity = 0.005 // log distance per pixel
	DefaultWheelSensitivity    = 0.1   // log distance per wheel unit
)

// Config holds the interpreter sensitivities. Zero fields use the defaults.
type Config struct {
	OrbitSensitivity    float64
	ZoomDragSensitivity float64
	WheelSensitivity    float64
}

// Interpreter applies pointer events to viewports. It is stateless apart
// from its configuration; gesture state lives in the viewport.
type Interpreter struct {
	cfg Config
}

// NewInterpreter returns an Interpreter with cfg, filling in defaults.
func NewInterpreter(cfg Config) *Interpreter {
	if cfg.OrbitSensitivity == 0 {
		cfg.OrbitSensitivity = DefaultOrbitSensitivity
	}
	if cfg.ZoomDragSensitivity == 0 {
		cfg.ZoomDragSensitivity = DefaultZoomDragSensitivity
	}
	if cfg.WheelSensitivity == 0 {
		cfg.WheelSensitivity = DefaultWheelSensitivity
	}
	return &Interpreter{cfg: cfg}
}

// Handle applies ev to v.
func (in *Interpreter) Handle(v *viewport.Viewport, ev Event) {
	switch ev.Kind {
	case KindDown:
		v.Apply(func(s *viewport.State) {
			s.Pointer = viewport.Pointer{Active: true, X: ev.X, Y: ev.Y}
		})
	case KindMove:
		v.Apply(func(s *viewport.State) { in.drag(s, ev) })
	case KindScroll, KindPinch:
		v.Apply(func(s *viewport.State) { in.zoom(s, ev) })
	case KindUp, KindCancel:
		v.Apply(func(s *viewport.State) { s.Pointer = viewport.Pointer{} })
	default:
		// unknown kinds are ignored
	}
}

func (in *Interpreter) drag(s *viewport.State, ev Event) {
	if !s.Pointer.Active {
		return
	}
	s.Pointer.X, s.Pointer.Y = ev.X, ev.Y

	switch s.Operation {
	case viewport.OpOrbit:
		k := in.cfg.OrbitSensitivity
		s.Camera = s.Camera.Orbit(ev.DX*k, ev.DY*k)
	case viewport.OpPan:
		s.Camera = s.Camera.Pan(ev.DX, ev.DY, s.Height)
	case viewport.OpZoom:
		s.Camera = s.Camera.Dolly(math.Exp(ev.DY*in.cfg.ZoomDragSensitivity), s.MinDistance)
	case viewport.OpSelect:
		// selection is resolved by the host
	}
}

func (in *Interpreter) zoom(s *viewport.State, ev Event) {
	var factor float64
	switch {
	case ev.Scale > 0:
		factor = 1 / ev.Scale
	case ev.DY != 0:
		factor = math.Exp(-ev.DY * in.cfg.WheelSensitivity)
	default:
		return
	}
	s.Camera = s.Camera.Dolly(factor, s.MinDistance)
}
