package camera

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Transition animates the camera between two transforms.
type Transition struct {
	from, to Transform
	progress *gween.Tween
}

// NewTransition starts an animation from one transform to another over d.
// A nil easing function selects ease.InOutCubic.
func NewTransition(from, to Transform, d time.Duration, fn ease.TweenFunc) *Transition {
	if fn == nil {
		fn = ease.InOutCubic
	}
	return &Transition{
		from:     from,
		to:       to,
		progress: gween.New(0, 1, float32(d.Seconds()), fn),
	}
}

// Target returns the transform the transition ends at.
func (tr *Transition) Target() Transform {
	return tr.to
}

// Advance moves the animation forward by dt and returns the current
// transform. done is true once the end transform has been reached; the
// returned transform is then exactly the end transform.
func (tr *Transition) Advance(dt time.Duration) (current Transform, done bool) {
	p, finished := tr.progress.Update(float32(dt.Seconds()))
	if finished {
		return tr.to, true
	}
	return Lerp(tr.from, tr.to, float64(p)), false
}
