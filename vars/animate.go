package vars

import (
	"math"
	"time"
)

// AnimationCtx is passed to an animation callback on every tick.
type AnimationCtx struct {
	// Now is the loop's frozen time for the current cycle (see
	// package loop's UpdatePaused time mode).
	Now time.Time
	// Elapsed is the time since the animation first ticked.
	Elapsed time.Duration
}

// AnimationHandle controls a running animation. Dropping the handle
// without calling Stop still lets the animation run; Stop is the
// explicit cancellation used when a variable is about to be reused for
// something else (e.g. a new chase replacing an old one).
type AnimationHandle interface {
	Stop()
}

// stopFunc adapts a plain function to AnimationHandle.
type stopFunc func()

func (s stopFunc) Stop() { s() }

// Easing maps a completion fraction in [0,1] to an eased fraction,
// typically also in [0,1].
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// EaseOutQuad decelerates towards the end, the default for touch
// inertia (spec §4.H "Touch inertia").
func EaseOutQuad(t float64) float64 {
	return t * (2 - t)
}

type liveAnimation interface {
	tick(now time.Time) (alive bool)
}

// animation binds a per-cycle callback to the cell it mutates.
type animation[T any] struct {
	cell    *cell[T]
	start   time.Time
	started bool
	stopped bool
	fn      func(ctx AnimationCtx, cur *T) (finished bool)
}

func (a *animation[T]) tick(now time.Time) bool {
	if a.stopped {
		return false
	}
	if !a.started {
		a.start, a.started = now, true
	}
	ctx := AnimationCtx{Now: now, Elapsed: now.Sub(a.start)}
	finished := false
	a.cell.setDirect(func(v *T) { finished = a.fn(ctx, v) })
	return !finished && !a.stopped
}

func (a *animation[T]) Stop() {
	a.stopped = true
	a.cell.mu.Lock()
	if a.cell.anim == a {
		a.cell.anim = nil
	}
	a.cell.mu.Unlock()
}

// setDirect mutates the cell outside the write queue: used by the loop
// while polling animations, which already runs at the defined "apply
// writes" point of the cycle (see Hub.Flush).
func (c *cell[T]) setDirect(f func(*T)) {
	c.mu.Lock()
	f(&c.value)
	c.newAt = c.hub.Cycle()
	v := c.value
	hooks := append([]*hookEntry[T](nil), c.hooks...)
	c.mu.Unlock()
	c.notify(hooks, v)
}

// Animate drives v over time using fn, which returns true once the
// animation is finished. Starting a new animation on v stops any
// previous one (spec §5 "a new animation on the same variable replaces
// the previous").
func Animate[T any](hub *Hub, v Var[T], fn func(ctx AnimationCtx, cur *T) (finished bool)) AnimationHandle {
	c, ok := v.(*cell[T])
	if !ok {
		// Derived/read-only vars cannot be animated; no-op handle.
		return stopFunc(func() {})
	}
	a := &animation[T]{cell: c, fn: fn}
	c.mu.Lock()
	if c.anim != nil {
		c.anim.stopped = true
	}
	c.anim = a
	c.mu.Unlock()
	hub.mu.Lock()
	hub.anims = append(hub.anims, a)
	hub.mu.Unlock()
	return a
}

// PollAnimations ticks every live animation registered on the hub with
// the given time, dropping finished ones. The loop calls this once per
// cycle, after Flush, using its frozen "now".
func (h *Hub) PollAnimations(now time.Time) {
	h.mu.Lock()
	anims := h.anims
	h.mu.Unlock()
	kept := anims[:0]
	for _, a := range anims {
		if a.tick(now) {
			kept = append(kept, a)
		}
	}
	h.mu.Lock()
	h.anims = kept
	h.mu.Unlock()
}

// Chase is an animation whose target can be updated mid-flight without
// restarting the duration countdown (spec glossary: "Chase animation").
// Value glides linearly (subject to easing) from the value observed when
// the chase started towards whatever the current target is, reaching it
// exactly when the fixed duration elapses.
type Chase struct {
	target   float32
	duration time.Duration
	easing   Easing
	handle   AnimationHandle
}

// NewChase starts a chase of v towards target over duration using
// easing, beginning from v's currently committed value.
func NewChase(hub *Hub, v Var[float32], target float32, duration time.Duration, easing Easing) *Chase {
	_, ok := v.(*cell[float32])
	if !ok {
		return nil
	}
	ch := &Chase{target: target, duration: duration, easing: easing}
	start := v.Get()
	ch.handle = Animate(hub, v, func(ctx AnimationCtx, cur *float32) bool {
		if duration <= 0 {
			*cur = ch.target
			return true
		}
		frac := float64(ctx.Elapsed) / float64(duration)
		if frac >= 1 {
			*cur = ch.target
			return true
		}
		*cur = start + (ch.target-start)*float32(easing(frac))
		return false
	})
	return ch
}

// Retarget changes the destination value without resetting elapsed time
// (spec scenario "Smooth scroll chase blending").
func (c *Chase) Retarget(target float32) {
	c.target = target
}

// Target returns the chase's current destination.
func (c *Chase) Target() float32 { return c.target }

// Stop cancels the chase; the variable keeps its last value.
func (c *Chase) Stop() {
	if c.handle != nil {
		c.handle.Stop()
	}
}

// Clamp restricts a value to [lo, hi], used throughout package scroll to
// enforce the offset/zoom/overscroll invariants from spec §8.
func Clamp(v, lo, hi float32) float32 {
	return float32(math.Min(float64(hi), math.Max(float64(lo), float64(v))))
}
