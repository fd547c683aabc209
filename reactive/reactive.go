// Package reactive provides invalidation-driven memoization.
//
// Sources (Trigger, Value) notify their subscribers when they change. A Calc
// caches the result of a function over its sources: a change marks it stale,
// and the next Get recomputes it once, however many changes happened since.
// Invalidation propagates only on the fresh-to-stale transition, so a burst
// of writes produces a single notification downstream.
//
// Nodes are not safe for concurrent use; callers serialize access.
package reactive

// Source is anything a Calc can depend on.
type Source interface {
	// Subscribe registers fn to run on every change.
	// The returned function removes the subscription.
	Subscribe(fn func()) (cancel func())
}

type listener struct {
	id int
	fn func()
}

// listeners is an ordered subscription list.
type listeners struct {
	next int
	subs []listener
}

func (l *listeners) Subscribe(fn func()) (cancel func()) {
	l.next++
	id := l.next
	l.subs = append(l.subs, listener{id: id, fn: fn})
	return func() {
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners) notify() {
	// copy so subscribers may cancel while being notified
	subs := append([]listener(nil), l.subs...)
	for _, s := range subs {
		s.fn()
	}
}

// Trigger is a source without a value; Fire signals a change.
type Trigger struct {
	listeners
}

// Fire notifies all subscribers.
func (t *Trigger) Fire() {
	t.notify()
}

// Value is a source holding a value.
type Value[T any] struct {
	listeners
	v T
}

// NewValue returns a Value holding v.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	return v.v
}

// Set stores x and notifies subscribers.
func (v *Value[T]) Set(x T) {
	v.v = x
	v.notify()
}

// Calc is a memoized computation over a set of sources.
type Calc[T any] struct {
	listeners

	fn      func() T
	value   T
	stale   bool
	runs    int
	cancels []func()
}

// NewCalc returns a stale Calc of fn that depends on deps.
// Nothing is computed until the first Get.
func NewCalc[T any](fn func() T, deps ...Source) *Calc[T] {
	c := &Calc[T]{fn: fn, stale: true}
	for _, d := range deps {
		c.cancels = append(c.cancels, d.Subscribe(c.Invalidate))
	}
	return c
}

// Get returns the cached result, recomputing it first when stale.
func (c *Calc[T]) Get() T {
	if c.stale {
		c.value = c.fn()
		c.stale = false
		c.runs++
	}
	return c.value
}

// Invalidate marks the result stale. Subscribers are notified only when
// the Calc was fresh.
func (c *Calc[T]) Invalidate() {
	if c.stale {
		return
	}
	c.stale = true
	c.notify()
}

// Stale reports whether the next Get recomputes.
func (c *Calc[T]) Stale() bool {
	return c.stale
}

// Runs returns how many times fn has been evaluated.
func (c *Calc[T]) Runs() int {
	return c.runs
}

// Close detaches the Calc from its sources.
func (c *Calc[T]) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}
