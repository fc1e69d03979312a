package hostrt

import (
	"context"
	"sync/atomic"
)

type guardKey struct{ rt *Runtime }

// Guard is a held interpreter lock. Release it exactly where it was taken,
// usually with defer.
type Guard struct {
	rt       *Runtime
	ctx      context.Context
	released atomic.Bool
	owned    bool
}

// Ensure acquires the interpreter lock unless ctx already carries a live
// guard for this runtime, in which case the returned guard is a no-op.
// Pass Guard.Context to code that may call Ensure again.
func (rt *Runtime) Ensure(ctx context.Context) *Guard {
	if ctx == nil {
		ctx = context.Background()
	}
	if rt.Held(ctx) {
		return &Guard{rt: rt, ctx: ctx}
	}
	rt.gil.Lock()
	g := &Guard{rt: rt, owned: true}
	g.ctx = context.WithValue(ctx, guardKey{rt}, g)
	return g
}

// Held reports whether ctx carries an unreleased guard for rt.
func (rt *Runtime) Held(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	g, ok := ctx.Value(guardKey{rt}).(*Guard)
	return ok && g.owned && !g.released.Load()
}

// Context returns a context that marks the lock as held.
func (g *Guard) Context() context.Context { return g.ctx }

// Owned reports whether this guard took the lock, as opposed to nesting
// inside an outer one.
func (g *Guard) Owned() bool { return g.owned }

// Release gives the lock back. Calling it more than once is a no-op.
func (g *Guard) Release() {
	if g == nil || !g.owned {
		return
	}
	if g.released.CompareAndSwap(false, true) {
		g.rt.gil.Unlock()
	}
}
