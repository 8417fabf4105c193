package packwatch

import "sync/atomic"

// reloadGuard lets at most one reload run at a time without blocking the
// timer goroutine that asks for another.
type reloadGuard struct {
	state atomic.Int32 // 0 = idle, 1 = reloading
}

// TryAcquire reports whether the caller may start a reload.
func (g *reloadGuard) TryAcquire() bool {
	return g.state.CompareAndSwap(0, 1)
}

// Release must only be called by the holder.
func (g *reloadGuard) Release() {
	g.state.Store(0)
}
