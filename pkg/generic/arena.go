package generic

// Arena stores values of T behind stable integer indices. Released indices
// go on a free list and are handed out again before the arena grows, so
// acquire and release are O(1). The arena never shrinks.
type Arena[T any] struct {
	items    []T
	live     []bool
	free     []int
	generate func() T
}

func NewArena[T any](generate func() T) *Arena[T] {
	return &Arena[T]{generate: generate}
}

// Acquire returns a released value if one exists, otherwise a new one.
// fresh reports whether the value was just generated.
func (a *Arena[T]) Acquire() (idx int, value T, fresh bool) {
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
		a.live[idx] = true
		return idx, a.items[idx], false
	}
	value = a.generate()
	a.items = append(a.items, value)
	a.live = append(a.live, true)
	return len(a.items) - 1, value, true
}

// Release puts idx back on the free list. Releasing an index that is not
// live is a no-op and returns false.
func (a *Arena[T]) Release(idx int) bool {
	if idx < 0 || idx >= len(a.items) || !a.live[idx] {
		return false
	}
	a.live[idx] = false
	a.free = append(a.free, idx)
	return true
}

// Len is the number of values ever generated.
func (a *Arena[T]) Len() int { return len(a.items) }

// Live is the number of values currently acquired.
func (a *Arena[T]) Live() int { return len(a.items) - len(a.free) }
