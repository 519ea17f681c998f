package base

import "sync"

// Memoize wraps fn so its result is computed at most once and cached
// for every subsequent call.
func Memoize[T any](fn func() T) func() T {
	var once sync.Once
	var result T
	return func() T {
		once.Do(func() {
			result = fn()
		})
		return result
	}
}

// MemoizeComparable caches fn's result per distinct comparable
// argument, used by the bootstrap to memoize $PATH resolution keyed
// on the compiler name from argv[0].
func MemoizeComparable[ARG comparable, T any](fn func(ARG) T) func(ARG) T {
	var mu sync.Mutex
	cache := make(map[ARG]T)
	return func(arg ARG) T {
		mu.Lock()
		if v, ok := cache[arg]; ok {
			mu.Unlock()
			return v
		}
		mu.Unlock()

		v := fn(arg)

		mu.Lock()
		cache[arg] = v
		mu.Unlock()
		return v
	}
}
