// Package loadguard detects re-entrant loads of the same document while a
// recursive load is in progress.
package loadguard

import (
	"fmt"
	"slices"
	"strings"
)

// CycleError reports a key entered again while already loading.
type CycleError[K comparable] struct {
	Chain []K
}

func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Chain))
	for i, k := range e.Chain {
		parts[i] = fmt.Sprint(k)
	}
	return "load cycle: " + strings.Join(parts, " -> ")
}

// Guard tracks the keys currently being loaded. The zero value is ready to use.
type Guard[K comparable] struct {
	active map[K]int
	stack  []K
}

// Enter marks key as loading and returns the callback that clears it. It
// fails with a *CycleError when key is already loading.
func (g *Guard[K]) Enter(key K) (func(), error) {
	if g.active == nil {
		g.active = make(map[K]int)
	}
	if at, ok := g.active[key]; ok {
		chain := append(slices.Clone(g.stack[at:]), key)
		return nil, &CycleError[K]{Chain: chain}
	}
	g.active[key] = len(g.stack)
	g.stack = append(g.stack, key)

	depth := len(g.stack)
	return func() {
		if len(g.stack) != depth {
			return
		}
		g.stack = g.stack[:depth-1]
		delete(g.active, key)
	}, nil
}

// Loading reports whether key is currently being loaded.
func (g *Guard[K]) Loading(key K) bool {
	_, ok := g.active[key]
	return ok
}

// Depth returns the number of nested loads in progress.
func (g *Guard[K]) Depth() int {
	return len(g.stack)
}
