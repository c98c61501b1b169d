package eval

import "hash/fnv"

// invocationIDFromPath derives a stable invocation id from an AST node's
// matrix-relative path, so a CUSTOM node occupying the same tree position
// keeps calling its custom function with the same invocation id across
// matrix swaps that reinstall the same scheme (letting stateful script
// functions carry state forward instead of resetting on every swap).
func invocationIDFromPath(path string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	return h.Sum64()
}
