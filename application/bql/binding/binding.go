// Package binding holds the per-query candidate-set map (§3 Data Model),
// shared by resolve, traverse, predicate, mutate, project, and the engine
// without those packages depending on each other.
package binding

import (
	"fmt"

	"bql/application/ports"
)

// Binding is the per-variable candidate-set map produced by resolution and
// traversal, plus the edges recorded along the way, keyed by
// relation-variable for patterns that named one.
type Binding struct {
	Candidates map[string][]ports.NodeRecord
	Edges      map[string][]ports.EdgeRecord
}

// PositionalEdgeKey is the Edges map key for a relationship pattern that
// carries no relation-variable: derived from its position so traversal
// results are still addressable by the projector and mutation executor.
func PositionalEdgeKey(patternIdx, relIdx int) string {
	return fmt.Sprintf("__rel_%d_%d", patternIdx, relIdx)
}

// New returns an empty Binding ready for one query's lifetime.
func New() *Binding {
	return &Binding{
		Candidates: make(map[string][]ports.NodeRecord),
		Edges:      make(map[string][]ports.EdgeRecord),
	}
}
