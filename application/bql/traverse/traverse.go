// Package traverse implements the BFS traversal executor (§4.6): expanding
// a relationship pattern from an already-resolved source candidate set to
// a target candidate set, hop-bounded and cycle-safe. Grounded on
// ritamzico-pgraph's internal/inference/graph_traversals.go BFS-over-
// abstract-neighborhood shape and systemshift-memex-server's neighborhood
// query structuring.
package traverse

import (
	"context"

	"bql/application/ports"
	"bql/domain/bql/ast"
	apperrors "bql/pkg/errors"
)

// Result is the outcome of expanding one relationship pattern: the target
// candidate set (deduplicated, union across all depths in range) and every
// edge traversed to reach it, for the caller to key under the pattern's
// relation-variable if it has one.
type Result struct {
	Targets []ports.NodeRecord
	Edges   []ports.EdgeRecord
}

type frontierEntry struct {
	node  ports.NodeRecord
	depth int
}

// Execute runs one relationship pattern's traversal from sources.
func Execute(ctx context.Context, svc ports.GraphService, activeGraphID string, sources []ports.NodeRecord, rel ast.RelationshipPattern) (Result, error) {
	kinds := rel.Set.Expand()

	visited := make(map[string]bool, len(sources))
	var frontier []frontierEntry
	for _, s := range sources {
		visited[s.ID] = true
		frontier = append(frontier, frontierEntry{node: s, depth: 0})
	}

	var res Result
	targetSeen := make(map[string]bool)

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		if cur.depth >= rel.Hop.Max {
			continue
		}

		neighbors, err := svc.Neighborhood(ctx, activeGraphID, cur.node.ID, kinds)
		if err != nil {
			return Result{}, apperrors.NewService("neighborhood lookup failed", err, false)
		}

		nextDepth := cur.depth + 1
		for _, nb := range neighbors {
			if visited[nb.Node.ID] {
				continue
			}
			visited[nb.Node.ID] = true
			res.Edges = append(res.Edges, nb.Edge)

			if nextDepth >= rel.Hop.Min && nextDepth <= rel.Hop.Max && !targetSeen[nb.Node.ID] {
				targetSeen[nb.Node.ID] = true
				res.Targets = append(res.Targets, nb.Node)
			}
			if nextDepth < rel.Hop.Max {
				frontier = append(frontier, frontierEntry{node: nb.Node, depth: nextDepth})
			}
		}
	}

	return res, nil
}
