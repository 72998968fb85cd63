// Package project implements the result projector (§4.9): turning bindings
// plus a RETURN list into an ordered sequence of result rows.
package project

import (
	"bql/application/bql/binding"
	"bql/application/ports"
	"bql/domain/bql/ast"
)

// Row is one projected result row: one value per RETURN item, in order.
type Row []Value

// Value is one projected cell: either a full node record (RETURN v) or a
// single field (RETURN v.name / v.id).
type Value struct {
	Node  *ports.NodeRecord
	Field string
	IsSet bool
}

// edgeLink is one (sourceVar, targetVar) pair joined by a relationship in a
// MATCH pattern, with the edge list that pair's traversal recorded under.
type edgeLink struct {
	source, target string
	edges          []ports.EdgeRecord
}

// BuildLinks derives the edge-bound variable pairs from patterns, pulling
// the recorded edge list for each out of b — positional key for anonymous
// relationships, the relation-variable name otherwise (the same keys the
// engine stores traversal results under).
func BuildLinks(patterns []ast.Pattern, b *binding.Binding) []edgeLink {
	var links []edgeLink
	for pi, pat := range patterns {
		for ri, rel := range pat.Rels {
			key := rel.Variable
			if key == "" {
				key = binding.PositionalEdgeKey(pi, ri)
			}
			links = append(links, edgeLink{
				source: pat.Nodes[ri].Variable,
				target: pat.Nodes[ri+1].Variable,
				edges:  b.Edges[key],
			})
		}
	}
	return links
}

// Project builds the row set for ret against b. When ret has exactly two
// items whose variables a pattern relationship links, rows follow that
// relationship's recorded edges (§4.9); otherwise rows are the cartesian
// product of each variable's independent candidate set, with items that
// repeat a variable taking that variable's node from the same row.
func Project(ret *ast.ReturnPart, b *binding.Binding, patterns []ast.Pattern) []Row {
	if ret == nil || len(ret.Items) == 0 {
		return nil
	}

	if len(ret.Items) == 2 {
		if link := findLink(ret.Items[0].Var, ret.Items[1].Var, patterns, b); link != nil {
			return projectViaEdges(ret, b, *link)
		}
	}

	sets := make([][]ports.NodeRecord, len(ret.Items))
	for i, item := range ret.Items {
		sets[i] = b.Candidates[item.Var]
	}
	return cartesian(ret.Items, sets)
}

func findLink(a, b2 string, patterns []ast.Pattern, b *binding.Binding) *edgeLink {
	for _, link := range BuildLinks(patterns, b) {
		if (link.source == a && link.target == b2) || (link.source == b2 && link.target == a) {
			l := link
			return &l
		}
	}
	return nil
}

// projectViaEdges pairs rows from link.edges, the raw traversal-recorded
// edge list — which predates any WHERE post-filter narrowing of either
// endpoint's candidate set. An edge whose source or target was filtered
// out by its variable's WHERE clause must not produce a row, so each edge
// is checked against the (already-filtered) candidate ID set of its own
// endpoint variable before being projected.
func projectViaEdges(ret *ast.ReturnPart, b *binding.Binding, link edgeLink) []Row {
	sourceIDs := idSet(b.Candidates[link.source])
	targetIDs := idSet(b.Candidates[link.target])

	byID := make(map[string]ports.NodeRecord, len(sourceIDs)+len(targetIDs))
	for _, n := range b.Candidates[link.source] {
		byID[n.ID] = n
	}
	for _, n := range b.Candidates[link.target] {
		byID[n.ID] = n
	}

	rows := make([]Row, 0, len(link.edges))
	for _, e := range link.edges {
		if !sourceIDs[e.SourceID] || !targetIDs[e.TargetID] {
			continue
		}
		row := make(Row, len(ret.Items))
		for i, item := range ret.Items {
			var nodeID string
			if item.Var == link.source {
				nodeID = e.SourceID
			} else {
				nodeID = e.TargetID
			}
			row[i] = valueFor(item, byID[nodeID])
		}
		rows = append(rows, row)
	}
	return rows
}

func idSet(nodes []ports.NodeRecord) map[string]bool {
	out := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		out[n.ID] = true
	}
	return out
}

func cartesian(items []ast.ReturnItem, sets [][]ports.NodeRecord) []Row {
	if len(sets) == 0 {
		return nil
	}
	rows := []Row{{}}
	picked := [][]ports.NodeRecord{{}}
	for i, set := range sets {
		if len(set) == 0 {
			return nil
		}
		var next []Row
		var nextPicked [][]ports.NodeRecord
		for k, r := range rows {
			choices := set
			for j := 0; j < i; j++ {
				if items[j].Var == items[i].Var {
					choices = picked[k][j : j+1]
					break
				}
			}
			for _, node := range choices {
				row := make(Row, len(r), len(r)+1)
				copy(row, r)
				row = append(row, valueFor(items[i], node))
				next = append(next, row)
				nextPicked = append(nextPicked, append(append([]ports.NodeRecord{}, picked[k]...), node))
			}
		}
		rows, picked = next, nextPicked
	}
	return rows
}

func valueFor(item ast.ReturnItem, node ports.NodeRecord) Value {
	if item.Property == "" {
		n := node
		return Value{Node: &n, IsSet: true}
	}
	switch item.Property {
	case "name":
		return Value{Field: node.Name, IsSet: true}
	case "id":
		return Value{Field: node.ID, IsSet: true}
	default:
		return Value{IsSet: false}
	}
}
