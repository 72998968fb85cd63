// Package resolve turns one planned variable into an ordered, deduplicated
// candidate set (§4.5), the node-resolver component. Grounded on the
// teacher's domain/services/text_analyzer.go + similarity_calculator.go
// filter-pipeline shape: driver lookup, then a fixed sequence of
// post-filters applied in order.
package resolve

import (
	"context"
	"strings"

	"bql/application/bql/plan"
	"bql/application/ports"
	"bql/domain/bql/ast"
	apperrors "bql/pkg/errors"
)

// alias to avoid an import cycle name clash; plan.VarPlan is the input type.
type VarPlan = plan.VarPlan

// Resolver resolves MATCH pattern variables against a GraphService.
type Resolver struct {
	svc    ports.GraphService
	scorer Scorer
}

// Scorer is the similarity-ranking collaborator the `=~` fallback uses;
// application/bql's scorerAdapter satisfies it by wrapping
// *domain/bql/similarity.Scorer.
type Scorer interface {
	Rank(query string, candidates []RankCandidate) []RankedResult
}

// RankCandidate and RankedResult mirror domain/bql/similarity's Candidate
// and Ranked so this package doesn't need to import it directly for typing
// — callers pass a thin adapter to NewResolver (see application/bql's
// scorerAdapter).
type RankCandidate struct {
	NodeID string
	Name   string
}

type RankedResult struct {
	NodeID string
	Score  float64
}

// NewResolver builds a Resolver over svc and scorer.
func NewResolver(svc ports.GraphService, scorer Scorer) *Resolver {
	return &Resolver{svc: svc, scorer: scorer}
}

// Resolve produces the ordered candidate set for vp. Callers must not call
// this for a plan.StrategyTraversal variable — those are populated by the
// traversal executor instead.
func (r *Resolver) Resolve(ctx context.Context, activeGraphID string, vp *VarPlan) ([]ports.NodeRecord, error) {
	var candidates []ports.NodeRecord

	switch vp.Strategy {
	case plan.StrategyName:
		node, err := r.svc.GetByName(ctx, activeGraphID, vp.NameLiteral)
		if err != nil {
			return nil, apperrors.NewService("get-by-name failed for "+vp.Var, err, false)
		}
		if node != nil {
			candidates = []ports.NodeRecord{*node}
		}

	case plan.StrategySearch:
		hits, err := r.svc.Search(ctx, activeGraphID, vp.NameLiteral)
		if err != nil {
			return nil, apperrors.NewService("search failed for "+vp.Var, err, false)
		}
		candidates = filterBySubstring(hits, vp.NameLiteral, vp.CompareOp)

	case plan.StrategyFuzzy:
		exact, err := r.svc.GetByName(ctx, activeGraphID, vp.NameLiteral)
		if err != nil {
			return nil, apperrors.NewService("get-by-name failed for "+vp.Var, err, false)
		}
		if exact != nil {
			candidates = []ports.NodeRecord{*exact}
			break
		}
		hits, err := r.svc.Search(ctx, activeGraphID, vp.NameLiteral)
		if err != nil {
			return nil, apperrors.NewService("search failed for "+vp.Var, err, false)
		}
		candidates = r.rankBySimilarity(vp.NameLiteral, hits)

	case plan.StrategyType:
		types, err := r.svc.ListTypes(ctx, activeGraphID)
		if err != nil {
			return nil, apperrors.NewService("list-types failed for "+vp.Var, err, false)
		}
		for _, t := range types {
			if t.Name == vp.TypeLabel {
				candidates = []ports.NodeRecord{{ID: t.ID, Name: t.Name, Kind: "type"}}
				break
			}
		}
		if candidates == nil {
			return nil, apperrors.NewResolution("referenced type label " + vp.TypeLabel + " does not exist")
		}
		return dedupe(candidates), nil

	case plan.StrategyTraversal:
		return nil, apperrors.NewResolution("variable " + vp.Var + " must be resolved by the traversal executor, not the node resolver")
	}

	if vp.TypeLabel != "" && vp.Strategy != plan.StrategyType {
		filtered, err := r.filterByType(ctx, activeGraphID, candidates, vp.TypeLabel)
		if err != nil {
			return nil, err
		}
		candidates = filtered
	}

	return dedupe(candidates), nil
}

// filterByType drops candidates whose TypeID doesn't match typeLabel's id,
// but only when at least one candidate remains after filtering (§4.5 step
// 1): an empty post-filter result would otherwise silently erase a
// resolution that had no type information to begin with.
func (r *Resolver) filterByType(ctx context.Context, activeGraphID string, candidates []ports.NodeRecord, typeLabel string) ([]ports.NodeRecord, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	types, err := r.svc.ListTypes(ctx, activeGraphID)
	if err != nil {
		return nil, apperrors.NewService("list-types failed while filtering by type "+typeLabel, err, false)
	}
	var typeID string
	for _, t := range types {
		if t.Name == typeLabel {
			typeID = t.ID
			break
		}
	}
	if typeID == "" {
		return nil, apperrors.NewResolution("referenced type label " + typeLabel + " does not exist")
	}

	var filtered []ports.NodeRecord
	for _, c := range candidates {
		if c.TypeID == typeID {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return candidates, nil
	}
	return filtered, nil
}

func filterBySubstring(hits []ports.NodeRecord, literal string, op ast.CompareOp) []ports.NodeRecord {
	needle := strings.ToLower(literal)
	var out []ports.NodeRecord
	for _, h := range hits {
		name := strings.ToLower(h.Name)
		var match bool
		switch op {
		case ast.Contains:
			match = strings.Contains(name, needle)
		case ast.StartsWith:
			match = strings.HasPrefix(name, needle)
		case ast.EndsWith:
			match = strings.HasSuffix(name, needle)
		default:
			match = true
		}
		if match {
			out = append(out, h)
		}
	}
	return out
}

func (r *Resolver) rankBySimilarity(query string, hits []ports.NodeRecord) []ports.NodeRecord {
	if len(hits) == 0 {
		return nil
	}
	byID := make(map[string]ports.NodeRecord, len(hits))
	cands := make([]RankCandidate, 0, len(hits))
	for _, h := range hits {
		byID[h.ID] = h
		cands = append(cands, RankCandidate{NodeID: h.ID, Name: h.Name})
	}
	ranked := r.scorer.Rank(query, cands)
	out := make([]ports.NodeRecord, 0, len(ranked))
	for _, rk := range ranked {
		out = append(out, byID[rk.NodeID])
	}
	return out
}

// dedupe removes duplicate node IDs, keeping first occurrence (§4.5:
// "must deduplicate by node ID"), and is otherwise order-preserving —
// candidate-set order is part of the resolver's contract (§3 invariant 3).
func dedupe(candidates []ports.NodeRecord) []ports.NodeRecord {
	if len(candidates) == 0 {
		return candidates
	}
	seen := make(map[string]bool, len(candidates))
	out := make([]ports.NodeRecord, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
