// Package memory implements ports.GraphService entirely in process memory,
// the default backend for local trial (cmd/bqlcli) and tests. Grounded on
// the teacher's domain/core/aggregates/graph.go: a single mutex-guarded
// aggregate holding nodes and edges by ID, restructured around
// ports.NodeRecord/EdgeRecord instead of the teacher's rich entity types
// since BQL only ever reads/writes the flat fields §6 names.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bql/application/ports"
	"bql/domain/bql/relation"
	apperrors "bql/pkg/errors"
)

type node struct {
	ports.NodeRecord
	graphID string
}

type edge struct {
	ports.EdgeRecord
	graphID string
}

// Store is an in-memory, mutex-guarded ports.GraphService. One Store can
// back many active_graph_ids; every operation is scoped to the caller's
// activeGraphID the way the teacher's DynamoDB partition key scopes to one
// graph per item.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*node
	edges map[string]*edge
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nodes: make(map[string]*node),
		edges: make(map[string]*edge),
	}
}

// Seed inserts a node directly, bypassing name/type validation, for test
// fixtures and cmd/bqlcli's demo graph. It returns the assigned ID.
func (s *Store) Seed(activeGraphID string, rec ports.NodeRecord) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.nodes[rec.ID] = &node{NodeRecord: rec, graphID: activeGraphID}
	return rec.ID
}

// SeedEdge inserts an edge directly, for test fixtures.
func (s *Store) SeedEdge(activeGraphID string, rec ports.EdgeRecord) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.edges[rec.ID] = &edge{EdgeRecord: rec, graphID: activeGraphID}
	return rec.ID
}

func (s *Store) GetByName(_ context.Context, activeGraphID, name string) (*ports.NodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		if n.graphID == activeGraphID && n.Name == name {
			rec := n.NodeRecord
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *Store) Search(_ context.Context, activeGraphID, query string) ([]ports.NodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(query)
	var out []ports.NodeRecord
	for _, n := range s.nodes {
		if n.graphID == activeGraphID && strings.Contains(strings.ToLower(n.Name), needle) {
			out = append(out, n.NodeRecord)
		}
	}
	return out, nil
}

func (s *Store) ListTypes(_ context.Context, activeGraphID string) ([]ports.TypeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ports.TypeRecord
	for _, n := range s.nodes {
		if n.graphID == activeGraphID && n.Kind == "type" {
			out = append(out, ports.TypeRecord{ID: n.ID, Name: n.Name})
		}
	}
	return out, nil
}

func (s *Store) Neighborhood(_ context.Context, activeGraphID, nodeID string, kinds []relation.Kind) ([]ports.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[relation.Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}
	var out []ports.Neighbor
	for _, e := range s.edges {
		if e.graphID != activeGraphID || !wanted[e.Relation] {
			continue
		}
		var otherID string
		switch {
		case e.SourceID == nodeID:
			otherID = e.TargetID
		case e.TargetID == nodeID && isSymmetric(e.Relation):
			otherID = e.SourceID
		default:
			continue
		}
		if n, ok := s.nodes[otherID]; ok && n.graphID == activeGraphID {
			out = append(out, ports.Neighbor{Edge: e.EdgeRecord, Node: n.NodeRecord})
		}
	}
	return out, nil
}

// isSymmetric reports whether k is traversable from either endpoint
// without a separately stored reverse edge. Sibling relations are mutual
// by construction; Child/Parent/Jump are directional, matching the
// teacher's EdgeType asymmetry for parent/child links.
func isSymmetric(k relation.Kind) bool {
	return k == relation.Sibling
}

func (s *Store) CreateNode(_ context.Context, activeGraphID string, input ports.NewNodeInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.nodes[id] = &node{
		graphID: activeGraphID,
		NodeRecord: ports.NodeRecord{
			ID:              id,
			Name:            input.Name,
			TypeID:          input.TypeID,
			Label:           input.Label,
			ForegroundColor: input.ForegroundColor,
			BackgroundColor: input.BackgroundColor,
		},
	}
	return id, nil
}

func (s *Store) CreateEdge(_ context.Context, activeGraphID string, sourceID string, rel relation.Kind, targetID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[sourceID]; !ok {
		return "", apperrors.NewNotFound("create-edge: source node " + sourceID + " not found")
	}
	if _, ok := s.nodes[targetID]; !ok {
		return "", apperrors.NewNotFound("create-edge: target node " + targetID + " not found")
	}
	id := uuid.NewString()
	s.edges[id] = &edge{
		graphID: activeGraphID,
		EdgeRecord: ports.EdgeRecord{
			ID:       id,
			Relation: rel,
			SourceID: sourceID,
			TargetID: targetID,
		},
	}
	return id, nil
}

func (s *Store) UpdateNode(_ context.Context, _, nodeID, property string, value *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return apperrors.NewNotFound("update-node: " + nodeID + " not found")
	}
	v := ""
	if value != nil {
		v = *value
	}
	switch property {
	case "name":
		n.Name = v
	case "label":
		n.Label = v
	case "foregroundColor":
		n.ForegroundColor = v
	case "backgroundColor":
		n.BackgroundColor = v
	default:
		return apperrors.NewSemantic("update-node: unknown settable property " + property)
	}
	return nil
}

func (s *Store) UpdateType(_ context.Context, _, nodeID, typeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return apperrors.NewNotFound("update-type: " + nodeID + " not found")
	}
	n.TypeID = typeID
	return nil
}

func (s *Store) DeleteNode(_ context.Context, _, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[nodeID]; !ok {
		return apperrors.NewNotFound("delete-node: " + nodeID + " not found")
	}
	delete(s.nodes, nodeID)
	return nil
}

func (s *Store) DeleteEdge(_ context.Context, _, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[edgeID]; !ok {
		return apperrors.NewNotFound("delete-edge: " + edgeID + " not found")
	}
	delete(s.edges, edgeID)
	return nil
}

var _ ports.GraphService = (*Store)(nil)
