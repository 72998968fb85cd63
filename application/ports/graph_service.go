// Package ports declares the abstract collaborators the BQL engine depends
// on but never implements itself (§6): the graph service and an optional
// mutation-audit event publisher. Concrete adapters live under
// infrastructure/persistence/* and infrastructure/events/*.
package ports

import (
	"context"

	"bql/domain/bql/relation"
)

// NodeRecord is a graph node as the engine observes it: an id, its name, an
// optional type classification, and optional display metadata. Kind
// distinguishes an ordinary thought node from a type node (§ Glossary).
type NodeRecord struct {
	ID              string
	Name            string
	TypeID          string
	Label           string
	ForegroundColor string
	BackgroundColor string
	Kind            string
}

// TypeRecord is a named thought type, itself addressable as a node.
type TypeRecord struct {
	ID   string
	Name string
}

// EdgeRecord is one directed, typed edge reached while expanding a node's
// neighborhood.
type EdgeRecord struct {
	ID       string
	Relation relation.Kind
	SourceID string
	TargetID string
}

// Neighbor pairs a relation with the node reached by it, the shape the
// neighborhood operation returns (§6).
type Neighbor struct {
	Edge EdgeRecord
	Node NodeRecord
}

// NewNodeInput is the create-node payload (§6): name is required, the rest
// optional.
type NewNodeInput struct {
	Name            string
	TypeID          string
	Label           string
	ForegroundColor string
	BackgroundColor string
}

// GraphService is the narrow operation set the engine consumes from the
// external associative knowledge graph backend (§6). Every method is a
// suspension point (§5) and must honor ctx cancellation; mutations already
// sent to the backend before cancellation are not rolled back.
type GraphService interface {
	// GetByName performs an exact-name lookup scoped to activeGraphID.
	// Returns (nil, nil) when no node matches — absence is not an error
	// (§7 NotFound).
	GetByName(ctx context.Context, activeGraphID, name string) (*NodeRecord, error)

	// Search returns an ordered, capped list of nodes matching free text,
	// for the `=~` fallback path (§4.4, §4.7).
	Search(ctx context.Context, activeGraphID, query string) ([]NodeRecord, error)

	// ListTypes returns every type record visible to activeGraphID.
	ListTypes(ctx context.Context, activeGraphID string) ([]TypeRecord, error)

	// Neighborhood returns the edges leaving nodeID whose relation is in
	// kinds, together with the neighbor node at the other end.
	Neighborhood(ctx context.Context, activeGraphID, nodeID string, kinds []relation.Kind) ([]Neighbor, error)

	// CreateNode creates a new node and returns its id.
	CreateNode(ctx context.Context, activeGraphID string, input NewNodeInput) (string, error)

	// CreateEdge creates a new edge and returns its id.
	CreateEdge(ctx context.Context, activeGraphID string, sourceID string, rel relation.Kind, targetID string) (string, error)

	// UpdateNode sets or clears (value == nil) one property of a node.
	// property is one of SettableProperties (name, label,
	// foregroundColor, backgroundColor).
	UpdateNode(ctx context.Context, activeGraphID, nodeID, property string, value *string) error

	// UpdateType changes a node's type classification.
	UpdateType(ctx context.Context, activeGraphID, nodeID, typeID string) error

	// DeleteNode removes a node.
	DeleteNode(ctx context.Context, activeGraphID, nodeID string) error

	// DeleteEdge removes an edge.
	DeleteEdge(ctx context.Context, activeGraphID, edgeID string) error
}

// EventPublisher is the optional mutation-audit collaborator: CREATE/SET/
// MERGE/DELETE emit a MutationEvent after the graph service acknowledges
// the call, best-effort and never blocking the caller's result.
type EventPublisher interface {
	PublishMutation(ctx context.Context, event MutationEvent) error
}

// MutationEvent records one applied mutation for audit. DELETE previews
// publish no event; the engine sets Confirmed on every event it emits.
type MutationEvent struct {
	QueryText string
	Operation string // "create_node", "create_edge", "update_node", "update_type", "delete_node", "delete_edge"
	NodeID    string
	EdgeID    string
	Confirmed bool
}
