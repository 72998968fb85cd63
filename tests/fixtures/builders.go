// Package fixtures helps tests build graphs and query strings with
// sensible defaults, overridden one field at a time. Grounded on the
// teacher's tests/fixtures/builders.go shape (chainable WithX methods over
// a private struct, MustBuild panicking on the rare construction error),
// narrowed to BQL's flat ports.NodeRecord/EdgeRecord fields instead of the
// teacher's rich entities.Node/aggregates.Graph aggregates.
package fixtures

import (
	"bql/application/ports"
	"bql/domain/bql/relation"
	"bql/infrastructure/persistence/memory"
)

// NodeBuilder helps construct a ports.NodeRecord with test defaults.
type NodeBuilder struct {
	id              string
	name            string
	typeID          string
	label           string
	foregroundColor string
	backgroundColor string
	kind            string
}

// NewNodeBuilder returns a builder for an ordinary thought node named
// "Test Node".
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		name: "Test Node",
		kind: "node",
	}
}

func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.id = id
	return b
}

func (b *NodeBuilder) WithName(name string) *NodeBuilder {
	b.name = name
	return b
}

func (b *NodeBuilder) WithTypeID(typeID string) *NodeBuilder {
	b.typeID = typeID
	return b
}

func (b *NodeBuilder) WithLabel(label string) *NodeBuilder {
	b.label = label
	return b
}

func (b *NodeBuilder) WithColors(foreground, background string) *NodeBuilder {
	b.foregroundColor = foreground
	b.backgroundColor = background
	return b
}

// AsType marks the built record as a type node (§ Glossary), addressable
// by name like any other node but returned from ListTypes.
func (b *NodeBuilder) AsType() *NodeBuilder {
	b.kind = "type"
	return b
}

// Build returns the record this builder describes.
func (b *NodeBuilder) Build() ports.NodeRecord {
	return ports.NodeRecord{
		ID:              b.id,
		Name:            b.name,
		TypeID:          b.typeID,
		Label:           b.label,
		ForegroundColor: b.foregroundColor,
		BackgroundColor: b.backgroundColor,
		Kind:            b.kind,
	}
}

// NewNodeInput returns the create-node payload this builder describes,
// for tests exercising mutate.Executor.ExecuteCreate directly.
func (b *NodeBuilder) NewNodeInput() ports.NewNodeInput {
	return ports.NewNodeInput{
		Name:            b.name,
		TypeID:          b.typeID,
		Label:           b.label,
		ForegroundColor: b.foregroundColor,
		BackgroundColor: b.backgroundColor,
	}
}

// EdgeBuilder helps construct a ports.EdgeRecord with test defaults.
type EdgeBuilder struct {
	id       string
	relation relation.Kind
	sourceID string
	targetID string
}

// NewEdgeBuilder returns a builder for a CHILD edge.
func NewEdgeBuilder() *EdgeBuilder {
	return &EdgeBuilder{relation: relation.Child}
}

func (b *EdgeBuilder) WithID(id string) *EdgeBuilder {
	b.id = id
	return b
}

func (b *EdgeBuilder) WithRelation(k relation.Kind) *EdgeBuilder {
	b.relation = k
	return b
}

func (b *EdgeBuilder) From(sourceID string) *EdgeBuilder {
	b.sourceID = sourceID
	return b
}

func (b *EdgeBuilder) To(targetID string) *EdgeBuilder {
	b.targetID = targetID
	return b
}

func (b *EdgeBuilder) Build() ports.EdgeRecord {
	return ports.EdgeRecord{
		ID:       b.id,
		Relation: b.relation,
		SourceID: b.sourceID,
		TargetID: b.targetID,
	}
}

// GraphBuilder accumulates nodes and edges and seeds them into a fresh
// memory.Store scoped to one active_graph_id, the fixture most BQL tests
// reach for: build a small graph, then run queries against it.
type GraphBuilder struct {
	activeGraphID string
	nodes         []*NodeBuilder
	edges         []edgeSpec
}

type edgeSpec struct {
	builder        *EdgeBuilder
	fromRef, toRef string
}

// NewGraphBuilder returns a builder scoped to activeGraphID "test-graph".
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{activeGraphID: "test-graph"}
}

func (b *GraphBuilder) WithActiveGraphID(id string) *GraphBuilder {
	b.activeGraphID = id
	return b
}

// WithNode registers a node to seed, keyed by ref for use in WithEdge.
func (b *GraphBuilder) WithNode(ref string, n *NodeBuilder) *GraphBuilder {
	n.WithID(ref)
	b.nodes = append(b.nodes, n)
	return b
}

// WithEdge registers an edge between two refs previously passed to
// WithNode, resolved to their assigned IDs at Build time.
func (b *GraphBuilder) WithEdge(fromRef string, e *EdgeBuilder, toRef string) *GraphBuilder {
	b.edges = append(b.edges, edgeSpec{builder: e, fromRef: fromRef, toRef: toRef})
	return b
}

// Built is the result of Build: a populated Store plus the ref->ID map so
// assertions can refer to seeded nodes by their human-readable ref.
type Built struct {
	Store         *memory.Store
	ActiveGraphID string
	IDs           map[string]string
}

// Build seeds every registered node and edge into a fresh memory.Store.
func (b *GraphBuilder) Build() *Built {
	store := memory.New()
	ids := make(map[string]string, len(b.nodes))

	for _, n := range b.nodes {
		ref := n.id
		n.id = ""
		id := store.Seed(b.activeGraphID, n.Build())
		ids[ref] = id
	}

	for _, spec := range b.edges {
		rec := spec.builder.Build()
		rec.SourceID = ids[spec.fromRef]
		rec.TargetID = ids[spec.toRef]
		store.SeedEdge(b.activeGraphID, rec)
	}

	return &Built{Store: store, ActiveGraphID: b.activeGraphID, IDs: ids}
}
