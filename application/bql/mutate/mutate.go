// Package mutate implements the mutation executor (§4.8): CREATE, SET,
// MERGE (with ON CREATE/ON MATCH), and DELETE (preview + confirm), each
// under its batch cap. Grounded on the teacher's
// application/commands/handlers/{create_node,delete_node}_handler.go
// validate-then-call-port-then-report shape.
package mutate

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bql/application/bql/binding"
	"bql/application/ports"
	"bql/domain/bql/ast"
	apperrors "bql/pkg/errors"
	"bql/pkg/observability"
)

// errUnderConstrainedEndpoint signals a CREATE pattern node that reuses an
// already-MATCH-bound variable whose candidate set came back empty (a failed
// name lookup) — not a hard error, per spec.md scenario 6: the pattern is
// skipped and a warning is recorded instead.
var errUnderConstrainedEndpoint = errors.New("under-constrained endpoint")

// Report is the outcome of a CREATE, SET, MERGE, or confirmed DELETE
// mutation (§6 Result).
type Report struct {
	Created  []string
	Updated  []string
	Deleted  []string
	Warnings []string
}

// Preview is the outcome of a DELETE query run without confirm=true.
type Preview struct {
	WouldDeleteNodes []string
	WouldDeleteEdges []string
}

// Executor drives mutations against a GraphService.
type Executor struct {
	svc            ports.GraphService
	maxSetBatch    int
	maxDeleteBatch int
	publisher      ports.EventPublisher
	logger         *zap.Logger
	metrics        *observability.Metrics
}

// NewExecutor builds an Executor with the engine's current resource caps.
// publisher and logger may both be nil, in which case mutation auditing is
// skipped entirely (the default for cmd/bqlcli's local trial backend).
func NewExecutor(svc ports.GraphService, maxSetBatch, maxDeleteBatch int, publisher ports.EventPublisher, logger *zap.Logger) *Executor {
	return &Executor{svc: svc, maxSetBatch: maxSetBatch, maxDeleteBatch: maxDeleteBatch, publisher: publisher, logger: logger}
}

// WithMetrics attaches a Prometheus metrics tracker, returning the same
// Executor for chaining at construction time.
func (e *Executor) WithMetrics(m *observability.Metrics) *Executor {
	e.metrics = m
	return e
}

// publish audits one applied mutation, best-effort: a failed or absent
// publisher never fails the mutation it describes (ports.EventPublisher's
// own contract).
func (e *Executor) publish(ctx context.Context, queryText, operation, nodeID, edgeID string, confirmed bool) {
	if e.metrics != nil {
		e.metrics.RecordMutation(operation)
	}
	if e.publisher == nil {
		return
	}
	event := ports.MutationEvent{
		QueryText: queryText,
		Operation: operation,
		NodeID:    nodeID,
		EdgeID:    edgeID,
		Confirmed: confirmed,
	}
	if err := e.publisher.PublishMutation(ctx, event); err != nil && e.logger != nil {
		e.logger.Warn("mutation audit publish failed", zap.String("operation", operation), zap.Error(err))
	}
}

// createdNode is the minimal record tracked for a node this mutation just
// created, so later patterns in the same query can reference it as a
// source/target without a round-trip lookup.
type createdNode struct {
	id     string
	name   string
	typeID string
}

// ExecuteCreate runs every CREATE pattern in order (§4.8 CREATE). binding
// supplies already-resolved MATCH endpoints; newly introduced variables are
// created and folded into binding for any later pattern that reuses them.
func (e *Executor) ExecuteCreate(ctx context.Context, activeGraphID, queryText string, patterns []ast.Pattern, binding *binding.Binding) (*Report, error) {
	report := &Report{}
	created := make(map[string]createdNode)

	for _, pat := range patterns {
		ids := make([]string, len(pat.Nodes))
		underConstrained := false
		for i, n := range pat.Nodes {
			id, isNew, err := e.resolveOrCreateNode(ctx, activeGraphID, n, binding, created)
			if err != nil {
				if errors.Is(err, errUnderConstrainedEndpoint) {
					report.Warnings = append(report.Warnings, "pattern variable "+n.Variable+" is an under-constrained endpoint; pattern skipped")
					underConstrained = true
					break
				}
				return report, err
			}
			ids[i] = id
			if isNew {
				report.Created = append(report.Created, id)
				e.publish(ctx, queryText, "create_node", id, "", true)
			}
		}
		if underConstrained {
			continue
		}

		for i, rel := range pat.Rels {
			kinds := rel.Set.Expand()
			if len(kinds) != 1 {
				return report, apperrors.NewSemantic("write relationship pattern must resolve to exactly one relation kind")
			}
			edgeID, err := e.svc.CreateEdge(ctx, activeGraphID, ids[i], kinds[0], ids[i+1])
			if err != nil {
				return report, apperrors.NewService("create-edge failed", err, len(report.Created) > 0)
			}
			report.Created = append(report.Created, edgeID)
			e.publish(ctx, queryText, "create_edge", "", edgeID, true)
		}
	}

	return report, nil
}

func (e *Executor) resolveOrCreateNode(ctx context.Context, activeGraphID string, n ast.NodePattern, binding *binding.Binding, created map[string]createdNode) (string, bool, error) {
	if c, ok := created[n.Variable]; ok {
		return c.id, false, nil
	}
	if cands, ok := binding.Candidates[n.Variable]; ok {
		if len(cands) > 0 {
			return cands[0].ID, false, nil
		}
		return "", false, errUnderConstrainedEndpoint
	}

	if n.NameConstraint == nil {
		return "", false, apperrors.NewResolution("new node pattern " + n.Variable + " requires a {name: \"...\"} constraint")
	}

	var typeID string
	if n.TypeLabel != "" {
		id, err := e.resolveTypeID(ctx, activeGraphID, n.TypeLabel)
		if err != nil {
			return "", false, err
		}
		typeID = id
	}

	id, err := e.svc.CreateNode(ctx, activeGraphID, ports.NewNodeInput{Name: *n.NameConstraint, TypeID: typeID})
	if err != nil {
		return "", false, apperrors.NewService("create-node failed", err, false)
	}

	created[n.Variable] = createdNode{id: id, name: *n.NameConstraint, typeID: typeID}
	binding.Candidates[n.Variable] = []ports.NodeRecord{{ID: id, Name: *n.NameConstraint, TypeID: typeID}}
	return id, true, nil
}

func (e *Executor) resolveTypeID(ctx context.Context, activeGraphID, typeLabel string) (string, error) {
	types, err := e.svc.ListTypes(ctx, activeGraphID)
	if err != nil {
		return "", apperrors.NewService("list-types failed", err, false)
	}
	for _, t := range types {
		if t.Name == typeLabel {
			return t.ID, nil
		}
	}
	return "", apperrors.NewResolution("referenced type label " + typeLabel + " does not exist")
}

// ExecuteSet applies a SET clause to every already-bound candidate of every
// referenced variable (§4.8 SET), one update call per property.
func (e *Executor) ExecuteSet(ctx context.Context, activeGraphID, queryText string, items []ast.SetItem, binding *binding.Binding) (*Report, error) {
	report := &Report{}

	byVar := make(map[string][]ast.SetItem)
	var order []string
	for _, it := range items {
		v := setItemVar(it)
		if _, seen := byVar[v]; !seen {
			order = append(order, v)
		}
		byVar[v] = append(byVar[v], it)
	}

	for _, v := range order {
		candidates := binding.Candidates[v]
		if len(candidates) > e.maxSetBatch {
			return report, apperrors.NewLimitExceeded("SET touches more than the configured batch cap for variable " + v)
		}
		for _, node := range candidates {
			for _, it := range byVar[v] {
				if err := e.applySetItem(ctx, activeGraphID, node.ID, it); err != nil {
					return report, apperrors.NewService("SET failed for "+v, err, len(report.Updated) > 0)
				}
				report.Updated = append(report.Updated, node.ID)
				op := "update_node"
				if _, ok := it.(ast.TypeAssign); ok {
					op = "update_type"
				}
				e.publish(ctx, queryText, op, node.ID, "", true)
			}
		}
	}

	return report, nil
}

func setItemVar(it ast.SetItem) string {
	switch s := it.(type) {
	case ast.PropertyAssign:
		return s.Var
	case ast.TypeAssign:
		return s.Var
	default:
		return ""
	}
}

func (e *Executor) applySetItem(ctx context.Context, activeGraphID, nodeID string, it ast.SetItem) error {
	switch s := it.(type) {
	case ast.PropertyAssign:
		return e.svc.UpdateNode(ctx, activeGraphID, nodeID, s.Property, s.Value)
	case ast.TypeAssign:
		typeID, err := e.resolveTypeID(ctx, activeGraphID, s.TypeLabel)
		if err != nil {
			return err
		}
		return e.svc.UpdateType(ctx, activeGraphID, nodeID, typeID)
	default:
		return nil
	}
}

// ExecuteMerge runs a MERGE clause: attempt-lookup-else-create per node
// pattern, then ON CREATE SET / ON MATCH SET routed by what actually
// happened to each variable (§4.8 MERGE).
func (e *Executor) ExecuteMerge(ctx context.Context, activeGraphID, queryText string, merge *ast.MergePart, binding *binding.Binding) (*Report, error) {
	report := &Report{}
	created := make(map[string]createdNode)
	status := make(map[string]string) // "created" | "matched"

	for _, pat := range merge.Patterns {
		ids := make([]string, len(pat.Nodes))
		for i, n := range pat.Nodes {
			id, st, err := e.mergeNode(ctx, activeGraphID, n, binding, created, report)
			if err != nil {
				return report, err
			}
			ids[i] = id
			status[n.Variable] = st
			if st == "created" {
				e.publish(ctx, queryText, "create_node", id, "", true)
			}
		}

		for i, rel := range pat.Rels {
			kinds := rel.Set.Expand()
			if len(kinds) != 1 {
				return report, apperrors.NewSemantic("write relationship pattern must resolve to exactly one relation kind")
			}
			edgeID, err := e.svc.CreateEdge(ctx, activeGraphID, ids[i], kinds[0], ids[i+1])
			if err != nil {
				return report, apperrors.NewService("create-edge failed", err, len(report.Created) > 0)
			}
			report.Created = append(report.Created, edgeID)
			e.publish(ctx, queryText, "create_edge", "", edgeID, true)
		}
	}

	if err := e.applyRoutedSet(ctx, activeGraphID, merge.OnCreate, "created", status, binding); err != nil {
		return report, err
	}
	if err := e.applyRoutedSet(ctx, activeGraphID, merge.OnMatch, "matched", status, binding); err != nil {
		return report, err
	}

	return report, nil
}

func (e *Executor) mergeNode(ctx context.Context, activeGraphID string, n ast.NodePattern, binding *binding.Binding, created map[string]createdNode, report *Report) (string, string, error) {
	if c, ok := created[n.Variable]; ok {
		return c.id, "created", nil
	}
	if cands, ok := binding.Candidates[n.Variable]; ok && len(cands) > 0 {
		return cands[0].ID, "matched", nil
	}
	if n.NameConstraint == nil {
		return "", "", apperrors.NewResolution("MERGE node pattern " + n.Variable + " requires a {name: \"...\"} constraint or a prior binding")
	}

	name := *n.NameConstraint
	var typeID string
	if n.TypeLabel != "" {
		id, err := e.resolveTypeID(ctx, activeGraphID, n.TypeLabel)
		if err != nil {
			return "", "", err
		}
		typeID = id
	}

	node, err := e.svc.GetByName(ctx, activeGraphID, name)
	if err != nil {
		return "", "", apperrors.NewService("get-by-name failed during MERGE", err, false)
	}
	if node != nil {
		binding.Candidates[n.Variable] = []ports.NodeRecord{*node}
		return node.ID, "matched", nil
	}

	id, err := e.svc.CreateNode(ctx, activeGraphID, ports.NewNodeInput{Name: name, TypeID: typeID})
	if err != nil {
		return "", "", apperrors.NewService("create-node failed during MERGE", err, false)
	}
	created[n.Variable] = createdNode{id: id, name: name, typeID: typeID}
	binding.Candidates[n.Variable] = []ports.NodeRecord{{ID: id, Name: name, TypeID: typeID}}
	report.Created = append(report.Created, id)
	return id, "created", nil
}

func (e *Executor) applyRoutedSet(ctx context.Context, activeGraphID string, items []ast.SetItem, wantStatus string, status map[string]string, binding *binding.Binding) error {
	for _, it := range items {
		v := setItemVar(it)
		if status[v] != wantStatus {
			continue
		}
		cands := binding.Candidates[v]
		if len(cands) == 0 {
			continue
		}
		if err := e.applySetItem(ctx, activeGraphID, cands[0].ID, it); err != nil {
			return apperrors.NewService("ON "+wantStatus+" SET failed for "+v, err, false)
		}
	}
	return nil
}

// ExecuteDelete computes the DELETE target set and either previews it or,
// when confirm is true, applies it (§4.8 DELETE, §3 invariant 6).
func (e *Executor) ExecuteDelete(ctx context.Context, activeGraphID, queryText string, del *ast.DeletePart, binding *binding.Binding, confirm bool) (*Preview, *Report, error) {
	var nodeIDs, edgeIDs []string
	seenNodes := make(map[string]bool)
	seenEdges := make(map[string]bool)

	for _, v := range del.Vars {
		if cands, ok := binding.Candidates[v]; ok {
			for _, c := range cands {
				if !seenNodes[c.ID] {
					seenNodes[c.ID] = true
					nodeIDs = append(nodeIDs, c.ID)
				}
			}
			continue
		}
		if edges, ok := binding.Edges[v]; ok {
			for _, ed := range edges {
				if !seenEdges[ed.ID] {
					seenEdges[ed.ID] = true
					edgeIDs = append(edgeIDs, ed.ID)
				}
			}
		}
	}

	if len(nodeIDs)+len(edgeIDs) > e.maxDeleteBatch {
		return nil, nil, apperrors.NewLimitExceeded("DELETE touches more than the configured batch cap")
	}

	if !confirm {
		return &Preview{WouldDeleteNodes: nodeIDs, WouldDeleteEdges: edgeIDs}, nil, nil
	}

	report := &Report{}
	for _, id := range edgeIDs {
		if err := e.svc.DeleteEdge(ctx, activeGraphID, id); err != nil {
			return nil, report, apperrors.NewService("delete-edge failed", err, len(report.Deleted) > 0)
		}
		report.Deleted = append(report.Deleted, id)
		e.publish(ctx, queryText, "delete_edge", "", id, true)
	}
	for _, id := range nodeIDs {
		if err := e.svc.DeleteNode(ctx, activeGraphID, id); err != nil {
			return nil, report, apperrors.NewService("delete-node failed", err, len(report.Deleted) > 0)
		}
		report.Deleted = append(report.Deleted, id)
		e.publish(ctx, queryText, "delete_node", id, "", true)
	}

	return nil, report, nil
}
