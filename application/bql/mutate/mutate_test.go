package mutate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bql/application/bql/binding"
	"bql/application/ports"
	"bql/domain/bql/ast"
	"bql/domain/bql/relation"
	"bql/infrastructure/persistence/memory"
	apperrors "bql/pkg/errors"
)

func strPtr(s string) *string { return &s }

func newExecutor(store *memory.Store) *Executor {
	return NewExecutor(store, 10, 10, nil, nil)
}

func TestExecuteCreate_NewNodeWithNameConstraint(t *testing.T) {
	store := memory.New()
	e := newExecutor(store)
	b := binding.New()
	patterns := []ast.Pattern{{Nodes: []ast.NodePattern{{Variable: "n", NameConstraint: strPtr("Apple")}}}}

	report, err := e.ExecuteCreate(context.Background(), "g1", "CREATE (n {name: \"Apple\"})", patterns, b)
	require.NoError(t, err)
	require.Len(t, report.Created, 1)

	got, _ := store.GetByName(context.Background(), "g1", "Apple")
	require.NotNil(t, got)
	assert.Equal(t, report.Created[0], got.ID)
}

func TestExecuteCreate_MissingNameConstraintIsResolutionError(t *testing.T) {
	store := memory.New()
	e := newExecutor(store)
	b := binding.New()
	patterns := []ast.Pattern{{Nodes: []ast.NodePattern{{Variable: "n"}}}}

	_, err := e.ExecuteCreate(context.Background(), "g1", "CREATE (n)", patterns, b)
	assert.Error(t, err)
}

func TestExecuteCreate_EdgeBetweenBoundAndNewNode(t *testing.T) {
	store := memory.New()
	existingID := store.Seed("g1", ports.NodeRecord{Name: "Existing"})
	e := newExecutor(store)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: existingID, Name: "Existing"}}

	patterns := []ast.Pattern{{
		Nodes: []ast.NodePattern{{Variable: "n"}, {Variable: "m", NameConstraint: strPtr("New")}},
		Rels:  []ast.RelationshipPattern{{Set: ast.RelationSet{Kinds: []relation.Kind{relation.Child}}}},
	}}

	report, err := e.ExecuteCreate(context.Background(), "g1", "", patterns, b)
	require.NoError(t, err)
	// One new node + one new edge.
	assert.Len(t, report.Created, 2)
}

func TestExecuteCreate_AmbiguousRelationSetIsSemanticError(t *testing.T) {
	store := memory.New()
	existingID := store.Seed("g1", ports.NodeRecord{Name: "Existing"})
	e := newExecutor(store)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: existingID}}

	patterns := []ast.Pattern{{
		Nodes: []ast.NodePattern{{Variable: "n"}, {Variable: "m", NameConstraint: strPtr("New")}},
		Rels:  []ast.RelationshipPattern{{Set: ast.RelationSet{Wildcard: true}}},
	}}

	_, err := e.ExecuteCreate(context.Background(), "g1", "", patterns, b)
	assert.Error(t, err)
}

func TestExecuteCreate_EmptyMatchBoundEndpointWarnsInsteadOfErroring(t *testing.T) {
	store := memory.New()
	e := newExecutor(store)
	b := binding.New()
	// "n" and "m" are MATCH-bound variables whose name lookups both came
	// back empty — present in Candidates, but with zero entries.
	b.Candidates["n"] = []ports.NodeRecord{}
	b.Candidates["m"] = []ports.NodeRecord{}

	patterns := []ast.Pattern{{
		Nodes: []ast.NodePattern{{Variable: "n"}, {Variable: "m"}},
		Rels:  []ast.RelationshipPattern{{Set: ast.RelationSet{Kinds: []relation.Kind{relation.Jump}}}},
	}}

	report, err := e.ExecuteCreate(context.Background(), "g1", "CREATE (n)-[:JUMP]->(m)", patterns, b)
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "under-constrained endpoint")
}

func TestExecuteSet_UpdatesEveryCandidate(t *testing.T) {
	store := memory.New()
	id1 := store.Seed("g1", ports.NodeRecord{Name: "Apple"})
	id2 := store.Seed("g1", ports.NodeRecord{Name: "Avocado"})
	e := newExecutor(store)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: id1}, {ID: id2}}

	items := []ast.SetItem{ast.PropertyAssign{Var: "n", Property: "label", Value: strPtr("fruit")}}
	report, err := e.ExecuteSet(context.Background(), "g1", "", items, b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{id1, id2}, report.Updated)
}

func TestExecuteSet_OverBatchCapIsLimitExceeded(t *testing.T) {
	store := memory.New()
	e := NewExecutor(store, 1, 10, nil, nil)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: "a"}, {ID: "b"}}

	items := []ast.SetItem{ast.PropertyAssign{Var: "n", Property: "label", Value: strPtr("x")}}
	_, err := e.ExecuteSet(context.Background(), "g1", "", items, b)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeLimitExceeded, appErr.Type)
}

func TestExecuteSet_NilValueClearsProperty(t *testing.T) {
	store := memory.New()
	id := store.Seed("g1", ports.NodeRecord{Name: "Apple", Label: "fruit"})
	e := newExecutor(store)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: id}}

	items := []ast.SetItem{ast.PropertyAssign{Var: "n", Property: "label", Value: nil}}
	_, err := e.ExecuteSet(context.Background(), "g1", "", items, b)
	require.NoError(t, err)

	got, _ := store.GetByName(context.Background(), "g1", "Apple")
	require.NotNil(t, got)
	assert.Empty(t, got.Label)
}

func TestExecuteMerge_CreatesWhenNoMatch(t *testing.T) {
	store := memory.New()
	e := newExecutor(store)
	b := binding.New()
	merge := &ast.MergePart{Patterns: []ast.Pattern{{Nodes: []ast.NodePattern{{Variable: "n", NameConstraint: strPtr("Apple")}}}}}

	report, err := e.ExecuteMerge(context.Background(), "g1", "", merge, b)
	require.NoError(t, err)
	assert.Len(t, report.Created, 1)
}

func TestExecuteMerge_MatchesExistingByName(t *testing.T) {
	store := memory.New()
	id := store.Seed("g1", ports.NodeRecord{Name: "Apple"})
	e := newExecutor(store)
	b := binding.New()
	merge := &ast.MergePart{Patterns: []ast.Pattern{{Nodes: []ast.NodePattern{{Variable: "n", NameConstraint: strPtr("Apple")}}}}}

	report, err := e.ExecuteMerge(context.Background(), "g1", "", merge, b)
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Equal(t, id, b.Candidates["n"][0].ID)
}

func TestExecuteMerge_OnCreateSetOnlyAppliesToCreated(t *testing.T) {
	store := memory.New()
	e := newExecutor(store)
	b := binding.New()
	merge := &ast.MergePart{
		Patterns: []ast.Pattern{{Nodes: []ast.NodePattern{{Variable: "n", NameConstraint: strPtr("Apple")}}}},
		OnCreate: []ast.SetItem{ast.PropertyAssign{Var: "n", Property: "label", Value: strPtr("fresh")}},
	}

	_, err := e.ExecuteMerge(context.Background(), "g1", "", merge, b)
	require.NoError(t, err)

	node, _ := store.GetByName(context.Background(), "g1", "Apple")
	require.NotNil(t, node)
	assert.Equal(t, "fresh", node.Label)
}

func TestExecuteMerge_OnMatchSetOnlyAppliesToMatched(t *testing.T) {
	store := memory.New()
	store.Seed("g1", ports.NodeRecord{Name: "Apple", Label: "old"})
	e := newExecutor(store)
	b := binding.New()
	merge := &ast.MergePart{
		Patterns: []ast.Pattern{{Nodes: []ast.NodePattern{{Variable: "n", NameConstraint: strPtr("Apple")}}}},
		OnMatch:  []ast.SetItem{ast.PropertyAssign{Var: "n", Property: "label", Value: strPtr("seen-again")}},
	}

	_, err := e.ExecuteMerge(context.Background(), "g1", "", merge, b)
	require.NoError(t, err)

	node, _ := store.GetByName(context.Background(), "g1", "Apple")
	require.NotNil(t, node)
	assert.Equal(t, "seen-again", node.Label)
}

func TestExecuteDelete_WithoutConfirmReturnsPreviewOnly(t *testing.T) {
	store := memory.New()
	id := store.Seed("g1", ports.NodeRecord{Name: "Apple"})
	e := newExecutor(store)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: id}}
	del := &ast.DeletePart{Vars: []string{"n"}}

	preview, report, err := e.ExecuteDelete(context.Background(), "g1", "", del, b, false)
	require.NoError(t, err)
	require.NotNil(t, preview)
	assert.Nil(t, report)
	assert.Equal(t, []string{id}, preview.WouldDeleteNodes)

	still, _ := store.GetByName(context.Background(), "g1", "Apple")
	assert.NotNil(t, still)
}

func TestExecuteDelete_WithConfirmActuallyDeletes(t *testing.T) {
	store := memory.New()
	id := store.Seed("g1", ports.NodeRecord{Name: "Apple"})
	e := newExecutor(store)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: id}}
	del := &ast.DeletePart{Vars: []string{"n"}, Detach: true}

	preview, report, err := e.ExecuteDelete(context.Background(), "g1", "", del, b, true)
	require.NoError(t, err)
	assert.Nil(t, preview)
	require.NotNil(t, report)
	assert.Equal(t, []string{id}, report.Deleted)

	gone, _ := store.GetByName(context.Background(), "g1", "Apple")
	assert.Nil(t, gone)
}

func TestExecuteDelete_OverBatchCapIsLimitExceeded(t *testing.T) {
	store := memory.New()
	e := NewExecutor(store, 10, 1, nil, nil)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: "a"}, {ID: "b"}}
	del := &ast.DeletePart{Vars: []string{"n"}}

	_, _, err := e.ExecuteDelete(context.Background(), "g1", "", del, b, true)
	assert.Error(t, err)
}

func TestExecuteDelete_EdgesDeletedBeforeNodes(t *testing.T) {
	store := memory.New()
	srcID := store.Seed("g1", ports.NodeRecord{Name: "Source"})
	tgtID := store.Seed("g1", ports.NodeRecord{Name: "Target"})
	edgeID := store.SeedEdge("g1", ports.EdgeRecord{Relation: relation.Child, SourceID: srcID, TargetID: tgtID})

	e := newExecutor(store)
	b := binding.New()
	b.Candidates["n"] = []ports.NodeRecord{{ID: srcID}, {ID: tgtID}}
	b.Edges["r"] = []ports.EdgeRecord{{ID: edgeID, SourceID: srcID, TargetID: tgtID}}
	del := &ast.DeletePart{Vars: []string{"n", "r"}}

	_, report, err := e.ExecuteDelete(context.Background(), "g1", "", del, b, true)
	require.NoError(t, err)
	require.Len(t, report.Deleted, 3)
	assert.Equal(t, edgeID, report.Deleted[0])
}
