package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bql/application/ports"
	"bql/domain/bql/relation"
)

func TestGetByName_ScopedToActiveGraphID(t *testing.T) {
	s := New()
	s.Seed("g1", ports.NodeRecord{Name: "Apple"})
	s.Seed("g2", ports.NodeRecord{Name: "Apple"})

	got, err := s.GetByName(context.Background(), "g1", "Apple")
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := s.GetByName(context.Background(), "g3", "Apple")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearch_IsCaseInsensitiveSubstring(t *testing.T) {
	s := New()
	s.Seed("g1", ports.NodeRecord{Name: "Apple Pie"})
	s.Seed("g1", ports.NodeRecord{Name: "Banana Split"})

	out, err := s.Search(context.Background(), "g1", "APPLE")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Apple Pie", out[0].Name)
}

func TestListTypes_OnlyReturnsTypeKindNodes(t *testing.T) {
	s := New()
	s.Seed("g1", ports.NodeRecord{Name: "Fruit", Kind: "type"})
	s.Seed("g1", ports.NodeRecord{Name: "Apple"})

	types, err := s.ListTypes(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Fruit", types[0].Name)
}

func TestNeighborhood_DirectionalRelationOnlyFromSource(t *testing.T) {
	s := New()
	a := s.Seed("g1", ports.NodeRecord{Name: "a"})
	b := s.Seed("g1", ports.NodeRecord{Name: "b"})
	s.SeedEdge("g1", ports.EdgeRecord{Relation: relation.Child, SourceID: a, TargetID: b})

	fromA, err := s.Neighborhood(context.Background(), "g1", a, []relation.Kind{relation.Child})
	require.NoError(t, err)
	require.Len(t, fromA, 1)
	assert.Equal(t, b, fromA[0].Node.ID)

	fromB, err := s.Neighborhood(context.Background(), "g1", b, []relation.Kind{relation.Child})
	require.NoError(t, err)
	assert.Empty(t, fromB)
}

func TestNeighborhood_SiblingIsSymmetric(t *testing.T) {
	s := New()
	a := s.Seed("g1", ports.NodeRecord{Name: "a"})
	b := s.Seed("g1", ports.NodeRecord{Name: "b"})
	s.SeedEdge("g1", ports.EdgeRecord{Relation: relation.Sibling, SourceID: a, TargetID: b})

	fromB, err := s.Neighborhood(context.Background(), "g1", b, []relation.Kind{relation.Sibling})
	require.NoError(t, err)
	require.Len(t, fromB, 1)
	assert.Equal(t, a, fromB[0].Node.ID)
}

func TestNeighborhood_FiltersByRequestedKinds(t *testing.T) {
	s := New()
	a := s.Seed("g1", ports.NodeRecord{Name: "a"})
	b := s.Seed("g1", ports.NodeRecord{Name: "b"})
	c := s.Seed("g1", ports.NodeRecord{Name: "c"})
	s.SeedEdge("g1", ports.EdgeRecord{Relation: relation.Child, SourceID: a, TargetID: b})
	s.SeedEdge("g1", ports.EdgeRecord{Relation: relation.Jump, SourceID: a, TargetID: c})

	out, err := s.Neighborhood(context.Background(), "g1", a, []relation.Kind{relation.Child})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, b, out[0].Node.ID)
}

func TestCreateNode_AssignsUUIDAndStoresFields(t *testing.T) {
	s := New()
	id, err := s.CreateNode(context.Background(), "g1", ports.NewNodeInput{Name: "Apple", Label: "fruit"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, _ := s.GetByName(context.Background(), "g1", "Apple")
	require.NotNil(t, got)
	assert.Equal(t, "fruit", got.Label)
}

func TestCreateEdge_UnknownEndpointIsNotFound(t *testing.T) {
	s := New()
	a := s.Seed("g1", ports.NodeRecord{Name: "a"})

	_, err := s.CreateEdge(context.Background(), "g1", a, relation.Child, "missing")
	assert.Error(t, err)
}

func TestCreateEdge_BothEndpointsExistSucceeds(t *testing.T) {
	s := New()
	a := s.Seed("g1", ports.NodeRecord{Name: "a"})
	b := s.Seed("g1", ports.NodeRecord{Name: "b"})

	id, err := s.CreateEdge(context.Background(), "g1", a, relation.Child, b)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestUpdateNode_NilValueClearsProperty(t *testing.T) {
	s := New()
	id := s.Seed("g1", ports.NodeRecord{Name: "Apple", Label: "fruit"})

	err := s.UpdateNode(context.Background(), "g1", id, "label", nil)
	require.NoError(t, err)

	got, _ := s.GetByName(context.Background(), "g1", "Apple")
	require.NotNil(t, got)
	assert.Empty(t, got.Label)
}

func TestUpdateNode_UnknownPropertyIsSemanticError(t *testing.T) {
	s := New()
	id := s.Seed("g1", ports.NodeRecord{Name: "Apple"})
	v := "x"

	err := s.UpdateNode(context.Background(), "g1", id, "bogus", &v)
	assert.Error(t, err)
}

func TestUpdateNode_UnknownNodeIsNotFound(t *testing.T) {
	s := New()
	v := "x"
	err := s.UpdateNode(context.Background(), "g1", "missing", "label", &v)
	assert.Error(t, err)
}

func TestUpdateType_ReplacesTypeID(t *testing.T) {
	s := New()
	typeID := s.Seed("g1", ports.NodeRecord{Name: "Fruit", Kind: "type"})
	id := s.Seed("g1", ports.NodeRecord{Name: "Apple"})

	err := s.UpdateType(context.Background(), "g1", id, typeID)
	require.NoError(t, err)

	got, _ := s.GetByName(context.Background(), "g1", "Apple")
	require.NotNil(t, got)
	assert.Equal(t, typeID, got.TypeID)
}

func TestDeleteNode_RemovesAndIsIdempotentlyNotFoundAfter(t *testing.T) {
	s := New()
	id := s.Seed("g1", ports.NodeRecord{Name: "Apple"})

	require.NoError(t, s.DeleteNode(context.Background(), "g1", id))
	assert.Error(t, s.DeleteNode(context.Background(), "g1", id))

	got, _ := s.GetByName(context.Background(), "g1", "Apple")
	assert.Nil(t, got)
}

func TestDeleteEdge_RemovesAndIsIdempotentlyNotFoundAfter(t *testing.T) {
	s := New()
	a := s.Seed("g1", ports.NodeRecord{Name: "a"})
	b := s.Seed("g1", ports.NodeRecord{Name: "b"})
	edgeID := s.SeedEdge("g1", ports.EdgeRecord{Relation: relation.Child, SourceID: a, TargetID: b})

	require.NoError(t, s.DeleteEdge(context.Background(), "g1", edgeID))
	assert.Error(t, s.DeleteEdge(context.Background(), "g1", edgeID))
}

func TestSeed_AssignsIDWhenEmptyButKeepsProvidedID(t *testing.T) {
	s := New()
	autoID := s.Seed("g1", ports.NodeRecord{Name: "auto"})
	assert.NotEmpty(t, autoID)

	fixedID := s.Seed("g1", ports.NodeRecord{ID: "fixed-1", Name: "fixed"})
	assert.Equal(t, "fixed-1", fixedID)
}
