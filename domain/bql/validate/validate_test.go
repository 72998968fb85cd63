package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bql/domain/bql/ast"
	"bql/domain/bql/parser"
	apperrors "bql/pkg/errors"
)

func mustParse(t *testing.T, src string) *ast.Query {
	t.Helper()
	q, err := parser.Parse(src)
	require.NoError(t, err, src)
	return q
}

func semanticErr(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeSemantic, appErr.Type)
	return appErr
}

func TestValidate_BoundedHopWithinCapIsOK(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD*1..3]->(m) RETURN m`)
	assert.NoError(t, Validate(q, 5))
}

func TestValidate_BareWildcardHopIsRejected(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD*]->(m) RETURN m`)
	semanticErr(t, Validate(q, 5))
}

func TestValidate_UnboundedHopIsRejected(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD*2..]->(m) RETURN m`)
	semanticErr(t, Validate(q, 5))
}

func TestValidate_HopAboveConfiguredCapIsRejected(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD*1..4]->(m) RETURN m`)
	semanticErr(t, Validate(q, 3))
}

func TestValidate_ORWithinSingleVariableIsOK(t *testing.T) {
	q := mustParse(t, `MATCH (n) WHERE n.name = "A" OR n.name = "B" RETURN n`)
	assert.NoError(t, Validate(q, 5))
}

func TestValidate_ORAcrossVariablesIsRejected(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD]->(m) WHERE n.name = "A" OR m.name = "B" RETURN m`)
	semanticErr(t, Validate(q, 5))
}

func TestValidate_XORAcrossVariablesIsRejected(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD]->(m) WHERE n.name = "A" XOR m.name = "B" RETURN m`)
	semanticErr(t, Validate(q, 5))
}

func TestValidate_ANDAcrossVariablesIsOK(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD]->(m) WHERE n.name = "A" AND m.name = "B" RETURN m`)
	assert.NoError(t, Validate(q, 5))
}

func TestValidate_SoleIsNullDriverIsRejected(t *testing.T) {
	q := mustParse(t, `MATCH (n) WHERE n.label IS NULL RETURN n`)
	semanticErr(t, Validate(q, 5))
}

func TestValidate_IsNullAlongsideNameCompareIsOK(t *testing.T) {
	q := mustParse(t, `MATCH (n) WHERE n.name = "Apple" AND n.label IS NULL RETURN n`)
	assert.NoError(t, Validate(q, 5))
}

func TestValidate_IsNullOnDownstreamVariableIsOK(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"})-[:CHILD]->(m) WHERE m.label IS NULL RETURN m`)
	assert.NoError(t, Validate(q, 5))
}

func TestValidate_NegatedNameCompareDoesNotSatisfyIsNullDriver(t *testing.T) {
	q := mustParse(t, `MATCH (n) WHERE NOT n.name = "Apple" AND n.label IS NULL RETURN n`)
	semanticErr(t, Validate(q, 5))
}

func TestValidate_ConflictingSetTypeAssignsAreRejected(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"}) SET n:Fruit`)
	q.Match.Set = append(q.Match.Set, q.Match.Set[0])
	semanticErr(t, Validate(q, 5))
}

func TestValidate_SingleSetTypeAssignIsOK(t *testing.T) {
	q := mustParse(t, `MATCH (n {name: "Apple"}) SET n:Fruit`)
	assert.NoError(t, Validate(q, 5))
}
