package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bql/domain/bql/parser"
)

func TestBuild_InlineNameConstraintDrivesStrategyName(t *testing.T) {
	q, err := parser.Parse(`MATCH (n {name: "Apple"}) RETURN n`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	vp := p.Vars["n"]
	assert.Equal(t, StrategyName, vp.Strategy)
	assert.Equal(t, "Apple", vp.NameLiteral)
}

func TestBuild_WhereEqDrivesStrategyName(t *testing.T) {
	q, err := parser.Parse(`MATCH (n) WHERE n.name = "Apple" RETURN n`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	assert.Equal(t, StrategyName, p.Vars["n"].Strategy)
}

func TestBuild_WhereFuzzyDrivesStrategyFuzzy(t *testing.T) {
	q, err := parser.Parse(`MATCH (n) WHERE n.name =~ "appl" RETURN n`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	assert.Equal(t, StrategyFuzzy, p.Vars["n"].Strategy)
}

func TestBuild_WhereContainsDrivesStrategySearch(t *testing.T) {
	q, err := parser.Parse(`MATCH (n) WHERE n.name CONTAINS "app" RETURN n`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	assert.Equal(t, StrategySearch, p.Vars["n"].Strategy)
}

func TestBuild_TypeLabelOnlyDrivesStrategyType(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Fruit) RETURN n`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	assert.Equal(t, StrategyType, p.Vars["n"].Strategy)
}

func TestBuild_DownstreamVariableDrivesStrategyTraversal(t *testing.T) {
	q, err := parser.Parse(`MATCH (n {name: "Apple"})-[:CHILD]->(m) RETURN m`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	assert.Equal(t, StrategyTraversal, p.Vars["m"].Strategy)
	assert.True(t, p.Vars["m"].IsDownstream)
}

func TestBuild_UnderConstrainedVariableIsResolutionError(t *testing.T) {
	q, err := parser.Parse(`MATCH (n) RETURN n`)
	require.NoError(t, err)
	_, err = Build(q)
	assert.Error(t, err)
}

func TestBuild_StandaloneNegatedNameCompareIsResolutionError(t *testing.T) {
	q, err := parser.Parse(`MATCH (n) WHERE NOT n.name = "Apple" RETURN n`)
	require.NoError(t, err)
	_, err = Build(q)
	assert.Error(t, err)
}

func TestBuild_OrderMatchesLeftToRightPatternOrder(t *testing.T) {
	q, err := parser.Parse(`MATCH (n {name: "Apple"})-[:CHILD]->(m)-[:JUMP]->(o) RETURN o`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "m", "o"}, p.Order)
}

func TestBuild_PostFiltersAreRoutedPerVariable(t *testing.T) {
	q, err := parser.Parse(`MATCH (n {name: "Apple"})-[:CHILD]->(m) WHERE n.label IS NOT NULL AND m.label IS NOT NULL RETURN m`)
	require.NoError(t, err)
	p, err := Build(q)
	require.NoError(t, err)
	assert.Len(t, p.Vars["n"].PostFilters, 1)
	assert.Len(t, p.Vars["m"].PostFilters, 1)
}
