package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Score_ExactMatchIsOne(t *testing.T) {
	s := NewScorer(DefaultConfig())
	assert.Equal(t, 1.0, s.Score("Apple", "Apple"))
}

func TestScorer_Score_CompletelyDifferentIsLow(t *testing.T) {
	s := NewScorer(DefaultConfig())
	score := s.Score("Apple", "Zyxwv")
	assert.Less(t, score, 0.5)
}

func TestScorer_Score_NeverNegative(t *testing.T) {
	s := NewScorer(DefaultConfig())
	score := s.Score("a", "completely unrelated string of text")
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestScorer_Score_BothEmptyIsOne(t *testing.T) {
	s := NewScorer(DefaultConfig())
	assert.Equal(t, 1.0, s.Score("", ""))
}

func TestNewScorer_ZeroConfigFallsBackToDefault(t *testing.T) {
	s := NewScorer(Config{})
	assert.Equal(t, DefaultConfig().MinScore, s.config.MinScore)
}

func TestScorer_Rank_DropsBelowMinScore(t *testing.T) {
	s := NewScorer(Config{MinScore: 0.9})
	candidates := []Candidate{
		{NodeID: "1", Name: "Apple"},
		{NodeID: "2", Name: "Zyxwv"},
	}
	ranked := s.Rank("Apple", candidates)
	assert.Len(t, ranked, 1)
	assert.Equal(t, "1", ranked[0].NodeID)
}

func TestScorer_Rank_SortsByDescendingScore(t *testing.T) {
	s := NewScorer(DefaultConfig())
	candidates := []Candidate{
		{NodeID: "far", Name: "Maple"},
		{NodeID: "exact", Name: "Apple"},
		{NodeID: "close", Name: "Apple"},
	}
	ranked := s.Rank("Apple", candidates)
	assert.Equal(t, "exact", ranked[0].NodeID)
	assert.Equal(t, "close", ranked[1].NodeID)
	assert.Equal(t, "far", ranked[2].NodeID)
}

func TestScorer_Rank_TiesKeepOriginalOrder(t *testing.T) {
	s := NewScorer(DefaultConfig())
	candidates := []Candidate{
		{NodeID: "a", Name: "Apply"},
		{NodeID: "b", Name: "Apply"},
	}
	ranked := s.Rank("Apple", candidates)
	require := assert.New(t)
	require.Len(ranked, 2)
	require.Equal("a", ranked[0].NodeID)
	require.Equal("b", ranked[1].NodeID)
}
