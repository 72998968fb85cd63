// Package similarity ranks candidate node names by how closely they match a
// query string, backing the `=~` fuzzy fallback of §4.4/§4.7: exact name
// match first, then full-text search with similarity ranking over the
// search hits. Grounded on the teacher's
// domain/services/similarity_calculator.go (SimilarityCalculator,
// SimilarityConfig, pluggable algorithm), generalized from set-overlap
// keyword/tag similarity to an edit-distance score over a single name
// string, since BQL's `=~` compares names, not node content.
package similarity

import "github.com/agnivade/levenshtein"

// Config configures the ranking. MinScore discards candidates whose score
// falls below it before ranking, the way the teacher's MinWordLength trims
// noise before scoring.
type Config struct {
	MinScore float64 // 0.0 to 1.0; candidates scoring below this are dropped
}

// DefaultConfig matches the teacher's DefaultSimilarityConfig posture: a
// permissive floor that still filters out wildly dissimilar names.
func DefaultConfig() Config {
	return Config{MinScore: 0.2}
}

// Scorer ranks candidate names against a query name using normalized
// Levenshtein edit distance.
type Scorer struct {
	config Config
}

// NewScorer builds a Scorer. A zero Config uses DefaultConfig.
func NewScorer(config Config) *Scorer {
	if config.MinScore == 0 {
		config = DefaultConfig()
	}
	return &Scorer{config: config}
}

// Score returns the similarity of query to candidate in [0.0, 1.0]: 1.0 for
// an exact match, decaying with edit distance relative to the longer
// string's length.
func (s *Scorer) Score(query, candidate string) float64 {
	if query == candidate {
		return 1.0
	}
	maxLen := len(query)
	if len(candidate) > maxLen {
		maxLen = len(candidate)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(query, candidate)
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		score = 0
	}
	return score
}

// Ranked is one scored candidate, keeping its original position for the
// stable tie-break §4.4 invariant 3 requires.
type Ranked struct {
	NodeID   string
	Name     string
	Score    float64
	original int
}

// Rank scores every candidate against query, drops those under the
// configured MinScore, and returns the survivors sorted by descending
// score; ties keep their original relative order (§4.4: "stable sort by a
// name-similarity score... ties broken by original order").
func (s *Scorer) Rank(query string, candidates []Candidate) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for i, c := range candidates {
		score := s.Score(query, c.Name)
		if score < s.config.MinScore {
			continue
		}
		ranked = append(ranked, Ranked{NodeID: c.NodeID, Name: c.Name, Score: score, original: i})
	}

	// Insertion sort: candidate lists here are search-page-capped (small),
	// and stability matters more than asymptotic cost.
	for i := 1; i < len(ranked); i++ {
		j := i
		for j > 0 && less(ranked[j], ranked[j-1]) {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
			j--
		}
	}

	return ranked
}

func less(a, b Ranked) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.original < b.original
}

// Candidate is one node eligible for fuzzy ranking: its ID and its name.
type Candidate struct {
	NodeID string
	Name   string
}
