package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_ExactMatch(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.ExactMatch("acme", "acme"))
	assert.Equal(t, 0.0, s.ExactMatch("acme", "acme inc"))
	assert.Equal(t, 0.0, s.ExactMatch("", ""))
}

func TestScorer_JaroWinkler(t *testing.T) {
	s := NewScorer()

	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, s.JaroWinkler("martha", "martha"))
	})

	t.Run("similar strings score high", func(t *testing.T) {
		score := s.JaroWinkler("martha", "marhta")
		assert.Greater(t, score, 0.9)
		assert.Less(t, score, 1.0)
	})

	t.Run("dissimilar strings score low", func(t *testing.T) {
		assert.Less(t, s.JaroWinkler("abc", "xyz"), 0.1)
	})

	t.Run("prefix boost", func(t *testing.T) {
		// Shared prefix pulls the score above plain Jaro.
		assert.Greater(t, s.JaroWinkler("prefixed", "prefixes"), s.Jaro("prefixed", "prefixes"))
	})
}

func TestScorer_Levenshtein(t *testing.T) {
	s := NewScorer()

	t.Run("distance", func(t *testing.T) {
		assert.Equal(t, 0, s.LevenshteinDistance("kitten", "kitten"))
		assert.Equal(t, 3, s.LevenshteinDistance("kitten", "sitting"))
		assert.Equal(t, 5, s.LevenshteinDistance("", "acmes"))
	})

	t.Run("normalized similarity", func(t *testing.T) {
		assert.Equal(t, 1.0, s.Levenshtein("", ""))
		assert.InDelta(t, 1.0-3.0/7.0, s.Levenshtein("kitten", "sitting"), 1e-9)
	})
}

func TestScorer_TokenSort(t *testing.T) {
	s := NewScorer()

	t.Run("word order does not matter", func(t *testing.T) {
		assert.Equal(t, 1.0, s.TokenSort("acme inc", "inc acme"))
	})

	t.Run("different tokens still penalized", func(t *testing.T) {
		assert.Less(t, s.TokenSort("acme inc", "globex inc"), 1.0)
	})
}

func TestScorer_Phonetic(t *testing.T) {
	s := NewScorer()

	t.Run("homophones match", func(t *testing.T) {
		assert.Equal(t, 1.0, s.Phonetic("smith", "smyth"))
		assert.Equal(t, 1.0, s.Phonetic("catherine", "katherine"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, 0.0, s.Phonetic("", "smith"))
	})

	t.Run("different names diverge", func(t *testing.T) {
		assert.Less(t, s.Phonetic("smith", "jones"), 1.0)
	})
}

func TestScorer_Metaphone(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, s.Metaphone("Smith"), s.Metaphone("smyth"))
	assert.Equal(t, "", s.Metaphone(""))
	assert.Equal(t, "", s.Metaphone("123"))
	assert.NotEmpty(t, s.Metaphone("O'Brien"))
}

// Every comparator must be symmetric; pair ordering in the ledger relies on it.
func TestScorer_Symmetry(t *testing.T) {
	s := NewScorer()

	pairs := [][2]string{
		{"acme corporation", "acme corp"},
		{"martha", "marhta"},
		{"smith", "smyth"},
		{"kitten", "sitting"},
		{"", "acme"},
	}

	for _, p := range pairs {
		assert.Equal(t, s.Jaro(p[0], p[1]), s.Jaro(p[1], p[0]), "Jaro(%q, %q)", p[0], p[1])
		assert.Equal(t, s.JaroWinkler(p[0], p[1]), s.JaroWinkler(p[1], p[0]), "JaroWinkler(%q, %q)", p[0], p[1])
		assert.Equal(t, s.Levenshtein(p[0], p[1]), s.Levenshtein(p[1], p[0]), "Levenshtein(%q, %q)", p[0], p[1])
		assert.Equal(t, s.TokenSort(p[0], p[1]), s.TokenSort(p[1], p[0]), "TokenSort(%q, %q)", p[0], p[1])
		assert.Equal(t, s.Phonetic(p[0], p[1]), s.Phonetic(p[1], p[0]), "Phonetic(%q, %q)", p[0], p[1])
	}
}

func TestScorer_Range(t *testing.T) {
	s := NewScorer()

	pairs := [][2]string{
		{"acme corporation", "globex"},
		{"a", "completely different value"},
		{"martha", "marhta"},
		{"x", "x"},
	}

	for _, p := range pairs {
		for name, score := range map[string]float64{
			"jaro":         s.Jaro(p[0], p[1]),
			"jaro_winkler": s.JaroWinkler(p[0], p[1]),
			"levenshtein":  s.Levenshtein(p[0], p[1]),
			"token_sort":   s.TokenSort(p[0], p[1]),
			"phonetic":     s.Phonetic(p[0], p[1]),
		} {
			assert.GreaterOrEqual(t, score, 0.0, "%s(%q, %q)", name, p[0], p[1])
			assert.LessOrEqual(t, score, 1.0, "%s(%q, %q)", name, p[0], p[1])
		}
	}
}
