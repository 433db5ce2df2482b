// Package matching implements duplicate detection over customer records:
// blocking-key candidate generation, per-field similarity scoring, and the
// match ledger that turns scored pairs into reviewable match candidates.
package matching

import (
	"sort"
	"strings"
	"unicode"
)

// Scorer provides string comparison algorithms. All methods are pure and
// symmetric in their two string arguments.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// Jaro calculates the Jaro similarity between two strings
func (s *Scorer) Jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	transpositions := 0

	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

// JaroWinkler calculates the Jaro-Winkler similarity between two strings.
// Returns a value between 0.0 (no similarity) and 1.0 (exact match).
func (s *Scorer) JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}

	jaro := s.Jaro(a, b)

	// Winkler modification: boost for common prefix (max 4 chars, factor 0.1)
	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] == b[i] {
			prefixLen++
		} else {
			break
		}
	}

	scalingFactor := 0.1
	return jaro + float64(prefixLen)*scalingFactor*(1.0-jaro)
}

// Levenshtein calculates a normalized Levenshtein similarity between 0.0 and 1.0.
func (s *Scorer) Levenshtein(a, b string) float64 {
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// TokenSort sorts the whitespace-separated tokens of both strings before
// computing Levenshtein similarity, so word reordering ("Acme Inc" vs
// "Inc Acme") does not count against the score.
func (s *Scorer) TokenSort(a, b string) float64 {
	return s.Levenshtein(sortTokens(a), sortTokens(b))
}

func sortTokens(v string) string {
	tokens := strings.Fields(v)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Phonetic compares the Metaphone encodings of two strings: 1.0 when the
// codes match, otherwise Levenshtein similarity over the codes.
func (s *Scorer) Phonetic(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	metaA := s.Metaphone(a)
	metaB := s.Metaphone(b)
	if metaA == metaB {
		return 1.0
	}
	return s.Levenshtein(metaA, metaB)
}

// Metaphone calculates a simplified Metaphone encoding
func (s *Scorer) Metaphone(str string) string {
	if len(str) == 0 {
		return ""
	}

	str = strings.ToUpper(str)

	var letters strings.Builder
	for _, char := range str {
		if unicode.IsLetter(char) {
			letters.WriteRune(char)
		}
	}
	str = letters.String()

	if len(str) == 0 {
		return ""
	}

	var metaphone strings.Builder
	prevCode := byte(0)

	for i := 0; i < len(str) && metaphone.Len() < 6; i++ {
		char := str[i]
		code := metaphoneCode(char, i, str)

		if code != 0 && code != prevCode {
			metaphone.WriteByte(code)
			prevCode = code
		}
	}

	return metaphone.String()
}

// metaphoneCode returns the Metaphone code for a character
func metaphoneCode(char byte, pos int, word string) byte {
	switch char {
	case 'A', 'E', 'I', 'O', 'U':
		if pos == 0 {
			return char
		}
		return 0
	case 'B':
		return 'B'
	case 'C':
		if pos+1 < len(word) && (word[pos+1] == 'I' || word[pos+1] == 'E' || word[pos+1] == 'Y') {
			return 'S'
		}
		return 'K'
	case 'D':
		return 'T'
	case 'F':
		return 'F'
	case 'G':
		return 'J'
	case 'H':
		return 0 // usually silent
	case 'J':
		return 'J'
	case 'K':
		return 'K'
	case 'L':
		return 'L'
	case 'M':
		return 'M'
	case 'N':
		return 'N'
	case 'P':
		if pos+1 < len(word) && word[pos+1] == 'H' {
			return 'F'
		}
		return 'P'
	case 'Q':
		return 'K'
	case 'R':
		return 'R'
	case 'S':
		return 'S'
	case 'T':
		return 'T'
	case 'V':
		return 'F'
	case 'W':
		return 0
	case 'X':
		return 'S'
	case 'Y':
		return 0
	case 'Z':
		return 'S'
	default:
		return 0
	}
}
