package link

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritics: decompose, drop the combining
// marks, recompose. "José" and "Jose" fold to the same string.
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold normalizes a display name for comparison: diacritics stripped,
// lowercased, punctuation and runs of whitespace reduced to single
// spaces. "José  Ortega-Marín" folds to "jose ortega marin".
func fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.Join(tokens(strings.ToLower(folded)), " ")
}

// tokens splits a folded string into its word tokens.
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TokenSortRatio compares two names by the edit similarity of their
// sorted token strings. Word order does not matter ("Lin, Amy" matches
// "Amy Lin"); extra or missing words lower the score.
func TokenSortRatio(a, b string) float64 {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if sa == "" || sb == "" {
		return 0
	}
	return editRatio(sa, sb)
}

// TokenSetRatio compares two names on their shared tokens, following
// the classic token_set construction: the best pairwise edit similarity
// among (common, common+restA, common+restB). A name whose tokens are a
// subset of the other's scores 1.0, which makes the metric robust
// against honorifics and middle names ("Amy Lin" matches "Dr. Amy Lin").
func TokenSetRatio(a, b string) float64 {
	ta, tb := uniqueTokens(a), uniqueTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common, restA := partition(ta, tb)
	_, restB := partition(tb, ta)

	s0 := strings.Join(common, " ")
	s1 := strings.TrimSpace(s0 + " " + strings.Join(restA, " "))
	s2 := strings.TrimSpace(s0 + " " + strings.Join(restB, " "))

	best := editRatio(s0, s1)
	if r := editRatio(s0, s2); r > best {
		best = r
	}
	if r := editRatio(s1, s2); r > best {
		best = r
	}
	return best
}

// sortedTokens folds a name and joins its sorted tokens with single
// spaces.
func sortedTokens(s string) string {
	ts := tokens(fold(s))
	sort.Strings(ts)
	return strings.Join(ts, " ")
}

// uniqueTokens folds a name into its sorted, deduplicated tokens.
func uniqueTokens(s string) []string {
	ts := tokens(fold(s))
	sort.Strings(ts)
	uniq := make([]string, 0, len(ts))
	for i, t := range ts {
		if i == 0 || t != ts[i-1] {
			uniq = append(uniq, t)
		}
	}
	return uniq
}

// partition splits a into the tokens shared with b and the rest. Both
// inputs must be sorted and deduplicated.
func partition(a, b []string) (common, rest []string) {
	j := 0
	for _, t := range a {
		for j < len(b) && b[j] < t {
			j++
		}
		if j < len(b) && b[j] == t {
			common = append(common, t)
			j++
			continue
		}
		rest = append(rest, t)
	}
	return common, rest
}

// editRatio is the Levenshtein distance between two strings normalized
// to a similarity in [0, 1]. Equal strings score 1; strings sharing no
// characters score 0.
func editRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the Levenshtein distance computed with the two-row
// dynamic programming table.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
