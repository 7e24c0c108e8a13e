package compare

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
)

var leadingArticles = []string{"the ", "a ", "an "}

// NormalizeTitle folds a film title into a canonical comparison form: case
// folded, punctuation stripped, "&" spelled out, leading article removed,
// whitespace collapsed.
func NormalizeTitle(title string) string {
	folded := cases.Fold().String(strings.TrimSpace(title))
	folded = strings.ReplaceAll(folded, "&", " and ")

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	normalized := strings.Join(strings.Fields(b.String()), " ")
	for _, article := range leadingArticles {
		if strings.HasPrefix(normalized, article) {
			normalized = strings.TrimPrefix(normalized, article)
			break
		}
	}
	// "Matrix, The" style listings leave the article at the end.
	for _, article := range leadingArticles {
		suffix := " " + strings.TrimSpace(article)
		if strings.HasSuffix(normalized, suffix) {
			normalized = strings.TrimSuffix(normalized, suffix)
			break
		}
	}
	return normalized
}

func normalizeToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity returns a 0..1 score for two already raw titles, where 1 means
// the normalized forms are identical.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == nb {
		return 1
	}
	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	if longest == 0 {
		return 0
	}
	distance := fuzzy.LevenshteinDistance(na, nb)
	return 1 - float64(distance)/float64(longest)
}

// TitlesMatch reports whether two titles refer to the same film under the
// configured similarity floor. A floor of 1 demands normalized equality.
func TitlesMatch(a, b string, floor float64) bool {
	if floor <= 0 {
		floor = 1
	}
	return Similarity(a, b) >= floor
}
