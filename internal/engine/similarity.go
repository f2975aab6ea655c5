package engine

import (
	"strings"
	"unicode"

	"github.com/flipfinder/flipfinder/internal/domain"
)

// minTokenLen drops connective words and truncation artifacts ("a", "of",
// "gb") during title normalization. Lossy on purpose.
const minTokenLen = 3

// normalizeTitle lowercases the title, strips everything but letters, digits
// and whitespace, splits on whitespace, and drops tokens shorter than
// minTokenLen. The result collapses duplicates into a set.
func normalizeTitle(title string) map[string]struct{} {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < minTokenLen {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// jaccard computes |A ∩ B| / |A ∪ B| over two token sets. ok is false when
// the union is empty (both titles normalized away to nothing), in which case
// the pair can never match, even at threshold 0.
func jaccard(a, b map[string]struct{}) (score float64, ok bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, false
	}

	intersection := 0
	for tok := range a {
		if _, hit := b[tok]; hit {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union), true
}

// TitleSimilarity returns the Jaccard coefficient over the normalized token
// sets of two titles, in [0,1]. Two titles that both normalize to nothing
// score 0.
func TitleSimilarity(a, b string) float64 {
	score, _ := jaccard(normalizeTitle(a), normalizeTitle(b))
	return score
}

// MatchListings returns the targets whose titles are similar enough to the
// source's to plausibly be the same item, preserving the original target
// order. Ranking happens once, globally, after profit computation - never
// here.
//
// Raising the threshold can only shrink the matched set; at threshold 0
// every target with a non-empty token union matches.
func MatchListings(source domain.Listing, targets []domain.Listing, threshold float64) []domain.Listing {
	srcTokens := normalizeTitle(source.Title)

	var matched []domain.Listing
	for _, tgt := range targets {
		score, ok := jaccard(srcTokens, normalizeTitle(tgt.Title))
		if ok && score >= threshold {
			matched = append(matched, tgt)
		}
	}
	return matched
}
