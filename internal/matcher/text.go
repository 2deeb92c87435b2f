package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// stopWords are common words that carry no matching signal in market titles.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "will": {}, "be": {}, "is": {}, "are": {},
	"by": {}, "on": {}, "in": {}, "at": {}, "to": {}, "for": {}, "of": {},
}

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	nonWordPattern = regexp.MustCompile(`[^\pL\pN\s-]+`)
)

// levenshtein is the shared edit-distance metric. It is safe for concurrent
// use because its fields are never mutated after construction.
var levenshtein = metrics.NewLevenshtein()

// NormalizeText canonicalizes free text for matching: case-folded,
// URL/punctuation-stripped, stop words removed, whitespace collapsed.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = urlPattern.ReplaceAllString(s, "")
	s = nonWordPattern.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, w := range fields {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if len(w) < 2 {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Keywords extracts the significant tokens of a text: digits of any length
// plus words longer than two characters, after normalization.
func Keywords(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(NormalizeText(s)) {
		if isDigits(w) || len(w) > 2 {
			out[w] = struct{}{}
		}
	}
	return out
}

// Similarity scores two texts in [0,1]. It blends a token-set ratio (word
// order insensitive), a partial ratio (substring matches), and a keyword
// overlap bonus, weighted 0.40/0.35/0.25.
func Similarity(a, b string) float64 {
	na, nb := NormalizeText(a), NormalizeText(b)
	if na == "" || nb == "" {
		return 0
	}

	tokenScore := tokenSetRatio(na, nb)
	partialScore := partialRatio(na, nb)

	keywordScore := 0.0
	ka, kb := Keywords(a), Keywords(b)
	if len(ka) > 0 && len(kb) > 0 {
		overlap := 0
		for w := range ka {
			if _, ok := kb[w]; ok {
				overlap++
			}
		}
		denom := len(ka)
		if len(kb) > denom {
			denom = len(kb)
		}
		keywordScore = float64(overlap) / float64(denom)
	}

	return tokenScore*0.40 + partialScore*0.35 + keywordScore*0.25
}

// tokenSetRatio compares the sorted token intersection against each side's
// full sorted token string, so word order and one-sided extra words do not
// tank the score.
func tokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)

	var inter, onlyA, onlyB []string
	for w := range ta {
		if _, ok := tb[w]; ok {
			inter = append(inter, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range tb {
		if _, ok := ta[w]; !ok {
			onlyB = append(onlyB, w)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(inter, " ")
	sa := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	sb := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := strutil.Similarity(sa, sb, levenshtein)
	if base != "" {
		if v := strutil.Similarity(base, sa, levenshtein); v > best {
			best = v
		}
		if v := strutil.Similarity(base, sb, levenshtein); v > best {
			best = v
		}
	}
	return best
}

// partialRatio slides the shorter string across the longer one and returns
// the best window similarity, so "Lakers win" scores high against
// "Lakers to win game tonight".
func partialRatio(a, b string) float64 {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return strutil.Similarity(short, long, levenshtein)
	}

	sr := []rune(short)
	lr := []rune(long)
	if len(sr) >= len(lr) {
		return strutil.Similarity(short, long, levenshtein)
	}

	best := 0.0
	for i := 0; i+len(sr) <= len(lr); i++ {
		window := string(lr[i : i+len(sr)])
		if v := strutil.Similarity(short, window, levenshtein); v > best {
			best = v
			if best == 1.0 {
				break
			}
		}
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
