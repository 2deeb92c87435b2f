package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Lakers WIN", "lakers win"},
		{"strips stop words", "Will the Lakers win by 10?", "lakers win 10"},
		{"strips punctuation", "Chiefs vs. Eagles: Super Bowl!", "chiefs vs eagles super bowl"},
		{"strips urls", "Lakers win https://example.com/m/123 tonight", "lakers win tonight"},
		{"collapses whitespace", "  lakers   win  ", "lakers win"},
		{"drops single chars", "team a beats team b", "team beats team"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.input))
		})
	}
}

func TestKeywords(t *testing.T) {
	kw := Keywords("Will the Lakers win by 10 on 2026-01-15?")

	assert.Contains(t, kw, "lakers")
	assert.Contains(t, kw, "win")
	assert.Contains(t, kw, "10")
	assert.NotContains(t, kw, "will")
	assert.NotContains(t, kw, "by")
}

func TestSimilarity(t *testing.T) {
	t.Run("identical texts score one", func(t *testing.T) {
		assert.InDelta(t, 1.0, Similarity("Lakers win tonight", "Lakers win tonight"), 1e-9)
	})

	t.Run("equivalent phrasings score above threshold", func(t *testing.T) {
		s := Similarity("Lakers win?", "Lakers to win game")
		assert.GreaterOrEqual(t, s, 0.80, "score was %f", s)
	})

	t.Run("unrelated texts score low", func(t *testing.T) {
		s := Similarity("Lakers win tonight", "Fed cuts rates in March")
		assert.Less(t, s, 0.50, "score was %f", s)
	})

	t.Run("symmetric", func(t *testing.T) {
		a, b := "Chiefs win Super Bowl", "Will the Chiefs win?"
		assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-9)
	})

	t.Run("empty text scores zero", func(t *testing.T) {
		assert.Zero(t, Similarity("", "Lakers win"))
		assert.Zero(t, Similarity("the a an", "Lakers win"))
	})
}
