package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"case only", "Paris", "paris", 100},
		{"punctuation becomes space", "Hello, world!", "hello world", 96},
		{"one substitution", "Moscow", "Moskow", 83},
		{"token order", "new york mets", "mets new york", 95},
		{"substring", "cat", "the cat sat", 90},
		{"empty answer", "Paris", "", 0},
		{"only punctuation", "...", "?!", 0},
		{"underscore is a word character", "snake_case", "snake case", 90},
		{"length ratio of exactly eight", "abc", "abcdefghijklmnopqrstuvwx", 90},
		{"length ratio above eight", "abc", "abcdefghijklmnopqrstuvwxy", 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WRatio(tt.a, tt.b))
		})
	}
}

func TestWRatioSymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"photosynthesis", "fotosynthesis"},
		{"the quick brown fox", "quick fox"},
		{"a", "completely unrelated answer"},
		{"ab", "abcdefghijklmnopq"},
	}
	for _, p := range pairs {
		ab, ba := WRatio(p[0], p[1]), WRatio(p[1], p[0])
		assert.Equal(t, ab, ba, p)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 100.0)
	}
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold("Paris", "pARIS"))
	assert.True(t, EqualFold("ÉCOLE", "école"))
	assert.False(t, EqualFold("Paris", "Paris "))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, ratio("", ""))
	assert.Equal(t, 0.0, ratio("", "abc"))
	assert.Equal(t, 83.0, ratio("moscow", "moskow"))
	assert.InDelta(t, 10.0/12.0, similarity("moscow", "moskow"), 1e-12)
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 0.0, partialRatio("", "abc"))
	assert.Equal(t, 100.0, partialRatio("abc", "xxabcxx"))
	assert.Equal(t, 100.0, partialRatio("xxabcxx", "abc"))
	// windows start at matching blocks, not at every offset
	assert.Equal(t, 75.0, partialRatio("abcd", "xabdcy"))
}

func TestMatchingBlocks(t *testing.T) {
	got := matchingBlocks([]rune("abxcd"), []rune("abcd"))
	assert.Equal(t, []block{{0, 0, 2}, {3, 2, 2}, {5, 4, 0}}, got)

	assert.Equal(t, []block{{0, 3, 0}}, matchingBlocks(nil, []rune("abc")))
}
