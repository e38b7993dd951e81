package grading

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
)

// ratioParams weighs a substitution as a delete plus an insert, which turns
// the edit distance into the classic (lensum-dist)/lensum similarity.
var ratioParams = levenshtein.NewParams().SubCost(2)

// fold is the case folding used by both text comparisons.
func fold(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under case folding.
func EqualFold(a, b string) bool {
	return fold(a) == fold(b)
}

// fullProcess folds case, turns anything that is not a word character
// (letter, number or underscore) into a space and trims the result.
func fullProcess(s string) string {
	s = fold(s)
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, ' ')
		}
	}
	return strings.TrimSpace(string(out))
}

// intr rounds half to even onto the integer score scale.
func intr(v float64) float64 { return math.RoundToEven(v) }

// similarity is the normalized edit similarity of a and b in [0,1].
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la+lb == 0 {
		return 1
	}
	d := levenshtein.Distance(a, b, ratioParams)
	return float64(la+lb-d) / float64(la+lb)
}

// ratio scores a and b on the 0..100 scale. Equal strings score 100 and an
// empty string against a non-empty one 0.
func ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return intr(100 * similarity(a, b))
}

// partialRatio aligns the shorter string against the longer one at every
// matching block and keeps the best ratio of those windows.
func partialRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	best := 0.0
	for _, m := range matchingBlocks(short, long) {
		start := max(m.j-m.i, 0)
		end := min(start+len(short), len(long))
		r := similarity(string(short), string(long[start:end]))
		if r > .995 {
			return 100
		}
		best = max(best, r)
	}
	return intr(100 * best)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSortRatio(a, b string, partial bool) float64 {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if partial {
		return partialRatio(sa, sb)
	}
	return ratio(sa, sb)
}

func tokenSetRatio(a, b string, partial bool) float64 {
	setA := toSet(strings.Fields(a))
	setB := toSet(strings.Fields(b))
	var inter, diffAB, diffBA []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			diffAB = append(diffAB, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			diffBA = append(diffBA, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	sorted := strings.Join(inter, " ")
	combAB := strings.TrimSpace(sorted + " " + strings.Join(diffAB, " "))
	combBA := strings.TrimSpace(sorted + " " + strings.Join(diffBA, " "))

	cmp := ratio
	if partial {
		cmp = partialRatio
	}
	best := cmp(sorted, combAB)
	if v := cmp(sorted, combBA); v > best {
		best = v
	}
	if v := cmp(combAB, combBA); v > best {
		best = v
	}
	return best
}

// WRatio is a weighted fuzzy similarity of a and b on a 0..100 integer scale.
// It takes the best of the plain, partial and token based ratios, discounting
// the partial and token variants.
func WRatio(a, b string) float64 {
	pa, pb := fullProcess(a), fullProcess(b)
	if pa == "" || pb == "" {
		return 0
	}
	base := ratio(pa, pb)
	la, lb := float64(len([]rune(pa))), float64(len([]rune(pb)))
	lenRatio := math.Max(la, lb) / math.Min(la, lb)

	const unbaseScale = 0.95
	if lenRatio < 1.5 {
		tsor := tokenSortRatio(pa, pb, false) * unbaseScale
		tser := tokenSetRatio(pa, pb, false) * unbaseScale
		return intr(max(base, tsor, tser))
	}

	partialScale := 0.9
	if lenRatio > 8 {
		partialScale = 0.6
	}
	partial := partialRatio(pa, pb) * partialScale
	ptsor := tokenSortRatio(pa, pb, true) * unbaseScale * partialScale
	ptser := tokenSetRatio(pa, pb, true) * unbaseScale * partialScale
	return intr(max(base, partial, ptsor, ptser))
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

// block is a run of n equal runes at a[i:] and b[j:].
type block struct{ i, j, n int }

// matchingBlocks lists the maximal matching runs of a and b in order,
// closed by a zero-length block at (len(a), len(b)). Each step takes the
// longest common run, leftmost first, then recurses on both sides. When b
// has 200 runes or more, runes making up over 1% of it do not seed matches.
func matchingBlocks(a, b []rune) []block {
	b2j := map[rune][]int{}
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	if n := len(b); n >= 200 {
		limit := n/100 + 1
		for r, js := range b2j {
			if len(js) > limit {
				delete(b2j, r)
			}
		}
	}

	longest := func(alo, ahi, blo, bhi int) block {
		best := block{alo, blo, 0}
		j2len := map[int]int{}
		for i := alo; i < ahi; i++ {
			next := map[int]int{}
			for _, j := range b2j[a[i]] {
				if j < blo {
					continue
				}
				if j >= bhi {
					break
				}
				k := j2len[j-1] + 1
				next[j] = k
				if k > best.n {
					best = block{i - k + 1, j - k + 1, k}
				}
			}
			j2len = next
		}
		for best.i > alo && best.j > blo && a[best.i-1] == b[best.j-1] {
			best = block{best.i - 1, best.j - 1, best.n + 1}
		}
		for best.i+best.n < ahi && best.j+best.n < bhi && a[best.i+best.n] == b[best.j+best.n] {
			best.n++
		}
		return best
	}

	var found []block
	queue := [][4]int{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		q := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		alo, ahi, blo, bhi := q[0], q[1], q[2], q[3]
		m := longest(alo, ahi, blo, bhi)
		if m.n == 0 {
			continue
		}
		found = append(found, m)
		if alo < m.i && blo < m.j {
			queue = append(queue, [4]int{alo, m.i, blo, m.j})
		}
		if m.i+m.n < ahi && m.j+m.n < bhi {
			queue = append(queue, [4]int{m.i + m.n, ahi, m.j + m.n, bhi})
		}
	}
	sort.Slice(found, func(x, y int) bool {
		if found[x].i != found[y].i {
			return found[x].i < found[y].i
		}
		return found[x].j < found[y].j
	})

	var out []block
	cur := block{}
	for _, m := range found {
		if cur.i+cur.n == m.i && cur.j+cur.n == m.j {
			cur.n += m.n
			continue
		}
		if cur.n > 0 {
			out = append(out, cur)
		}
		cur = m
	}
	if cur.n > 0 {
		out = append(out, cur)
	}
	return append(out, block{len(a), len(b), 0})
}
