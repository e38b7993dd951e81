package session

import (
	"slices"
	"strings"
	"time"
)

// Submission is one participant's row.
type Submission struct {
	ID   string
	Name string
	// Time is zero when the row carried no parseable timestamp.
	Time    time.Time
	Answers map[string]string
}

// NormalizeID lower-cases and trims an identifier for use as a join key.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// PrepareSubmissions normalises ids and keeps one row per id: the earliest
// when takeFirst is set, otherwise the latest. Equal times keep the row seen
// first. Surviving rows stay in input order.
func PrepareSubmissions(subs []Submission, takeFirst bool) []Submission {
	keep := make(map[string]int, len(subs))
	for i := range subs {
		id := NormalizeID(subs[i].ID)
		j, seen := keep[id]
		if !seen {
			keep[id] = i
			continue
		}
		cur, prev := subs[i].Time, subs[j].Time
		if (takeFirst && cur.Before(prev)) || (!takeFirst && cur.After(prev)) {
			keep[id] = i
		}
	}
	idx := make([]int, 0, len(keep))
	for _, i := range keep {
		idx = append(idx, i)
	}
	slices.Sort(idx)

	out := make([]Submission, 0, len(idx))
	for _, i := range idx {
		s := subs[i]
		s.ID = NormalizeID(s.ID)
		out = append(out, s)
	}
	return out
}
