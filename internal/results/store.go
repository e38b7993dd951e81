package results

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	// SaveRun assigns ID and CreatedAt when empty and stores the run.
	SaveRun(ctx context.Context, r Run) (Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns summaries, newest first.
	ListRuns(ctx context.Context, opts ListOpts) ([]RunSummary, error)
}

func stamp(r *Run) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
}

func summarize(r Run) RunSummary {
	s := RunSummary{ID: r.ID, Title: r.Title, CreatedBy: r.CreatedBy, CreatedAt: r.CreatedAt}
	if r.Results != nil {
		s.Submissions = len(r.Results.Rows)
	}
	return s
}

type memoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewInMemoryStore() Store {
	return &memoryStore{runs: map[string]Run{}}
}

func (m *memoryStore) SaveRun(_ context.Context, r Run) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&r)
	m.runs[r.ID] = r
	return r, nil
}

func (m *memoryStore) GetRun(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) ListRuns(_ context.Context, opts ListOpts) ([]RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []RunSummary{}
	for _, r := range m.runs {
		if opts.Q != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(opts.Q)) {
			continue
		}
		out = append(out, summarize(r))
	}
	slices.SortFunc(out, func(a, b RunSummary) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if opts.offset() >= len(out) {
		return []RunSummary{}, nil
	}
	out = out[opts.offset():]
	return out[:min(len(out), opts.limit())], nil
}
