package results

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/autocheck/internal/db"
	"github.com/mind-engage/autocheck/internal/scoring"
)

func sampleResults() *scoring.Results {
	return &scoring.Results{
		Questions: []string{"q1", "q2"},
		Weights:   map[string]float64{"q1": 2, "q2": 1},
		Rows: []scoring.Row{
			{ID: "zed", Name: "Zed", Scores: map[string]float64{"q1": 200, "q2": 0}, Penalty: 1, Total: 67},
			{ID: "ann", Scores: map[string]float64{"q1": 0, "q2": 100}, Penalty: 0.86, Total: 29},
		},
	}
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "runs.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewInMemoryStore(),
		"sqlite": openSQLite(t),
	}
}

func TestSaveAndGetRun(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			saved, err := s.SaveRun(ctx, Run{Title: "Week 1", CreatedBy: "admin", ConfigYAML: "system_info: {id: email}\n", Results: sampleResults()})
			require.NoError(t, err)
			assert.NotEmpty(t, saved.ID)
			assert.NotZero(t, saved.CreatedAt)

			got, err := s.GetRun(ctx, saved.ID)
			require.NoError(t, err)
			if diff := cmp.Diff(saved, got); diff != "" {
				t.Errorf("run mismatch (-saved +got):\n%s", diff)
			}

			_, err = s.GetRun(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestListRuns(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, title := range []string{"Week 1 quiz", "Midterm", "Week 2 quiz"} {
				_, err := s.SaveRun(ctx, Run{ID: title, Title: title, CreatedAt: int64(100 + i), Results: sampleResults()})
				require.NoError(t, err)
			}

			all, err := s.ListRuns(ctx, ListOpts{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "Week 2 quiz", all[0].ID)
			assert.Equal(t, 2, all[0].Submissions)

			quizzes, err := s.ListRuns(ctx, ListOpts{Q: "QUIZ", Limit: 1, Offset: 1})
			require.NoError(t, err)
			require.Len(t, quizzes, 1)
			assert.Equal(t, "Week 1 quiz", quizzes[0].Title)

			none, err := s.ListRuns(ctx, ListOpts{Offset: 10})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestSQLStoreLogsEvent(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	run, err := s.SaveRun(ctx, Run{Title: "t", Results: sampleResults()})
	require.NoError(t, err)

	var typ, key string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT typ, key FROM event_log`).Scan(&typ, &key))
	assert.Equal(t, "RunGraded", typ)
	assert.Equal(t, run.ID, key)
}

func TestSQLStoreRollsBackOnDuplicateRow(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	res := sampleResults()
	res.Rows[1].ID = res.Rows[0].ID

	_, err := s.SaveRun(ctx, Run{ID: "dup", Title: "t", Results: res})
	require.Error(t, err)
	_, err = s.GetRun(ctx, "dup")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOptsBounds(t *testing.T) {
	assert.Equal(t, 50, ListOpts{}.limit())
	assert.Equal(t, 50, ListOpts{Limit: 1000}.limit())
	assert.Equal(t, 7, ListOpts{Limit: 7}.limit())
	assert.Equal(t, 0, ListOpts{Offset: -3}.offset())
}
