package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mind-engage/autocheck/internal/scoring"
	syncx "github.com/mind-engage/autocheck/internal/sync"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) SaveRun(ctx context.Context, r Run) (_ Run, err error) {
	stamp(&r)
	res := r.Results
	if res == nil {
		res = &scoring.Results{}
	}
	qj, err := json.Marshal(res.Questions)
	if err != nil {
		return Run{}, err
	}
	wj, err := json.Marshal(res.Weights)
	if err != nil {
		return Run{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO grading_runs (id,title,created_by,created_at,config_yaml,questions_json,weights_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.Title, r.CreatedBy, r.CreatedAt, r.ConfigYAML, string(qj), string(wj)); err != nil {
		return Run{}, err
	}
	for i, row := range res.Rows {
		sj, e := json.Marshal(row.Scores)
		if e != nil {
			return Run{}, e
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO run_results (run_id,position,submission_id,name,scores_json,penalty,total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			r.ID, i, row.ID, row.Name, string(sj), row.Penalty, row.Total); err != nil {
			return Run{}, fmt.Errorf("row %s: %w", row.ID, err)
		}
	}
	if err = syncx.NewEventRepo(tx).Append(ctx, syncx.RunGraded(r.ID, len(res.Rows), r.CreatedBy)); err != nil {
		return Run{}, err
	}
	return r, nil
}

func (s *SQLStore) GetRun(ctx context.Context, id string) (Run, error) {
	var r Run
	var qjson, wjson string
	row := s.db.QueryRowContext(ctx, `SELECT id,title,created_by,created_at,config_yaml,questions_json,weights_json
		FROM grading_runs WHERE id=$1`, id)
	if err := row.Scan(&r.ID, &r.Title, &r.CreatedBy, &r.CreatedAt, &r.ConfigYAML, &qjson, &wjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	res := &scoring.Results{}
	if err := json.Unmarshal([]byte(qjson), &res.Questions); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(wjson), &res.Weights); err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT submission_id,name,scores_json,penalty,total
		FROM run_results WHERE run_id=$1 ORDER BY position`, id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var sr scoring.Row
		var sjson string
		if err := rows.Scan(&sr.ID, &sr.Name, &sjson, &sr.Penalty, &sr.Total); err != nil {
			return Run{}, err
		}
		if err := json.Unmarshal([]byte(sjson), &sr.Scores); err != nil {
			return Run{}, err
		}
		res.Rows = append(res.Rows, sr)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	r.Results = res
	return r, nil
}

func (s *SQLStore) ListRuns(ctx context.Context, opts ListOpts) ([]RunSummary, error) {
	q := `SELECT r.id, r.title, r.created_by, r.created_at,
		(SELECT COUNT(*) FROM run_results rr WHERE rr.run_id = r.id)
		FROM grading_runs r`
	args := []any{}
	if opts.Q != "" {
		q += ` WHERE LOWER(r.title) LIKE $1`
		args = append(args, "%"+strings.ToLower(opts.Q)+"%")
	}
	q += fmt.Sprintf(` ORDER BY r.created_at DESC, r.id LIMIT %d OFFSET %d`, opts.limit(), opts.offset())

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RunSummary{}
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.ID, &rs.Title, &rs.CreatedBy, &rs.CreatedAt, &rs.Submissions); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}
