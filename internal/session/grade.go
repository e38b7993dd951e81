package session

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/autocheck/internal/ctxlog"
	"github.com/mind-engage/autocheck/internal/grading"
	"github.com/mind-engage/autocheck/internal/scoring"
)

// active reports whether a question is checked: marked for checking and with
// a non-empty chain.
func (q question) active() bool { return q.def.Active && !q.chain.Empty() }

// Grade checks every submission against every active question, then applies
// normalisation, penalties, rules and totals, in that order. Every surviving
// submission yields a row; per-cell failures show up as degraded scores.
func (s *Session) Grade(ctx context.Context, subs []Submission) (*scoring.Results, error) {
	log := ctxlog.FromContext(ctx)
	subs = PrepareSubmissions(subs, s.takeFirst)

	var active []question
	for _, q := range s.questions {
		if q.active() {
			active = append(active, q)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveQuestions
	}
	isActive := make(map[string]bool, len(active))
	ids := make([]string, len(subs))
	qids := make([]string, len(active))
	for i, q := range active {
		qids[i] = q.def.ID
		isActive[q.def.ID] = true
	}
	for i, sub := range subs {
		ids[i] = sub.ID
	}
	m := scoring.NewMatrix(ids, qids)

	if err := s.checkCells(ctx, m, active, subs); err != nil {
		return nil, err
	}

	for _, q := range active {
		if q.params.Normalize {
			m.MinMaxScale(q.def.ID, q.params.NormalizeLow, q.params.NormalizeHigh)
		}
	}

	coefs := make(map[string]float64, len(subs))
	for _, sub := range subs {
		if sub.Time.IsZero() {
			log.Warn("submission has no time, penalty not applied", "submission", sub.ID)
			coefs[sub.ID] = 1
			continue
		}
		coefs[sub.ID] = s.penalty.Coefficient(sub.Time)
	}
	if missing := m.JoinPenalty(coefs); len(missing) > 0 {
		log.Warn("rows without penalty coefficient", "submissions", missing)
	}

	for _, r := range s.rules {
		switch {
		case r.Inert:
			log.Warn("rule condition not understood, rule ignored", "driver", r.Driver)
		case !isActive[r.Driver]:
			log.Info("rule driver not checked, rule skipped", "driver", r.Driver)
		}
	}
	adj := scoring.ApplyRules(m, s.rules, func(q string) bool { return isActive[q] })

	weights := make([]scoring.Weight, len(active))
	for i, q := range active {
		weights[i] = scoring.Weight{Question: q.def.ID, Value: q.def.Weight}
	}
	res, err := scoring.Accumulate(m, weights, adj)
	if err != nil {
		return nil, err
	}
	for i := range res.Rows {
		res.Rows[i].Name = subs[i].Name
	}
	return res, nil
}

// checkCells runs every active chain on every row on a bounded pool. Each cell
// owns its slot in m, so the workers share no mutable state.
func (s *Session) checkCells(ctx context.Context, m *scoring.Matrix, active []question, subs []Submission) error {
	log := ctxlog.FromContext(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, q := range active {
		col := m.Scores[q.def.ID]
		for i, sub := range subs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				cellLog := log.With("question", q.def.ID, "submission", sub.ID)
				v := s.checker.Run(ctxlog.WithLogger(gctx, cellLog), q.chain, grading.Input{
					Answer:   sub.Answers[q.def.ID],
					Correct:  q.def.Correct,
					Params:   q.params,
					Filename: grading.CellFilename(q.def.ID, sub.ID),
				})
				if math.IsNaN(v) || math.IsInf(v, 0) {
					cellLog.Warn("non-finite score replaced by 0", "score", v)
					v = 0
				}
				col[i] = v
				return nil
			})
		}
	}
	return g.Wait()
}
