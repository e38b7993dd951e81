package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/autocheck/internal/ctxlog"
	"github.com/mind-engage/autocheck/internal/grading"
	"github.com/mind-engage/autocheck/internal/loader"
	"github.com/mind-engage/autocheck/internal/rbac"
	"github.com/mind-engage/autocheck/internal/report"
	"github.com/mind-engage/autocheck/internal/results"
	"github.com/mind-engage/autocheck/internal/scoring"
	"github.com/mind-engage/autocheck/internal/session"
)

type createRunReq struct {
	Title       string `json:"title"`
	Config      string `json:"config"`      // YAML document
	Submissions string `json:"submissions"` // CSV with header
}

// POST /runs
func CreateRunHandler(store results.Store, checker *grading.Checker, opts ...session.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRunReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Config) == "" || strings.TrimSpace(req.Submissions) == "" {
			http.Error(w, "config and submissions required", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			req.Title = "untitled"
		}

		res, err := loader.Grade(r.Context(),
			strings.NewReader(req.Config), strings.NewReader(req.Submissions),
			checker, opts...)
		switch {
		case errors.Is(err, session.ErrNoActiveQuestions), errors.Is(err, scoring.ErrNoActiveWeight):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case r.Context().Err() != nil:
			http.Error(w, "grading cancelled", http.StatusServiceUnavailable)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		who, _ := rbac.PrincipalFromContext(r.Context())
		run, err := store.SaveRun(r.Context(), results.Run{
			Title:      req.Title,
			CreatedBy:  who.Subject,
			ConfigYAML: req.Config,
			Results:    res,
		})
		if err != nil {
			ctxlog.FromContext(r.Context()).Error("save run", "err", err)
			http.Error(w, "store error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(run)
	}
}

// GET /runs?q=&limit=&offset=
func ListRunsHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListRuns(r.Context(), results.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// GET /runs/{runID}
func GetRunHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := loadRun(w, r, store)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(run)
	}
}

// GET /runs/{runID}/export?short=1
func ExportRunHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := loadRun(w, r, store)
		if !ok {
			return
		}
		short := r.URL.Query().Get("short") == "1"
		name := run.ID
		if short {
			name += "_short"
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
		if err := report.WriteCSV(w, run.Results, short); err != nil {
			ctxlog.FromContext(r.Context()).Error("export run", "run", run.ID, "err", err)
		}
	}
}

func loadRun(w http.ResponseWriter, r *http.Request, store results.Store) (results.Run, bool) {
	run, err := store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, results.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return results.Run{}, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return results.Run{}, false
	}
	return run, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
