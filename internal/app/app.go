// Package app assembles the grading engine from process configuration.
package app

import (
	"github.com/mind-engage/autocheck/internal/config"
	"github.com/mind-engage/autocheck/internal/fetch"
	"github.com/mind-engage/autocheck/internal/grading"
	"github.com/mind-engage/autocheck/internal/grading/harness"
	"github.com/mind-engage/autocheck/internal/session"
	"github.com/mind-engage/autocheck/internal/storage"
)

// Engine is a checker wired to the download cache and the Python harness,
// plus the session options every run uses.
type Engine struct {
	Checker *grading.Checker
	Blobs   *storage.FSStore
	Options []session.Option
}

func NewEngine(cfg config.Config) (*Engine, error) {
	blobs, err := storage.NewFSStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	h := fetch.NewHTTP(cfg.FetchRPS)
	router := &fetch.Router{HTTP: h}
	if cfg.YandexToken != "" {
		router.Yandex = fetch.NewYandexDisk(h, cfg.YandexToken)
	}
	checker := grading.NewChecker(
		grading.WithFiles(storage.NewCache(blobs, router)),
		grading.WithHarness(harness.New(cfg.PythonBin)),
	)
	return &Engine{
		Checker: checker,
		Blobs:   blobs,
		Options: []session.Option{
			session.WithWorkers(cfg.Workers),
			session.WithDefaults(map[string]any{"code_timeout": cfg.CodeTimeout.String()}),
		},
	}, nil
}
