// Package fetch downloads submitted files over HTTP, including files shared
// from Yandex Disk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTP downloads plain URLs. All requests share one rate limiter.
type HTTP struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewHTTP returns a fetcher limited to rps requests per second; rps <= 0
// disables limiting.
func NewHTTP(rps float64) *HTTP {
	lim := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &HTTP{
		Client:  &http.Client{Timeout: 2 * time.Minute},
		Limiter: lim,
	}
}

func (h *HTTP) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := h.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s: %s", req.URL.Redacted(), resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (h *HTTP) Fetch(ctx context.Context, rawURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := h.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}

// Router sends disk.yandex.ru links to the Yandex fetcher and everything
// else to plain HTTP.
type Router struct {
	HTTP   *HTTP
	Yandex *YandexDisk
}

func (r *Router) Fetch(ctx context.Context, rawURL string, w io.Writer) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if r.Yandex != nil && IsYandexDisk(u) {
		return r.Yandex.Fetch(ctx, rawURL, w)
	}
	return r.HTTP.Fetch(ctx, rawURL, w)
}
