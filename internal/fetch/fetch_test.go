package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	h := NewHTTP(0)
	var buf bytes.Buffer
	require.NoError(t, h.Fetch(context.Background(), srv.URL+"/data.csv", &buf))
	assert.Equal(t, "a,b\n1,2\n", buf.String())

	err := h.Fetch(context.Background(), srv.URL+"/missing", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "nope")
}

func TestHTTPFetchHonoursContext(t *testing.T) {
	h := NewHTTP(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.Fetch(ctx, "http://127.0.0.1:1/never", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDiskPath(t *testing.T) {
	assert.Equal(t, "hw1/jdoe.py", DiskPath("https://disk.yandex.ru/client/disk/hw1/jdoe.py"))
	assert.Equal(t, "hw 1/a.csv", DiskPath("https://disk.yandex.ru/client/disk/hw%201/a.csv"))
	assert.Equal(t, "https://example.com/x", DiskPath("https://example.com/x"))
}

func TestIsYandexDisk(t *testing.T) {
	for raw, want := range map[string]bool{
		"https://disk.yandex.ru/client/disk/a":  true,
		"https://DISK.yandex.com/client/disk/a": true,
		"https://yandex.ru/a":                   false,
		"https://example.com/a":                 false,
	} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, IsYandexDisk(u), raw)
	}
}

func TestYandexDiskFetch(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/resources/download":
			if r.Header.Get("Authorization") != "OAuth secret" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("path") != "hw1/jdoe.py" {
				http.Error(w, "bad path", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"href":"` + srv.URL + `/blob/1","method":"GET","templated":false}`))
		case "/blob/1":
			w.Write([]byte("def foo(): return 1\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	y := NewYandexDisk(NewHTTP(0), "secret")
	y.APIBase = srv.URL + "/resources/download"

	var buf bytes.Buffer
	require.NoError(t, y.Fetch(context.Background(), "https://disk.yandex.ru/client/disk/hw1/jdoe.py", &buf))
	assert.Equal(t, "def foo(): return 1\n", buf.String())

	y.Token = "wrong"
	err := y.Fetch(context.Background(), "https://disk.yandex.ru/client/disk/hw1/jdoe.py", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestYandexDiskMissingHref(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"DiskNotFoundError"}`))
	}))
	defer srv.Close()

	y := NewYandexDisk(NewHTTP(0), "")
	y.APIBase = srv.URL
	err := y.Fetch(context.Background(), "https://disk.yandex.ru/client/disk/x", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no download href")
}

func TestRouterFallsBackToHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain"))
	}))
	defer srv.Close()

	r := &Router{HTTP: NewHTTP(0)}
	var buf bytes.Buffer
	require.NoError(t, r.Fetch(context.Background(), srv.URL+"/f", &buf))
	assert.Equal(t, "plain", buf.String())
}
