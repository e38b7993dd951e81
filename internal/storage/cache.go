package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mind-engage/autocheck/internal/ctxlog"
)

// Fetcher downloads the resource at rawURL into w.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) error
}

// Cache downloads remote answers into a BlobStore once and serves them from
// disk afterwards. Download and read of one name happen under that name's
// lock, so concurrent checks sharing a file never see a partial copy.
type Cache struct {
	store   BlobStore
	fetcher Fetcher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCache(store BlobStore, fetcher Fetcher) *Cache {
	return &Cache{store: store, fetcher: fetcher, locks: map[string]*sync.Mutex{}}
}

func (c *Cache) lock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// Load returns the local path and contents of "<name>.<ext>" in the store.
// When src is a URL the file is downloaded first, unless it is already
// present and force is unset. Any other src only names a previously cached
// file; it is never opened as a path.
func (c *Cache) Load(ctx context.Context, src, name, ext string, force bool) (string, []byte, error) {
	src = strings.TrimSpace(src)
	if name == "" {
		return "", nil, ErrEmptyKey
	}
	key := name
	if ext != "" {
		key = name + "." + ext
	}
	l := c.lock(key)
	l.Lock()
	defer l.Unlock()

	switch {
	case isRemote(src) && (force || !c.store.Exists(key)):
		if c.fetcher == nil {
			return "", nil, fmt.Errorf("no fetcher configured for %s", src)
		}
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(c.fetcher.Fetch(ctx, src, pw))
		}()
		if _, err := c.store.Put(key, pr); err != nil {
			pr.CloseWithError(err)
			return "", nil, fmt.Errorf("download %s: %w", src, err)
		}
		ctxlog.FromContext(ctx).Debug("downloaded", "src", src, "key", key)
	case !c.store.Exists(key):
		if src == "" {
			return "", nil, fmt.Errorf("no file submitted for %s", key)
		}
		return "", nil, fmt.Errorf("%s: %w", key, os.ErrNotExist)
	}

	rc, err := c.store.Get(key)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, err
	}
	return c.store.Path(key), data, nil
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
