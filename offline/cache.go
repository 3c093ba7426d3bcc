// Package offline precaches a fixed asset list and serves it from memory,
// forwarding anything else to the network handler.
package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// DefaultName is the cache name. Bumping the version suffix is the only way
// to drop stale entries.
const DefaultName = "mm-replacer-v1"

// DefaultAssets is the precache manifest.
var DefaultAssets = []string{
	"/",
	"/index.html",
	"/style.css",
	"/app.js",
	"/dictionary.json",
}

var ErrInstall = errors.New("offline cache install failed")

// State is the cache lifecycle. Install is the only transition.
type State int

const (
	Uninstalled State = iota
	Serving
)

func (s State) String() string {
	if s == Serving {
		return "serving"
	}
	return "uninstalled"
}

type entry struct {
	header http.Header
	body   []byte
}

// Cache holds the precached responses for one named cache.
type Cache struct {
	name   string
	assets []string
	logger *zap.Logger

	mu      sync.RWMutex
	state   State
	entries map[string]entry
}

func New(name string, assets []string, logger *zap.Logger) *Cache {
	if name == "" {
		name = DefaultName
	}
	if assets == nil {
		assets = DefaultAssets
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{name: name, assets: append([]string(nil), assets...), logger: logger}
}

func (c *Cache) Name() string { return c.name }

func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Install requests every asset from network and stores the responses. Any
// asset that does not answer 200 fails the whole install and nothing is
// kept. Installing an already serving cache is a no-op.
func (c *Cache) Install(ctx context.Context, network http.Handler) error {
	if c.State() == Serving {
		return nil
	}

	fetched := make(map[string]entry, len(c.assets))
	for _, path := range c.assets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInstall, path, err)
		}
		rec := httptest.NewRecorder()
		network.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			c.logger.Error("precache failed", zap.String("cache", c.name), zap.String("path", path), zap.Int("status", rec.Code))
			return fmt.Errorf("%w: %s: status %d", ErrInstall, path, rec.Code)
		}
		fetched[path] = entry{header: rec.Header().Clone(), body: bytes.Clone(rec.Body.Bytes())}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Serving {
		return nil
	}
	c.entries = fetched
	c.state = Serving
	c.logger.Info("offline cache installed", zap.String("cache", c.name), zap.Int("assets", len(fetched)))
	return nil
}

// Handler answers GET and HEAD requests for cached URLs from memory and
// forwards everything else to network. Lookups use the full request URI, so a
// cache-busting query string always misses.
func (c *Cache) Handler(network http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			network.ServeHTTP(w, r)
			return
		}
		c.mu.RLock()
		e, ok := c.entries[r.URL.RequestURI()]
		c.mu.RUnlock()
		if !ok {
			w.Header().Set("X-Cache", "MISS")
			network.ServeHTTP(w, r)
			return
		}

		for k, vs := range e.header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.Header().Set("X-Cache", "HIT")
		w.Header().Set("Content-Length", strconv.Itoa(len(e.body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(e.body)
		}
	})
}
