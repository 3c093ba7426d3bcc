package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// countingNetwork serves fixed bodies and counts requests per path.
type countingNetwork struct {
	bodies map[string]string
	hits   map[string]*atomic.Int32
}

func newNetwork(bodies map[string]string) *countingNetwork {
	n := &countingNetwork{bodies: bodies, hits: map[string]*atomic.Int32{}}
	for p := range bodies {
		n.hits[p] = &atomic.Int32{}
	}
	n.hits["other"] = &atomic.Int32{}
	return n
}

func (n *countingNetwork) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, ok := n.bodies[r.URL.Path]
	if !ok {
		n.hits["other"].Add(1)
		http.NotFound(w, r)
		return
	}
	n.hits[r.URL.Path].Add(1)
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, body)
}

func TestInstallAndServe(t *testing.T) {
	net := newNetwork(map[string]string{"/": "root", "/app.js": "js", "/api/live": "live"})
	c := New("test-v1", []string{"/", "/app.js"}, nil)
	if c.State() != Uninstalled {
		t.Fatalf("expected uninstalled, got %v", c.State())
	}

	if err := c.Install(context.Background(), net); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if c.State() != Serving || c.Len() != 2 {
		t.Fatalf("expected serving with 2 entries, got %v/%d", c.State(), c.Len())
	}

	h := c.Handler(net)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
		if rec.Body.String() != "js" || rec.Header().Get("X-Cache") != "HIT" {
			t.Fatalf("expected cached js, got %q (%s)", rec.Body.String(), rec.Header().Get("X-Cache"))
		}
	}
	if got := net.hits["/app.js"].Load(); got != 1 {
		t.Fatalf("expected one network hit for /app.js (install only), got %d", got)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	if rec.Body.String() != "live" || rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected miss forwarded to network, got %q", rec.Body.String())
	}
}

func TestInstallAllOrNothing(t *testing.T) {
	net := newNetwork(map[string]string{"/": "root"})
	c := New("test-v1", []string{"/", "/missing.css"}, nil)

	err := c.Install(context.Background(), net)
	if !errors.Is(err, ErrInstall) {
		t.Fatalf("expected ErrInstall, got %v", err)
	}
	if c.State() != Uninstalled || c.Len() != 0 {
		t.Fatalf("failed install must keep nothing, got %v/%d", c.State(), c.Len())
	}

	// Before install everything goes to the network.
	rec := httptest.NewRecorder()
	c.Handler(net).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "root" || rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected network response, got %q", rec.Body.String())
	}
}

func TestInstallTwiceIsNoop(t *testing.T) {
	net := newNetwork(map[string]string{"/": "root"})
	c := New("test-v1", []string{"/"}, nil)
	c.Install(context.Background(), net)
	c.Install(context.Background(), net)
	if got := net.hits["/"].Load(); got != 1 {
		t.Fatalf("expected a single precache request, got %d", got)
	}
}

func TestNonGetBypassesCache(t *testing.T) {
	net := newNetwork(map[string]string{"/": "root"})
	c := New("", []string{"/"}, nil)
	c.Install(context.Background(), net)
	if c.Name() != DefaultName {
		t.Fatalf("expected default name, got %q", c.Name())
	}

	rec := httptest.NewRecorder()
	c.Handler(net).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if got := net.hits["/"].Load(); got != 2 {
		t.Fatalf("expected POST to reach the network, hits=%d", got)
	}

	rec = httptest.NewRecorder()
	c.Handler(net).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))
	if rec.Body.Len() != 0 || rec.Header().Get("Content-Length") != "4" {
		t.Fatalf("unexpected HEAD response: len=%d cl=%s", rec.Body.Len(), rec.Header().Get("Content-Length"))
	}
}

func TestQueryStringMissesCache(t *testing.T) {
	net := newNetwork(map[string]string{"/dictionary.json": "v1"})
	c := New("test-v1", []string{"/dictionary.json"}, nil)
	if err := c.Install(context.Background(), net); err != nil {
		t.Fatalf("Install: %v", err)
	}
	net.bodies["/dictionary.json"] = "v2"
	h := c.Handler(net)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dictionary.json?t=1773480413589", nil))
	if rec.Body.String() != "v2" || rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected fresh body from network, got %q (%s)", rec.Body.String(), rec.Header().Get("X-Cache"))
	}
	if got := net.hits["/dictionary.json"].Load(); got != 2 {
		t.Fatalf("expected install plus one network hit, got %d", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dictionary.json", nil))
	if rec.Body.String() != "v1" || rec.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected precached body without query, got %q (%s)", rec.Body.String(), rec.Header().Get("X-Cache"))
	}
}
