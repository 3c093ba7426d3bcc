// Package app ties the dictionary syncer, replacement engine, preferences and
// event hub together around one explicit State value.
package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mm-replacer/dictionary"
	"mm-replacer/events"
	"mm-replacer/prefs"
	"mm-replacer/replace"
)

// Status is what the sync-status display shows.
type Status struct {
	LastSync  string `json:"lastSync,omitempty"`
	Line      string `json:"line"`
	Rules     int    `json:"rules"`
	Due       bool   `json:"due"`
	LastError string `json:"lastError,omitempty"`
}

// ReplaceResult is a replacement run plus its report line.
type ReplaceResult struct {
	replace.Result
	Report string `json:"report"`
}

// App is safe for concurrent use.
type App struct {
	syncer *dictionary.Syncer
	engine *replace.Engine
	prefs  *prefs.Service
	hub    *events.Hub
	logger *zap.Logger

	group       singleflight.Group
	runMu       sync.Mutex // one sync run at a time
	syncTimeout time.Duration

	mu      sync.RWMutex
	state   dictionary.State
	lastErr error
}

type Options struct {
	Syncer      *dictionary.Syncer
	Engine      *replace.Engine
	Prefs       *prefs.Service
	Hub         *events.Hub
	Logger      *zap.Logger
	SyncTimeout time.Duration
}

func New(opts Options) *App {
	a := &App{
		syncer:      opts.Syncer,
		engine:      opts.Engine,
		prefs:       opts.Prefs,
		hub:         opts.Hub,
		logger:      opts.Logger,
		syncTimeout: opts.SyncTimeout,
		state:       dictionary.State{Rules: []replace.Rule{}},
	}
	if a.engine == nil {
		a.engine = replace.NewEngine(0)
	}
	if a.hub == nil {
		a.hub = events.NewHub()
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Sync refreshes the rule list. A trigger that arrives while a sync with the
// same force flag is in flight joins it instead of starting a second fetch.
// A forced trigger never joins an unforced run: it waits for that run to
// finish and then fetches. Failures leave the current rules in place and are
// returned for the caller to surface.
func (a *App) Sync(ctx context.Context, force bool) (Status, error) {
	key := "sync"
	if force {
		key = "sync:force"
	}
	_, err, shared := a.group.Do(key, func() (any, error) {
		// Detached from the caller: joined callers share this run.
		return nil, a.runSync(context.WithoutCancel(ctx), force)
	})
	if shared {
		a.logger.Debug("joined in-flight sync", zap.Bool("force", force))
	}
	return a.Status(), err
}

func (a *App) runSync(ctx context.Context, force bool) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.syncTimeout)
		defer cancel()
	}

	a.hub.Publish(events.Event{Type: events.SyncStarted, Rules: a.ruleCount()})

	a.mu.RLock()
	prev := a.state
	a.mu.RUnlock()

	next, err := a.syncer.Sync(ctx, prev, force)

	a.mu.Lock()
	a.state = next
	a.lastErr = err
	a.mu.Unlock()

	ev := events.Event{Type: events.SyncDone, LastSync: formatSync(next.LastSync), Status: dictionary.StatusLine(next.LastSync), Rules: len(next.Rules)}
	if err != nil {
		ev.Type = events.SyncFailed
		ev.Error = err.Error()
	}
	a.hub.Publish(ev)
	return err
}

// Restore loads the last stored dictionary into memory without fetching, so
// a later failed sync still leaves the last known good rules in use.
func (a *App) Restore() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.syncer.Load(a.state)
	a.state = next
	return err
}

// Replace applies the current rule list to input.
func (a *App) Replace(input string) (ReplaceResult, error) {
	res, err := a.engine.Apply(input, a.Rules())
	if err != nil {
		a.logger.Warn("replacement failed", zap.Error(err))
		return ReplaceResult{Result: res, Report: replace.Report(res.Matched)}, err
	}
	return ReplaceResult{Result: res, Report: replace.Report(res.Matched)}, nil
}

// Rules returns a copy of the current rule list.
func (a *App) Rules() []replace.Rule {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]replace.Rule{}, a.state.Rules...)
}

func (a *App) Status() Status {
	a.mu.RLock()
	st := Status{
		LastSync: formatSync(a.state.LastSync),
		Line:     dictionary.StatusLine(a.state.LastSync),
		Rules:    len(a.state.Rules),
	}
	if a.lastErr != nil {
		st.LastError = a.lastErr.Error()
	}
	a.mu.RUnlock()
	st.Due = a.syncer.Due()
	return st
}

func (a *App) Prefs() *prefs.Service { return a.prefs }

func (a *App) Events() *events.Hub { return a.hub }

func (a *App) ruleCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.state.Rules)
}

func formatSync(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dictionary.TimestampLayout)
}
