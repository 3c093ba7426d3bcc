// Package dictionary keeps the replacement rule list in step with its remote
// source and the local store.
package dictionary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mm-replacer/replace"
	"mm-replacer/store"
)

var (
	ErrNetwork = errors.New("dictionary fetch failed")
	ErrParse   = errors.New("dictionary parse failed")
)

// DefaultMaxAge is how long a synced dictionary is reused before refetching.
const DefaultMaxAge = 24 * time.Hour

// TimestampLayout matches the ISO-8601 form browsers produce for toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// State is the rule list in use plus the time it was last fetched.
// A zero LastSync means the dictionary has never been synced.
type State struct {
	Rules    []replace.Rule `json:"rules"`
	LastSync time.Time      `json:"lastSync"`
}

// KV is the subset of the local store the syncer needs.
type KV interface {
	Get(key string) (string, bool)
	SetMany(kv map[string]string) error
}

// Syncer refreshes State from a Source.
type Syncer struct {
	Source Source
	Store  KV
	MaxAge time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

// NewSyncer returns a Syncer with the default max age and wall clock.
func NewSyncer(src Source, kv KV, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{Source: src, Store: kv, MaxAge: DefaultMaxAge, Now: time.Now, Logger: logger}
}

// Parse decodes a dictionary document. Every rule pattern must compile.
func Parse(data []byte) ([]replace.Rule, error) {
	var rules []replace.Rule
	if err := json.Unmarshal(bytes.TrimSpace(data), &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if rules == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrParse)
	}
	if err := replace.Compile(rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rules, nil
}

// LastSync returns the stored sync time. ok is false when no timestamp is
// stored or it does not parse.
func (s *Syncer) LastSync() (time.Time, bool) {
	raw, ok := s.Store.Get(store.KeyLastSync)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.Logger.Warn("ignoring unparseable sync timestamp", zap.String("value", raw))
		return time.Time{}, false
	}
	return t, true
}

// Due reports whether a non-forced sync would fetch from the source.
func (s *Syncer) Due() bool {
	last, ok := s.LastSync()
	if !ok {
		return true
	}
	return s.now().Sub(last) > s.maxAge()
}

// Sync returns the next State. It fetches when force is set or the stored
// dictionary is missing or stale, and otherwise loads the stored copy. On
// failure prev is returned unchanged with an error wrapping ErrNetwork,
// ErrParse or store.ErrUnavailable.
func (s *Syncer) Sync(ctx context.Context, prev State, force bool) (State, error) {
	if !force && !s.Due() {
		return s.loadStored(prev)
	}

	runID := uuid.NewString()
	log := s.Logger.With(zap.String("sync_id", runID), zap.Stringer("source", s.Source), zap.Bool("force", force))
	log.Info("fetching dictionary")

	data, err := s.Source.Fetch(ctx)
	if err != nil {
		log.Error("error fetching dictionary", zap.Error(err))
		return prev, err
	}
	rules, err := Parse(data)
	if err != nil {
		log.Error("error parsing dictionary", zap.Error(err))
		return prev, err
	}

	encoded, err := json.Marshal(rules)
	if err != nil {
		return prev, fmt.Errorf("%w: %v", ErrParse, err)
	}
	now := s.now().UTC()
	if err := s.Store.SetMany(map[string]string{
		store.KeyDictionary: string(encoded),
		store.KeyLastSync:   now.Format(TimestampLayout),
	}); err != nil {
		log.Error("error persisting dictionary", zap.Error(err))
		return prev, err
	}

	log.Info("dictionary synced", zap.Int("rules", len(rules)))
	return State{Rules: rules, LastSync: now.Truncate(time.Millisecond)}, nil
}

// Load returns the stored dictionary without contacting the source. prev is
// returned if the stored copy cannot be decoded.
func (s *Syncer) Load(prev State) (State, error) {
	return s.loadStored(prev)
}

func (s *Syncer) loadStored(prev State) (State, error) {
	last, _ := s.LastSync()
	raw, ok := s.Store.Get(store.KeyDictionary)
	if !ok || raw == "" {
		raw = "[]"
	}
	var rules []replace.Rule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		err = fmt.Errorf("%w: stored dictionary: %v", ErrParse, err)
		s.Logger.Error("error loading stored dictionary", zap.Error(err))
		return prev, err
	}
	if rules == nil {
		rules = []replace.Rule{}
	}
	s.Logger.Debug("using stored dictionary", zap.Int("rules", len(rules)), zap.Time("last_sync", last))
	return State{Rules: rules, LastSync: last}, nil
}

func (s *Syncer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Syncer) maxAge() time.Duration {
	if s.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return s.MaxAge
}

// StatusLine renders the sync-status display text.
func StatusLine(last time.Time) string {
	if last.IsZero() {
		return "Not synced yet"
	}
	return "Last synced: " + last.Local().Format("1/2/2006, 3:04:05 PM")
}
