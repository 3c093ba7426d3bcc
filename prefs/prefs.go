// Package prefs stores the two display preferences, theme and contrast, and
// maps them to the classes and indicator glyphs the UI renders.
package prefs

import (
	"errors"
	"fmt"

	"mm-replacer/store"
)

var ErrInvalidValue = errors.New("invalid preference value")

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type Contrast string

const (
	ContrastOff Contrast = "off"
	ContrastOn  Contrast = "on"
)

// Defaults applied when nothing is stored.
const (
	DefaultTheme    = ThemeDark
	DefaultContrast = ContrastOff
)

// ResetMessage is shown after Reset.
const ResetMessage = "Preferences reset to default"

// Preferences is the effective display state.
type Preferences struct {
	Theme    Theme    `json:"theme"`
	Contrast Contrast `json:"contrast"`
}

// View is what the presentation layer applies to the document root.
type View struct {
	Classes       []string `json:"classes"`
	ThemeGlyph    string   `json:"themeGlyph"`
	ContrastGlyph string   `json:"contrastGlyph"`
}

func (p Preferences) View() View {
	v := View{Classes: []string{}, ThemeGlyph: "🌙", ContrastGlyph: "⬜"}
	if p.Theme == ThemeLight {
		v.Classes = append(v.Classes, "light")
		v.ThemeGlyph = "☀️"
	}
	if p.Contrast == ContrastOn {
		v.Classes = append(v.Classes, "high-contrast")
		v.ContrastGlyph = "🔳"
	}
	return v
}

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: theme %q", ErrInvalidValue, s)
}

func ParseContrast(s string) (Contrast, error) {
	switch Contrast(s) {
	case ContrastOff, ContrastOn:
		return Contrast(s), nil
	}
	return "", fmt.Errorf("%w: contrast %q", ErrInvalidValue, s)
}

// KV is the subset of the local store preferences need.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

var _ KV = (*store.Store)(nil)

// Service reads and flips stored preferences.
type Service struct {
	kv KV
}

func NewService(kv KV) *Service {
	return &Service{kv: kv}
}

// Current returns the stored preferences, falling back to defaults. When no
// theme is stored and the host prefers a light color scheme, the light theme
// is used. Stored values that fail to parse are treated as absent.
func (s *Service) Current(hostPrefersLight bool) Preferences {
	p := Preferences{Theme: DefaultTheme, Contrast: DefaultContrast}
	if t, ok := s.storedTheme(); ok {
		p.Theme = t
	} else if hostPrefersLight {
		p.Theme = ThemeLight
	}
	if c, ok := s.storedContrast(); ok {
		p.Contrast = c
	}
	return p
}

func (s *Service) SetTheme(t Theme) (Preferences, error) {
	if _, err := ParseTheme(string(t)); err != nil {
		return Preferences{}, err
	}
	if err := s.kv.Set(store.KeyTheme, string(t)); err != nil {
		return Preferences{}, err
	}
	return s.Current(false), nil
}

func (s *Service) SetContrast(c Contrast) (Preferences, error) {
	if _, err := ParseContrast(string(c)); err != nil {
		return Preferences{}, err
	}
	if err := s.kv.Set(store.KeyContrast, string(c)); err != nil {
		return Preferences{}, err
	}
	return s.Current(false), nil
}

// ToggleTheme flips the stored theme, starting from the default when unset.
func (s *Service) ToggleTheme() (Preferences, error) {
	current, ok := s.storedTheme()
	if !ok {
		current = DefaultTheme
	}
	next := ThemeLight
	if current == ThemeLight {
		next = ThemeDark
	}
	return s.SetTheme(next)
}

// ToggleContrast flips the stored contrast, starting from the default when unset.
func (s *Service) ToggleContrast() (Preferences, error) {
	current, ok := s.storedContrast()
	if !ok {
		current = DefaultContrast
	}
	next := ContrastOn
	if current == ContrastOn {
		next = ContrastOff
	}
	return s.SetContrast(next)
}

// Reset removes both stored preferences and returns the defaults.
func (s *Service) Reset() (Preferences, error) {
	if err := s.kv.Delete(store.KeyTheme, store.KeyContrast); err != nil {
		return Preferences{}, err
	}
	return Preferences{Theme: DefaultTheme, Contrast: DefaultContrast}, nil
}

func (s *Service) storedTheme() (Theme, bool) {
	raw, ok := s.kv.Get(store.KeyTheme)
	if !ok {
		return "", false
	}
	t, err := ParseTheme(raw)
	return t, err == nil
}

func (s *Service) storedContrast() (Contrast, bool) {
	raw, ok := s.kv.Get(store.KeyContrast)
	if !ok {
		return "", false
	}
	c, err := ParseContrast(raw)
	return c, err == nil
}
