package prefs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-replacer/prefs"
	"mm-replacer/store"
)

func newService(t *testing.T) (*prefs.Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return prefs.NewService(st), st
}

func TestDefaults(t *testing.T) {
	svc, _ := newService(t)
	assert.Equal(t, prefs.Preferences{Theme: prefs.ThemeDark, Contrast: prefs.ContrastOff}, svc.Current(false))
}

func TestHostLightPreference(t *testing.T) {
	svc, _ := newService(t)
	assert.Equal(t, prefs.ThemeLight, svc.Current(true).Theme)

	_, err := svc.SetTheme(prefs.ThemeDark)
	require.NoError(t, err)
	assert.Equal(t, prefs.ThemeDark, svc.Current(true).Theme, "stored value wins over host signal")
}

func TestSetThemeRoundTrip(t *testing.T) {
	svc, st := newService(t)
	p, err := svc.SetTheme(prefs.ThemeLight)
	require.NoError(t, err)
	assert.Equal(t, prefs.ThemeLight, p.Theme)

	raw, ok := st.Get(store.KeyTheme)
	assert.True(t, ok)
	assert.Equal(t, "light", raw)

	reopened, err := store.Open(st.Path())
	require.NoError(t, err)
	assert.Equal(t, prefs.ThemeLight, prefs.NewService(reopened).Current(false).Theme)
}

func TestToggle(t *testing.T) {
	svc, _ := newService(t)

	p, err := svc.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, prefs.ThemeLight, p.Theme)
	p, err = svc.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, prefs.ThemeDark, p.Theme)

	p, err = svc.ToggleContrast()
	require.NoError(t, err)
	assert.Equal(t, prefs.ContrastOn, p.Contrast)
	assert.Equal(t, prefs.ThemeDark, p.Theme, "contrast toggle leaves theme alone")
	p, err = svc.ToggleContrast()
	require.NoError(t, err)
	assert.Equal(t, prefs.ContrastOff, p.Contrast)
}

func TestReset(t *testing.T) {
	svc, st := newService(t)
	svc.SetTheme(prefs.ThemeLight)
	svc.SetContrast(prefs.ContrastOn)

	p, err := svc.Reset()
	require.NoError(t, err)
	assert.Equal(t, prefs.Preferences{Theme: prefs.ThemeDark, Contrast: prefs.ContrastOff}, p)
	assert.Equal(t, p, svc.Current(false))

	_, themeStored := st.Get(store.KeyTheme)
	_, contrastStored := st.Get(store.KeyContrast)
	assert.False(t, themeStored)
	assert.False(t, contrastStored)
}

func TestInvalidValues(t *testing.T) {
	svc, st := newService(t)
	_, err := svc.SetTheme("sepia")
	assert.ErrorIs(t, err, prefs.ErrInvalidValue)
	_, err = svc.SetContrast("max")
	assert.ErrorIs(t, err, prefs.ErrInvalidValue)

	// Garbage written by something else is treated as unset.
	require.NoError(t, st.Set(store.KeyTheme, "neon"))
	assert.Equal(t, prefs.ThemeDark, svc.Current(false).Theme)
	p, err := svc.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, prefs.ThemeLight, p.Theme)
}

func TestView(t *testing.T) {
	v := prefs.Preferences{Theme: prefs.ThemeDark, Contrast: prefs.ContrastOff}.View()
	assert.Empty(t, v.Classes)
	assert.Equal(t, "🌙", v.ThemeGlyph)
	assert.Equal(t, "⬜", v.ContrastGlyph)

	v = prefs.Preferences{Theme: prefs.ThemeLight, Contrast: prefs.ContrastOn}.View()
	assert.Equal(t, []string{"light", "high-contrast"}, v.Classes)
	assert.Equal(t, "☀️", v.ThemeGlyph)
	assert.Equal(t, "🔳", v.ContrastGlyph)
}
