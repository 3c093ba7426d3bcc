package cli

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"mm-replacer/prefs"
)

func newPrefsCmd(stdout io.Writer, staticFS fs.FS) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change display preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrefs(cmd, staticFS, func(svc *prefs.Service) (prefs.Preferences, error) {
				return svc.Current(false), nil
			}, stdout)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Set the theme, or toggle it when no value is given",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(prefs.ThemeLight), string(prefs.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrefs(cmd, staticFS, func(svc *prefs.Service) (prefs.Preferences, error) {
				if len(args) == 0 {
					return svc.ToggleTheme()
				}
				t, err := prefs.ParseTheme(args[0])
				if err != nil {
					return prefs.Preferences{}, err
				}
				return svc.SetTheme(t)
			}, stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "contrast [on|off]",
		Short:     "Set high contrast, or toggle it when no value is given",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(prefs.ContrastOn), string(prefs.ContrastOff)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrefs(cmd, staticFS, func(svc *prefs.Service) (prefs.Preferences, error) {
				if len(args) == 0 {
					return svc.ToggleContrast()
				}
				c, err := prefs.ParseContrast(args[0])
				if err != nil {
					return prefs.Preferences{}, err
				}
				return svc.SetContrast(c)
			}, stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clear stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withPrefs(cmd, staticFS, func(svc *prefs.Service) (prefs.Preferences, error) {
				return svc.Reset()
			}, stdout)
			if err == nil {
				fmt.Fprintln(stdout, prefs.ResetMessage)
			}
			return err
		},
	})

	return cmd
}

func withPrefs(cmd *cobra.Command, staticFS fs.FS, fn func(*prefs.Service) (prefs.Preferences, error), stdout io.Writer) error {
	rt, err := newRuntime(cmd, staticFS)
	if err != nil {
		return err
	}
	defer rt.close()

	p, err := fn(rt.app.Prefs())
	if err != nil {
		return err
	}
	v := p.View()
	fmt.Fprintf(stdout, "theme:    %s %s\n", p.Theme, v.ThemeGlyph)
	fmt.Fprintf(stdout, "contrast: %s %s\n", p.Contrast, v.ContrastGlyph)
	return nil
}
