package commands

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/photobooth/internal/booth"
	"github.com/bryanchriswhite/photobooth/internal/filter"
	"github.com/bryanchriswhite/photobooth/internal/strip"
)

func newSnapFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	snapShots, snapFilter, snapLayout, snapFrameColor, snapCaption, snapNoDate = 0, "", "", "", "", false

	cmd := &cobra.Command{Use: "snap"}
	cmd.Flags().IntVarP(&snapShots, "shots", "n", 0, "")
	cmd.Flags().StringVar(&snapFilter, "filter", "", "")
	cmd.Flags().StringVar(&snapLayout, "layout", "", "")
	cmd.Flags().StringVar(&snapFrameColor, "frame-color", "", "")
	cmd.Flags().StringVar(&snapCaption, "caption", "", "")
	cmd.Flags().BoolVar(&snapNoDate, "no-date", false, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestSnapSettingsDefaults(t *testing.T) {
	base := booth.DefaultSettings()
	base.Caption = "From config"

	got, err := snapSettings(newSnapFlags(t), base)
	if err != nil {
		t.Fatal(err)
	}
	if got != base {
		t.Errorf("settings = %+v, want %+v", got, base)
	}
}

func TestSnapSettingsFlags(t *testing.T) {
	cmd := newSnapFlags(t,
		"--shots", "2",
		"--filter", "washedblue",
		"--layout", "h",
		"--frame-color", "cream",
		"--caption", "",
		"--no-date",
	)
	base := booth.DefaultSettings()
	base.Caption = "From config"

	got, err := snapSettings(cmd, base)
	if err != nil {
		t.Fatal(err)
	}
	want := booth.Settings{
		ShotCount:  2,
		Layout:     strip.Horizontal,
		Filter:     filter.WashedBlue,
		FrameColor: strip.Cream,
	}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestSnapSettingsInvalid(t *testing.T) {
	cases := [][]string{
		{"--shots", "5"},
		{"--filter", "neon"},
		{"--layout", "diagonal"},
		{"--frame-color", "plaid"},
	}
	for _, args := range cases {
		if _, err := snapSettings(newSnapFlags(t, args...), booth.DefaultSettings()); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
