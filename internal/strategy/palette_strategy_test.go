package strategy

import (
	"reflect"
	"testing"

	"github.com/anime-shed/channel-engine/pkg/models"
)

func TestForName_Mappings(t *testing.T) {
	testCases := []struct {
		name string
		want models.ChannelMapping
	}{
		{"RGB", models.ChannelMapping{Red: "R", Green: "G", Blue: "B", Palette: "RGB"}},
		{"SHO", models.ChannelMapping{Red: "Sii", Green: "Ha", Blue: "Oiii", Palette: "SHO"}},
		{"HSO", models.ChannelMapping{Red: "Ha", Green: "Sii", Blue: "Oiii", Palette: "HSO"}},
		{"HOO", models.ChannelMapping{Red: "Ha", Green: "Oiii", Blue: "Oiii", Palette: "HOO"}},
		{" hoo ", models.ChannelMapping{Red: "Ha", Green: "Oiii", Blue: "Oiii", Palette: "HOO"}},
		{"unknown", models.ChannelMapping{Red: "Sii", Green: "Ha", Blue: "Oiii", Palette: "SHO"}},
		{"", models.ChannelMapping{Red: "Sii", Green: "Ha", Blue: "Oiii", Palette: "SHO"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ForName(tc.name).Mapping(); got != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestIsKnownPalette(t *testing.T) {
	for _, name := range []string{"RGB", "sho", " HSO", "hoo"} {
		if !IsKnownPalette(name) {
			t.Errorf("Expected %q to be known", name)
		}
	}
	if IsKnownPalette("OSH") {
		t.Error("Expected OSH to be unknown")
	}
}

func TestPaletteContext(t *testing.T) {
	ctx := NewPaletteContext(NewRGBStrategy())
	if ctx.GetCurrentStrategy() != PaletteRGB {
		t.Errorf("Expected RGB, got %s", ctx.GetCurrentStrategy())
	}

	ctx.SetStrategy(NewHOOStrategy())
	mapping, missing := ctx.Resolve([]string{"Ha"})
	if mapping.Green != ChannelOiii {
		t.Errorf("Expected Oiii anchor, got %s", mapping.Green)
	}
	if !reflect.DeepEqual(missing, []string{"Oiii"}) {
		t.Errorf("Expected Oiii to be missing once, got %v", missing)
	}

	_, missing = ctx.Resolve([]string{"Ha", "Oiii"})
	if len(missing) != 0 {
		t.Errorf("Expected nothing missing, got %v", missing)
	}
}
