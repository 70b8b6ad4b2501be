package strategy

import (
	"strings"

	"github.com/anime-shed/channel-engine/pkg/models"
)

// Palette names
const (
	PaletteRGB = "RGB"
	PaletteSHO = "SHO"
	PaletteHSO = "HSO"
	PaletteHOO = "HOO"
)

// Channel ids used by the built-in palettes
const (
	ChannelRed   = "R"
	ChannelGreen = "G"
	ChannelBlue  = "B"
	ChannelHa    = "Ha"
	ChannelOiii  = "Oiii"
	ChannelSii   = "Sii"
)

// PaletteStrategy defines how a palette assigns channels to output roles
type PaletteStrategy interface {
	Mapping() models.ChannelMapping
	GetStrategyName() string
}

// fixedPalette is a palette with a constant role assignment
type fixedPalette struct {
	name             string
	red, green, blue string
}

// Mapping returns the role assignment; green is the mix anchor
func (p *fixedPalette) Mapping() models.ChannelMapping {
	return models.ChannelMapping{Red: p.red, Green: p.green, Blue: p.blue, Palette: p.name}
}

// GetStrategyName returns the palette name
func (p *fixedPalette) GetStrategyName() string {
	return p.name
}

// NewRGBStrategy maps broadband R, G, B to themselves
func NewRGBStrategy() PaletteStrategy {
	return &fixedPalette{name: PaletteRGB, red: ChannelRed, green: ChannelGreen, blue: ChannelBlue}
}

// NewSHOStrategy creates the Hubble palette: Sii red, Ha green, Oiii blue
func NewSHOStrategy() PaletteStrategy {
	return &fixedPalette{name: PaletteSHO, red: ChannelSii, green: ChannelHa, blue: ChannelOiii}
}

// NewHSOStrategy swaps Ha and Sii relative to SHO
func NewHSOStrategy() PaletteStrategy {
	return &fixedPalette{name: PaletteHSO, red: ChannelHa, green: ChannelSii, blue: ChannelOiii}
}

// NewHOOStrategy creates the bicolor palette with Oiii in green and blue
func NewHOOStrategy() PaletteStrategy {
	return &fixedPalette{name: PaletteHOO, red: ChannelHa, green: ChannelOiii, blue: ChannelOiii}
}

var palettes = map[string]func() PaletteStrategy{
	PaletteRGB: NewRGBStrategy,
	PaletteSHO: NewSHOStrategy,
	PaletteHSO: NewHSOStrategy,
	PaletteHOO: NewHOOStrategy,
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// IsKnownPalette reports whether name selects a built-in palette
func IsKnownPalette(name string) bool {
	_, ok := palettes[normalize(name)]
	return ok
}

// ForName returns the palette for name. Unknown names fall back to SHO.
func ForName(name string) PaletteStrategy {
	if newPalette, ok := palettes[normalize(name)]; ok {
		return newPalette()
	}
	return NewSHOStrategy()
}

// PaletteContext manages the active palette strategy
type PaletteContext struct {
	strategy PaletteStrategy
}

// NewPaletteContext creates a new palette context
func NewPaletteContext(strategy PaletteStrategy) *PaletteContext {
	return &PaletteContext{
		strategy: strategy,
	}
}

// SetStrategy changes the palette strategy
func (c *PaletteContext) SetStrategy(strategy PaletteStrategy) {
	c.strategy = strategy
}

// GetCurrentStrategy returns the current palette name
func (c *PaletteContext) GetCurrentStrategy() string {
	return c.strategy.GetStrategyName()
}

// Resolve returns the active mapping and the ids it needs that are not in available
func (c *PaletteContext) Resolve(available []string) (models.ChannelMapping, []string) {
	mapping := c.strategy.Mapping()
	have := make(map[string]bool, len(available))
	for _, id := range available {
		have[id] = true
	}
	var missing []string
	for _, id := range mapping.Channels() {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return mapping, missing
}
