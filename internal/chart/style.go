package chart

// Style holds the visual parameters shared by every factory.
type Style struct {
	Palette           []string `yaml:"palette" json:"palette"`
	BorderColor       string   `yaml:"border_color" json:"border_color"`
	BorderWidth       int      `yaml:"border_width" json:"border_width"`
	TextColor         string   `yaml:"text_color" json:"text_color"`
	TooltipBackground string   `yaml:"tooltip_background" json:"tooltip_background"`
	AccentColor       string   `yaml:"accent_color" json:"accent_color"`
	// Size of the static SVG rendering in pixels
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DefaultStyle returns the dark theme used by the report page.
func DefaultStyle() Style {
	return Style{
		Palette:           []string{"#7e57c2", "#19c37d", "#fbc02d"},
		BorderColor:       "#2a2b32",
		BorderWidth:       4,
		TextColor:         "#ececf1",
		TooltipBackground: "rgba(0,0,0,0.8)",
		AccentColor:       "#7e57c2",
		Width:             480,
		Height:            420,
	}
}

// WithDefaults fills zero fields from DefaultStyle.
func (s Style) WithDefaults() Style {
	d := DefaultStyle()
	if len(s.Palette) == 0 {
		s.Palette = d.Palette
	}
	if s.BorderColor == "" {
		s.BorderColor = d.BorderColor
	}
	if s.BorderWidth <= 0 {
		s.BorderWidth = d.BorderWidth
	}
	if s.TextColor == "" {
		s.TextColor = d.TextColor
	}
	if s.TooltipBackground == "" {
		s.TooltipBackground = d.TooltipBackground
	}
	if s.AccentColor == "" {
		s.AccentColor = d.AccentColor
	}
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Height <= 0 {
		s.Height = d.Height
	}
	return s
}

// Color returns the palette color for slice i, cycling when the palette is shorter.
func (s Style) Color(i int) string {
	if len(s.Palette) == 0 {
		return DefaultStyle().Palette[i%3]
	}
	return s.Palette[i%len(s.Palette)]
}
