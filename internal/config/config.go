package config

import (
	"embed"
	"fmt"
	"time"
)

//go:embed default/*.toml
var configFS embed.FS

// Current is the configuration the program runs with. main replaces it
// with the result of LoadConfig.
var Current = loadDefaultConfig()

type Config struct {
	Viewport  ViewportConfig  `toml:"viewport"`
	UI        UIConfig        `toml:"ui"`
	ReadState ReadStateConfig `toml:"readstate"`
	Site      SiteConfig      `toml:"site"`
	Bindings  []BindingConfig `toml:"bindings"`
}

type ViewportConfig struct {
	// Slack is the nearby window on each side of the screen, in screen
	// heights.
	Slack                   float64 `toml:"slack"`
	DebounceIntervalMs      int     `toml:"debounce_interval_ms"`
	TouchDebounceIntervalMs int     `toml:"touch_debounce_interval_ms"`
	ReadLineOffset          int     `toml:"read_line_offset"`
}

func (v ViewportConfig) DebounceInterval() time.Duration {
	return time.Duration(v.DebounceIntervalMs) * time.Millisecond
}

func (v ViewportConfig) TouchDebounceInterval() time.Duration {
	return time.Duration(v.TouchDebounceIntervalMs) * time.Millisecond
}

type UIConfig struct {
	Theme                   string           `toml:"theme"`
	RelativeDatesIntervalMs int              `toml:"relative_dates_interval_ms"`
	CloakedHeight           int              `toml:"cloaked_height"`
	Colors                  map[string]Color `toml:"colors"`
}

func (u UIConfig) RelativeDatesInterval() time.Duration {
	return time.Duration(u.RelativeDatesIntervalMs) * time.Millisecond
}

type ReadStateConfig struct {
	Path string `toml:"path"`
}

type SiteConfig struct {
	BaseURL string `toml:"base_url"`
	// Username signs posts written in the composer.
	Username string `toml:"username"`
}

// Color is a style entry. It can be written as a plain foreground colour
// or as a table.
type Color struct {
	Fg        string `toml:"fg"`
	Bg        string `toml:"bg"`
	Bold      *bool  `toml:"bold"`
	Italic    *bool  `toml:"italic"`
	Underline *bool  `toml:"underline"`
	Faint     *bool  `toml:"faint"`
}

func (c *Color) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*c = Color{Fg: v}
		return nil
	case map[string]any:
		out := Color{}
		for key, raw := range v {
			switch key {
			case "fg", "bg":
				s, ok := raw.(string)
				if !ok {
					return fmt.Errorf("color %s: expected string, got %T", key, raw)
				}
				if key == "fg" {
					out.Fg = s
				} else {
					out.Bg = s
				}
			case "bold", "italic", "underline", "faint":
				b, ok := raw.(bool)
				if !ok {
					return fmt.Errorf("color %s: expected bool, got %T", key, raw)
				}
				switch key {
				case "bold":
					out.Bold = &b
				case "italic":
					out.Italic = &b
				case "underline":
					out.Underline = &b
				case "faint":
					out.Faint = &b
				}
			default:
				return fmt.Errorf("color: unknown field %q", key)
			}
		}
		*c = out
		return nil
	default:
		return fmt.Errorf("color: expected string or table, got %T", value)
	}
}

// Merge returns c with the fields set in over replacing its own.
func (c Color) Merge(over Color) Color {
	if over.Fg != "" {
		c.Fg = over.Fg
	}
	if over.Bg != "" {
		c.Bg = over.Bg
	}
	if over.Bold != nil {
		c.Bold = over.Bold
	}
	if over.Italic != nil {
		c.Italic = over.Italic
	}
	if over.Underline != nil {
		c.Underline = over.Underline
	}
	if over.Faint != nil {
		c.Faint = over.Faint
	}
	return c
}
