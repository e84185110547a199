package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

type mergeOverlay struct {
	Bindings []BindingConfig `toml:"bindings"`
}

func getConfigFilePath() string {
	var configDirs []string

	// useful during development or other non-standard setups.
	if dir := os.Getenv("THREADVIEW_CONFIG_DIR"); dir != "" {
		if s, err := os.Stat(dir); err == nil && s.IsDir() {
			return filepath.Join(dir, "config.toml")
		}
	}

	// os.UserConfigDir() already does this for linux leaving darwin to handle
	if runtime.GOOS == "darwin" {
		configDirs = append(configDirs, path.Join(os.Getenv("HOME"), ".config"))
		xdgConfigDir := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigDir != "" {
			configDirs = append(configDirs, xdgConfigDir)
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		configDirs = append(configDirs, configDir)
	}

	for _, dir := range configDirs {
		configPath := filepath.Join(dir, "threadview", "config.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	if len(configDirs) > 0 {
		return filepath.Join(configDirs[0], "threadview", "config.toml")
	}
	return ""
}

func GetConfigDir() string {
	configFile := getConfigFilePath()
	if configFile == "" {
		return ""
	}
	return filepath.Dir(configFile)
}

func loadDefaultConfig() *Config {
	data, err := configFS.ReadFile("default/config.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: no embedded default config found: %v\n", err)
		os.Exit(1)
	}

	config := &Config{}
	if err := config.Load(string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load embedded default config: %v\n", err)
		os.Exit(1)
	}
	return config
}

// Default returns a fresh copy of the embedded configuration.
func Default() *Config {
	return loadDefaultConfig()
}

// Load decodes data over c. Bindings are merged into the existing ones
// instead of replacing them.
func (c *Config) Load(data string) error {
	baseBindings := append([]BindingConfig(nil), c.Bindings...)
	baseColors := c.UI.Colors
	c.UI.Colors = nil

	metadata, err := toml.Decode(data, c)
	if err != nil {
		return err
	}

	overlay := &mergeOverlay{}
	if _, err := toml.Decode(data, overlay); err != nil {
		return err
	}
	if metadata.IsDefined("bindings") {
		c.Bindings = mergeBindings(baseBindings, overlay.Bindings)
	}
	switch {
	case c.UI.Colors == nil:
		c.UI.Colors = baseColors
	case baseColors != nil:
		c.UI.Colors = mergeColors(baseColors, c.UI.Colors)
	}

	return c.ValidateBindings()
}

func mergeColors(base, over map[string]Color) map[string]Color {
	out := make(map[string]Color, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = out[k].Merge(v)
	}
	return out
}

func LoadConfigFile() ([]byte, error) {
	configFile := getConfigFilePath()
	_, err := os.Stat(configFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// LoadConfig returns the embedded defaults with the user's config file, if
// any, decoded over them.
func LoadConfig() (*Config, error) {
	cfg := loadDefaultConfig()
	data, err := LoadConfigFile()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.Load(string(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", getConfigFilePath(), err)
	}
	return cfg, nil
}

func loadTheme(data []byte, base map[string]Color) (map[string]Color, error) {
	colors := make(map[string]Color)
	for key, color := range base {
		colors[key] = color
	}
	err := toml.Unmarshal(data, &colors)
	if err != nil {
		return nil, err
	}
	return colors, nil
}

func LoadEmbeddedTheme(name string) (map[string]Color, error) {
	embeddedPath := "default/" + name + ".toml"
	data, err := configFS.ReadFile(embeddedPath)
	if err != nil {
		return nil, err
	}
	return loadTheme(data, nil)
}

func LoadTheme(name string, base map[string]Color) (map[string]Color, error) {
	configFilePath := getConfigFilePath()
	themeFile := filepath.Join(filepath.Dir(configFilePath), "themes", name+".toml")

	data, err := os.ReadFile(themeFile)
	if err != nil {
		return nil, err
	}
	return loadTheme(data, base)
}

// ResolveTheme loads the named theme from the user's theme directory, falling
// back to the embedded one, and applies ui.colors on top.
func (c *Config) ResolveTheme() (map[string]Color, error) {
	name := c.UI.Theme
	if name == "" {
		name = "default"
	}
	base, err := LoadEmbeddedTheme("theme_default")
	if err != nil {
		return nil, err
	}
	colors := base
	if name != "default" {
		colors, err = LoadTheme(name, base)
		if err != nil {
			if embedded, eerr := LoadEmbeddedTheme("theme_" + name); eerr == nil {
				colors = mergeColors(base, embedded)
			} else {
				return nil, fmt.Errorf("theme %q: %w", name, err)
			}
		}
	}
	return mergeColors(colors, c.UI.Colors), nil
}
