package config

import (
	"fmt"
	"slices"
	"strings"
)

// StringList allows TOML values to be specified as a string or array of strings.
type StringList []string

func (l *StringList) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*l = StringList{v}
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string in list, got %T", item)
			}
			out = append(out, s)
		}
		*l = StringList(out)
		return nil
	default:
		return fmt.Errorf("expected string or list of strings, got %T", value)
	}
}

type BindingConfig struct {
	Action string     `toml:"action"`
	Key    StringList `toml:"key"`
	Scope  string     `toml:"scope"`
	Desc   string     `toml:"desc"`
}

// Scopes are the input contexts a binding can apply to.
const (
	ScopeStream   = "stream"
	ScopeSearch   = "search"
	ScopeComposer = "composer"
	ScopeUI       = "ui"
)

// Actions lists every action a binding may name.
var Actions = []string{
	"stream.line_down",
	"stream.line_up",
	"stream.page_down",
	"stream.page_up",
	"stream.top",
	"stream.bottom",
	"stream.search",
	"post.copy_url",
	"post.open",
	"post.refresh",
	"ui.toggle_composer",
	"ui.help",
	"ui.quit",
	"search.accept",
	"search.cancel",
	"composer.submit",
	"composer.cancel",
}

func (c *Config) ValidateBindings() error {
	scopes := []string{ScopeStream, ScopeSearch, ScopeComposer, ScopeUI}
	for i, b := range c.Bindings {
		action := strings.TrimSpace(b.Action)
		if action == "" {
			return fmt.Errorf("bindings[%d]: action is required", i)
		}
		if !slices.Contains(Actions, action) {
			return fmt.Errorf("bindings[%d]: unknown action %q", i, action)
		}
		if !slices.Contains(scopes, strings.TrimSpace(b.Scope)) {
			return fmt.Errorf("bindings[%d]: unknown scope %q", i, b.Scope)
		}
		if len(b.Key) == 0 {
			return fmt.Errorf("bindings[%d]: key is required", i)
		}
	}
	return nil
}

// KeysFor returns the keys bound to action in any scope, in binding order.
func (c *Config) KeysFor(action string) []string {
	var keys []string
	for _, b := range c.Bindings {
		if strings.TrimSpace(b.Action) == action {
			keys = append(keys, b.Key...)
		}
	}
	return keys
}

// HelpFor returns the description of the first binding of action.
func (c *Config) HelpFor(action string) string {
	for _, b := range c.Bindings {
		if strings.TrimSpace(b.Action) == action && b.Desc != "" {
			return b.Desc
		}
	}
	return action
}
