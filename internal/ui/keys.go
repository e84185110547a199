package ui

import (
	"strings"

	"charm.land/bubbles/v2/key"

	"github.com/idursun/threadview/internal/config"
	"github.com/idursun/threadview/internal/ui/composer"
	"github.com/idursun/threadview/internal/ui/helpkeys"
)

type keyMap struct {
	LineDown key.Binding
	LineUp   key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Search   key.Binding

	CopyURL key.Binding
	Open    key.Binding
	Refresh key.Binding

	Composer key.Binding
	Help     key.Binding
	Quit     key.Binding

	Accept key.Binding
	Cancel key.Binding

	Submit  key.Binding
	Discard key.Binding
}

func newKeyMap(c *config.Config) keyMap {
	bind := func(action string) key.Binding {
		keys := c.KeysFor(action)
		labels := make([]string, len(keys))
		for i, k := range keys {
			labels[i] = helpkeys.NormalizeDisplayKey(k)
		}
		return key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(labels, "/"), c.HelpFor(action)),
		)
	}
	return keyMap{
		LineDown: bind("stream.line_down"),
		LineUp:   bind("stream.line_up"),
		PageDown: bind("stream.page_down"),
		PageUp:   bind("stream.page_up"),
		Top:      bind("stream.top"),
		Bottom:   bind("stream.bottom"),
		Search:   bind("stream.search"),
		CopyURL:  bind("post.copy_url"),
		Open:     bind("post.open"),
		Refresh:  bind("post.refresh"),
		Composer: bind("ui.toggle_composer"),
		Help:     bind("ui.help"),
		Quit:     bind("ui.quit"),
		Accept:   bind("search.accept"),
		Cancel:   bind("search.cancel"),
		Submit:   bind("composer.submit"),
		Discard:  bind("composer.cancel"),
	}
}

func (k keyMap) composer() composer.KeyMap {
	return composer.KeyMap{Submit: k.Submit, Cancel: k.Discard}
}
