package helpkeys

import (
	"strings"

	"github.com/idursun/threadview/internal/config"
)

// Entry is a status-help key entry rendered as "key description".
type Entry struct {
	Label string
	Desc  string
}

// BuildFromBindings returns short-help entries for the provided scopes.
// Scopes are expected from innermost to outermost; an action already listed
// by an inner scope is skipped.
func BuildFromBindings(scopes []string, bindings []config.BindingConfig) []Entry {
	bindingsByScope := make(map[string][]config.BindingConfig)
	for _, binding := range bindings {
		scope := strings.TrimSpace(binding.Scope)
		bindingsByScope[scope] = append(bindingsByScope[scope], binding)
	}

	seenActions := map[string]struct{}{}
	entries := make([]Entry, 0)

	for _, scope := range scopes {
		for _, b := range bindingsByScope[scope] {
			action := strings.TrimSpace(b.Action)
			if action == "" {
				continue
			}
			leaf := actionToken(action)
			if _, seen := seenActions[leaf]; seen {
				continue
			}
			seenActions[leaf] = struct{}{}

			label := BindingLabel(b)
			if label == "" {
				continue
			}
			entries = append(entries, Entry{
				Label: label,
				Desc:  bindingDesc(b),
			})
		}
	}

	return entries
}

func BindingLabel(binding config.BindingConfig) string {
	keys := make([]string, 0, len(binding.Key))
	for _, k := range binding.Key {
		keys = append(keys, NormalizeDisplayKey(k))
	}
	return strings.Join(keys, "/")
}

func NormalizeDisplayKey(key string) string {
	if key == " " {
		return "space"
	}
	key = strings.TrimSpace(key)
	switch strings.ToLower(key) {
	case "up":
		return "↑"
	case "down":
		return "↓"
	case "left":
		return "←"
	case "right":
		return "→"
	case "pgdown":
		return "pgdn"
	}
	return key
}

func bindingDesc(b config.BindingConfig) string {
	if desc := strings.TrimSpace(b.Desc); desc != "" {
		return desc
	}
	return descFromAction(strings.TrimSpace(b.Action))
}

// descFromAction derives a human-readable description from the action token
// (last segment after '.'), replacing underscores with spaces.
func descFromAction(action string) string {
	return strings.ReplaceAll(actionToken(action), "_", " ")
}

// actionToken extracts the last segment after '.' from an action ID.
func actionToken(action string) string {
	if idx := strings.LastIndexByte(action, '.'); idx >= 0 && idx < len(action)-1 {
		return action[idx+1:]
	}
	return action
}
