package config

import "strings"

func mergeBindings(base []BindingConfig, overlay []BindingConfig) []BindingConfig {
	merged := append([]BindingConfig(nil), base...)
	for _, userBinding := range overlay {
		merged = removeShadowedBindings(merged, userBinding)
		merged = append(merged, userBinding)
	}
	return merged
}

// removeShadowedBindings drops the keys user rebinds from other bindings of
// the same scope. A binding left without keys is removed.
func removeShadowedBindings(existing []BindingConfig, user BindingConfig) []BindingConfig {
	scope := strings.TrimSpace(user.Scope)
	if scope == "" || len(user.Key) == 0 {
		return existing
	}

	userKeys := make(map[string]struct{}, len(user.Key))
	for _, key := range user.Key {
		userKeys[key] = struct{}{}
	}

	filtered := make([]BindingConfig, 0, len(existing))
	for _, binding := range existing {
		if strings.TrimSpace(binding.Scope) != scope {
			filtered = append(filtered, binding)
			continue
		}
		kept := make([]string, 0, len(binding.Key))
		for _, key := range binding.Key {
			if _, shadowed := userKeys[key]; shadowed {
				continue
			}
			kept = append(kept, key)
		}
		if len(kept) == 0 {
			continue
		}
		binding.Key = kept
		filtered = append(filtered, binding)
	}
	return filtered
}
