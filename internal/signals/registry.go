package signals

import (
	"sort"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// Plugin is a compiled-in extension: it connects receivers to the bus when
// enabled. Plugins are enabled by name through the PLUGINS setting; runtime
// import by dotted name is deliberately not supported.
type Plugin interface {
	Name() string
	Register(bus *Bus) error
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Plugin{}
)

// RegisterPlugin adds a compiled-in plugin to the global registry, usually
// from an init function. Duplicate names error.
func RegisterPlugin(p Plugin) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	name := p.Name()
	if _, exists := registry[name]; exists {
		return errors.ConfigError("plugin already registered").WithContext("plugin", name).Build()
	}
	registry[name] = p
	return nil
}

// RegisteredPlugins lists the known plugin names, sorted.
func RegisteredPlugins() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnablePlugins connects the named plugins to the bus in the given order.
// An unknown name is a ConfigError.
func EnablePlugins(bus *Bus, names []string) error {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, name := range names {
		p, ok := registry[name]
		if !ok {
			return errors.ConfigError("unknown plugin").WithContext("plugin", name).Build()
		}
		if err := p.Register(bus); err != nil {
			return errors.Wrap(err, errors.CategoryConfig, "plugin registration failed").
				Fatal().WithContext("plugin", name).Build()
		}
	}
	return nil
}
