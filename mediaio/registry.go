package mediaio

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry maps file extensions to writer plugins. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns a registry holding the given plugins.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{plugins: make(map[string]Plugin)}
	for _, p := range plugins {
		r.Register(p)
	}
	return r
}

// Register adds a plugin for each of its extensions, replacing any plugin
// previously registered for the same extension.
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Extensions() {
		ext = strings.ToLower(ext)
		if prev, ok := r.plugins[ext]; ok && prev.Name() != p.Name() {
			logrus.WithFields(logrus.Fields{
				"function":  "Registry.Register",
				"extension": ext,
				"previous":  prev.Name(),
				"plugin":    p.Name(),
			}).Warn("Replacing writer plugin")
		}
		r.plugins[ext] = p
	}
}

// Plugin returns the plugin handling the extension of path.
func (r *Registry) Plugin(path string) (Plugin, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[ext]
	return p, ok
}

// Extensions returns every registered extension in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for ext := range r.plugins {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
