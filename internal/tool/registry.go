package tool

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"dynafunc/internal/domain"
)

type regEntry struct {
	tool    domain.Tool
	enabled bool
}

// Registry holds named tools with a per-name enabled flag. Tools are owned
// exclusively by the registry: removal drops the tool and its enablement
// state together. Registration order is preserved for listings.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*regEntry
	order   []string
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*regEntry),
		logger:  logger,
	}
}

// Register stores and enables a tool, overwriting a same-named entry.
// Overwriting resets the enabled flag to true even if the previous entry was
// disabled; the overwritten tool keeps its original listing position.
func (r *Registry) Register(t domain.Tool) error {
	name := t.Name()
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &regEntry{tool: t, enabled: true}
	r.logger.Debug("registered tool", "name", name)
	return nil
}

// Get returns the tool with the given name regardless of its enabled state.
func (r *Registry) Get(name string) (domain.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// Enable marks the named tool invocable. Fails if the name is not registered.
func (r *Registry) Enable(name string) error {
	return r.setEnabled(name, true)
}

// Disable retains the tool but excludes it from listings and execution.
func (r *Registry) Disable(name string) error {
	return r.setEnabled(name, false)
}

func (r *Registry) setEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	e.enabled = enabled
	return nil
}

// IsEnabled reports whether the named tool is present and enabled.
func (r *Registry) IsEnabled(name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.enabled, nil
}

// Definitions returns the definitions of enabled tools only, in registration
// order. Disabled tools stay registered but never appear here.
func (r *Registry) Definitions() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		if e == nil || !e.enabled {
			continue
		}
		defs = append(defs, domain.ToolDefinition{
			Name:        e.tool.Name(),
			Description: e.tool.Description(),
			InputSchema: e.tool.Parameters(),
		})
	}
	return defs
}

// Remove drops the tool and its enablement state together.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Clear drops every tool and all enablement state.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*regEntry)
	r.order = nil
}

// Names returns all registered tool names in registration order, including
// disabled ones.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
}

// ToolParameters builds a JSON Schema "parameters" object for a tool.
func ToolParameters(properties map[string]Param, required []string) map[string]any {
	props := make(map[string]any)
	for name, p := range properties {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// HasRequired checks args against the schema's "required" list. Manifest
// tools use this as their Validate implementation.
func HasRequired(schema map[string]any, args map[string]any) bool {
	req, ok := schema["required"].([]string)
	if !ok {
		if raw, isAny := schema["required"].([]any); isAny {
			for _, r := range raw {
				s, _ := r.(string)
				if _, present := args[s]; !present {
					return false
				}
			}
			return true
		}
		return true
	}
	for _, name := range req {
		if _, present := args[name]; !present {
			return false
		}
	}
	return true
}

// ArgsString extracts a string argument, JSON-encoding non-string values.
func ArgsString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
