package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dynafunc/internal/domain"
	"dynafunc/internal/metrics"
)

type legacyEntry struct {
	def  domain.ToolDefinition
	exec domain.LegacyExecutor
}

// Manager unifies the registry with a legacy name→(definition, executor) map
// and is the single execution entry point. Registry tools get their wire
// arguments decoded and validated before dispatch; legacy executors receive
// the raw arguments untouched.
type Manager struct {
	registry *Registry

	mu          sync.RWMutex
	legacy      map[string]*legacyEntry
	legacyOrder []string

	recorder domain.ToolRecorder
	logger   *slog.Logger
}

func NewManager(registry *Registry, logger *slog.Logger) *Manager {
	return &Manager{
		registry: registry,
		legacy:   make(map[string]*legacyEntry),
		logger:   logger,
	}
}

// Registry exposes the underlying registry for direct registration.
func (m *Manager) Registry() *Registry { return m.registry }

// SetRecorder installs an audit recorder for executed tools. Pass nil to
// disable recording.
func (m *Manager) SetRecorder(r domain.ToolRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = r
}

// Discoverer resolves tool implementations from a directory. How tools are
// found is pluggable; the manager only stores and dispatches them.
type Discoverer func(dir string, logger *slog.Logger) ([]domain.Tool, error)

// Discover scans a directory with the given discoverer and registers every
// tool it yields. An unreadable directory is logged and skipped, never fatal:
// startup proceeds with whatever was found elsewhere.
func (m *Manager) Discover(dir string, discover Discoverer) {
	tools, err := discover(dir, m.logger)
	if err != nil {
		m.logger.Warn("tool discovery skipped directory", "dir", dir, "err", err)
		return
	}
	for _, t := range tools {
		if err := m.registry.Register(t); err != nil {
			m.logger.Warn("discovered tool rejected", "dir", dir, "name", t.Name(), "err", err)
			continue
		}
		m.logger.Info("discovered tool", "name", t.Name(), "dir", dir)
	}
}

// RegisterLegacy adds a raw definition+executor pair. Legacy tools are always
// enabled and always listed; re-registration overwrites.
func (m *Manager) RegisterLegacy(def domain.ToolDefinition, exec domain.LegacyExecutor) error {
	if def.Name == "" {
		return ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.legacy[def.Name]; !exists {
		m.legacyOrder = append(m.legacyOrder, def.Name)
	}
	m.legacy[def.Name] = &legacyEntry{def: def, exec: exec}
	m.logger.Debug("registered legacy tool", "name", def.Name)
	return nil
}

// Execute dispatches to the registry first, then to the legacy map.
//
// Registry path: the tool must be enabled, raw must decode to a JSON object,
// and the tool's own validator must accept the decoded arguments before
// Execute runs; its result is returned unchanged. Legacy path: the executor
// is invoked with the raw, undecoded arguments.
func (m *Manager) Execute(ctx context.Context, name string, raw json.RawMessage, conf map[string]any) (any, error) {
	start := time.Now()
	result, err := m.execute(ctx, name, raw, conf)
	elapsed := time.Since(start)

	metrics.ToolExecutions.Inc()
	if err != nil {
		metrics.ToolFailures.Inc()
	}
	metrics.ToolLatency.Observe(elapsed.Seconds())

	m.record(ctx, name, raw, err, elapsed)
	return result, err
}

func (m *Manager) execute(ctx context.Context, name string, raw json.RawMessage, conf map[string]any) (any, error) {
	if t, ok := m.registry.Get(name); ok {
		enabled, err := m.registry.IsEnabled(name)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, fmt.Errorf("%w: %s", ErrDisabled, name)
		}

		args, err := decodeArguments(raw)
		if err != nil {
			return nil, err
		}
		if !t.Validate(args) {
			return nil, fmt.Errorf("%w: %s rejected %s", ErrInvalidArgs, name, string(raw))
		}
		return t.Execute(ctx, args, conf)
	}

	m.mu.RLock()
	le, ok := m.legacy[name]
	m.mu.RUnlock()
	if ok {
		return le.exec(ctx, raw, conf)
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	args := make(map[string]any)
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrArgumentDecode, string(raw), err)
	}
	return args, nil
}

func (m *Manager) record(ctx context.Context, name string, raw json.RawMessage, execErr error, elapsed time.Duration) {
	m.mu.RLock()
	rec := m.recorder
	m.mu.RUnlock()
	if rec == nil {
		return
	}
	row := domain.ToolCallRecord{
		ID:        uuid.NewString(),
		Tool:      name,
		Arguments: string(raw),
		OK:        execErr == nil,
		ElapsedMs: elapsed.Milliseconds(),
	}
	if execErr != nil {
		row.Error = execErr.Error()
	}
	rec.RecordToolCall(ctx, row)
}

// Definitions merges enabled registry definitions with all legacy definitions.
// Legacy tools are always included because they cannot be disabled.
func (m *Manager) Definitions() []domain.ToolDefinition {
	defs := m.registry.Definitions()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.legacyOrder {
		defs = append(defs, m.legacy[name].def)
	}
	return defs
}

// Enable routes to registry semantics for registry names; legacy tools are
// already enabled so enabling one is a no-op.
func (m *Manager) Enable(name string) error {
	if _, ok := m.registry.Get(name); ok {
		return m.registry.Enable(name)
	}
	if m.hasLegacy(name) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Disable routes to registry semantics for registry names. Disabling a legacy
// tool fails explicitly rather than being silently ignored.
func (m *Manager) Disable(name string) error {
	if _, ok := m.registry.Get(name); ok {
		return m.registry.Disable(name)
	}
	if m.hasLegacy(name) {
		return fmt.Errorf("%w: %s", ErrLegacyDisable, name)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// IsEnabled reports enablement; legacy tools always report true.
func (m *Manager) IsEnabled(name string) (bool, error) {
	if _, ok := m.registry.Get(name); ok {
		return m.registry.IsEnabled(name)
	}
	if m.hasLegacy(name) {
		return true, nil
	}
	return false, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (m *Manager) hasLegacy(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.legacy[name]
	return ok
}
