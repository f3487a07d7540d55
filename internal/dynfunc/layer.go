// Package dynfunc implements natural-language-defined functions: a name maps
// to a prompt template, and calling the name assembles the template plus
// positional parameters into a backend query whose JSON reply becomes the
// return value. A chain mode threads each call's result into the next call
// as its implicit first parameter.
package dynfunc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dynafunc/internal/domain"
	"dynafunc/internal/metrics"
)

// Layer holds the function definitions and per-instance chain state. One
// Layer serves one logical call sequence; concurrent chains need separate
// instances.
type Layer struct {
	mu        sync.Mutex
	templates map[string]string

	backend domain.Backend
	logger  *slog.Logger

	chainMode    bool
	debugMode    bool
	lastResponse any
	hasLast      bool
}

// NewLayer creates a Layer bound to the given backend.
func NewLayer(backend domain.Backend, logger *slog.Logger) *Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer{
		templates: make(map[string]string),
		backend:   backend,
		logger:    logger.With("component", "dynfunc"),
	}
}

// AddFunction registers or overwrites a function template under name.
func (l *Layer) AddFunction(name, template string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[name] = template
}

// Functions returns the registered function names.
func (l *Layer) Functions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	return names
}

// SetChainMode toggles result threading. Any toggle clears the stored last
// response so chain state never leaks across a mode switch.
func (l *Layer) SetChainMode(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chainMode = enabled
	l.lastResponse = nil
	l.hasLast = false
}

// SetDebugMode toggles prompt/reply logging. No semantic effect.
func (l *Layer) SetDebugMode(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMode = enabled
}

// LastResponse returns the stored chain value, if any.
func (l *Layer) LastResponse() (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastResponse, l.hasLast
}

// Call invokes the named function with the given positional parameters and
// returns the decoded "response" value. In chain mode the previous call's
// result is prepended as parameter 0 and this call's result is retained for
// the next. Parse and semantic failures leave the retained value untouched.
func (l *Layer) Call(ctx context.Context, name string, params ...any) (any, error) {
	l.mu.Lock()
	template, ok := l.templates[name]
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	chained := l.chainMode
	debug := l.debugMode
	if chained && l.hasLast {
		params = append([]any{l.lastResponse}, params...)
	}
	l.mu.Unlock()

	if !chained {
		l.backend.ClearHistory()
	}
	l.backend.SetSystemMessage(systemInstruction)

	prompt := buildPrompt(template, params)
	if debug {
		l.logger.Debug("dynamic function prompt", "function", name, "prompt", prompt)
	}

	metrics.DynamicCalls.Inc()
	raw, err := l.backend.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	if debug {
		l.logger.Debug("dynamic function reply", "function", name, "raw", raw)
	}

	value, err := parseReply(raw)
	if err != nil {
		metrics.ParseFailures.Inc()
		l.logger.Warn("dynamic function reply rejected", "function", name, "error", err)
		return nil, err
	}

	l.mu.Lock()
	if l.chainMode {
		l.lastResponse = value
		l.hasLast = true
	}
	l.mu.Unlock()
	return value, nil
}

// Chain is a fluent handle over a Layer in chain mode, letting call
// sequences read as pipelines. The first error stops the chain; later
// invocations are skipped and Value reports it.
type Chain struct {
	layer *Layer
	ctx   context.Context
	value any
	err   error
}

// StartChain enables chain mode (clearing prior state) and returns a handle.
func (l *Layer) StartChain(ctx context.Context) *Chain {
	l.SetChainMode(true)
	return &Chain{layer: l, ctx: ctx}
}

// Invoke calls the named function, threading the running value implicitly.
func (c *Chain) Invoke(name string, params ...any) *Chain {
	if c.err != nil {
		return c
	}
	c.value, c.err = c.layer.Call(c.ctx, name, params...)
	return c
}

// Value returns the final chained result or the first error encountered.
func (c *Chain) Value() (any, error) {
	return c.value, c.err
}
