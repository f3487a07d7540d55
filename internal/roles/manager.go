// Package roles maintains the ordered conversation transcript the LLM backend
// is queried with: one system message plus an append-only role/content list.
package roles

import (
	"sync"

	"dynafunc/internal/domain"
)

// Manager is a mutex-guarded transcript. The system message lives outside the
// ordered list so replacing it never disturbs conversation order.
type Manager struct {
	mu     sync.Mutex
	system string
	msgs   []domain.Message
}

func NewManager() *Manager {
	return &Manager{}
}

// AddMessage appends a message to the transcript.
func (m *Manager) AddMessage(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, domain.Message{Role: role, Content: content})
}

// SetSystemMessage replaces the system message.
func (m *Manager) SetSystemMessage(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.system = text
}

// Clear drops the conversation history. The system message survives; callers
// that want a fully fresh transcript set it again anyway.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = nil
}

// Messages returns a defensive copy of the transcript, system message first.
func (m *Manager) Messages() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Message, 0, len(m.msgs)+1)
	if m.system != "" {
		out = append(out, domain.Message{Role: "system", Content: m.system})
	}
	out = append(out, m.msgs...)
	return out
}

// Len reports the number of conversation messages, excluding the system one.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}
