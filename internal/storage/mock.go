package storage

import (
	"context"
	"sync"

	"github.com/jwebster45206/tabletop-agents/pkg/session"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu          sync.Mutex
	sessions    map[string]session.SaveState
	transcripts map[string][]session.TranscriptEntry

	PingErr   error
	SaveErr   error
	AppendErr error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions:    make(map[string]session.SaveState),
		transcripts: make(map[string][]session.TranscriptEntry),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.PingErr }
func (m *MockStorage) Close() error                   { return nil }

func (m *MockStorage) SaveSession(ctx context.Context, state session.SaveState) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.SessionID] = state
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, sessionID string) (*session.SaveState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (m *MockStorage) ListSessions(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockStorage) AppendTranscript(ctx context.Context, sessionID string, e session.TranscriptEntry) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[sessionID] = append(m.transcripts[sessionID], e)
	return nil
}

func (m *MockStorage) Transcript(ctx context.Context, sessionID string) ([]session.TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]session.TranscriptEntry(nil), m.transcripts[sessionID]...), nil
}
