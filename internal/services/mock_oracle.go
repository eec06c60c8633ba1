package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
)

// MockOracle is a test implementation of oracle.Service. Each method can
// be overridden per test; without an override a plausible canned value is
// returned. Call counts are tracked for assertions.
type MockOracle struct {
	mu sync.Mutex

	NarrateSceneFunc  func(ctx context.Context, req oracle.SceneRequest) (*oracle.SceneDescription, error)
	NarrateDialogFunc func(ctx context.Context, info oracle.CharacterInfo, situation string) (*oracle.DialogResponse, error)
	DecideFunc        func(ctx context.Context, info oracle.CharacterInfo, actx oracle.ActionContext) (*oracle.CharacterAction, error)
	ResolveFunc       func(ctx context.Context, rctx oracle.ResolutionContext) (*oracle.ActionResolution, error)

	SceneCalls   int
	DialogCalls  int
	DecideCalls  int
	ResolveCalls int
}

// NewMockOracle creates a mock with default canned responses.
func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

func (m *MockOracle) NarrateScene(ctx context.Context, req oracle.SceneRequest) (*oracle.SceneDescription, error) {
	m.mu.Lock()
	m.SceneCalls++
	fn := m.NarrateSceneFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &oracle.SceneDescription{
		Description: fmt.Sprintf("You find yourself in %s. The %s light settles over everything.", req.Location, req.TimeOfDay),
		Atmosphere:  req.Atmosphere,
	}, nil
}

func (m *MockOracle) NarrateDialog(ctx context.Context, info oracle.CharacterInfo, situation string) (*oracle.DialogResponse, error) {
	m.mu.Lock()
	m.DialogCalls++
	fn := m.NarrateDialogFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, info, situation)
	}
	return &oracle.DialogResponse{
		Speech: fmt.Sprintf("%s considers your words carefully.", info.Name),
		Tone:   "neutral",
	}, nil
}

func (m *MockOracle) DecideCharacterAction(ctx context.Context, info oracle.CharacterInfo, actx oracle.ActionContext) (*oracle.CharacterAction, error) {
	m.mu.Lock()
	m.DecideCalls++
	fn := m.DecideFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, info, actx)
	}
	return &oracle.CharacterAction{
		ActionType:  "look",
		Description: "Take stock of the surroundings",
		Reasoning:   "Gathering information before acting",
	}, nil
}

func (m *MockOracle) ResolvePlayerAction(ctx context.Context, rctx oracle.ResolutionContext) (*oracle.ActionResolution, error) {
	m.mu.Lock()
	m.ResolveCalls++
	fn := m.ResolveFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, rctx)
	}
	return &oracle.ActionResolution{
		Success: true,
		Message: fmt.Sprintf("You %s.", rctx.ActionContent),
	}, nil
}

// Calls returns the total number of oracle calls made.
func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SceneCalls + m.DialogCalls + m.DecideCalls + m.ResolveCalls
}
