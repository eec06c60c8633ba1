package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jwebster45206/tabletop-agents/pkg/action"
	"github.com/jwebster45206/tabletop-agents/pkg/actor"
	"github.com/jwebster45206/tabletop-agents/pkg/director"
	"github.com/jwebster45206/tabletop-agents/pkg/memory"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
	"github.com/jwebster45206/tabletop-agents/pkg/scenario"
	"github.com/jwebster45206/tabletop-agents/pkg/world"
)

// Phase is the coordinator lifecycle state.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseInitialized   Phase = "initialized"
	PhaseRunning       Phase = "running"
	PhaseEnded         Phase = "ended"
)

// DefaultMaxRounds bounds a session when no limit is configured.
const DefaultMaxRounds = 5

// TranscriptEntry is one persisted line of session traffic.
type TranscriptEntry struct {
	Round     int       `json:"round"`
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript receives every message the coordinator dispatches.
// Implementations live in internal/storage.
type Transcript interface {
	AppendTranscript(ctx context.Context, sessionID string, e TranscriptEntry) error
}

// Options configures a coordinator.
type Options struct {
	Scenario   *scenario.Scenario
	Oracle     oracle.Service
	Logger     *slog.Logger
	MaxRounds  int
	Transcript Transcript // optional
}

// Coordinator runs the round loop. It is the single writer of world
// state: every mutation happens inside Start's sequential loop, while the
// queue consumers only fan messages out into agent memories.
type Coordinator struct {
	director   *director.Director
	players    []*actor.PC
	byName     map[string]*actor.PC
	broadcast  *Queue
	directed   *Queue
	transcript Transcript
	logger     *slog.Logger
	maxRounds  int
	sessionID  string
	scenario   string
	startedAt  time.Time

	mu      sync.Mutex
	phase   Phase
	round   int
	endFlag bool

	pending sync.WaitGroup // published but not yet consumed messages
	workers sync.WaitGroup
}

// NewCoordinator builds a session from a validated scenario.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Scenario == nil {
		return nil, fmt.Errorf("scenario is required")
	}
	if len(opts.Scenario.Players) == 0 {
		return nil, fmt.Errorf("scenario %q has no players", opts.Scenario.Name)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model, err := world.NewModel(&opts.Scenario.WorldConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build world: %w", err)
	}

	c := &Coordinator{
		director:   director.New(model, opts.Oracle, logger),
		byName:     make(map[string]*actor.PC, len(opts.Scenario.Players)),
		broadcast:  NewQueue(),
		directed:   NewQueue(),
		transcript: opts.Transcript,
		logger:     logger.With("session", "coordinator"),
		maxRounds:  opts.MaxRounds,
		sessionID:  "game_" + time.Now().Format("20060102_150405"),
		scenario:   opts.Scenario.Name,
		startedAt:  time.Now().UTC(),
		phase:      PhaseInitialized,
	}
	if c.maxRounds <= 0 {
		c.maxRounds = DefaultMaxRounds
	}

	// Players act in scenario order every round.
	for _, p := range opts.Scenario.Players {
		pc, err := actor.NewPC(p, opts.Oracle, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build player %s: %w", p.Name, err)
		}
		c.players = append(c.players, pc)
		c.byName[pc.Name] = pc
	}

	return c, nil
}

// SessionID returns the identifier used for persistence keys.
func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Phase returns the lifecycle state.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Round returns the number of the round most recently started.
func (c *Coordinator) Round() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round
}

// Director exposes the director for inspection and persistence.
func (c *Coordinator) Director() *director.Director {
	return c.director
}

// Players returns the player agents in acting order.
func (c *Coordinator) Players() []*actor.PC {
	return c.players
}

// RequestEnd asks the round loop to stop after the current round.
func (c *Coordinator) RequestEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endFlag = true
}

func (c *Coordinator) shouldEnd(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endFlag || c.round >= c.maxRounds
}

// Start runs the session to completion: consumers up, rounds until the
// end predicate fires, then a game_end broadcast and queue shutdown.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseInitialized {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot start session in phase %s", phase)
	}
	c.phase = PhaseRunning
	c.mu.Unlock()

	c.workers.Add(2)
	go c.consumeBroadcast(ctx)
	go c.consumeDirected(ctx)

	c.logger.Info("session started", "session_id", c.sessionID, "players", len(c.players), "max_rounds", c.maxRounds)

	for !c.shouldEnd(ctx) {
		c.runRound(ctx)
	}

	c.publishBroadcast(NewMessage(TypeGameEnd, "coordinator",
		fmt.Sprintf("The session ends after round %d.", c.Round()), c.Round()))
	c.pending.Wait()

	c.broadcast.Close()
	c.directed.Close()
	c.workers.Wait()

	c.mu.Lock()
	c.phase = PhaseEnded
	c.mu.Unlock()
	c.logger.Info("session ended", "session_id", c.sessionID, "rounds", c.round)
	return ctx.Err()
}

func (c *Coordinator) runRound(ctx context.Context) {
	c.mu.Lock()
	c.round++
	round := c.round
	c.mu.Unlock()
	c.logger.Info("round started", "round", round)

	c.publishBroadcast(NewMessage(TypeRoundStart, "coordinator",
		fmt.Sprintf("Round %d begins.", round), round))

	scene := c.director.DescribeScene(ctx)
	c.publishBroadcast(NewMessage(TypeSceneDescription, "director", scene, round))

	// Players must see the scene in memory before deciding.
	c.pending.Wait()

	for _, pc := range c.players {
		if ctx.Err() != nil {
			return
		}
		c.runTurn(ctx, pc, round)
	}

	c.director.Tick()
}

func (c *Coordinator) runTurn(ctx context.Context, pc *actor.PC, round int) {
	snap := c.director.World().Snapshot()
	a := pc.DecideNextAction(ctx, snap)
	a.Source = pc.Name
	if err := a.Validate(); err != nil {
		c.logger.Warn("player produced invalid action", "player", pc.Name, "error", err)
		a = action.Invalid(a)
	}

	c.publishDirected(NewDirectedMessage(TypePlayerAction, pc.Name, "director", a.Content, round))

	res := c.director.ResolveAction(ctx, a)

	c.publishDirected(NewDirectedMessage(TypeDirectorResponse, "director", pc.Name,
		formatResolution(res), round))
	c.publishBroadcast(NewMessage(TypeActionResult, "director",
		fmt.Sprintf("%s: %s", pc.Name, res.Message), round))

	// Settle the fan-out before the next player reads its memory.
	c.pending.Wait()
}

func formatResolution(res director.Resolution) string {
	var b strings.Builder
	b.WriteString(res.Message)
	if res.Details != "" {
		b.WriteString(" ")
		b.WriteString(res.Details)
	}
	for _, r := range res.NPCReactions {
		fmt.Fprintf(&b, " %s: %q", r.NPCName, r.Reaction)
	}
	return b.String()
}

func (c *Coordinator) publishBroadcast(m Message) {
	c.pending.Add(1)
	if !c.broadcast.Enqueue(m) {
		c.pending.Done()
	}
}

func (c *Coordinator) publishDirected(m Message) {
	c.pending.Add(1)
	if !c.directed.Enqueue(m) {
		c.pending.Done()
	}
}

// consumeBroadcast fans every broadcast into all agent memories. A failed
// transcript append is logged and never stalls the session.
func (c *Coordinator) consumeBroadcast(ctx context.Context) {
	defer c.workers.Done()
	for {
		m, ok := c.broadcast.Dequeue()
		if !ok {
			return
		}
		c.director.Memory().Record(m.Content, m.Sender, string(m.Type))
		for _, pc := range c.players {
			pc.Memory().Record(m.Content, m.Sender, string(m.Type))
		}
		c.appendTranscript(ctx, m)
		c.pending.Done()
	}
}

// consumeDirected routes each message into its recipient's memory only.
// Unknown recipients turn into an error broadcast instead of a crash.
func (c *Coordinator) consumeDirected(ctx context.Context) {
	defer c.workers.Done()
	for {
		m, ok := c.directed.Dequeue()
		if !ok {
			return
		}
		switch {
		case m.Recipient == "director":
			c.director.Memory().Record(m.Content, m.Sender, string(m.Type))
		default:
			if pc, found := c.byName[m.Recipient]; found {
				pc.Memory().Record(m.Content, m.Sender, string(m.Type))
			} else {
				c.logger.Warn("directed message to unknown recipient", "recipient", m.Recipient, "type", m.Type)
				c.publishBroadcast(NewMessage(TypeError, "coordinator",
					fmt.Sprintf("undeliverable message for %s", m.Recipient), m.Round))
			}
		}
		c.appendTranscript(ctx, m)
		c.pending.Done()
	}
}

func (c *Coordinator) appendTranscript(ctx context.Context, m Message) {
	if c.transcript == nil {
		return
	}
	err := c.transcript.AppendTranscript(ctx, c.sessionID, TranscriptEntry{
		Round:     m.Round,
		Type:      string(m.Type),
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	})
	if err != nil {
		c.logger.Error("failed to append transcript", "error", err, "type", m.Type)
	}
}

// SaveState is the serializable snapshot of a whole session, including
// the director's own message log alongside the player states.
type SaveState struct {
	SessionID      string            `json:"session_id"`
	Scenario       string            `json:"scenario"`
	StartedAt      time.Time         `json:"started_at"`
	Round          int               `json:"round"`
	Phase          Phase             `json:"phase"`
	World          world.State       `json:"world_state"`
	Locations      []*world.Location `json:"locations"`
	NPCs           []*world.NPC      `json:"npcs"`
	Players        []actor.State     `json:"players"`
	DirectorMemory []memory.Entry    `json:"director_memory,omitempty"`
	SavedAt        time.Time         `json:"saved_at"`
}

// SnapshotForSave collects the full session state for persistence. Call
// it between rounds or after Start returns, never concurrently with a
// running round.
func (c *Coordinator) SnapshotForSave() SaveState {
	w := c.director.World()
	s := SaveState{
		SessionID:      c.sessionID,
		Scenario:       c.scenario,
		StartedAt:      c.startedAt,
		Round:          c.Round(),
		Phase:          c.Phase(),
		World:          w.State(),
		Locations:      w.Locations(),
		NPCs:           w.NPCs(),
		DirectorMemory: c.director.Memory().Entries(),
		SavedAt:        time.Now().UTC(),
	}
	for _, pc := range c.players {
		s.Players = append(s.Players, pc.State())
	}
	return s
}
