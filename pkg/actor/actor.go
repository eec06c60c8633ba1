package actor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/tabletop-agents/pkg/action"
	"github.com/jwebster45206/tabletop-agents/pkg/memory"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
	"github.com/jwebster45206/tabletop-agents/pkg/scenario"
	"github.com/jwebster45206/tabletop-agents/pkg/world"
)

const (
	defaultLevel = 1
	defaultHP    = 10
	defaultAC    = 10
)

// statForAction maps an action type to the ability score that modifies it.
var statForAction = map[action.Type]string{
	action.TypeAttack: "strength",
	action.TypeTalk:   "charisma",
	action.TypeLook:   "wisdom",
	action.TypeMove:   "dexterity",
}

// RollCheck is the outcome of a d20 ability check.
type RollCheck struct {
	Roll     int  `json:"roll"`
	Modifier int  `json:"modifier"`
	Total    int  `json:"total"`
	Critical bool `json:"critical"`
}

// PC is one player character agent. It decides actions through the oracle
// and keeps its own bounded memory of what it has seen.
type PC struct {
	Name        string
	Class       string
	Race        string
	Background  string
	Personality scenario.Personality
	Goal        string
	Level       int
	Inventory   []scenario.Item

	actor  *d20.Actor
	mem    *memory.Log
	oracle oracle.Service
	logger *slog.Logger
	roll   func() int // returns 1..20
	status string
}

// NewPC builds a player character from its scenario definition.
func NewPC(p scenario.Player, svc oracle.Service, logger *slog.Logger) (*PC, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("player has no name")
	}
	if logger == nil {
		logger = slog.Default()
	}

	attrs := map[string]int{
		"strength":     p.Stats.Strength,
		"dexterity":    p.Stats.Dexterity,
		"constitution": p.Stats.Constitution,
		"intelligence": p.Stats.Intelligence,
		"wisdom":       p.Stats.Wisdom,
		"charisma":     p.Stats.Charisma,
	}

	a, err := d20.NewActor(p.Name).
		WithHP(defaultHP).
		WithAC(defaultAC).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor for %s: %w", p.Name, err)
	}

	return &PC{
		Name:        p.Name,
		Class:       p.Class,
		Race:        p.Race,
		Background:  p.Background,
		Personality: p.Personality,
		Goal:        p.InitialGoal,
		Level:       defaultLevel,
		Inventory:   append([]scenario.Item(nil), p.Inventory...),
		actor:       a,
		mem:         memory.NewLog(memory.DefaultMaxEntries),
		oracle:      svc,
		logger:      logger.With("player", p.Name),
		roll:        func() int { return rand.Intn(20) + 1 },
		status:      "idle",
	}, nil
}

// Memory exposes the character's message log for the coordinator to
// record broadcasts and directed messages into.
func (pc *PC) Memory() *memory.Log {
	return pc.mem
}

// Attribute returns a raw ability score.
func (pc *PC) Attribute(name string) (int, bool) {
	return pc.actor.Attribute(name)
}

// Modifier converts an ability score to its modifier, rounding toward
// negative infinity so an 8 gives -1 rather than 0.
func (pc *PC) Modifier(stat string) int {
	score, ok := pc.actor.Attribute(stat)
	if !ok {
		return 0
	}
	v := score - 10
	if v < 0 {
		return (v - 1) / 2
	}
	return v / 2
}

// Check rolls a d20 for the given action type, applying the mapped
// ability modifier. Unmapped action types roll unmodified.
func (pc *PC) Check(t action.Type) RollCheck {
	mod := 0
	if stat, ok := statForAction[t]; ok {
		mod = pc.Modifier(stat)
	}
	roll := pc.roll()
	return RollCheck{
		Roll:     roll,
		Modifier: mod,
		Total:    roll + mod,
		Critical: roll == 20 || roll == 1,
	}
}

// fallbackAction is what the character does when the oracle cannot.
func (pc *PC) fallbackAction() action.Action {
	mod := pc.Modifier("wisdom")
	return action.Action{
		Type:     action.TypeLook,
		Content:  "Looking around cautiously",
		Source:   pc.Name,
		Modifier: &mod,
		Fallback: true,
	}
}

// DecideNextAction asks the oracle what the character does this round.
// Oracle failure degrades to a cautious look rather than stalling the turn.
func (pc *PC) DecideNextAction(ctx context.Context, snap world.Snapshot) action.Action {
	pc.status = "active"
	scene := snap.Description
	if recent := pc.mem.Recent(1, "scene_description"); len(recent) == 1 {
		scene = recent[0].Content
	}
	var lastResult string
	if recent := pc.mem.Recent(1, "action_result"); len(recent) == 1 {
		lastResult = recent[0].Content
	}

	decided, err := pc.oracle.DecideCharacterAction(ctx, pc.characterInfo(), oracle.ActionContext{
		Scene:            scene,
		AvailableActions: snap.PossibleActions,
		CurrentGoal:      pc.Goal,
		LastActionResult: lastResult,
	})
	if err != nil {
		pc.logger.Warn("oracle unavailable, falling back", "error", err)
		return pc.fallbackAction()
	}

	a := action.Action{
		Type:    action.ParseType(decided.ActionType),
		Content: decided.Description,
		Source:  pc.Name,
		Target:  decided.Target,
	}
	if a.Type == action.TypeMove {
		a.Destination = decided.Target
	}
	if stat, ok := statForAction[a.Type]; ok {
		mod := pc.Modifier(stat)
		a.Modifier = &mod
	}
	if err := a.Validate(); err != nil {
		pc.logger.Warn("oracle returned malformed action, falling back", "error", err)
		return pc.fallbackAction()
	}
	return a
}

func (pc *PC) characterInfo() oracle.CharacterInfo {
	return oracle.CharacterInfo{
		Name:        pc.Name,
		Class:       pc.Class,
		Role:        "player",
		Personality: strings.Join(pc.Personality.Traits, ", "),
		Background:  pc.Background,
	}
}

// AddItem puts an item in the character's inventory.
func (pc *PC) AddItem(item scenario.Item) {
	pc.Inventory = append(pc.Inventory, item)
}

// RemoveItem takes the named item out of the inventory. Removing an
// absent item is a no-op and reports false.
func (pc *PC) RemoveItem(name string) bool {
	for i, it := range pc.Inventory {
		if it.Name == name {
			pc.Inventory = append(pc.Inventory[:i], pc.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// State is the serializable snapshot of a character for persistence.
// Status starts as "idle" and becomes "active" once the character has
// taken a turn; LastInteraction is the timestamp of the newest memory
// entry.
type State struct {
	Name            string          `json:"name"`
	Class           string          `json:"class"`
	Race            string          `json:"race,omitempty"`
	Level           int             `json:"level"`
	HP              int             `json:"hp"`
	MaxHP           int             `json:"max_hp"`
	Goal            string          `json:"goal,omitempty"`
	Status          string          `json:"status"`
	LastInteraction *time.Time      `json:"last_interaction,omitempty"`
	Inventory       []scenario.Item `json:"inventory,omitempty"`
	Memory          []memory.Entry  `json:"memory,omitempty"`
}

// State snapshots the character for saving, memory log included.
func (pc *PC) State() State {
	s := State{
		Name:      pc.Name,
		Class:     pc.Class,
		Race:      pc.Race,
		Level:     pc.Level,
		HP:        pc.actor.HP(),
		MaxHP:     pc.actor.MaxHP(),
		Goal:      pc.Goal,
		Status:    pc.status,
		Inventory: append([]scenario.Item(nil), pc.Inventory...),
		Memory:    pc.mem.Entries(),
	}
	if last, ok := pc.mem.Last(); ok {
		s.LastInteraction = &last.Timestamp
	}
	return s
}
