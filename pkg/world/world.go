package world

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/tabletop-agents/pkg/scenario"
)

// TimeOfDay is one of the four periods the world clock cycles through.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// Next returns the period that follows, wrapping night back to morning.
func (t TimeOfDay) Next() TimeOfDay {
	switch t {
	case Morning:
		return Afternoon
	case Afternoon:
		return Evening
	case Evening:
		return Night
	default:
		return Morning
	}
}

// ParseTimeOfDay maps a configured string onto a known period, defaulting
// to morning for anything unrecognized.
func ParseTimeOfDay(s string) TimeOfDay {
	switch TimeOfDay(s) {
	case Morning, Afternoon, Evening, Night:
		return TimeOfDay(s)
	default:
		return Morning
	}
}

// Location is a mutable place in the world.
type Location struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ConnectedTo []string `json:"connected_to"`
	Items       []string `json:"items,omitempty"`
	Atmosphere  string   `json:"atmosphere,omitempty"`
	Visited     bool     `json:"visited"`
}

// DialogState tracks what an NPC remembers about the conversation so far.
// Unmodeled keys from the oracle land in Extra instead of being dropped.
type DialogState struct {
	QuestGiven       *bool          `json:"quest_given,omitempty"`
	Mood             string         `json:"mood,omitempty"`
	LastConversation string         `json:"last_conversation,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// Merge applies an oracle-supplied state patch. Known keys update the
// typed fields; everything else is shallow-merged into Extra, with the
// incoming value winning on conflict.
func (d *DialogState) Merge(patch map[string]any) {
	for k, v := range patch {
		switch k {
		case "quest_given":
			if b, ok := v.(bool); ok {
				d.QuestGiven = &b
				continue
			}
		case "mood":
			if s, ok := v.(string); ok {
				d.Mood = s
				continue
			}
		case "last_conversation":
			if s, ok := v.(string); ok {
				d.LastConversation = s
				continue
			}
		}
		if d.Extra == nil {
			d.Extra = make(map[string]any)
		}
		d.Extra[k] = v
	}
}

// NPC is a mutable non-player character.
type NPC struct {
	Name        string      `json:"name"`
	Role        string      `json:"role"`
	Location    string      `json:"location"`
	DialogState DialogState `json:"dialog_state"`
	Inventory   []string    `json:"inventory,omitempty"`
}

// LastAction records the most recently resolved player action.
type LastAction struct {
	Player    string `json:"player"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Success   bool   `json:"success"`
}

// GlobalState carries session-wide counters.
type GlobalState struct {
	ThreatLevel       int            `json:"threat_level"`
	MainQuestProgress int            `json:"main_quest_progress"`
	Extra             map[string]int `json:"extra,omitempty"`
}

// State is the portion of the world that changes every round.
type State struct {
	CurrentLocation string      `json:"current_location"`
	TimeOfDay       TimeOfDay   `json:"time_of_day"`
	Weather         string      `json:"weather,omitempty"`
	ActiveQuests    []string    `json:"active_quests"`
	LastAction      *LastAction `json:"last_action,omitempty"`
	Global          GlobalState `json:"global_state"`
}

// Snapshot is a read-only view of the current scene, safe to hand to
// agents and the oracle.
type Snapshot struct {
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	TimeOfDay       TimeOfDay `json:"time_of_day"`
	Atmosphere      string    `json:"atmosphere,omitempty"`
	Weather         string    `json:"weather,omitempty"`
	VisibleNPCs     []string  `json:"visible_npcs"`
	VisibleItems    []string  `json:"visible_items"`
	Exits           []string  `json:"exits"`
	PossibleActions []string  `json:"possible_actions"`
	ActiveQuests    []string  `json:"active_quests"`
}

// Model owns all mutable world state. It is not safe for concurrent
// writers: the round loop is the only mutator.
type Model struct {
	state     State
	locations map[string]*Location
	order     []string // location names in config order
	npcs      map[string]*NPC
	npcOrder  []string
	logger    *slog.Logger
	now       func() time.Time
}

// NewModel builds a world from a validated scenario config. References are
// checked again here so the model never holds a dangling name.
func NewModel(cfg *scenario.WorldConfig, logger *slog.Logger) (*Model, error) {
	if len(cfg.Locations) == 0 {
		return nil, fmt.Errorf("world config has no locations")
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		locations: make(map[string]*Location, len(cfg.Locations)),
		npcs:      make(map[string]*NPC, len(cfg.NPCs)),
		logger:    logger,
		now:       time.Now,
	}

	for _, lc := range cfg.Locations {
		if _, exists := m.locations[lc.Name]; exists {
			return nil, fmt.Errorf("duplicate location %q", lc.Name)
		}
		m.locations[lc.Name] = &Location{
			Name:        lc.Name,
			Description: lc.Description,
			ConnectedTo: append([]string(nil), lc.ConnectedTo...),
			Items:       append([]string(nil), lc.Items...),
			Atmosphere:  lc.Atmosphere,
		}
		m.order = append(m.order, lc.Name)
	}
	for name, loc := range m.locations {
		for _, conn := range loc.ConnectedTo {
			if _, ok := m.locations[conn]; !ok {
				return nil, fmt.Errorf("location %q connects to unknown location %q", name, conn)
			}
		}
	}

	for _, nc := range cfg.NPCs {
		if _, exists := m.npcs[nc.Name]; exists {
			return nil, fmt.Errorf("duplicate NPC %q", nc.Name)
		}
		if _, ok := m.locations[nc.Location]; !ok {
			return nil, fmt.Errorf("NPC %q placed in unknown location %q", nc.Name, nc.Location)
		}
		npc := &NPC{
			Name:      nc.Name,
			Role:      nc.Role,
			Location:  nc.Location,
			Inventory: append([]string(nil), nc.Inventory...),
		}
		if nc.DialogState != nil {
			npc.DialogState.Merge(nc.DialogState)
		}
		m.npcs[nc.Name] = npc
		m.npcOrder = append(m.npcOrder, nc.Name)
	}

	start := cfg.InitialState.CurrentLocation
	if start == "" {
		start = m.order[0]
	}
	if _, ok := m.locations[start]; !ok {
		return nil, fmt.Errorf("initial location %q does not exist", start)
	}
	m.state = State{
		CurrentLocation: start,
		TimeOfDay:       ParseTimeOfDay(cfg.InitialState.TimeOfDay),
		Weather:         cfg.InitialState.Weather,
		ActiveQuests:    append([]string(nil), cfg.InitialState.ActiveQuests...),
	}
	m.locations[start].Visited = true

	return m, nil
}

// State returns a copy of the mutable round state.
func (m *Model) State() State {
	s := m.state
	s.ActiveQuests = append([]string(nil), m.state.ActiveQuests...)
	if m.state.LastAction != nil {
		la := *m.state.LastAction
		s.LastAction = &la
	}
	if m.state.Global.Extra != nil {
		s.Global.Extra = make(map[string]int, len(m.state.Global.Extra))
		for k, v := range m.state.Global.Extra {
			s.Global.Extra[k] = v
		}
	}
	return s
}

// Location looks up a location by name.
func (m *Model) Location(name string) (*Location, bool) {
	loc, ok := m.locations[name]
	return loc, ok
}

// CurrentLocation returns the party's current location.
func (m *Model) CurrentLocation() *Location {
	return m.locations[m.state.CurrentLocation]
}

// NPC looks up an NPC by name.
func (m *Model) NPC(name string) (*NPC, bool) {
	npc, ok := m.npcs[name]
	return npc, ok
}

// NPCsAt returns the NPCs currently at the named location, in config order.
func (m *Model) NPCsAt(location string) []*NPC {
	var out []*NPC
	for _, name := range m.npcOrder {
		if npc := m.npcs[name]; npc.Location == location {
			out = append(out, npc)
		}
	}
	return out
}

// Snapshot builds the read-only scene view for the current location.
// Possible actions are recomputed from the live state, never cached.
func (m *Model) Snapshot() Snapshot {
	loc := m.CurrentLocation()
	snap := Snapshot{
		Location:     loc.Name,
		Description:  loc.Description,
		TimeOfDay:    m.state.TimeOfDay,
		Atmosphere:   loc.Atmosphere,
		Weather:      m.state.Weather,
		VisibleItems: append([]string(nil), loc.Items...),
		Exits:        append([]string(nil), loc.ConnectedTo...),
		ActiveQuests: append([]string(nil), m.state.ActiveQuests...),
	}
	for _, npc := range m.NPCsAt(loc.Name) {
		snap.VisibleNPCs = append(snap.VisibleNPCs, npc.Name)
		snap.PossibleActions = append(snap.PossibleActions, "talk-to-"+npc.Name)
	}
	for _, item := range loc.Items {
		snap.PossibleActions = append(snap.PossibleActions, "examine-"+item)
	}
	for _, conn := range loc.ConnectedTo {
		snap.PossibleActions = append(snap.PossibleActions, "move-to-"+conn)
	}
	return snap
}

// AdvanceTick moves the world clock one period forward. During the waking
// periods NPCs wander to the first connection of their current location.
func (m *Model) AdvanceTick() {
	m.state.TimeOfDay = m.state.TimeOfDay.Next()
	m.logger.Debug("world clock advanced", "time_of_day", m.state.TimeOfDay)

	if m.state.TimeOfDay != Morning && m.state.TimeOfDay != Afternoon {
		return
	}
	for _, name := range m.npcOrder {
		npc := m.npcs[name]
		loc, ok := m.locations[npc.Location]
		if !ok || len(loc.ConnectedTo) == 0 {
			continue
		}
		dest := loc.ConnectedTo[0]
		if dest == npc.Location {
			continue
		}
		m.logger.Debug("npc wandered", "npc", npc.Name, "from", npc.Location, "to", dest)
		npc.Location = dest
	}
}

// MoveTo moves the party to the named location. Unknown destinations are
// logged and skipped rather than corrupting the current location.
func (m *Model) MoveTo(dest string) bool {
	loc, ok := m.locations[dest]
	if !ok {
		m.logger.Warn("ignoring move to unknown location", "destination", dest)
		return false
	}
	m.state.CurrentLocation = dest
	loc.Visited = true
	return true
}

// MergeNPCState applies a dialog state patch to the named NPC. Unknown
// NPCs are logged and skipped.
func (m *Model) MergeNPCState(name string, patch map[string]any) bool {
	npc, ok := m.npcs[name]
	if !ok {
		m.logger.Warn("ignoring state change for unknown npc", "npc", name)
		return false
	}
	npc.DialogState.Merge(patch)
	return true
}

// ItemChangeKind is the direction of an inventory change at a location.
type ItemChangeKind string

const (
	ItemAdd    ItemChangeKind = "add"
	ItemRemove ItemChangeKind = "remove"
)

// ApplyItemChange adds or removes an item at the current location.
// Removing an item that is not present is a no-op.
func (m *Model) ApplyItemChange(item string, kind ItemChangeKind) {
	loc := m.CurrentLocation()
	switch kind {
	case ItemAdd:
		loc.Items = append(loc.Items, item)
	case ItemRemove:
		for i, it := range loc.Items {
			if it == item {
				loc.Items = append(loc.Items[:i], loc.Items[i+1:]...)
				return
			}
		}
		m.logger.Debug("remove of absent item ignored", "item", item, "location", loc.Name)
	default:
		m.logger.Warn("ignoring item change of unknown kind", "item", item, "kind", kind)
	}
}

// SetLastAction records the action just resolved, timestamped now.
func (m *Model) SetLastAction(player, actionType string, success bool) {
	m.state.LastAction = &LastAction{
		Player:    player,
		Type:      actionType,
		Timestamp: m.now().UTC().Format(time.RFC3339),
		Success:   success,
	}
}

// AddQuestProgress bumps a named progress counter. The two well-known
// counters map to their typed fields; anything else accumulates in Extra.
func (m *Model) AddQuestProgress(key string, delta int) {
	switch key {
	case "main_quest_progress":
		m.state.Global.MainQuestProgress += delta
	case "threat_level":
		m.state.Global.ThreatLevel += delta
	default:
		if m.state.Global.Extra == nil {
			m.state.Global.Extra = make(map[string]int)
		}
		m.state.Global.Extra[key] += delta
	}
}

// Locations returns all locations in config order, for persistence.
func (m *Model) Locations() []*Location {
	out := make([]*Location, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.locations[name])
	}
	return out
}

// NPCs returns all NPCs in config order, for persistence.
func (m *Model) NPCs() []*NPC {
	out := make([]*NPC, 0, len(m.npcOrder))
	for _, name := range m.npcOrder {
		out = append(out, m.npcs[name])
	}
	return out
}
