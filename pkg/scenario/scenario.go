package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location is the initial definition of a place in the world.
type Location struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	ConnectedTo []string `json:"connected_to" yaml:"connected_to"`
	NPCs        []string `json:"npcs,omitempty" yaml:"npcs,omitempty"`
	Items       []string `json:"items,omitempty" yaml:"items,omitempty"`
	Atmosphere  string   `json:"atmosphere,omitempty" yaml:"atmosphere,omitempty"`
}

// NPC is the initial definition of a non-player character.
type NPC struct {
	Name        string         `json:"name" yaml:"name"`
	Role        string         `json:"role" yaml:"role"`
	Location    string         `json:"location" yaml:"location"`
	DialogState map[string]any `json:"dialog_state,omitempty" yaml:"dialog_state,omitempty"`
	Inventory   []string       `json:"inventory,omitempty" yaml:"inventory,omitempty"`
}

// InitialState overrides the world state defaults at session start.
type InitialState struct {
	CurrentLocation string   `json:"current_location,omitempty" yaml:"current_location,omitempty"`
	TimeOfDay       string   `json:"time_of_day,omitempty" yaml:"time_of_day,omitempty"`
	Weather         string   `json:"weather,omitempty" yaml:"weather,omitempty"`
	ActiveQuests    []string `json:"active_quests,omitempty" yaml:"active_quests,omitempty"`
}

// WorldConfig is everything the Director needs to build the world model.
type WorldConfig struct {
	Locations    []Location   `json:"locations" yaml:"locations"`
	NPCs         []NPC        `json:"npcs,omitempty" yaml:"npcs,omitempty"`
	InitialState InitialState `json:"initial_state,omitempty" yaml:"initial_state,omitempty"`
}

// Stats are the six core ability scores for a player character.
type Stats struct {
	Strength     int `json:"strength" yaml:"strength"`
	Dexterity    int `json:"dexterity" yaml:"dexterity"`
	Constitution int `json:"constitution" yaml:"constitution"`
	Intelligence int `json:"intelligence" yaml:"intelligence"`
	Wisdom       int `json:"wisdom" yaml:"wisdom"`
	Charisma     int `json:"charisma" yaml:"charisma"`
}

// Personality holds the four named trait lists for a player character.
type Personality struct {
	Traits []string `json:"traits,omitempty" yaml:"traits,omitempty"`
	Ideals []string `json:"ideals,omitempty" yaml:"ideals,omitempty"`
	Bonds  []string `json:"bonds,omitempty" yaml:"bonds,omitempty"`
	Flaws  []string `json:"flaws,omitempty" yaml:"flaws,omitempty"`
}

// Item is a starting inventory item.
type Item struct {
	Name       string            `json:"name" yaml:"name"`
	Type       string            `json:"type,omitempty" yaml:"type,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Equipped   bool              `json:"equipped,omitempty" yaml:"equipped,omitempty"`
}

// Player is the initial definition of one player character.
type Player struct {
	Name        string      `json:"name" yaml:"name"`
	Class       string      `json:"class" yaml:"class"`
	Race        string      `json:"race,omitempty" yaml:"race,omitempty"`
	Background  string      `json:"background,omitempty" yaml:"background,omitempty"`
	Stats       Stats       `json:"stats,omitempty" yaml:"stats,omitempty"`
	Personality Personality `json:"personality,omitempty" yaml:"personality,omitempty"`
	Inventory   []Item      `json:"inventory,omitempty" yaml:"inventory,omitempty"`
	InitialGoal string      `json:"initial_goal,omitempty" yaml:"initial_goal,omitempty"`
}

// Scenario is the full configuration for one game session.
type Scenario struct {
	Name        string      `json:"name" yaml:"name"`
	WorldConfig WorldConfig `json:"world_config" yaml:"world_config"`
	Players     []Player    `json:"players" yaml:"players"`
}

// Load reads a scenario from a JSON or YAML file, chosen by extension,
// and validates it.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario file extension: %s", filepath.Ext(path))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the referential integrity of the scenario. Malformed
// references are an initialization-time error, never a runtime one.
func (s *Scenario) Validate() error {
	if len(s.WorldConfig.Locations) == 0 {
		return fmt.Errorf("scenario %q has no locations", s.Name)
	}

	locations := make(map[string]bool, len(s.WorldConfig.Locations))
	for _, loc := range s.WorldConfig.Locations {
		if loc.Name == "" {
			return fmt.Errorf("scenario %q has a location with no name", s.Name)
		}
		if locations[loc.Name] {
			return fmt.Errorf("duplicate location %q", loc.Name)
		}
		locations[loc.Name] = true
	}

	// Connections must reference existing locations: dangling references
	// fail here rather than at traversal time.
	for _, loc := range s.WorldConfig.Locations {
		for _, conn := range loc.ConnectedTo {
			if !locations[conn] {
				return fmt.Errorf("location %q is connected to unknown location %q", loc.Name, conn)
			}
		}
	}

	npcLocations := make(map[string]string, len(s.WorldConfig.NPCs))
	for _, npc := range s.WorldConfig.NPCs {
		if npc.Name == "" {
			return fmt.Errorf("scenario %q has an NPC with no name", s.Name)
		}
		if _, ok := npcLocations[npc.Name]; ok {
			return fmt.Errorf("duplicate NPC %q", npc.Name)
		}
		if !locations[npc.Location] {
			return fmt.Errorf("NPC %q is placed in unknown location %q", npc.Name, npc.Location)
		}
		npcLocations[npc.Name] = npc.Location
	}

	// A location's npc roster is descriptive; it must agree with the
	// placements above.
	for _, loc := range s.WorldConfig.Locations {
		for _, name := range loc.NPCs {
			placed, ok := npcLocations[name]
			if !ok {
				return fmt.Errorf("location %q lists unknown NPC %q", loc.Name, name)
			}
			if placed != loc.Name {
				return fmt.Errorf("location %q lists NPC %q, who is placed in %q", loc.Name, name, placed)
			}
		}
	}

	if cur := s.WorldConfig.InitialState.CurrentLocation; cur != "" && !locations[cur] {
		return fmt.Errorf("initial current location %q does not exist", cur)
	}

	seen := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if p.Name == "" {
			return fmt.Errorf("scenario %q has a player with no name", s.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate player %q", p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}
