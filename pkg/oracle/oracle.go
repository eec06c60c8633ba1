package oracle

import "context"

// Service is the decision oracle consulted for narration and structured
// decisions. Implementations live in internal/services. Every method may
// fail; callers are expected to substitute their own deterministic fallback
// value rather than propagate the error into game state.
type Service interface {
	// NarrateScene produces a scene description for the current location.
	NarrateScene(ctx context.Context, req SceneRequest) (*SceneDescription, error)

	// NarrateDialog produces an in-character response for an NPC.
	NarrateDialog(ctx context.Context, info CharacterInfo, situation string) (*DialogResponse, error)

	// DecideCharacterAction chooses the next action for a player character.
	DecideCharacterAction(ctx context.Context, info CharacterInfo, actx ActionContext) (*CharacterAction, error)

	// ResolvePlayerAction interprets a player action against the world and
	// returns the consequences to apply.
	ResolvePlayerAction(ctx context.Context, rctx ResolutionContext) (*ActionResolution, error)
}

// SceneRequest describes the location the oracle should narrate.
type SceneRequest struct {
	Location   string   `json:"location"`
	TimeOfDay  string   `json:"time_of_day"`
	Atmosphere string   `json:"atmosphere"`
	Elements   []string `json:"elements"` // "NPC: <name>" and "Item: <name>" entries
}

// SceneDescription is the oracle's narration of a scene.
type SceneDescription struct {
	Description     string   `json:"description"`
	VisibleObjects  []string `json:"visible_objects"`
	VisibleNPCs     []string `json:"visible_npcs"`
	Atmosphere      string   `json:"atmosphere"`
	PossibleActions []string `json:"possible_actions"`
}

// CharacterInfo identifies the character a request is about, either an NPC
// being voiced or a player character deciding an action.
type CharacterInfo struct {
	Name        string `json:"name"`
	Class       string `json:"class,omitempty"`
	Role        string `json:"role,omitempty"`
	Personality string `json:"personality,omitempty"`
	Background  string `json:"background,omitempty"`
}

// DialogResponse is the oracle's in-character reply for an NPC.
type DialogResponse struct {
	Speech           string   `json:"speech"`
	Tone             string   `json:"tone"`
	Actions          []string `json:"actions,omitempty"`
	NPCState         string   `json:"npc_state,omitempty"`
	RevealsQuestInfo bool     `json:"reveals_quest_info"`
}

// ActionContext is the situational context for a character decision.
type ActionContext struct {
	Scene            string   `json:"scene"`
	AvailableActions []string `json:"available_actions"`
	CurrentGoal      string   `json:"current_goal"`
	LastActionResult string   `json:"last_action_result,omitempty"`
}

// CharacterAction is the oracle's structured choice for a player turn.
type CharacterAction struct {
	ActionType   string `json:"action_type"`
	Target       string `json:"target,omitempty"`
	Description  string `json:"description"`
	Reasoning    string `json:"reasoning"`
	UsesAbility  string `json:"uses_ability,omitempty"`
	RequiredRoll string `json:"required_roll,omitempty"`
}

// ResolutionContext is everything the oracle needs to resolve one action.
type ResolutionContext struct {
	Location      string         `json:"location"`
	TimeOfDay     string         `json:"time_of_day"`
	ActionType    string         `json:"action_type"`
	ActionContent string         `json:"action_content"`
	Target        string         `json:"target,omitempty"`
	Destination   string         `json:"destination,omitempty"`
	CurrentNPCs   []string       `json:"current_npcs"`
	ActiveQuests  []string       `json:"active_quests,omitempty"`
	QuestState    map[string]int `json:"quest_state,omitempty"`
}

// NPCResponse is one NPC's reaction inside a resolution.
type NPCResponse struct {
	NPCName        string `json:"npc_name"`
	Reaction       string `json:"reaction"`
	AttitudeChange string `json:"attitude_change,omitempty"`
	RevealsInfo    bool   `json:"reveals_info"`
}

// ItemChange is a tagged add/remove of an item at the current location.
type ItemChange struct {
	Item   string `json:"item"`
	Action string `json:"action"` // "add" | "remove"
	Reason string `json:"reason,omitempty"`
}

// ActionResolution is the oracle's interpretation of a player action. Field
// values are untrusted and validated before being applied to the world.
type ActionResolution struct {
	Success        bool                      `json:"success"`
	Message        string                    `json:"message"`
	Details        string                    `json:"details,omitempty"`
	LocationChange string                    `json:"location_change,omitempty"`
	NPCResponses   map[string]NPCResponse    `json:"npc_responses,omitempty"`
	ItemChanges    []ItemChange              `json:"item_changes,omitempty"`
	TimePassed     bool                      `json:"time_passed"`
	QuestProgress  map[string]int            `json:"quest_progress,omitempty"`
	NPCStateChange map[string]map[string]any `json:"npc_state_change,omitempty"`
}
