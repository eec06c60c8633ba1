package services

import (
	"encoding/json"
	"fmt"
)

const sceneSystemPrompt = `You are the game director of a tabletop roleplaying session.
Describe the scene vividly in 2-3 sentences. Respond with only a JSON object:
{
  "description": "the scene narration",
  "visible_objects": ["..."],
  "visible_npcs": ["..."],
  "atmosphere": "one or two words",
  "possible_actions": ["..."]
}`

const dialogSystemPrompt = `You are voicing a non-player character in a tabletop roleplaying session.
Stay in character. Respond with only a JSON object:
{
  "speech": "what the character says",
  "tone": "how they say it",
  "actions": ["small physical actions, optional"],
  "npc_state": "brief note on the character's state, optional",
  "reveals_quest_info": false
}`

const decideSystemPrompt = `You are deciding the next action for a player character in a tabletop roleplaying session.
Choose one action that fits the character and the scene. Respond with only a JSON object:
{
  "action_type": "look|move|talk|attack|use|interact",
  "target": "who or what, optional",
  "description": "what the character does, in one sentence",
  "reasoning": "why, in one sentence",
  "uses_ability": "ability score used, optional",
  "required_roll": "dice expression if a roll is needed, optional"
}`

const resolveSystemPrompt = `You are the game director resolving a player action against the world state.
Be fair and concrete. Only reference locations, NPCs and items that exist in the provided context.
Respond with only a JSON object:
{
  "success": true,
  "message": "what happens, narrated to the player",
  "details": "extra detail, optional",
  "location_change": "new location name if the party moved, optional",
  "npc_responses": {"npc name": {"npc_name": "...", "reaction": "...", "attitude_change": "...", "reveals_info": false}},
  "item_changes": [{"item": "...", "action": "add|remove", "reason": "..."}],
  "time_passed": false,
  "quest_progress": {"counter_name": 1},
  "npc_state_change": {"npc name": {"mood": "..."}}
}`

// userPayload renders a labeled context block as the user message.
func userPayload(label string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s context: %w", label, err)
	}
	return fmt.Sprintf("%s:\n%s", label, data), nil
}
