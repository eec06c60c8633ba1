package action

import (
	"fmt"
	"strings"
)

// Type tags the kind of action a player attempts.
type Type string

const (
	TypeLook     Type = "look"
	TypeMove     Type = "move"
	TypeTalk     Type = "talk"
	TypeAttack   Type = "attack"
	TypeUse      Type = "use"
	TypeInteract Type = "interact"
	TypeUnknown  Type = "unknown"

	// TypeInvalid wraps an action that failed validation. The original
	// payload is preserved so the Director still resolves it rather than
	// rejecting the turn.
	TypeInvalid Type = "invalid_action"
)

var known = map[Type]bool{
	TypeLook:     true,
	TypeMove:     true,
	TypeTalk:     true,
	TypeAttack:   true,
	TypeUse:      true,
	TypeInteract: true,
}

// Action is one player turn's intent.
type Action struct {
	Type        Type    `json:"type"`
	Content     string  `json:"content"`
	Source      string  `json:"source,omitempty"` // player name
	Target      string  `json:"target,omitempty"`
	Destination string  `json:"destination,omitempty"`
	Modifier    *int    `json:"modifier,omitempty"` // stat modifier for the action type
	Fallback    bool    `json:"fallback,omitempty"` // true when the oracle was unavailable
	Original    *Action `json:"original_action,omitempty"`
}

// Validate checks the minimum shape of an action: a type and content.
func (a Action) Validate() error {
	if a.Type == "" {
		return fmt.Errorf("action has no type")
	}
	if a.Content == "" {
		return fmt.Errorf("action has no content")
	}
	return nil
}

// Invalid wraps a malformed action, preserving the original payload.
func Invalid(original Action) Action {
	return Action{
		Type:     TypeInvalid,
		Content:  "invalid action",
		Source:   original.Source,
		Original: &original,
	}
}

// ParseType normalizes a free-form action type from the oracle. Unrecognized
// values map to TypeUnknown; the first known action name contained in the
// string wins, mirroring how loose oracle output is interpreted.
func ParseType(s string) Type {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if known[t] {
		return t
	}
	for _, candidate := range []Type{TypeLook, TypeMove, TypeTalk, TypeAttack, TypeUse, TypeInteract} {
		if strings.Contains(string(t), string(candidate)) {
			return candidate
		}
	}
	return TypeUnknown
}
