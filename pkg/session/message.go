package session

import (
	"time"

	"github.com/google/uuid"
)

// MessageType tags messages flowing through the session queues.
type MessageType string

const (
	TypeRoundStart       MessageType = "round_start"
	TypeSceneDescription MessageType = "scene_description"
	TypePlayerAction     MessageType = "player_action"
	TypeDirectorResponse MessageType = "director_response"
	TypeActionResult     MessageType = "action_result"
	TypeGameEnd          MessageType = "game_end"
	TypeError            MessageType = "error"
)

// Message is one unit of traffic between agents. Broadcast messages have
// no recipient; directed messages name exactly one.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient,omitempty"`
	Content   string      `json:"content"`
	Round     int         `json:"round"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a broadcast message.
func NewMessage(t MessageType, sender, content string, round int) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      t,
		Sender:    sender,
		Content:   content,
		Round:     round,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectedMessage creates a message for a single recipient.
func NewDirectedMessage(t MessageType, sender, recipient, content string, round int) Message {
	m := NewMessage(t, sender, content, round)
	m.Recipient = recipient
	return m
}
