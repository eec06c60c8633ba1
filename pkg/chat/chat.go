package chat

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single message exchanged with the decision oracle.
// The role/content shape matches what the provider chat APIs expect.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System builds a system-role message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user-role message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
