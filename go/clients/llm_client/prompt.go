package llm_client

import "strings"

// Role tags one segment of a chat-style prompt.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged prompt segment.
type Message struct {
	Role    Role
	Content string
}

// FlattenPrompt joins chat segments into a single prompt, each prefixed by its uppercase role label.
func FlattenPrompt(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = RoleUser
		}
		parts = append(parts, strings.ToUpper(string(role))+":\n"+m.Content+"\n")
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
