package llm_client

import (
	"context"
	"encoding/json"
	"fmt"
)

// MockCompleter returns a canned draft built from the last user segment. Used for local development.
type MockCompleter struct{}

func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

func (m *MockCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	instruction := ""
	for _, msg := range messages {
		if msg.Role == RoleUser {
			instruction = msg.Content
		}
	}

	out, err := json.Marshal(map[string]string{
		"subject": "Draft: " + truncate(instruction, 60),
		"body":    fmt.Sprintf("Hello,\n\nThis is a development draft for the request:\n%q\n\nBest regards", instruction),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
