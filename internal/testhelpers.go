package internal

import "time"

// CreateTestConversation creates a test conversation with sample data
func CreateTestConversation(id string) *Conversation {
	now := formatTime(time.Now())
	return &Conversation{
		Session: ChatSession{
			ID:        id,
			Name:      "Test Conversation",
			CreatedAt: now,
			UpdatedAt: now,
		},
		Messages: []Message{
			{
				ID:        "user-0-" + id,
				Role:      RoleUser,
				Text:      "Hello, how are you?",
				CreatedAt: now,
			},
			{
				ID:        "assistant-1-" + id,
				Role:      RoleAssistant,
				Text:      "I'm doing well, thank you!",
				CreatedAt: now,
			},
		},
	}
}

// CreateTestConversationWithMessages creates a test conversation with custom messages
func CreateTestConversationWithMessages(id string, messages []Message) *Conversation {
	now := formatTime(time.Now())
	return &Conversation{
		Session: ChatSession{
			ID:        id,
			Name:      DefaultSessionName(1),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Messages: messages,
	}
}
