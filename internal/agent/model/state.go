package model

// ChatState is the conversation state threaded through every step of a turn.
// It is owned exclusively by one session, mutated only by the flow machine
// during a turn, and persisted atomically at turn end.
type ChatState struct {
	// Messages holds the conversation in insertion order. The slice is never
	// reordered; trimming only drops entries.
	Messages []Message `json:"messages"`

	// Summary replaces older message content once compression has occurred.
	Summary string `json:"summary,omitempty"`

	// PendingQuery is the current turn's raw user input. It is cleared once
	// appended to Messages.
	PendingQuery string `json:"pending_query,omitempty"`
}

// NewChatState returns an empty conversation state.
func NewChatState() *ChatState {
	return &ChatState{Messages: []Message{}}
}

// Append adds messages at the end of the conversation.
func (s *ChatState) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// HumanCount returns the number of messages with the Human role.
func (s *ChatState) HumanCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == RoleHuman {
			n++
		}
	}
	return n
}

// LastMessage returns the most recent message, or nil for an empty history.
func (s *ChatState) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Clone returns a deep enough copy for a turn to mutate without touching the
// loaded snapshot.
func (s *ChatState) Clone() *ChatState {
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	return &ChatState{
		Messages:     msgs,
		Summary:      s.Summary,
		PendingQuery: s.PendingQuery,
	}
}
