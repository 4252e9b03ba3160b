package llm

import "context"

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult is the outcome handed back for one ToolCall.
type ToolResult struct {
	Name     string
	Response map[string]any
}

// Turn is one model response: free text plus zero or more tool calls
// to satisfy before the conversation can continue.
type Turn struct {
	Text  string
	Calls []ToolCall
}

// ChatSession is a stateful conversation with the model. Send pushes a
// user message; Reply answers the tool calls from the previous turn.
type ChatSession interface {
	Send(ctx context.Context, text string) (*Turn, error)
	Reply(ctx context.Context, results []ToolResult) (*Turn, error)
}

// SessionFactory creates sessions bound to one model configuration.
type SessionFactory interface {
	NewSession(ctx context.Context) (ChatSession, error)
	Close() error
}
