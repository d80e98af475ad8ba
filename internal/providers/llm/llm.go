package llm

import "context"

// Mode selects how conversational context reaches the backend.
type Mode string

const (
	// ModeStatelessContext resends a reconstructed context string each turn.
	// Works against any completion backend; this is the default contract.
	ModeStatelessContext Mode = "stateless"
	// ModeSessionAffinity holds a server-side chat per call and sends only
	// the latest user turn.
	ModeSessionAffinity Mode = "chat"
)

// Completer turns a prompt into generated text. Output length is bounded by
// the provider's configuration.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Mode() Mode
	Close() error
}

// Chat is a backend-held conversation that accumulates history server-side.
type Chat interface {
	Send(ctx context.Context, message string) (string, error)
}

// ChatStarter is implemented by providers that offer native session affinity.
type ChatStarter interface {
	StartChat() Chat
}
