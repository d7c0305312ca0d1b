// Package transcript builds the ordered prompt sent to the completion gateway.
package transcript

import "github.com/crispai/sitechat/internal/domain"

// DefaultWindow is the number of trailing messages kept in a transcript.
const DefaultWindow = 10

// Turn is one role-tagged entry of an assembled transcript.
type Turn struct {
	Role    domain.Role
	Content string
}

// Assembler combines the system context with a trailing window of history.
type Assembler struct {
	Window int
}

// NewAssembler returns an assembler keeping at most window messages.
func NewAssembler(window int) *Assembler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Assembler{Window: window}
}

// Assemble returns [system] + the last Window messages of history, in order.
// Message content is passed through untouched.
func (a *Assembler) Assemble(system string, history []domain.Message) []Turn {
	if len(history) > a.Window {
		history = history[len(history)-a.Window:]
	}

	turns := make([]Turn, 0, 1+len(history))
	turns = append(turns, Turn{Role: domain.RoleSystem, Content: system})
	for _, msg := range history {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}
