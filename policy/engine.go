// Package policy decides how an inbound chat turn is handled.
package policy

import (
	"context"
	"fmt"

	"github.com/crispai/sitechat/internal/domain"
	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA turn policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// TurnInput is the policy input for one inbound message.
type TurnInput struct {
	SessionID    string              `json:"session_id"`
	MessageCount int                 `json:"message_count"`
	State        domain.SessionState `json:"state,omitempty"`
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_turn.action"),
		rego.Module("chat_turn.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Decide evaluates the policy for a turn.
func (e *Engine) Decide(ctx context.Context, input TurnInput) (domain.TurnAction, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	// An undefined decision falls back to the session state.
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		state := input.State
		if state == "" {
			state = (&domain.Session{MessageCount: input.MessageCount}).State()
		}
		if state == domain.SessionStateNew {
			return domain.TurnActionWelcome, nil
		}
		return domain.TurnActionComplete, nil
	}

	val, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy returned %T, want string", results[0].Expressions[0].Value)
	}

	switch action := domain.TurnAction(val); action {
	case domain.TurnActionWelcome, domain.TurnActionComplete:
		return action, nil
	default:
		return "", fmt.Errorf("policy returned unknown action %q", val)
	}
}

// DefaultPolicy greets new sessions with the intake message and sends every
// later turn to the completion gateway.
const DefaultPolicy = `
package chat_turn

import rego.v1

default action := "complete"

action := "welcome" if {
	input.message_count == 0
}
`
