package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/crispai/sitechat/internal/adapter/llm"
	"github.com/crispai/sitechat/internal/domain"
	"github.com/crispai/sitechat/policy"
)

// HandleTurn runs one chat turn: resolve the session, store the user message,
// reply and store the reply. Gateway failures become the fallback text and
// never an error; store failures are returned.
func (s *Service) HandleTurn(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if req.Message == "" {
		return nil, &domain.ValidationError{Field: "message", Message: domain.MessageRequiredText}
	}

	session, _, err := s.store.ResolveOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	state := session.State()
	action, err := s.policyEngine.Decide(ctx, policy.TurnInput{
		SessionID:    session.SessionID,
		MessageCount: session.MessageCount,
		State:        state,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decide turn: %w", err)
	}
	log.Printf("Turn for session %s: state=%s action=%s", session.SessionID, state, action)

	if _, err := s.store.AppendMessage(ctx, session.SessionID, domain.RoleUser, req.Message); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	if action == domain.TurnActionWelcome {
		log.Printf("Sending welcome response for new session: %s", session.SessionID)
		if _, err := s.store.AppendMessage(ctx, session.SessionID, domain.RoleAssistant, domain.WelcomeText); err != nil {
			return nil, fmt.Errorf("failed to save welcome message: %w", err)
		}
		return &domain.ChatResponse{Response: domain.WelcomeText, SessionID: session.SessionID}, nil
	}

	history, err := s.store.History(ctx, session.SessionID, s.config.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	reply, err := s.complete(ctx, history)
	if err != nil {
		log.Printf("WARN: chat completion failed for session %s: %v", session.SessionID, err)
		return &domain.ChatResponse{Response: domain.FallbackText, SessionID: session.SessionID}, nil
	}

	if _, err := s.store.AppendMessage(ctx, session.SessionID, domain.RoleAssistant, reply); err != nil {
		// The reply is still returned.
		log.Printf("ERROR: failed to save assistant message for session %s: %v", session.SessionID, err)
	}

	return &domain.ChatResponse{Response: reply, SessionID: session.SessionID}, nil
}

// complete sends the assembled transcript to the completion gateway.
func (s *Service) complete(ctx context.Context, history []domain.Message) (string, error) {
	turns := s.assembler.Assemble(s.config.SystemPrompt, history)
	messages := make([]llm.ChatMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, llm.ChatMessage{Role: string(t.Role), Content: t.Content})
	}

	maxTokens := s.config.MaxTokens
	temperature := s.config.Temperature
	presencePenalty := s.config.PresencePenalty
	frequencyPenalty := s.config.FrequencyPenalty
	req := &llm.ChatCompletionRequest{
		Model:            s.config.LLMModel,
		Messages:         messages,
		MaxTokens:        &maxTokens,
		Temperature:      &temperature,
		PresencePenalty:  &presencePenalty,
		FrequencyPenalty: &frequencyPenalty,
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.LLMTimeout)
	defer cancel()

	startTime := time.Now()
	resp, err := s.llmClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &domain.UpstreamError{Service: "completion gateway", Err: err}
	}

	content, err := resp.Content()
	if err != nil {
		return "", &domain.UpstreamError{Service: "completion gateway", Err: err}
	}
	totalTokens := 0
	if resp.Usage != nil {
		totalTokens = resp.Usage.TotalTokens
	}
	log.Printf("Chat completion done: model=%s latency_ms=%d total_tokens=%d", resp.Model, time.Since(startTime).Milliseconds(), totalTokens)

	if strings.TrimSpace(content) == "" {
		return domain.EmptyCompletionText, nil
	}
	return content, nil
}
