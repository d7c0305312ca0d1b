package llm

import (
	"log"

	"github.com/crispai/sitechat/internal/config"
)

// NewLLMClient creates an LLM client based on the configured mode.
// If CHAT_MODE=MOCK, returns a MockClient; otherwise returns a real Client.
func NewLLMClient(cfg *config.Config) LLMClient {
	if cfg.IsMock() {
		log.Println("CHAT_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}

	return NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)
}
