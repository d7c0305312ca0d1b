package service

import (
	"time"

	"github.com/crispai/sitechat/internal/adapter/llm"
	"github.com/crispai/sitechat/internal/config"
	"github.com/crispai/sitechat/internal/repository"
	"github.com/crispai/sitechat/internal/transcript"
	"github.com/crispai/sitechat/policy"
)

type Service struct {
	store        store.Store
	llmClient    llm.LLMClient
	config       *config.Config
	policyEngine *policy.Engine
	assembler    *transcript.Assembler
	now          func() time.Time
}

func New(store store.Store, llmClient llm.LLMClient, cfg *config.Config, policyEngine *policy.Engine) *Service {
	return &Service{
		store:        store,
		llmClient:    llmClient,
		config:       cfg,
		policyEngine: policyEngine,
		assembler:    transcript.NewAssembler(cfg.HistoryWindow),
		now:          time.Now,
	}
}
