package factory

import (
	"fmt"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/llm"
	"github.com/newsreach/contact-discovery/internal/llm/ollama"
)

// NewTextGenerator selects the LLM provider from cfg.LLMProvider.
func NewTextGenerator(cfg *config.Config) (llm.TextGenerator, error) {
	switch cfg.LLMProvider {
	case "ollama":
		return ollama.New(cfg.LLMModel, cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER: %s", cfg.LLMProvider)
	}
}
