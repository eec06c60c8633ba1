package services

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/tabletop-agents/internal/config"
	"github.com/jwebster45206/tabletop-agents/pkg/oracle"
)

// NewOracle builds the configured oracle provider.
func NewOracle(cfg *config.Config, logger *slog.Logger) (oracle.Service, error) {
	switch cfg.OracleProvider {
	case "anthropic":
		return NewAnthropicOracle(cfg.AnthropicKey, cfg.ModelName, logger), nil
	case "openai":
		return NewOpenAIOracle(cfg.OpenAIKey, cfg.ModelName, logger), nil
	case "mock":
		return NewMockOracle(), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.OracleProvider)
	}
}
