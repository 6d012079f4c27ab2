package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shockz09/uni-cli-sub002/internal/config"
	"github.com/shockz09/uni-cli-sub002/internal/llm"
)

// defaultSummaryRunes caps how much body text is sent to the provider
// when the caller does not set its own limit.
const defaultSummaryRunes = 8000

// AIServiceImpl implements AIService on top of a single LLM provider.
type AIServiceImpl struct {
	provider llm.Provider
	cache    CacheService
	config   *config.Config
	logger   *log.Logger // Optional - for debug logging
}

// NewAIService wires a provider, an optional summary cache and config.
func NewAIService(provider llm.Provider, cache CacheService, config *config.Config) *AIServiceImpl {
	return &AIServiceImpl{provider: provider, cache: cache, config: config}
}

// SetLogger sets the logger for debug output
func (s *AIServiceImpl) SetLogger(logger *log.Logger) { s.logger = logger }

// summaryResult stamps the elapsed time onto a finished summary.
func summaryResult(summary string, fromCache bool, start time.Time) *SummaryResult {
	return &SummaryResult{
		Summary:   summary,
		FromCache: fromCache,
		Duration:  time.Since(start),
	}
}

// GenerateSummary produces a short summary of the given content, served
// from the summary cache when the options allow it.
func (s *AIServiceImpl) GenerateSummary(ctx context.Context, content string, options SummaryOptions) (*SummaryResult, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: AI provider not available", ErrAIServiceDown)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidInput)
	}

	start := time.Now()

	if options.UseCache && !options.ForceRegenerate && s.cache != nil {
		if cached, found, err := s.cache.GetSummary(ctx, options.AccountEmail, options.MessageID); err == nil && found {
			return summaryResult(cached, true, start), nil
		}
	}

	summary, err := s.provider.Generate(ctx, s.summaryPrompt(content, options.MaxLength))
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	// A failed cache write never fails the call
	if options.UseCache && s.cache != nil {
		if err := s.cache.SaveSummary(ctx, options.AccountEmail, options.MessageID, summary); err != nil && s.logger != nil {
			s.logger.Printf("failed to cache summary for message %s: %v", options.MessageID, err)
		}
	}

	return summaryResult(summary, false, start), nil
}

// summaryPrompt renders the configured prompt template with the message
// body substituted in, truncated to the rune limit.
func (s *AIServiceImpl) summaryPrompt(content string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = defaultSummaryRunes
	}
	if runes := []rune(content); len(runes) > maxRunes {
		content = string(runes[:maxRunes])
	}

	prompt := "Summarize this email in a few short sentences. Keep it concise and factual.\n\n{{body}}"
	if s.config != nil {
		prompt = s.config.LLM.GetSummarizePrompt()
	}
	return strings.ReplaceAll(prompt, "{{body}}", content)
}
