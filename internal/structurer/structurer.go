package structurer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrUnavailable marks quota exhaustion or provider failure across every
// configured key. Callers map it to the structuring_unavailable kind.
var ErrUnavailable = errors.New("structuring service unavailable")

// Structure sends the transcript through the instruction template and
// returns the model's structured text. Rotates API keys on 429 / quota
// errors.
func (s *implStructurer) Structure(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(s.template, transcript)

	attempts := len(s.apiKeys)
	var lastErr error

	for range attempts {
		idx, key := s.activeKey()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
		if err != nil {
			if isQuotaError(err) {
				s.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				s.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w: %w", err, ErrUnavailable)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			return text.String(), nil
		}

		return "", fmt.Errorf("empty response from model: %w", ErrUnavailable)
	}

	return "", fmt.Errorf("all API keys exhausted: %w: %w", lastErr, ErrUnavailable)
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func (s *implStructurer) activeKey() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentKey, s.apiKeys[s.currentKey]
}

func (s *implStructurer) rotateKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
}
