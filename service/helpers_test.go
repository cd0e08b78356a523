package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avosseler/reimbursement-copilot/config"
	"github.com/avosseler/reimbursement-copilot/prompts"
)

type llmCall struct {
	system string
	user   string
}

// fakeLLM replays scripted responses in call order. The last response
// repeats when there are more calls than responses.
type fakeLLM struct {
	responses []string
	err       error
	calls     []llmCall
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls = append(f.calls, llmCall{system: systemPrompt, user: userPrompt})
	if f.err != nil {
		return "", f.err
	}
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testRegistry(t *testing.T) *config.Registry {
	t.Helper()
	registry, err := config.LoadRegistry()
	require.NoError(t, err)
	return registry
}

func testPrompts(t *testing.T) *prompts.Prompts {
	t.Helper()
	p, err := prompts.Load()
	require.NoError(t, err)
	return p
}
