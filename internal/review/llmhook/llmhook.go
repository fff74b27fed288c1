// Package llmhook implements the optional, off-by-default second
// opinion on low-confidence classifications: a single prompt asking a
// chat model to confirm or reject the classifier's verdict. It exists
// because the prototype's classifier is a deterministic keyword/regex
// system with no learned judgment to fall back on when evidence is
// thin; this hook is never consulted unless config.Review.LLMHookEnabled
// is set.
package llmhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/domain"
)

// Hook wraps a langchaingo chat model behind internal/ports.ReviewHook.
type Hook struct {
	model llms.Model
}

// New builds a Hook against the named OpenAI-compatible chat model.
func New(modelName string) (*Hook, error) {
	model, err := openai.New(openai.WithModel(modelName))
	if err != nil {
		return nil, clerrors.FailedToWithDetails("build llm review hook", "review", modelName, err)
	}
	return &Hook{model: model}, nil
}

const promptTemplate = `A keyword-based classifier flagged the following municipal document as a
candidate battery-energy-storage or grid-infrastructure permitting procedure.

Title: %s
Procedure type: %s
Confidence: %.2f

Excerpt:
%s

Reply with exactly one word: CONFIRM if this genuinely concerns a battery
storage, grid infrastructure, or related permitting procedure, or REJECT
if it does not.`

// Review asks the model to confirm or reject the classifier's verdict,
// returning its one-line reply as note for audit trails.
func (h *Hook) Review(ctx context.Context, titleRaw, extractedText string, result domain.ClassifierResult) (bool, string, error) {
	excerpt := extractedText
	if len(excerpt) > 1000 {
		excerpt = excerpt[:1000]
	}

	prompt := fmt.Sprintf(promptTemplate, titleRaw, result.ProcedureType, result.ConfidenceScore, excerpt)

	reply, err := llms.GenerateFromSinglePrompt(ctx, h.model, prompt)
	if err != nil {
		return false, "", clerrors.FailedTo("generate review reply", err)
	}

	confirmed := strings.Contains(strings.ToUpper(reply), "CONFIRM")
	return confirmed, strings.TrimSpace(reply), nil
}
