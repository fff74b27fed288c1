package llmhook

import (
	"context"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/witto13/bess-crawler/internal/domain"
)

type fakeModel struct {
	reply string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.reply, nil
}

func TestReview_Confirms(t *testing.T) {
	hook := &Hook{model: &fakeModel{reply: "CONFIRM - this concerns a battery storage permit"}}

	confirmed, note, err := hook.Review(context.Background(), "Bebauungsplan Nr. 7 Batteriespeicher", "text excerpt", domain.ClassifierResult{
		ProcedureType:   domain.ProcedureBPlanAufstellung,
		ConfidenceScore: 0.4,
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed {
		t.Fatalf("expected confirmed=true, note=%q", note)
	}
}

func TestReview_Rejects(t *testing.T) {
	hook := &Hook{model: &fakeModel{reply: "REJECT - unrelated to storage"}}

	confirmed, _, err := hook.Review(context.Background(), "Vereinsfest Ankündigung", "text excerpt", domain.ClassifierResult{})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed {
		t.Fatalf("expected confirmed=false")
	}
}
