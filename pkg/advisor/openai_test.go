package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"autoguard/pkg/diagnosis"
)

type fakeChatClient struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func criticalBrakeReport() diagnosis.Report {
	return diagnosis.Report{
		Severity:       diagnosis.SeverityCritical,
		Issues:         []string{"Critical Brake Wear (2.1mm)"},
		Recommendation: "Immediate Service Booking Required. Do not drive.",
	}
}

func TestOpenAIComposerUsesModelReply(t *testing.T) {
	fake := &fakeChatClient{content: "  Dear Alice, please stop driving.  "}
	c := &OpenAIComposer{client: fake, model: "test-model"}

	msg, err := c.ComposeAlert(context.Background(), criticalBrakeReport(), "VIN-001", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "Dear Alice, please stop driving." {
		t.Errorf("msg = %q", msg)
	}
	if fake.lastReq.Model != "test-model" {
		t.Errorf("model = %q", fake.lastReq.Model)
	}
	prompt := fake.lastReq.Messages[len(fake.lastReq.Messages)-1].Content
	for _, want := range []string{"Alice", "VIN-001", "Critical Brake Wear (2.1mm)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestOpenAIComposerFallsBackOnError(t *testing.T) {
	c := &OpenAIComposer{client: &fakeChatClient{err: errors.New("rate limited")}, model: "test-model"}

	msg, err := c.ComposeAlert(context.Background(), criticalBrakeReport(), "VIN-001", "Alice")
	if err != nil {
		t.Fatalf("composer must recover backend errors, got %v", err)
	}
	if !strings.Contains(msg, "CRITICAL ALERT for Alice") {
		t.Errorf("expected template fallback, got %q", msg)
	}
}

func TestOpenAIComposerFallsBackOnEmptyReply(t *testing.T) {
	c := &OpenAIComposer{client: &fakeChatClient{content: "   "}, model: "test-model"}

	msg, err := c.ComposeAlert(context.Background(), criticalBrakeReport(), "VIN-001", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "CRITICAL ALERT for Valued Customer") {
		t.Errorf("expected template fallback with default name, got %q", msg)
	}
}
