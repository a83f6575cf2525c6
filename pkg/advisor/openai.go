package advisor

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"autoguard/pkg/diagnosis"
	"autoguard/pkg/logging"
)

const systemPrompt = `You are a customer service agent for AutoGuard, an automotive fleet management company.
You help vehicle owners understand diagnostic issues and schedule service appointments.
Be professional, empathetic, and concise. Always prioritize safety.`

// chatClient is the slice of the OpenAI API the composer uses; narrowed for tests.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIComposer drafts alerts with a chat model and falls back to the
// template composer when the backend is unreachable or returns nothing.
type OpenAIComposer struct {
	client   chatClient
	model    string
	fallback TemplateComposer
}

// NewOpenAIComposer builds a composer over the OpenAI API.
func NewOpenAIComposer(apiKey, model string) *OpenAIComposer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIComposer{client: openai.NewClient(apiKey), model: model}
}

// ComposeAlert implements Composer. Backend failures are recovered locally;
// the returned error is always nil.
func (c *OpenAIComposer) ComposeAlert(ctx context.Context, report diagnosis.Report, vehicleID, ownerName string) (string, error) {
	if ownerName == "" {
		ownerName = "Valued Customer"
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: alertPrompt(report, vehicleID, ownerName)},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		logging.Warnf("[advisor] chat completion failed, using template: %v", err)
		return c.fallback.ComposeAlert(ctx, report, vehicleID, ownerName)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		logging.Warnf("[advisor] chat completion returned no content, using template")
		return c.fallback.ComposeAlert(ctx, report, vehicleID, ownerName)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func alertPrompt(report diagnosis.Report, vehicleID, ownerName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Draft a short service alert for %s about vehicle %s.\n", ownerName, vehicleID)
	fmt.Fprintf(&b, "Severity: %s\n", report.Severity)
	if len(report.Issues) > 0 {
		fmt.Fprintf(&b, "Issues: %s\n", strings.Join(report.Issues, "; "))
	}
	fmt.Fprintf(&b, "Recommendation: %s\n", report.Recommendation)
	b.WriteString("Sign off as the AutoGuard Support Team.")
	return b.String()
}
