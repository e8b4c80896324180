// Package bella wraps the external language-model service behind the
// AI assistant boundary. The backend is opaque: this package only
// builds prompts, enforces timeouts and maps failures to the error
// taxonomy.
package bella

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/common/cnst"
	"github.com/bellalabs/bellaprep/internal/common/config"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
)

const systemPrompt = `You are Bella, a mortgage assistant for a lending platform.
Answer questions about the pre-qualification flow, the URLA/Form 1003
application and required documents. Be concise and accurate. Never give
legal or financial advice; suggest contacting the loan officer instead.`

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Client wraps the completion API with our configuration.
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
	sink    *audit.Sink
	logger  *zap.Logger
}

// NewClient creates a Bella client from configuration.
func NewClient(cfg *config.BellaConfig, sink *audit.Sink, logger *zap.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		sink:    sink,
		logger:  logger.Named("bella"),
	}
}

// Chat runs one assistant turn. The outbound call carries a timeout;
// on timeout no state is mutated and RemoteServiceTimeout is returned.
func (c *Client) Chat(ctx context.Context, tenantID, userID string, history []Message) (string, error) {
	if len(history) == 0 {
		return "", errorx.ValidationError("messages", "at least one message is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	if snippets := c.searchKnowledgeBase(ctx, tenantID, history[len(history)-1].Content); len(snippets) > 0 {
		messages = append(messages, openai.SystemMessage("Relevant knowledge base entries:\n"+strings.Join(snippets, "\n")))
	}
	for _, m := range history {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.model),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("completion timed out", zap.Duration("timeout", c.timeout))
			return "", errorx.ErrRemoteTimeout
		}
		c.logger.Error("completion failed", zap.Error(err))
		return "", errorx.ErrRemoteError
	}
	if len(completion.Choices) == 0 {
		return "", errorx.ErrRemoteError
	}
	reply := completion.Choices[0].Message.Content

	// Usage feeds the bella-usage analytics view.
	if err := c.sink.Record(ctx, audit.Entry{
		TenantID: tenantID,
		UserID:   userID,
		Action:   cnst.ActionBellaChat,
		Resource: cnst.ResourceBorrower,
	}); err != nil {
		return "", err
	}
	return reply, nil
}

// searchKnowledgeBase will back retrieval-augmented answers once the
// per-tenant knowledge base lands. It currently finds nothing.
func (c *Client) searchKnowledgeBase(_ context.Context, _ string, _ string) []string {
	return nil
}
