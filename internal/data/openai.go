package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
	"github.com/zapmercado/order-bridge/internal/conf"
)

// LLMConfig configures the language model client.
type LLMConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float32
	MaxTokens     int
	MaxToolRounds int
	HistoryLimit  int
	HistoryTTL    time.Duration
}

// DefaultLLMConfig fills the non-credential knobs.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:         "gpt-4o-mini",
		Temperature:   0.3,
		MaxTokens:     1024,
		MaxToolRounds: 6,
		HistoryLimit:  20,
		HistoryTTL:    30 * time.Minute,
	}
}

// ToolFunc executes one tool call for a customer and returns the
// result serialized for the model.
type ToolFunc func(ctx context.Context, customer string, args json.RawMessage) (string, error)

// Tool pairs a model-visible definition with its executor.
type Tool struct {
	Definition openai.Tool
	Run        ToolFunc
}

// LLMClient implements the classifier and the tool-calling responder
// on top of an OpenAI-compatible chat API.
type LLMClient struct {
	client  *openai.Client
	config  LLMConfig
	prompts *conf.Prompts
	tools   map[domain.Intent][]Tool
	store   repo.Store
	log     zerolog.Logger
}

// NewLLMClient creates a language model client. The store keeps short
// per-customer conversation history so turns have context.
func NewLLMClient(config LLMConfig, prompts *conf.Prompts, tools map[domain.Intent][]Tool, store repo.Store, log zerolog.Logger) *LLMClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &LLMClient{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		prompts: prompts,
		tools:   tools,
		store:   store,
		log:     log,
	}
}

// Classify asks the model which stage should answer the turn. The
// reply is matched by substring so minor formatting noise is harmless.
func (c *LLMClient) Classify(ctx context.Context, customer, message string) (domain.Intent, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: 0,
		MaxTokens:   8,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.prompts.Classifier},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return domain.IntentSales, fmt.Errorf("classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.IntentSales, fmt.Errorf("classify: empty response")
	}
	answer := strings.ToLower(resp.Choices[0].Message.Content)
	if strings.Contains(answer, "checkout") || strings.Contains(answer, "caixa") {
		return domain.IntentCheckout, nil
	}
	return domain.IntentSales, nil
}

// Run answers one turn with tool access. The loop feeds tool results
// back to the model until it produces text or the round limit is hit.
func (c *LLMClient) Run(ctx context.Context, customer, message string, intent domain.Intent, instruction string) (*domain.TurnResult, error) {
	system := c.prompts.Sales
	if intent == domain.IntentCheckout {
		system = c.prompts.Checkout
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
	}
	history, err := c.history(ctx, customer)
	if err != nil {
		return nil, err
	}
	messages = append(messages, history...)
	if instruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: instruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: message,
	})

	tools := c.tools[intent]
	definitions := make([]openai.Tool, len(tools))
	for i, t := range tools {
		definitions[i] = t.Definition
	}

	result := &domain.TurnResult{Intent: intent}
	for round := 0; round < c.config.MaxToolRounds; round++ {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: c.config.Temperature,
			MaxTokens:   c.config.MaxTokens,
			Messages:    messages,
			Tools:       definitions,
		})
		if err != nil {
			return nil, fmt.Errorf("responder: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("responder: empty response")
		}
		reply := resp.Choices[0].Message
		if len(reply.ToolCalls) == 0 {
			result.Text = reply.Content
			if err := c.remember(ctx, customer, message, result.Text); err != nil {
				c.log.Warn().Err(err).Str("customer", customer).Msg("history write failed")
			}
			return result, nil
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			output := c.execute(ctx, customer, intent, call)
			result.ToolCalls = append(result.ToolCalls, domain.ToolCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    output,
			})
		}
	}
	return nil, fmt.Errorf("responder: tool round limit reached")
}

func (c *LLMClient) execute(ctx context.Context, customer string, intent domain.Intent, call openai.ToolCall) string {
	for _, t := range c.tools[intent] {
		if t.Definition.Function == nil || t.Definition.Function.Name != call.Function.Name {
			continue
		}
		output, err := t.Run(ctx, customer, json.RawMessage(call.Function.Arguments))
		if err != nil {
			c.log.Warn().Err(err).Str("tool", call.Function.Name).Str("customer", customer).Msg("tool failed")
			return fmt.Sprintf(`{"erro": %q}`, err.Error())
		}
		return output
	}
	return fmt.Sprintf(`{"erro": "ferramenta desconhecida: %s"}`, call.Function.Name)
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func historyKey(customer string) string {
	return "history:" + customer
}

func (c *LLMClient) history(ctx context.Context, customer string) ([]openai.ChatCompletionMessage, error) {
	raw, err := c.store.LRange(ctx, historyKey(customer), int64(-c.config.HistoryLimit), -1)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(raw))
	for _, entry := range raw {
		var h historyEntry
		if err := json.Unmarshal([]byte(entry), &h); err != nil {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: h.Role, Content: h.Content})
	}
	return messages, nil
}

func (c *LLMClient) remember(ctx context.Context, customer, message, reply string) error {
	entries := []historyEntry{
		{Role: openai.ChatMessageRoleUser, Content: message},
		{Role: openai.ChatMessageRoleAssistant, Content: reply},
	}
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		values = append(values, string(raw))
	}
	if err := c.store.RPush(ctx, historyKey(customer), values...); err != nil {
		return err
	}
	_, err := c.store.Expire(ctx, historyKey(customer), c.config.HistoryTTL)
	return err
}
