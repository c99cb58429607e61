package llm

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/raphaelgruber/boardroom/internal/metrics"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/tmc/langchaingo/llms"
)

// Turn is one prior message in a completion request.
type Turn struct {
	Role    models.AuthorRole
	Content string
}

// Request is a single completion call.
type Request struct {
	SystemPrompt string
	Turns        []Turn
	Tier         models.ModelTier
	MaxTokens    int
	Tools        []llms.Tool
}

// Response is the model's answer to a Request.
type Response struct {
	Text       string
	Model      string
	Tier       models.ModelTier
	Usage      models.TokenCount
	ToolCalls  []llms.ToolCall
	StopReason string
}

// ToolNames returns the names of the tools the model asked for.
func (r *Response) ToolNames() []string {
	if r == nil || len(r.ToolCalls) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.ToolCalls))
	for _, tc := range r.ToolCalls {
		if tc.FunctionCall != nil {
			names = append(names, tc.FunctionCall.Name)
		}
	}
	return names
}

// ToolResult is the output of one tool call, fed back to the model.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
}

// Options tune a Completer.
type Options struct {
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
	Metrics    *metrics.Collector
	Logger     *slog.Logger
}

// Completer sends chat requests to the backend selected by model tier.
type Completer struct {
	backends map[models.ModelTier]Backend
	limiter  *rateLimiter
	timeout  time.Duration
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewCompleter creates a completer over the given backends. A completer with
// no backends is valid and reports itself unavailable.
func NewCompleter(backends map[models.ModelTier]Backend, opts Options) *Completer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := opts.RateWindow
	if window <= 0 {
		window = time.Minute
	}
	return &Completer{
		backends: backends,
		limiter:  newRateLimiter(opts.RateLimit, window),
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// IsAvailable reports whether a backend is configured and the rolling
// request budget has room.
func (c *Completer) IsAvailable() bool {
	return c.Available() == nil
}

// Available explains IsAvailable: ErrUnavailable when no backend is
// configured, ErrRateLimited when the rolling budget is spent.
func (c *Completer) Available() error {
	if len(c.backends) == 0 {
		return ErrUnavailable
	}
	if !c.limiter.Allow() {
		c.metrics.Incr(metrics.CounterRateLimited)
		return ErrRateLimited
	}
	return nil
}

// Complete sends one request and returns the first choice.
func (c *Completer) Complete(ctx context.Context, req Request) (*Response, error) {
	return c.generate(ctx, req, buildMessages(req))
}

// ContinueWithToolResults re-invokes the model after tool execution: the
// original request, the assistant turn that requested the tools, and one
// tool message per result.
func (c *Completer) ContinueWithToolResults(ctx context.Context, req Request, prior *Response, results []ToolResult) (*Response, error) {
	if prior == nil {
		return nil, errors.New("continue with tool results: prior response required")
	}
	messages := buildMessages(req)

	assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if prior.Text != "" {
		assistant.Parts = append(assistant.Parts, llms.TextContent{Text: prior.Text})
	}
	for _, tc := range prior.ToolCalls {
		assistant.Parts = append(assistant.Parts, tc)
	}
	messages = append(messages, assistant)

	for _, r := range results {
		messages = append(messages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: r.CallID,
				Name:       r.Name,
				Content:    r.Content,
			}},
		})
	}
	return c.generate(ctx, req, messages)
}

func (c *Completer) generate(ctx context.Context, req Request, messages []llms.MessageContent) (*Response, error) {
	backend, ok := c.backends[req.Tier]
	if !ok {
		return nil, &CompletionError{Tier: req.Tier, Err: ErrUnavailable}
	}
	if !c.limiter.Reserve() {
		c.metrics.Incr(metrics.CounterRateLimited)
		return nil, ErrRateLimited
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var opts []llms.CallOption
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(req.Tools))
	}

	c.logger.Debug("completion request", "model", backend.Name, "tier", req.Tier, "turns", len(messages))

	start := time.Now()
	resp, err := backend.Model.GenerateContent(ctx, messages, opts...)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordFailure(metrics.OpCompletion, duration)
		c.metrics.RecordTierUsage(string(req.Tier), duration, -1, -1)
		c.logger.Warn("completion failed", "model", backend.Name, "tier", req.Tier, "duration_ms", duration.Milliseconds(), "error", err)
		return nil, &CompletionError{Model: backend.Name, Tier: req.Tier, Err: wrapFatalError(err)}
	}
	if len(resp.Choices) == 0 {
		c.metrics.RecordFailure(metrics.OpCompletion, duration)
		c.metrics.RecordTierUsage(string(req.Tier), duration, -1, -1)
		return nil, &CompletionError{Model: backend.Name, Tier: req.Tier, Err: errors.New("no response choices")}
	}

	choice := resp.Choices[0]
	usage := extractUsage(choice.GenerationInfo)
	c.metrics.RecordLLMUsage(metrics.OpCompletion, duration, int64(usage.Input), int64(usage.Output))
	c.metrics.RecordTierUsage(string(req.Tier), duration, int64(usage.Input), int64(usage.Output))
	c.logger.Debug("completion done", "model", backend.Name, "tier", req.Tier,
		"duration_ms", duration.Milliseconds(), "input_tokens", usage.Input, "output_tokens", usage.Output)

	return &Response{
		Text:       choice.Content,
		Model:      backend.Name,
		Tier:       req.Tier,
		Usage:      usage,
		ToolCalls:  choice.ToolCalls,
		StopReason: choice.StopReason,
	}, nil
}

func buildMessages(req Request) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.Turns)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	for _, t := range req.Turns {
		messages = append(messages, llms.TextParts(chatType(t.Role), t.Content))
	}
	return messages
}

func chatType(role models.AuthorRole) llms.ChatMessageType {
	switch role {
	case models.AuthorAssistant:
		return llms.ChatMessageTypeAI
	case models.AuthorSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}

// Providers report token usage under different GenerationInfo keys.
var (
	inputTokenKeys  = []string{"InputTokens", "PromptTokens", "input_tokens", "prompt_tokens"}
	outputTokenKeys = []string{"OutputTokens", "CompletionTokens", "output_tokens", "completion_tokens"}
)

func extractUsage(info map[string]any) models.TokenCount {
	return models.TokenCount{
		Input:  firstInt(info, inputTokenKeys),
		Output: firstInt(info, outputTokenKeys),
	}
}

func firstInt(info map[string]any, keys []string) int {
	for _, k := range keys {
		v, ok := info[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int32:
			return int(n)
		case int64:
			return int(n)
		case float64:
			return int(n)
		case float32:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(n); err == nil {
				return parsed
			}
		}
	}
	return 0
}
