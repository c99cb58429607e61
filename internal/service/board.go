package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/boardroom/internal/llm"
	"github.com/raphaelgruber/boardroom/internal/metrics"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/prompts"
	"golang.org/x/sync/errgroup"
)

// Options tune the orchestrator.
type Options struct {
	Platform            string
	HistoryWindow       int
	DispatchConcurrency int
	MaxReplyTokens      int
	SummaryMaxTokens    int
}

func (o Options) withDefaults() Options {
	if o.Platform == "" {
		o.Platform = "barter-marketplace"
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 20
	}
	if o.DispatchConcurrency <= 0 {
		o.DispatchConcurrency = 1
	}
	if o.MaxReplyTokens <= 0 {
		o.MaxReplyTokens = 1024
	}
	if o.SummaryMaxTokens <= 0 {
		o.SummaryMaxTokens = 1024
	}
	return o
}

// StartInput opens a conversation.
type StartInput struct {
	InitiatorID    string
	Topic          string
	TopicLocalized *string
	Type           string
	Flags          []string
}

// SendInput is one inbound founder message.
type SendInput struct {
	ConversationID   string
	AuthorID         string
	Content          string
	TargetPersonaIDs []string
	CEOMode          string
	NewFlags         []string

	// OnRoute, if set, receives the responder set before dispatch.
	OnRoute func(personas []models.Persona)
	// OnReply, if set, receives each reply as soon as it is persisted.
	// Calls are serialized.
	OnReply func(reply models.Message)
}

// BoardService sequences conversation turns and lifecycle transitions.
type BoardService struct {
	store     Store
	completer Completer
	registry  *Registry
	contexts  *ContextBuilder
	opts      Options
	metrics   *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

// NewBoardService creates the orchestrator.
func NewBoardService(store Store, completer Completer, opts Options, collector *metrics.Collector, logger *slog.Logger) *BoardService {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &BoardService{
		store:     store,
		completer: completer,
		registry:  NewRegistry(store, logger),
		contexts:  NewContextBuilder(store, opts.Platform, collector, logger),
		opts:      opts,
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Registry returns the persona registry.
func (s *BoardService) Registry() *Registry {
	return s.registry
}

// StartConversation opens a new active conversation.
func (s *BoardService) StartConversation(ctx context.Context, in StartInput) (*models.Conversation, error) {
	in.InitiatorID = strings.TrimSpace(in.InitiatorID)
	in.Topic = strings.TrimSpace(in.Topic)
	if in.InitiatorID == "" {
		return nil, fmt.Errorf("%w: initiator id is required", ErrInvalidInput)
	}
	if in.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	convType, err := models.ParseConversationType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	flags, _ := models.MergeFlags(nil, in.Flags)

	conv, err := s.store.CreateConversation(ctx, models.ConversationInput{
		Topic:          in.Topic,
		TopicLocalized: in.TopicLocalized,
		Type:           convType,
		InitiatorID:    in.InitiatorID,
		Flags:          flags,
	})
	if err != nil {
		return nil, err
	}
	s.resolveInitiator(ctx, conv)

	s.logger.Info("conversation started", "conversation_id", conv.ID, "type", conv.Type, "flags", conv.ActiveFlags)
	return conv, nil
}

// SendMessage runs one turn: persist the message, route it, and collect a
// reply from every selected persona. Per-persona failures are reported in
// the result, never as an error.
func (s *BoardService) SendMessage(ctx context.Context, in SendInput) (*models.TurnResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordTiming(metrics.OpTurn, time.Since(start)) }()

	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	conv, err := s.store.GetConversation(ctx, in.ConversationID, models.MessageQuery{})
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, in.ConversationID)
	}
	mode, err := models.ParseCEOMode(in.CEOMode)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.store.AppendMessage(ctx, models.MessageInput{
		ConversationID: conv.ID,
		AuthorRole:     models.AuthorUser,
		AuthorID:       in.AuthorID,
		Content:        in.Content,
	})
	if err != nil {
		return nil, err
	}

	history, err := s.history(ctx, conv.ID, userMsg.ID)
	if err != nil {
		return nil, err
	}

	flags, grew := models.MergeFlags(conv.ActiveFlags, in.NewFlags)
	if grew {
		if err := s.store.UpdateConversationFlags(ctx, conv.ID, flags); err != nil {
			return nil, err
		}
		s.logger.Info("conversation flags updated", "conversation_id", conv.ID, "flags", flags)
	}

	personas, err := s.registry.List(ctx, true)
	if err != nil {
		return nil, err
	}
	route := RouteMessage(in.Content, in.TargetPersonaIDs, personas)
	s.logger.Info("message routed",
		"conversation_id", conv.ID,
		"reason", route.Reason,
		"domains", route.Domains,
		"roles", route.Roles())
	if in.OnRoute != nil {
		in.OnRoute(slices.Clone(route.Personas))
	}

	snapshot := s.contexts.Build(ctx, conv.ID)
	turn := turnInput{
		mode:     mode,
		flags:    flags,
		history:  history,
		context:  snapshot.JSON(),
		content:  in.Content,
		convID:   conv.ID,
		onReply:  in.OnReply,
		replyMu:  &sync.Mutex{},
		personas: route.Personas,
	}
	replies, failed := s.dispatch(ctx, turn)

	s.logger.Info("turn complete",
		"conversation_id", conv.ID,
		"replies", len(replies),
		"failed", len(failed),
		"duration_ms", time.Since(start).Milliseconds())

	return &models.TurnResult{UserMessage: *userMsg, Replies: replies, Failed: failed}, nil
}

type turnInput struct {
	mode     models.CEOMode
	flags    []string
	history  []models.Message
	context  string
	content  string
	convID   string
	onReply  func(models.Message)
	replyMu  *sync.Mutex
	personas []models.Persona
}

// dispatch asks every routed persona for a reply. Results are indexed by
// routing position so the output order never depends on completion timing.
func (s *BoardService) dispatch(ctx context.Context, turn turnInput) ([]models.Message, []models.PersonaFailure) {
	replies := make([]*models.Message, len(turn.personas))
	failures := make([]*models.PersonaFailure, len(turn.personas))

	// Goroutines never return an error: one persona failing must not
	// cancel the others.
	var g errgroup.Group
	g.SetLimit(s.opts.DispatchConcurrency)
	for i, p := range turn.personas {
		g.Go(func() error {
			msg, err := s.respond(ctx, p, turn)
			if err != nil {
				s.logger.Warn("persona reply failed",
					"conversation_id", turn.convID,
					"persona_id", p.ID,
					"role", p.Role,
					"error", err)
				s.metrics.Incr(metrics.CounterPersonaFailures)
				failures[i] = &models.PersonaFailure{PersonaID: p.ID, Role: p.Role, Error: err.Error()}
				return nil
			}
			replies[i] = msg
			if turn.onReply != nil {
				turn.replyMu.Lock()
				turn.onReply(*msg)
				turn.replyMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.Message, 0, len(replies))
	for _, r := range replies {
		if r != nil {
			out = append(out, *r)
		}
	}
	var failed []models.PersonaFailure
	for _, f := range failures {
		if f != nil {
			failed = append(failed, *f)
		}
	}
	return out, failed
}

func (s *BoardService) respond(ctx context.Context, p models.Persona, turn turnInput) (*models.Message, error) {
	var mode models.CEOMode
	if p.Role == models.RoleCEO {
		mode = turn.mode
	}
	system, err := prompts.Compose(p.Role, mode, turn.flags)
	if err != nil {
		return nil, err
	}

	tier := p.ModelTier
	if tier == "" {
		tier = models.TierStandard
	}

	turns := historyTurns(turn.history)
	turns = append(turns, llm.Turn{
		Role:    models.AuthorUser,
		Content: finalTurn(turn.context, turn.content, p),
	})

	if err := s.completer.Available(); err != nil {
		return nil, err
	}
	resp, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: system,
		Turns:        turns,
		Tier:         tier,
		MaxTokens:    s.opts.MaxReplyTokens,
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, errors.New("empty reply")
	}

	input := models.MessageInput{
		ConversationID: turn.convID,
		AuthorRole:     models.AuthorAssistant,
		AuthorID:       p.ID,
		Content:        text,
		ModelTier:      models.Ptr(tier),
		TokensUsed:     models.Ptr(resp.Usage),
		ToolsInvoked:   resp.ToolNames(),
	}
	if p.Role == models.RoleCEO {
		input.CEOMode = models.Ptr(mode)
	}
	msg, err := s.store.AppendMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("persist reply: %w", err)
	}
	return msg, nil
}

// history loads the recent window in chronological order, without the
// message the current turn carries in its final synthetic turn.
func (s *BoardService) history(ctx context.Context, convID, excludeID string) ([]models.Message, error) {
	conv, err := s.store.GetConversation(ctx, convID, models.MessageQuery{
		Include: true,
		Limit:   s.opts.HistoryWindow + 1,
		Order:   models.OrderDesc,
	})
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, convID)
	}

	window := make([]models.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if m.ID != excludeID {
			window = append(window, m)
		}
	}
	if len(window) > s.opts.HistoryWindow {
		window = window[:s.opts.HistoryWindow]
	}
	slices.Reverse(window)
	return window, nil
}

// historyTurns maps stored messages onto completion turns. System messages
// are dropped; assistant turns are prefixed with the speaking role.
func historyTurns(history []models.Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history)+1)
	for _, m := range history {
		switch m.AuthorRole {
		case models.AuthorUser:
			turns = append(turns, llm.Turn{Role: models.AuthorUser, Content: m.Content})
		case models.AuthorAssistant:
			turns = append(turns, llm.Turn{
				Role:    models.AuthorAssistant,
				Content: fmt.Sprintf("[%s] %s", speaker(m), m.Content),
			})
		}
	}
	return turns
}

func speaker(m models.Message) string {
	if role, err := models.ParseRole(m.AuthorID); err == nil {
		return string(role)
	}
	if m.AuthorID == "" {
		return "BOARD"
	}
	return strings.ToUpper(m.AuthorID)
}

func finalTurn(contextJSON, content string, p models.Persona) string {
	var b strings.Builder
	b.WriteString("Platform context:\n")
	b.WriteString(contextJSON)
	b.WriteString("\n\nFounder's message:\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(prompts.ClosingDirective(p))
	return b.String()
}

// EndConversation summarizes the discussion and marks the conversation
// completed. Only active conversations can be ended; completion errors are
// returned unchanged.
func (s *BoardService) EndConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id, models.MessageQuery{Include: true, Order: models.OrderAsc})
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if conv.Status != models.ConversationActive {
		return nil, fmt.Errorf("%w: conversation %s is %s", ErrInvalidInput, id, conv.Status)
	}

	start := time.Now()
	resp, err := s.completer.Complete(ctx, llm.Request{
		SystemPrompt: prompts.SummarizerPrompt(),
		Turns: []llm.Turn{{
			Role:    models.AuthorUser,
			Content: prompts.SummaryRequest() + "\n\n" + transcript(conv.Messages),
		}},
		Tier:      models.TierStandard,
		MaxTokens: s.opts.SummaryMaxTokens,
	})
	if err != nil {
		s.metrics.RecordFailure(metrics.OpSummary, time.Since(start))
		s.logger.Warn("summary failed", "conversation_id", id, "error", err)
		return nil, err
	}
	s.metrics.RecordLLMUsage(metrics.OpSummary, time.Since(start), int64(resp.Usage.Input), int64(resp.Usage.Output))

	completed, err := s.store.CompleteConversation(ctx, id, strings.TrimSpace(resp.Text), s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.resolveInitiator(ctx, completed)

	s.logger.Info("conversation ended", "conversation_id", id, "messages", len(conv.Messages))
	return completed, nil
}

func transcript(messages []models.Message) string {
	var b strings.Builder
	for _, m := range messages {
		label := "FOUNDER"
		switch m.AuthorRole {
		case models.AuthorAssistant:
			label = speaker(m)
		case models.AuthorSystem:
			label = "SYSTEM"
		}
		fmt.Fprintf(&b, "[%s] %s\n", label, m.Content)
	}
	return b.String()
}

// GetConversation returns a conversation, optionally with every message in
// chronological order.
func (s *BoardService) GetConversation(ctx context.Context, id string, includeMessages bool) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id, models.MessageQuery{Include: includeMessages, Order: models.OrderAsc})
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.resolveInitiator(ctx, conv)
	return conv, nil
}

// ListConversations returns the conversations started by initiatorID.
func (s *BoardService) ListConversations(ctx context.Context, initiatorID string) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, initiatorID)
}

// ListPersonas returns the board personas ordered by role.
func (s *BoardService) ListPersonas(ctx context.Context, activeOnly bool) ([]models.Persona, error) {
	return s.registry.List(ctx, activeOnly)
}

// SetPersonaStatus changes whether the persona seated in role answers.
func (s *BoardService) SetPersonaStatus(ctx context.Context, role string, status string) error {
	r, err := models.ParseRole(role)
	if err != nil {
		return err
	}
	return s.registry.SetStatus(ctx, r, models.PersonaStatus(strings.ToLower(strings.TrimSpace(status))))
}

// resolveInitiator attaches the initiator's user record when it can be found.
func (s *BoardService) resolveInitiator(ctx context.Context, conv *models.Conversation) {
	if conv == nil || conv.InitiatorID == "" {
		return
	}
	user, err := s.store.GetUser(ctx, conv.InitiatorID)
	if err != nil {
		s.logger.Debug("initiator lookup failed", "initiator_id", conv.InitiatorID, "error", err)
		return
	}
	if user == nil {
		user = &models.User{ID: conv.InitiatorID}
	}
	conv.Initiator = user
}
