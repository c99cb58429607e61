package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/boardroom/internal/db"
	"github.com/raphaelgruber/boardroom/internal/llm"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/prompts"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory Store.
type memStore struct {
	mu          sync.Mutex
	seq         int
	base        time.Time
	personas    map[string]models.Persona
	convs       map[string]*models.Conversation
	messages    []models.Message
	users       map[string]models.User
	counts      map[string]int64
	countErr    error
	appendErr   func(models.MessageInput) error
	flagUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		base:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		personas: map[string]models.Persona{},
		convs:    map[string]*models.Conversation{},
		users:    map[string]models.User{},
		counts: map[string]int64{
			db.MetricTotalUsers:            1200,
			db.MetricActiveListings:        340,
			db.MetricCompletedTransactions: 95,
		},
	}
}

// seeded returns a store holding the full persona catalog.
func seeded() *memStore {
	s := newMemStore()
	for _, p := range prompts.Personas() {
		s.personas[p.ID] = p
	}
	return s
}

func (s *memStore) next() (string, time.Time) {
	s.seq++
	return fmt.Sprintf("id-%03d", s.seq), s.base.Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *memStore) CreateConversation(_ context.Context, in models.ConversationInput) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, at := s.next()
	flags := slices.Clone(in.Flags)
	if flags == nil {
		flags = []string{}
	}
	c := &models.Conversation{
		ID:             id,
		Topic:          in.Topic,
		TopicLocalized: in.TopicLocalized,
		Type:           in.Type,
		Status:         models.ConversationActive,
		InitiatorID:    in.InitiatorID,
		ActiveFlags:    flags,
		CreatedAt:      at,
	}
	s.convs[id] = c
	cp := *c
	return &cp, nil
}

func (s *memStore) GetConversation(_ context.Context, id string, q models.MessageQuery) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.ActiveFlags = slices.Clone(c.ActiveFlags)
	if !q.Include {
		return &cp, nil
	}
	var msgs []models.Message
	for _, m := range s.messages {
		if m.ConversationID == id {
			msgs = append(msgs, m)
		}
	}
	if q.Order == models.OrderDesc {
		slices.Reverse(msgs)
	}
	if q.Limit > 0 && len(msgs) > q.Limit {
		msgs = msgs[:q.Limit]
	}
	cp.Messages = msgs
	return &cp, nil
}

func (s *memStore) AppendMessage(_ context.Context, in models.MessageInput) (*models.Message, error) {
	if s.appendErr != nil {
		if err := s.appendErr(in); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, at := s.next()
	m := models.Message{
		ID:             id,
		ConversationID: in.ConversationID,
		AuthorRole:     in.AuthorRole,
		AuthorID:       in.AuthorID,
		Content:        in.Content,
		ModelTier:      in.ModelTier,
		TokensUsed:     in.TokensUsed,
		ToolsInvoked:   in.ToolsInvoked,
		CEOMode:        in.CEOMode,
		CreatedAt:      at,
	}
	s.messages = append(s.messages, m)
	return &m, nil
}

func (s *memStore) UpdateConversationFlags(_ context.Context, id string, flags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return db.ErrNotFound
	}
	c.ActiveFlags, _ = models.MergeFlags(c.ActiveFlags, flags)
	s.flagUpdates++
	return nil
}

func (s *memStore) CompleteConversation(_ context.Context, id, summary string, endedAt time.Time) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	c.Status = models.ConversationCompleted
	c.Summary = &summary
	c.EndedAt = &endedAt
	cp := *c
	return &cp, nil
}

func (s *memStore) ListConversations(_ context.Context, initiatorID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, c := range s.convs {
		if initiatorID == "" || c.InitiatorID == initiatorID {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(a, b models.Conversation) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *memStore) ListPersonas(_ context.Context, activeOnly bool) ([]models.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Persona
	for _, p := range s.personas {
		if !activeOnly || p.Active() {
			out = append(out, p)
		}
	}
	// Map iteration order is random; the registry sorts.
	return out, nil
}

func (s *memStore) CreatePersona(_ context.Context, p models.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personas[p.ID]; ok {
		return fmt.Errorf("create persona %s: %w", p.Role, db.ErrAlreadyExists)
	}
	s.personas[p.ID] = p
	return nil
}

func (s *memStore) UpdatePersonaStatus(_ context.Context, role models.Role, status models.PersonaStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.personas[role.ID()]
	if !ok {
		return db.ErrNotFound
	}
	p.Status = status
	s.personas[role.ID()] = p
	return nil
}

func (s *memStore) CountAggregate(_ context.Context, metric string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	n, ok := s.counts[metric]
	if !ok {
		return 0, db.ErrUnknownMetric
	}
	return n, nil
}

func (s *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *memStore) messagesFor(convID string, role models.AuthorRole) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID == convID && m.AuthorRole == role {
			out = append(out, m)
		}
	}
	return out
}

// fakeCompleter answers as the persona addressed by the system prompt.
type fakeCompleter struct {
	mu          sync.Mutex
	requests    []llm.Request
	unavailable bool
	failRoles   map[models.Role]error
	err         error
	delay       func(models.Role) time.Duration
	summary     string
}

func (f *fakeCompleter) Available() error {
	if f.unavailable {
		return llm.ErrUnavailable
	}
	return nil
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if req.SystemPrompt == prompts.SummarizerPrompt() {
		return &llm.Response{Text: f.summary, Tier: req.Tier}, nil
	}

	role := roleOf(req)
	if f.delay != nil {
		select {
		case <-time.After(f.delay(role)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.failRoles[role]; ok {
		return nil, err
	}
	return &llm.Response{
		Text:  fmt.Sprintf("%s answer", role),
		Model: "fake-" + string(req.Tier),
		Tier:  req.Tier,
		Usage: models.TokenCount{Input: 100, Output: 20},
	}, nil
}

func (f *fakeCompleter) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

func (f *fakeCompleter) rolesCalled() []models.Role {
	var roles []models.Role
	for _, r := range f.calls() {
		roles = append(roles, roleOf(r))
	}
	slices.Sort(roles)
	return roles
}

// roleOf recovers the addressed role from the composed system prompt.
func roleOf(req llm.Request) models.Role {
	for _, role := range models.AllRoles() {
		if strings.Contains(req.SystemPrompt, "You are the "+string(role)) {
			return role
		}
	}
	return ""
}

var errBackend = errors.New("backend exploded")
