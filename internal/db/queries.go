package db

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Aggregate metric names served by CountAggregate.
const (
	MetricTotalUsers            = "total_users"
	MetricActiveListings        = "active_listings"
	MetricCompletedTransactions = "completed_transactions"
)

var aggregateSQL = map[string]string{
	MetricTotalUsers:            `SELECT count() AS count FROM user GROUP ALL`,
	MetricActiveListings:        `SELECT count() AS count FROM listing WHERE status = "active" GROUP ALL`,
	MetricCompletedTransactions: `SELECT count() AS count FROM barter_transaction WHERE status = "completed" GROUP ALL`,
}

type personaRow struct {
	ID            surrealmodels.RecordID `json:"id"`
	Role          string                 `json:"role"`
	DisplayName   string                 `json:"display_name"`
	LocalizedName string                 `json:"localized_name"`
	ModelTier     string                 `json:"model_tier"`
	Status        string                 `json:"status"`
	Created       time.Time              `json:"created"`
}

func (r personaRow) toModel() models.Persona {
	return models.Persona{
		ID:            recordKey(r.ID),
		Role:          models.Role(r.Role),
		DisplayName:   r.DisplayName,
		LocalizedName: r.LocalizedName,
		ModelTier:     models.ModelTier(r.ModelTier),
		Status:        models.PersonaStatus(r.Status),
		CreatedAt:     r.Created,
	}
}

type conversationRow struct {
	ID             surrealmodels.RecordID `json:"id"`
	Topic          string                 `json:"topic"`
	TopicLocalized *string                `json:"topic_localized,omitempty"`
	Type           string                 `json:"type"`
	Status         string                 `json:"status"`
	Initiator      string                 `json:"initiator"`
	ActiveFlags    []string               `json:"active_flags"`
	Summary        *string                `json:"summary,omitempty"`
	Created        time.Time              `json:"created"`
	Ended          *time.Time             `json:"ended,omitempty"`
}

func (r conversationRow) toModel() *models.Conversation {
	flags := r.ActiveFlags
	if flags == nil {
		flags = []string{}
	}
	return &models.Conversation{
		ID:             recordKey(r.ID),
		Topic:          r.Topic,
		TopicLocalized: r.TopicLocalized,
		Type:           models.ConversationType(r.Type),
		Status:         models.ConversationStatus(r.Status),
		InitiatorID:    r.Initiator,
		ActiveFlags:    flags,
		Summary:        r.Summary,
		CreatedAt:      r.Created,
		EndedAt:        r.Ended,
	}
}

type messageRow struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	AuthorRole   string                 `json:"author_role"`
	AuthorID     *string                `json:"author_id,omitempty"`
	Content      string                 `json:"content"`
	ModelTier    *string                `json:"model_tier,omitempty"`
	InputTokens  *int                   `json:"input_tokens,omitempty"`
	OutputTokens *int                   `json:"output_tokens,omitempty"`
	ToolsInvoked []string               `json:"tools_invoked,omitempty"`
	CEOMode      *string                `json:"ceo_mode,omitempty"`
	Created      time.Time              `json:"created"`
}

func (r messageRow) toModel() models.Message {
	m := models.Message{
		ID:             recordKey(r.ID),
		ConversationID: recordKey(r.Conversation),
		AuthorRole:     models.AuthorRole(r.AuthorRole),
		Content:        r.Content,
		ToolsInvoked:   r.ToolsInvoked,
		CreatedAt:      r.Created,
	}
	if r.AuthorID != nil {
		m.AuthorID = *r.AuthorID
	}
	if r.ModelTier != nil {
		m.ModelTier = models.Ptr(models.ModelTier(*r.ModelTier))
	}
	if r.InputTokens != nil || r.OutputTokens != nil {
		m.TokensUsed = &models.TokenCount{}
		if r.InputTokens != nil {
			m.TokensUsed.Input = *r.InputTokens
		}
		if r.OutputTokens != nil {
			m.TokensUsed.Output = *r.OutputTokens
		}
	}
	if r.CEOMode != nil {
		m.CEOMode = models.Ptr(models.CEOMode(*r.CEOMode))
	}
	return m
}

type userRow struct {
	ID    surrealmodels.RecordID `json:"id"`
	Name  string                 `json:"name"`
	Email *string                `json:"email,omitempty"`
}

// recordKey extracts the key part of a record id ("cfo" from persona:cfo).
func recordKey(id surrealmodels.RecordID) string {
	if s, ok := id.ID.(string); ok {
		return s
	}
	return fmt.Sprint(id.ID)
}

// query runs sql and returns the rows of the last statement.
func query[T any](ctx context.Context, c *Client, sql string, vars map[string]any) ([]T, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]T](ctx, c.db, sql, vars)
	c.recordQuery(start, err)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[len(*results)-1].Result, nil
}

// =============================================================================
// PERSONAS
// =============================================================================

// CreatePersona inserts a persona under its deterministic record id.
// Returns ErrAlreadyExists if the role is already seated.
func (c *Client) CreatePersona(ctx context.Context, p models.Persona) error {
	id := p.ID
	if id == "" {
		id = p.Role.ID()
	}
	status := p.Status
	if status == "" {
		status = models.PersonaActive
	}

	_, err := query[personaRow](ctx, c, `
		CREATE type::record("persona", $id) CONTENT {
			role: $role,
			display_name: $display_name,
			localized_name: $localized_name,
			model_tier: $model_tier,
			status: $status
		}
	`, map[string]any{
		"id":             id,
		"role":           string(p.Role),
		"display_name":   p.DisplayName,
		"localized_name": p.LocalizedName,
		"model_tier":     string(p.ModelTier),
		"status":         string(status),
	})
	if err != nil {
		return fmt.Errorf("create persona %s: %w", p.Role, err)
	}
	return nil
}

// ListPersonas returns personas ordered by role name ascending.
func (c *Client) ListPersonas(ctx context.Context, activeOnly bool) ([]models.Persona, error) {
	where := ""
	if activeOnly {
		where = `WHERE status = "active"`
	}
	rows, err := query[personaRow](ctx, c, fmt.Sprintf(`SELECT * FROM persona %s ORDER BY role ASC`, where), nil)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}

	personas := make([]models.Persona, 0, len(rows))
	for _, r := range rows {
		personas = append(personas, r.toModel())
	}
	return personas, nil
}

// UpdatePersonaStatus changes the availability of the persona seated in role.
func (c *Client) UpdatePersonaStatus(ctx context.Context, role models.Role, status models.PersonaStatus) error {
	rows, err := query[personaRow](ctx, c, `
		UPDATE persona SET status = $status WHERE role = $role RETURN AFTER
	`, map[string]any{"role": string(role), "status": string(status)})
	if err != nil {
		return fmt.Errorf("update persona status: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("update persona status %s: %w", role, ErrNotFound)
	}
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation persists a new active conversation.
func (c *Client) CreateConversation(ctx context.Context, input models.ConversationInput) (*models.Conversation, error) {
	flags, _ := models.MergeFlags(nil, input.Flags)
	convType := input.Type
	if convType == "" {
		convType = models.ConversationQuestion
	}

	rows, err := query[conversationRow](ctx, c, `
		CREATE type::record("conversation", $id) CONTENT {
			topic: $topic,
			topic_localized: $topic_localized,
			type: $type,
			status: "active",
			initiator: $initiator,
			active_flags: $flags
		}
	`, map[string]any{
		"id":              uuid.NewString(),
		"topic":           input.Topic,
		"topic_localized": input.TopicLocalized,
		"type":            string(convType),
		"initiator":       input.InitiatorID,
		"flags":           flags,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create conversation: no result returned")
	}
	return rows[0].toModel(), nil
}

// GetConversation loads a conversation and, when q.Include is set, its
// messages sorted by q.Order and capped at q.Limit.
// Returns nil if not found.
func (c *Client) GetConversation(ctx context.Context, id string, q models.MessageQuery) (*models.Conversation, error) {
	rows, err := query[conversationRow](ctx, c, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	conv := rows[0].toModel()

	if !q.Include {
		return conv, nil
	}
	messages, err := c.listMessages(ctx, id, q)
	if err != nil {
		return nil, err
	}
	conv.Messages = messages
	return conv, nil
}

func (c *Client) listMessages(ctx context.Context, conversationID string, q models.MessageQuery) ([]models.Message, error) {
	order := "ASC"
	if q.Order == models.OrderDesc {
		order = "DESC"
	}
	limit := ""
	vars := map[string]any{"id": conversationID}
	if q.Limit > 0 {
		limit = "LIMIT $limit"
		vars["limit"] = q.Limit
	}

	sql := fmt.Sprintf(`
		SELECT * FROM message
		WHERE conversation = type::record("conversation", $id)
		ORDER BY created %s
		%s
	`, order, limit)

	rows, err := query[messageRow](ctx, c, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	messages := make([]models.Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, r.toModel())
	}
	return messages, nil
}

// AppendMessage persists one immutable message.
func (c *Client) AppendMessage(ctx context.Context, input models.MessageInput) (*models.Message, error) {
	vars := map[string]any{
		"id":              uuid.NewString(),
		"conversation_id": input.ConversationID,
		"author_role":     string(input.AuthorRole),
		"content":         input.Content,
		"author_id":       nil,
		"model_tier":      nil,
		"input_tokens":    nil,
		"output_tokens":   nil,
		"tools_invoked":   nil,
		"ceo_mode":        nil,
	}
	if input.AuthorID != "" {
		vars["author_id"] = input.AuthorID
	}
	if input.ModelTier != nil {
		vars["model_tier"] = string(*input.ModelTier)
	}
	if input.TokensUsed != nil {
		vars["input_tokens"] = input.TokensUsed.Input
		vars["output_tokens"] = input.TokensUsed.Output
	}
	if len(input.ToolsInvoked) > 0 {
		vars["tools_invoked"] = slices.Clone(input.ToolsInvoked)
	}
	if input.CEOMode != nil {
		vars["ceo_mode"] = string(*input.CEOMode)
	}

	rows, err := query[messageRow](ctx, c, `
		CREATE type::record("message", $id) CONTENT {
			conversation: type::record("conversation", $conversation_id),
			author_role: $author_role,
			author_id: $author_id,
			content: $content,
			model_tier: $model_tier,
			input_tokens: $input_tokens,
			output_tokens: $output_tokens,
			tools_invoked: $tools_invoked,
			ceo_mode: $ceo_mode
		}
	`, vars)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("append message: no result returned")
	}
	m := rows[0].toModel()
	return &m, nil
}

// UpdateConversationFlags unions flags into the conversation's active flags.
// The set only grows.
func (c *Client) UpdateConversationFlags(ctx context.Context, id string, flags []string) error {
	if flags == nil {
		flags = []string{}
	}
	rows, err := query[conversationRow](ctx, c, `
		UPDATE type::record("conversation", $id) SET
			active_flags = array::union(active_flags ?? [], $flags)
		RETURN AFTER
	`, map[string]any{"id": id, "flags": flags})
	if err != nil {
		return fmt.Errorf("update conversation flags: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("update conversation flags %s: %w", id, ErrNotFound)
	}
	return nil
}

// CompleteConversation marks a conversation completed with its summary.
func (c *Client) CompleteConversation(ctx context.Context, id, summary string, endedAt time.Time) (*models.Conversation, error) {
	rows, err := query[conversationRow](ctx, c, `
		UPDATE type::record("conversation", $id) SET
			status = "completed",
			summary = $summary,
			ended = type::datetime($ended)
		RETURN AFTER
	`, map[string]any{
		"id":      id,
		"summary": summary,
		"ended":   endedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("complete conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("complete conversation %s: %w", id, ErrNotFound)
	}
	return rows[0].toModel(), nil
}

// ListConversations returns conversations newest first. An empty initiatorID
// lists every conversation.
func (c *Client) ListConversations(ctx context.Context, initiatorID string) ([]models.Conversation, error) {
	where := ""
	vars := map[string]any{}
	if initiatorID != "" {
		where = "WHERE initiator = $initiator"
		vars["initiator"] = initiatorID
	}
	rows, err := query[conversationRow](ctx, c, fmt.Sprintf(`
		SELECT * FROM conversation %s ORDER BY created DESC
	`, where), vars)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	convs := make([]models.Conversation, 0, len(rows))
	for _, r := range rows {
		convs = append(convs, *r.toModel())
	}
	return convs, nil
}

// =============================================================================
// MARKETPLACE READS
// =============================================================================

// CountAggregate returns one platform-wide count (see the Metric constants).
func (c *Client) CountAggregate(ctx context.Context, metric string) (int64, error) {
	sql, ok := aggregateSQL[metric]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	rows, err := query[struct {
		Count int64 `json:"count"`
	}](ctx, c, sql, nil)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", metric, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Count, nil
}

// GetUser resolves a marketplace user for display. Returns nil if not found.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	rows, err := query[userRow](ctx, c, `
		SELECT id, name, email FROM type::record("user", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &models.User{ID: recordKey(rows[0].ID), Name: rows[0].Name, Email: rows[0].Email}, nil
}
