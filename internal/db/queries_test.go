package db_test

import (
	"errors"
	"testing"
	"time"

	"github.com/raphaelgruber/boardroom/internal/db"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPersona(role models.Role, tier models.ModelTier) models.Persona {
	return models.Persona{
		ID:            role.ID(),
		Role:          role,
		DisplayName:   string(role) + " display",
		LocalizedName: string(role) + " localized",
		ModelTier:     tier,
		Status:        models.PersonaActive,
	}
}

func TestCreatePersonaIsIdempotentByRole(t *testing.T) {
	client, ctx := testClient(t)

	require.NoError(t, client.CreatePersona(ctx, seedPersona(models.RoleCFO, models.TierStandard)))

	err := client.CreatePersona(ctx, seedPersona(models.RoleCFO, models.TierStandard))
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrAlreadyExists), "duplicate seat should map to ErrAlreadyExists, got %v", err)

	personas, err := client.ListPersonas(ctx, false)
	require.NoError(t, err)
	assert.Len(t, personas, 1)
}

func TestListPersonasOrderAndFilter(t *testing.T) {
	client, ctx := testClient(t)

	for _, role := range []models.Role{models.RoleCTO, models.RoleCEO, models.RoleCMO} {
		tier := models.TierStandard
		if role == models.RoleCEO {
			tier = models.TierHigh
		}
		require.NoError(t, client.CreatePersona(ctx, seedPersona(role, tier)))
	}
	require.NoError(t, client.UpdatePersonaStatus(ctx, models.RoleCMO, models.PersonaOnLeave))

	all, err := client.ListPersonas(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []models.Role{models.RoleCEO, models.RoleCMO, models.RoleCTO},
		[]models.Role{all[0].Role, all[1].Role, all[2].Role})
	assert.Equal(t, "ceo", all[0].ID)
	assert.Equal(t, models.TierHigh, all[0].ModelTier)
	assert.False(t, all[0].CreatedAt.IsZero())

	active, err := client.ListPersonas(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, p := range active {
		assert.NotEqual(t, models.RoleCMO, p.Role)
	}
}

func TestUpdatePersonaStatusNotFound(t *testing.T) {
	client, ctx := testClient(t)

	err := client.UpdatePersonaStatus(ctx, models.RoleCLO, models.PersonaInactive)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestConversationLifecycle(t *testing.T) {
	client, ctx := testClient(t)

	localized := "تكلفة الشحن"
	conv, err := client.CreateConversation(ctx, models.ConversationInput{
		Topic:          "Shipping cost",
		TopicLocalized: &localized,
		Type:           models.ConversationQuestion,
		InitiatorID:    "founder-1",
		Flags:          []string{"pre-mortem", "pre-mortem"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, models.ConversationActive, conv.Status)
	assert.Equal(t, []string{"pre-mortem"}, conv.ActiveFlags)
	assert.Nil(t, conv.Summary)
	assert.Nil(t, conv.EndedAt)

	got, err := client.GetConversation(ctx, conv.ID, models.MessageQuery{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Shipping cost", got.Topic)
	require.NotNil(t, got.TopicLocalized)
	assert.Equal(t, localized, *got.TopicLocalized)
	assert.Nil(t, got.Messages)

	require.NoError(t, client.UpdateConversationFlags(ctx, conv.ID, []string{"devils-advocate", "pre-mortem"}))
	got, err = client.GetConversation(ctx, conv.ID, models.MessageQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"pre-mortem", "devils-advocate"}, got.ActiveFlags)

	ended := time.Now().UTC().Truncate(time.Millisecond)
	done, err := client.CompleteConversation(ctx, conv.ID, "- decide\n- ship", ended)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationCompleted, done.Status)
	require.NotNil(t, done.Summary)
	assert.Equal(t, "- decide\n- ship", *done.Summary)
	require.NotNil(t, done.EndedAt)
	assert.WithinDuration(t, ended, *done.EndedAt, time.Second)
}

func TestGetConversationMissing(t *testing.T) {
	client, ctx := testClient(t)

	got, err := client.GetConversation(ctx, "does-not-exist", models.MessageQuery{Include: true})
	require.NoError(t, err)
	assert.Nil(t, got)

	err = client.UpdateConversationFlags(ctx, "does-not-exist", []string{"pre-mortem"})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestAppendAndListMessages(t *testing.T) {
	client, ctx := testClient(t)

	conv, err := client.CreateConversation(ctx, models.ConversationInput{
		Topic: "Budget", Type: models.ConversationMeeting, InitiatorID: "founder-1",
	})
	require.NoError(t, err)

	user, err := client.AppendMessage(ctx, models.MessageInput{
		ConversationID: conv.ID,
		AuthorRole:     models.AuthorUser,
		AuthorID:       "founder-1",
		Content:        "What is our budget?",
	})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, user.ConversationID)
	assert.Nil(t, user.TokensUsed)
	assert.Nil(t, user.ModelTier)

	reply, err := client.AppendMessage(ctx, models.MessageInput{
		ConversationID: conv.ID,
		AuthorRole:     models.AuthorAssistant,
		AuthorID:       "cfo",
		Content:        "Tight.",
		ModelTier:      models.Ptr(models.TierStandard),
		TokensUsed:     &models.TokenCount{Input: 120, Output: 8},
		ToolsInvoked:   []string{"count_listings"},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.TokensUsed)
	assert.Equal(t, models.TokenCount{Input: 120, Output: 8}, *reply.TokensUsed)
	assert.Equal(t, []string{"count_listings"}, reply.ToolsInvoked)

	ceo, err := client.AppendMessage(ctx, models.MessageInput{
		ConversationID: conv.ID,
		AuthorRole:     models.AuthorAssistant,
		AuthorID:       "ceo",
		Content:        "Decide by Friday.",
		ModelTier:      models.Ptr(models.TierHigh),
		CEOMode:        models.Ptr(models.CEOStrategist),
	})
	require.NoError(t, err)
	require.NotNil(t, ceo.CEOMode)
	assert.Equal(t, models.CEOStrategist, *ceo.CEOMode)

	asc, err := client.GetConversation(ctx, conv.ID, models.MessageQuery{Include: true, Order: models.OrderAsc})
	require.NoError(t, err)
	require.Len(t, asc.Messages, 3)
	assert.Equal(t, user.ID, asc.Messages[0].ID)
	assert.Equal(t, ceo.ID, asc.Messages[2].ID)

	recent, err := client.GetConversation(ctx, conv.ID, models.MessageQuery{Include: true, Limit: 2, Order: models.OrderDesc})
	require.NoError(t, err)
	require.Len(t, recent.Messages, 2)
	assert.Equal(t, ceo.ID, recent.Messages[0].ID)
	assert.Equal(t, reply.ID, recent.Messages[1].ID)
}

func TestListConversationsByInitiator(t *testing.T) {
	client, ctx := testClient(t)

	for _, initiator := range []string{"a", "a", "b"} {
		_, err := client.CreateConversation(ctx, models.ConversationInput{Topic: "t", InitiatorID: initiator})
		require.NoError(t, err)
	}

	mine, err := client.ListConversations(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.False(t, mine[0].CreatedAt.Before(mine[1].CreatedAt), "newest first")

	all, err := client.ListConversations(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCountAggregate(t *testing.T) {
	client, ctx := testClient(t)

	_, err := client.Query(ctx, `
		DELETE user; DELETE listing; DELETE barter_transaction;
		CREATE user:one SET name = "One";
		CREATE user:two SET name = "Two";
		CREATE listing SET status = "active";
		CREATE listing SET status = "sold";
		CREATE barter_transaction SET status = "completed";
	`, nil)
	require.NoError(t, err)

	users, err := client.CountAggregate(ctx, db.MetricTotalUsers)
	require.NoError(t, err)
	assert.Equal(t, int64(2), users)

	listings, err := client.CountAggregate(ctx, db.MetricActiveListings)
	require.NoError(t, err)
	assert.Equal(t, int64(1), listings)

	txs, err := client.CountAggregate(ctx, db.MetricCompletedTransactions)
	require.NoError(t, err)
	assert.Equal(t, int64(1), txs)

	_, err = client.CountAggregate(ctx, "gmv")
	assert.ErrorIs(t, err, db.ErrUnknownMetric)

	user, err := client.GetUser(ctx, "one")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "One", user.Name)

	missing, err := client.GetUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
