package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/raphaelgruber/boardroom/internal/db"
	"github.com/raphaelgruber/boardroom/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the shared platform context for one turn. Counts are nil when
// the snapshot is degraded.
type Snapshot struct {
	Platform              string    `json:"platform"`
	ConversationID        string    `json:"conversation_id"`
	GeneratedAt           time.Time `json:"generated_at"`
	TotalUsers            *int64    `json:"total_users,omitempty"`
	ActiveListings        *int64    `json:"active_listings,omitempty"`
	CompletedTransactions *int64    `json:"completed_transactions,omitempty"`
	Degraded              bool      `json:"degraded,omitempty"`
}

// JSON renders the snapshot as it is embedded in prompts.
func (s Snapshot) JSON() string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ContextBuilder gathers platform aggregates for a turn.
type ContextBuilder struct {
	store    Store
	platform string
	metrics  *metrics.Collector
	logger   *slog.Logger
	now      func() time.Time
}

// NewContextBuilder creates a context builder reading from store.
func NewContextBuilder(store Store, platform string, collector *metrics.Collector, logger *slog.Logger) *ContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBuilder{
		store:    store,
		platform: platform,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
	}
}

// Build reads the aggregates concurrently. Any failed read degrades the
// result to platform, conversation and timestamp only; Build never fails.
func (b *ContextBuilder) Build(ctx context.Context, conversationID string) Snapshot {
	start := time.Now()
	defer func() { b.metrics.RecordTiming(metrics.OpContextBuild, time.Since(start)) }()

	snap := Snapshot{
		Platform:       b.platform,
		ConversationID: conversationID,
		GeneratedAt:    b.now().UTC(),
	}

	var users, listings, transactions int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = b.store.CountAggregate(gctx, db.MetricTotalUsers)
		return err
	})
	g.Go(func() (err error) {
		listings, err = b.store.CountAggregate(gctx, db.MetricActiveListings)
		return err
	})
	g.Go(func() (err error) {
		transactions, err = b.store.CountAggregate(gctx, db.MetricCompletedTransactions)
		return err
	})

	if err := g.Wait(); err != nil {
		b.logger.Warn("context build degraded", "conversation_id", conversationID, "error", err)
		b.metrics.Incr(metrics.CounterDegradedContext)
		snap.Degraded = true
		return snap
	}

	snap.TotalUsers = &users
	snap.ActiveListings = &listings
	snap.CompletedTransactions = &transactions
	return snap
}
