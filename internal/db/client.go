// Package db is the SurrealDB-backed conversation store.
package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/boardroom/internal/metrics"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// WebSocket upgrades fail when wss:// negotiates HTTP/2 via ALPN.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// boardTables lists every table WipeData clears, children first.
var boardTables = []string{"message", "conversation", "persona"}

// Config holds SurrealDB connection configuration.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"

	// DialTimeout bounds each websocket (re)dial. Zero means 5s.
	DialTimeout time.Duration
}

// rpcBase strips the /rpc suffix; gorillaws appends it itself.
func (c Config) rpcBase() string {
	return strings.TrimSuffix(c.URL, "/rpc")
}

func (c Config) credentials() surrealdb.Auth {
	if c.AuthLevel == "database" {
		return surrealdb.Auth{
			Namespace: c.Namespace,
			Database:  c.Database,
			Username:  c.Username,
			Password:  c.Password,
		}
	}
	return surrealdb.Auth{Username: c.Username, Password: c.Password}
}

// Client is the conversation store over an auto-reconnecting SurrealDB socket.
type Client struct {
	conn    *rews.Connection[*gorillaws.Connection]
	db      *surrealdb.DB
	cfg     Config
	logger  logger.Logger
	metrics *metrics.Collector
}

// NewClient dials SurrealDB, signs in and selects the namespace and database.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		logger: logger.New(log.Handler()),
	}
	c.conn = c.newConnection()

	c.logger.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := c.conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := c.open(ctx); err != nil {
		_ = c.conn.Close(ctx)
		return nil, err
	}

	c.logger.Info("SurrealDB connection established",
		"namespace", cfg.Namespace, "database", cfg.Database)
	return c, nil
}

func (c *Client) newConnection() *rews.Connection[*gorillaws.Connection] {
	codec := surrealcbor.New()
	dialTimeout := c.cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     c.cfg.rpcBase(),
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      c.logger,
			}), nil
		},
		dialTimeout,
		codec,
		c.logger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer
	return conn
}

// open wraps the live connection and authenticates it.
func (c *Client) open(ctx context.Context) error {
	db, err := surrealdb.FromConnection(ctx, c.conn)
	if err != nil {
		return fmt.Errorf("from connection: %w", err)
	}

	c.logger.Info("authenticating", "user", c.cfg.Username, "auth_level", c.cfg.AuthLevel)
	if _, err := db.SignIn(ctx, c.cfg.credentials()); err != nil {
		return fmt.Errorf("signin: %w", err)
	}
	if err := db.Use(ctx, c.cfg.Namespace, c.cfg.Database); err != nil {
		return fmt.Errorf("use %s/%s: %w", c.cfg.Namespace, c.cfg.Database, err)
	}
	c.db = db
	return nil
}

// Close closes the SurrealDB connection.
func (c *Client) Close(ctx context.Context) error {
	c.logger.Info("closing SurrealDB connection")
	return c.conn.Close(ctx)
}

// SetMetrics records query timings into collector. A nil collector disables it.
func (c *Client) SetMetrics(collector *metrics.Collector) {
	c.metrics = collector
}

// DB returns the underlying SurrealDB client.
func (c *Client) DB() *surrealdb.DB {
	return c.db
}

// InitSchema applies the board schema. Every statement is IF NOT EXISTS.
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.Query(ctx, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	c.logger.Info("schema initialization complete", "tables", len(boardTables))
	return nil
}

// Query executes raw SurrealQL. Errors are classified by wrapQueryError.
func (c *Client) Query(ctx context.Context, sql string, vars map[string]any) (*[]surrealdb.QueryResult[any], error) {
	start := time.Now()
	results, err := surrealdb.Query[any](ctx, c.db, sql, vars)
	c.recordQuery(start, err)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	return results, nil
}

func (c *Client) recordQuery(start time.Time, err error) {
	if err != nil {
		c.metrics.RecordFailure(metrics.OpDBQuery, time.Since(start))
		return
	}
	c.metrics.RecordTiming(metrics.OpDBQuery, time.Since(start))
}

// WipeData deletes all board records, keeping the schema.
// Use for testing only.
func (c *Client) WipeData(ctx context.Context) error {
	c.logger.Warn("wiping all data from database", "tables", boardTables)

	var sql strings.Builder
	sql.WriteString("BEGIN TRANSACTION;\n")
	for _, table := range boardTables {
		fmt.Fprintf(&sql, "DELETE %s;\n", table)
	}
	sql.WriteString("COMMIT TRANSACTION;")

	if _, err := c.Query(ctx, sql.String(), nil); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	return nil
}
