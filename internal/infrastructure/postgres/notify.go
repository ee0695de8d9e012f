package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/homegame/homegame/internal/domain/notification"
)

// DefaultChannel is the NOTIFY channel game events travel on.
const DefaultChannel = "game_changes"

// Notifier publishes game events with pg_notify so that every server instance
// listening on the channel sees them.
type Notifier struct {
	pool    *pgxpool.Pool
	channel string
}

func NewNotifier(pool *pgxpool.Pool, channel string) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{pool: pool, channel: channel}
}

func (n *Notifier) Publish(ctx context.Context, event *notification.GameChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode game event: %w", err)
	}
	_, err = n.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, n.channel, string(payload))
	return err
}

// Listener holds one connection in LISTEN mode and hands every decoded event
// to a local publisher, normally the SSE hub.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	local   notification.Publisher
	backoff time.Duration
	logger  zerolog.Logger
}

func NewListener(pool *pgxpool.Pool, channel string, local notification.Publisher, logger zerolog.Logger) *Listener {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Listener{
		pool:    pool,
		channel: channel,
		local:   local,
		backoff: time.Second,
		logger:  logger.With().Str("component", "pg_listener").Logger(),
	}
}

// Run listens until ctx is cancelled, reconnecting after connection errors.
// Events missed while disconnected are lost; watchers fall back to polling.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn().Err(err).Dur("retry_in", l.backoff).Msg("listen connection lost")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	l.logger.Info().Str("channel", l.channel).Msg("listening for game changes")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		event, err := notification.DecodeGameChanged([]byte(n.Payload))
		if err != nil {
			l.logger.Warn().Err(err).Msg("dropping malformed notification")
			continue
		}
		if err := l.local.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Warn().Err(err).Str("game_id", event.GameID.String()).Msg("local publish failed")
		}
	}
}
