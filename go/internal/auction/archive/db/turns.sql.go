package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const createSchema = `
CREATE TABLE IF NOT EXISTS auction_turns (
  event_id    UUID PRIMARY KEY,
  room_id     TEXT NOT NULL,
  session_id  UUID NOT NULL,
  item_name   TEXT NOT NULL,
  category    TEXT NOT NULL,
  base_price  INTEGER NOT NULL,
  outcome     TEXT NOT NULL,
  reason      TEXT NOT NULL,
  price       INTEGER NOT NULL DEFAULT 0,
  winner      JSONB,
  resolved_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS auction_turns_room_idx ON auction_turns (room_id, resolved_at);
CREATE TABLE IF NOT EXISTS auction_session_stats (
  session_id UUID PRIMARY KEY,
  room_id    TEXT NOT NULL,
  turns      INTEGER NOT NULL DEFAULT 0,
  sold       INTEGER NOT NULL DEFAULT 0,
  spent      BIGINT NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS auction_session_stats_room_idx ON auction_session_stats (room_id)
`

func (q *Queries) CreateSchema(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, createSchema)
	return err
}

const insertTurn = `-- name: InsertTurn :execrows
INSERT INTO auction_turns (
  event_id, room_id, session_id, item_name, category, base_price,
  outcome, reason, price, winner, resolved_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (event_id) DO NOTHING
`

type InsertTurnParams struct {
	EventID    uuid.UUID             `json:"event_id"`
	RoomID     string                `json:"room_id"`
	SessionID  uuid.UUID             `json:"session_id"`
	ItemName   string                `json:"item_name"`
	Category   string                `json:"category"`
	BasePrice  int32                 `json:"base_price"`
	Outcome    string                `json:"outcome"`
	Reason     string                `json:"reason"`
	Price      int32                 `json:"price"`
	Winner     pqtype.NullRawMessage `json:"winner"`
	ResolvedAt time.Time             `json:"resolved_at"`
}

func (q *Queries) InsertTurn(ctx context.Context, arg InsertTurnParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertTurn,
		arg.EventID,
		arg.RoomID,
		arg.SessionID,
		arg.ItemName,
		arg.Category,
		arg.BasePrice,
		arg.Outcome,
		arg.Reason,
		arg.Price,
		arg.Winner,
		arg.ResolvedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const bumpSessionStats = `-- name: BumpSessionStats :exec
INSERT INTO auction_session_stats (session_id, room_id, turns, sold, spent, updated_at)
VALUES ($1, $2, 1, $3, $4, $5)
ON CONFLICT (session_id) DO UPDATE SET
  turns      = auction_session_stats.turns + 1,
  sold       = auction_session_stats.sold + EXCLUDED.sold,
  spent      = auction_session_stats.spent + EXCLUDED.spent,
  updated_at = EXCLUDED.updated_at
`

type BumpSessionStatsParams struct {
	SessionID uuid.UUID `json:"session_id"`
	RoomID    string    `json:"room_id"`
	Sold      int32     `json:"sold"`
	Spent     int64     `json:"spent"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) BumpSessionStats(ctx context.Context, arg BumpSessionStatsParams) error {
	_, err := q.db.ExecContext(ctx, bumpSessionStats,
		arg.SessionID,
		arg.RoomID,
		arg.Sold,
		arg.Spent,
		arg.UpdatedAt,
	)
	return err
}

const listTurnsByRoom = `-- name: ListTurnsByRoom :many
SELECT event_id, room_id, session_id, item_name, category, base_price, outcome, reason, price, winner, resolved_at
FROM auction_turns
WHERE room_id = $1
ORDER BY resolved_at
`

func (q *Queries) ListTurnsByRoom(ctx context.Context, roomID string) ([]AuctionTurn, error) {
	rows, err := q.db.QueryContext(ctx, listTurnsByRoom, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuctionTurn
	for rows.Next() {
		var i AuctionTurn
		if err := rows.Scan(
			&i.EventID,
			&i.RoomID,
			&i.SessionID,
			&i.ItemName,
			&i.Category,
			&i.BasePrice,
			&i.Outcome,
			&i.Reason,
			&i.Price,
			&i.Winner,
			&i.ResolvedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSessionStats = `-- name: GetSessionStats :one
SELECT session_id, room_id, turns, sold, spent, updated_at
FROM auction_session_stats
WHERE session_id = $1
`

func (q *Queries) GetSessionStats(ctx context.Context, sessionID uuid.UUID) (AuctionSessionStat, error) {
	row := q.db.QueryRowContext(ctx, getSessionStats, sessionID)
	var i AuctionSessionStat
	err := row.Scan(
		&i.SessionID,
		&i.RoomID,
		&i.Turns,
		&i.Sold,
		&i.Spent,
		&i.UpdatedAt,
	)
	return i, err
}
