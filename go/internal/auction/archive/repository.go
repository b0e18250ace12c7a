package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/auctionwheel/go/internal/auction/archive/db"
	"github.com/mcdev12/auctionwheel/go/internal/auction/events"
	"github.com/mcdev12/auctionwheel/go/internal/sqlutil"
)

// Winner is stored as jsonb alongside each sold turn
type Winner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// ErrSessionNotFound is returned when no turn was archived for a session
var ErrSessionNotFound = errors.New("session not found")

// TurnRecord is one archived turn
type TurnRecord struct {
	EventID    uuid.UUID `json:"eventId"`
	RoomID     string    `json:"roomId"`
	SessionID  uuid.UUID `json:"sessionId"`
	ItemName   string    `json:"itemName"`
	Category   string    `json:"category"`
	BasePrice  int       `json:"basePrice"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason"`
	Price      int       `json:"price"`
	Winner     *Winner   `json:"winner"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// SessionStats totals the archived turns of one room session
type SessionStats struct {
	SessionID uuid.UUID `json:"sessionId"`
	RoomID    string    `json:"roomId"`
	Turns     int       `json:"turns"`
	Sold      int       `json:"sold"`
	Spent     int64     `json:"spent"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{db: sqlDB}
}

// EnsureSchema creates the archive tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := db.New(r.db).CreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}
	return nil
}

// RecordTurn stores a resolved turn and updates its session's totals in one
// transaction. Redelivered events are detected by event id and reported
// with inserted=false.
func (r *Repository) RecordTurn(ctx context.Context, eventID uuid.UUID, turn events.TurnResolvedPayload) (inserted bool, err error) {
	params, err := turnParams(eventID, turn)
	if err != nil {
		return false, err
	}

	err = sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *db.Queries { return db.New(tx) }, func(q *db.Queries) error {
		n, err := q.InsertTurn(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
		if n == 0 {
			return nil
		}
		inserted = true

		if err := q.BumpSessionStats(ctx, sessionStats(params.SessionID, turn)); err != nil {
			return fmt.Errorf("failed to update session stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// ListTurns returns a room's archived turns in resolution order
func (r *Repository) ListTurns(ctx context.Context, roomID string) ([]TurnRecord, error) {
	rows, err := db.New(r.db).ListTurnsByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	out := make([]TurnRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := turnRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SessionStats returns the running totals of one room session
func (r *Repository) SessionStats(ctx context.Context, sessionID uuid.UUID) (SessionStats, error) {
	row, err := db.New(r.db).GetSessionStats(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionStats{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionStats{}, fmt.Errorf("failed to get session stats: %w", err)
	}
	return SessionStats{
		SessionID: row.SessionID,
		RoomID:    row.RoomID,
		Turns:     int(row.Turns),
		Sold:      int(row.Sold),
		Spent:     row.Spent,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func turnParams(eventID uuid.UUID, turn events.TurnResolvedPayload) (db.InsertTurnParams, error) {
	sessionID, err := uuid.Parse(turn.SessionID)
	if err != nil {
		return db.InsertTurnParams{}, fmt.Errorf("invalid session id %q: %w", turn.SessionID, err)
	}

	params := db.InsertTurnParams{
		EventID:    eventID,
		RoomID:     turn.RoomID,
		SessionID:  sessionID,
		ItemName:   turn.ItemName,
		Category:   turn.Category,
		BasePrice:  int32(turn.BasePrice),
		Outcome:    string(turn.Outcome),
		Reason:     string(turn.Reason),
		Price:      int32(turn.Price),
		ResolvedAt: turn.ResolvedAt,
	}
	if turn.Outcome == events.OutcomeSold {
		raw, err := json.Marshal(Winner{ID: turn.WinnerID, Name: turn.WinnerName, Price: turn.Price})
		if err != nil {
			return db.InsertTurnParams{}, fmt.Errorf("failed to marshal winner: %w", err)
		}
		params.Winner = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}
	return params, nil
}

// sessionStats is the increment one resolved turn adds to its session
func sessionStats(sessionID uuid.UUID, turn events.TurnResolvedPayload) db.BumpSessionStatsParams {
	stats := db.BumpSessionStatsParams{
		SessionID: sessionID,
		RoomID:    turn.RoomID,
		UpdatedAt: turn.ResolvedAt,
	}
	if turn.Outcome == events.OutcomeSold {
		stats.Sold = 1
		stats.Spent = int64(turn.Price)
	}
	return stats
}

func turnRecord(row db.AuctionTurn) (TurnRecord, error) {
	rec := TurnRecord{
		EventID:    row.EventID,
		RoomID:     row.RoomID,
		SessionID:  row.SessionID,
		ItemName:   row.ItemName,
		Category:   row.Category,
		BasePrice:  int(row.BasePrice),
		Outcome:    row.Outcome,
		Reason:     row.Reason,
		Price:      int(row.Price),
		ResolvedAt: row.ResolvedAt,
	}
	if row.Winner.Valid {
		var w Winner
		if err := json.Unmarshal(row.Winner.RawMessage, &w); err != nil {
			return TurnRecord{}, fmt.Errorf("failed to decode winner for %s: %w", row.EventID, err)
		}
		rec.Winner = &w
	}
	return rec, nil
}
