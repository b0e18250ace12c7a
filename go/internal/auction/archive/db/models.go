package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type AuctionTurn struct {
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

type AuctionSessionStat struct {
	SessionID uuid.UUID `json:"session_id"`
	RoomID    string    `json:"room_id"`
	Turns     int32     `json:"turns"`
	Sold      int32     `json:"sold"`
	Spent     int64     `json:"spent"`
	UpdatedAt time.Time `json:"updated_at"`
}
