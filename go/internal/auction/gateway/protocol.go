package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/auction"
)

// InboundType identifies a client command
type InboundType string

const (
	InboundCreateRoom    InboundType = "createRoom"
	InboundJoinRoom      InboundType = "joinRoom"
	InboundStartSpin     InboundType = "startSpin"
	InboundBid           InboundType = "bid"
	InboundSkip          InboundType = "skip"
	InboundUniversalSkip InboundType = "universalSkip"
)

const (
	defaultPlayerName = "Player"
	maxNameLength     = 24
)

// InboundMessage is one client command
type InboundMessage struct {
	Type   InboundType `json:"type"`
	RoomID string      `json:"roomId,omitempty"`
	Name   string      `json:"name,omitempty"`
}

// Rooms is the part of the room registry the gateway drives
type Rooms interface {
	CreateRoom(ctx context.Context, hostID, name string) (string, error)
	JoinRoom(ctx context.Context, roomID, participantID, name string) error
	StartSpin(ctx context.Context, roomID, participantID string) error
	Bid(ctx context.Context, roomID, participantID string) error
	Skip(ctx context.Context, roomID, participantID string) error
	UniversalSkip(ctx context.Context, roomID, participantID string) error
	Disconnect(ctx context.Context, participantID string)
}

// Dispatcher decodes client commands and forwards them to the registry.
// Reported errors go back to the sender only.
type Dispatcher struct {
	rooms  Rooms
	notify auction.Notifier
}

func NewDispatcher(rooms Rooms, notify auction.Notifier) *Dispatcher {
	return &Dispatcher{rooms: rooms, notify: notify}
}

// HandleMessage implements MessageHandler
func (d *Dispatcher) HandleMessage(ctx context.Context, participantID string, data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().
			Err(err).
			Str("participant_id", participantID).
			Msg("ignoring malformed client message")
		return
	}

	// room ids are issued uppercase; every command resolves them the same way
	roomID := strings.ToUpper(strings.TrimSpace(msg.RoomID))

	var err error
	switch msg.Type {
	case InboundCreateRoom:
		_, err = d.rooms.CreateRoom(ctx, participantID, normalizeName(msg.Name))
	case InboundJoinRoom:
		err = d.rooms.JoinRoom(ctx, roomID, participantID, normalizeName(msg.Name))
	case InboundStartSpin:
		err = d.rooms.StartSpin(ctx, roomID, participantID)
	case InboundBid:
		err = d.rooms.Bid(ctx, roomID, participantID)
	case InboundSkip:
		err = d.rooms.Skip(ctx, roomID, participantID)
	case InboundUniversalSkip:
		err = d.rooms.UniversalSkip(ctx, roomID, participantID)
	default:
		log.Debug().
			Str("participant_id", participantID).
			Str("type", string(msg.Type)).
			Msg("ignoring unknown message type")
		return
	}

	if err != nil {
		log.Debug().
			Err(err).
			Str("participant_id", participantID).
			Str("room_id", roomID).
			Str("type", string(msg.Type)).
			Msg("command rejected")
		d.notify.Send(participantID, auction.OutboundMessage{
			Type:   auction.MessageError,
			RoomID: roomID,
			Data:   err.Error(),
		})
	}
}

// HandleDisconnect implements MessageHandler
func (d *Dispatcher) HandleDisconnect(ctx context.Context, participantID string) {
	d.rooms.Disconnect(ctx, participantID)
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultPlayerName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
