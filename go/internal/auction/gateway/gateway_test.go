package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mcdev12/auctionwheel/go/internal/auction"
	"github.com/mcdev12/auctionwheel/go/internal/models"
)

type frame struct {
	Type   auction.MessageType `json:"type"`
	RoomID string              `json:"roomId"`
	Data   json.RawMessage     `json:"data"`
}

func (f frame) snapshot(t *testing.T) auction.RoomSnapshot {
	t.Helper()
	var s auction.RoomSnapshot
	require.NoError(t, json.Unmarshal(f.Data, &s))
	return s
}

func newTestGateway(t *testing.T) (*httptest.Server, *auction.Registry) {
	t.Helper()

	cfg := auction.DefaultConfig()
	cfg.RevealDelay = 0
	cfg.TickInterval = time.Hour
	cfg.Categories = []string{"CF"}

	items := []models.Item{{Name: "Haaland", Category: "CF", BasePrice: 50}}

	cm := NewConnectionManager(DefaultConnectionConfig())
	registry := auction.NewRegistry(cfg, items, cm)
	svc := NewService(cm, registry)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		svc.Stop()
		srv.Close()
		registry.Close()
	})
	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg InboundMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil returns the first frame that matches, skipping the rest
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func ofType(typ auction.MessageType) func(frame) bool {
	return func(f frame) bool { return f.Type == typ }
}

func stateWhere(t *testing.T, pred func(auction.RoomSnapshot) bool) func(frame) bool {
	return func(f frame) bool {
		return f.Type == auction.MessageRoomState && pred(f.snapshot(t))
	}
}

func TestGateway_EndToEnd(t *testing.T) {
	srv, _ := newTestGateway(t)

	alice := dial(t, srv)
	bob := dial(t, srv)
	carol := dial(t, srv)

	send(t, alice, InboundMessage{Type: InboundCreateRoom, Name: "Alice"})
	created := readUntil(t, alice, ofType(auction.MessageRoomCreated))
	roomID := created.RoomID
	require.NotEmpty(t, roomID)

	send(t, bob, InboundMessage{Type: InboundJoinRoom, RoomID: strings.ToLower(roomID), Name: "Bob"})
	joined := readUntil(t, bob, ofType(auction.MessageRoomJoined))
	assert.Equal(t, roomID, joined.RoomID)
	readUntil(t, alice, stateWhere(t, func(s auction.RoomSnapshot) bool { return len(s.Participants) == 2 }))

	send(t, carol, InboundMessage{Type: InboundJoinRoom, RoomID: "ZZZZZZ", Name: "Carol"})
	errFrame := readUntil(t, carol, ofType(auction.MessageError))
	assert.JSONEq(t, `"Room not found"`, string(errFrame.Data))

	send(t, bob, InboundMessage{Type: InboundStartSpin, RoomID: roomID})
	errFrame = readUntil(t, bob, ofType(auction.MessageError))
	assert.JSONEq(t, `"Only the host can do that"`, string(errFrame.Data))

	send(t, alice, InboundMessage{Type: InboundStartSpin, RoomID: roomID})
	reveal := readUntil(t, alice, ofType(auction.MessageTurnRevealed))
	assert.JSONEq(t, `{"category":"CF","index":0}`, string(reveal.Data))
	readUntil(t, alice, stateWhere(t, func(s auction.RoomSnapshot) bool {
		return s.AuctionActive && s.CurrentItem != nil && s.CurrentItem.Name == "Haaland"
	}))

	send(t, bob, InboundMessage{Type: InboundBid, RoomID: roomID})
	bidState := readUntil(t, alice, stateWhere(t, func(s auction.RoomSnapshot) bool { return s.CurrentBidderID != nil }))
	assert.Equal(t, 50, bidState.snapshot(t).CurrentBid)
	assert.Equal(t, "Bob", bidState.snapshot(t).Participants[*bidState.snapshot(t).CurrentBidderID].Name)

	send(t, alice, InboundMessage{Type: InboundUniversalSkip, RoomID: roomID})
	skipped := readUntil(t, alice, stateWhere(t, func(s auction.RoomSnapshot) bool { return !s.AuctionActive }))
	assert.Contains(t, skipped.snapshot(t).Log, "Host skipped Haaland")

	bob.Close()
	left := readUntil(t, alice, stateWhere(t, func(s auction.RoomSnapshot) bool { return len(s.Participants) == 1 }))
	assert.Contains(t, left.snapshot(t).Log, "A player disconnected")
}

func TestGateway_AdminRPC(t *testing.T) {
	srv, _ := newTestGateway(t)

	alice := dial(t, srv)
	send(t, alice, InboundMessage{Type: InboundCreateRoom, Name: "Alice"})
	roomID := readUntil(t, alice, ofType(auction.MessageRoomCreated)).RoomID

	ctx := context.Background()

	list := connect.NewClient[emptypb.Empty, structpb.Struct](srv.Client(), srv.URL+ListRoomsProcedure)
	resp, err := list.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	rooms := resp.Msg.GetFields()["rooms"].GetListValue().GetValues()
	require.Len(t, rooms, 1)
	room := rooms[0].GetStructValue().GetFields()
	assert.Equal(t, roomID, room["roomId"].GetStringValue())
	assert.Equal(t, float64(1), room["participants"].GetNumberValue())
	assert.Equal(t, float64(1), room["poolByCategory"].GetStructValue().GetFields()["CF"].GetNumberValue())

	get := connect.NewClient[wrapperspb.StringValue, structpb.Struct](srv.Client(), srv.URL+GetRoomProcedure)
	snap, err := get.CallUnary(ctx, connect.NewRequest(wrapperspb.String(roomID)))
	require.NoError(t, err)
	fields := snap.Msg.GetFields()
	assert.Equal(t, roomID, fields["roomId"].GetStringValue())
	assert.NotEmpty(t, fields["hostId"].GetStringValue())
	assert.Len(t, fields["participants"].GetStructValue().GetFields(), 1)
	assert.False(t, fields["auctionActive"].GetBoolValue())

	_, err = get.CallUnary(ctx, connect.NewRequest(wrapperspb.String("NOPE")))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestGateway_Stats(t *testing.T) {
	srv, _ := newTestGateway(t)

	alice := dial(t, srv)
	send(t, alice, InboundMessage{Type: InboundCreateRoom, Name: "Alice"})
	readUntil(t, alice, ofType(auction.MessageRoomCreated))

	resp, err := srv.Client().Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var stats struct {
		Service          string `json:"service"`
		TotalConnections int    `json:"total_connections"`
		Rooms            int    `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, "auction_gateway", stats.Service)
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 1, stats.Rooms)
}

type stubReader struct {
	err error
}

func (s stubReader) ListRooms(context.Context) ([]auction.RoomSummary, error) {
	return nil, s.err
}

func (s stubReader) Snapshot(context.Context, string) (auction.RoomSnapshot, error) {
	return auction.RoomSnapshot{}, s.err
}

func TestAdminService_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewAdminService(stubReader{}).GetRoom(ctx, connect.NewRequest(wrapperspb.String("  ")))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = NewAdminService(stubReader{err: errors.New("boom")}).GetRoom(ctx, connect.NewRequest(wrapperspb.String("ROOM01")))
	assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))

	_, err = NewAdminService(stubReader{err: errors.New("boom")}).ListRooms(ctx, connect.NewRequest(&emptypb.Empty{}))
	assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))

	resp, err := NewAdminService(stubReader{}).ListRooms(ctx, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.GetFields()["rooms"].GetListValue().GetValues())
}

func TestConnectionManager_SendToUnknownIsNoop(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	cm.Send("ghost", auction.OutboundMessage{Type: auction.MessageRoomState})
	assert.Equal(t, 0, cm.GetConnectionStats().TotalConnections)
}
