package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mcdev12/auctionwheel/go/internal/auction"
)

const (
	// RoomServiceName is the fully-qualified name of the admin room service
	RoomServiceName = "auction.v1.RoomService"

	// ListRoomsProcedure is the full procedure name of RoomService.ListRooms
	ListRoomsProcedure = "/auction.v1.RoomService/ListRooms"
	// GetRoomProcedure is the full procedure name of RoomService.GetRoom
	GetRoomProcedure = "/auction.v1.RoomService/GetRoom"
)

// RoomReader is the read side of the room registry
type RoomReader interface {
	ListRooms(ctx context.Context) ([]auction.RoomSummary, error)
	Snapshot(ctx context.Context, roomID string) (auction.RoomSnapshot, error)
}

// AdminService exposes live rooms to operators over connect
type AdminService struct {
	rooms RoomReader
}

func NewAdminService(rooms RoomReader) *AdminService {
	return &AdminService{rooms: rooms}
}

// NewAdminServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewAdminServiceHandler(svc *AdminService, opts ...connect.HandlerOption) (string, http.Handler) {
	listRoomsHandler := connect.NewUnaryHandler(ListRoomsProcedure, svc.ListRooms, opts...)
	getRoomHandler := connect.NewUnaryHandler(GetRoomProcedure, svc.GetRoom, opts...)

	return "/" + RoomServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ListRoomsProcedure:
			listRoomsHandler.ServeHTTP(w, r)
		case GetRoomProcedure:
			getRoomHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ListRooms returns a summary of every open room
func (s *AdminService) ListRooms(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to list rooms: %w", err))
	}

	out, err := toStruct(map[string]any{"rooms": rooms})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// GetRoom returns the full snapshot of one room
func (s *AdminService) GetRoom(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[structpb.Struct], error) {
	roomID := strings.TrimSpace(req.Msg.GetValue())
	if roomID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("room id is required"))
	}

	snap, err := s.rooms.Snapshot(ctx, roomID)
	if err != nil {
		if errors.Is(err, auction.ErrRoomNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to get room: %w", err))
	}

	out, err := toStruct(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// toStruct converts a JSON-tagged value into a protobuf Struct
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return structpb.NewStruct(m)
}
