package auction

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/models"
)

const maxRoomIDAttempts = 10

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithClock sets the clock used for room timers
func WithClock(clock clockwork.Clock) RegistryOption {
	return func(r *Registry) { r.clock = clock }
}

// WithEventSink sets where room lifecycle events are emitted
func WithEventSink(sink EventSink) RegistryOption {
	return func(r *Registry) { r.sink = sink }
}

// WithIDGenerator sets the room id generator
func WithIDGenerator(ids IDGenerator) RegistryOption {
	return func(r *Registry) { r.ids = ids }
}

// WithRand sets the source each room's random number generator is seeded from
func WithRand(rng *rand.Rand) RegistryOption {
	return func(r *Registry) { r.seeds = rng }
}

// Registry owns every live room. It maps room ids to room actors and tracks
// which rooms each participant is in so a disconnect can be fanned out.
type Registry struct {
	cfg     Config
	catalog []models.Item
	notify  Notifier
	sink    EventSink
	clock   clockwork.Clock
	ids     IDGenerator

	seedMu sync.Mutex
	seeds  *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	rooms   map[string]*Room
	members map[string]map[string]struct{} // participant id -> room ids
}

// NewRegistry creates a registry. Every room it creates starts with its own
// copy of catalog.
func NewRegistry(cfg Config, catalog []models.Item, notify Notifier, opts ...RegistryOption) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		cfg:     cfg,
		catalog: append([]models.Item(nil), catalog...),
		notify:  notify,
		sink:    nopSink{},
		clock:   clockwork.NewRealClock(),
		ctx:     ctx,
		cancel:  cancel,
		rooms:   make(map[string]*Room),
		members: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.seeds == nil {
		r.seeds = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if r.ids == nil {
		r.ids = NewRandomIDGenerator(rand.New(rand.NewSource(r.nextSeed())), 6)
	}
	return r
}

// CreateRoom opens a new room with hostID as its first participant and host
func (r *Registry) CreateRoom(ctx context.Context, hostID, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return "", fmt.Errorf("registry closed: %w", r.ctx.Err())
	}

	id := ""
	for i := 0; i < maxRoomIDAttempts; i++ {
		candidate := r.ids.NewRoomID()
		if _, taken := r.rooms[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == "" {
		return "", ErrRoomIDExhausted
	}

	room := newRoom(id, r.cfg, r.catalog, r.clock, rand.New(rand.NewSource(r.nextSeed())), r.notify, r.sink)
	if err := room.open(hostID, name); err != nil {
		return "", fmt.Errorf("failed to open room %s: %w", id, err)
	}

	r.rooms[id] = room
	r.addMemberLocked(hostID, id)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		room.run(r.ctx)
	}()
	return id, nil
}

// JoinRoom seats participantID in an existing room. The membership is
// recorded before the join is queued so a join that completes after ctx
// expires can still be undone by Disconnect.
func (r *Registry) JoinRoom(ctx context.Context, roomID, participantID, name string) error {
	room, err := r.lookup(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	_, already := r.members[participantID][roomID]
	r.addMemberLocked(participantID, roomID)
	r.mu.Unlock()

	err = r.call(ctx, room, func() error { return room.handleJoin(participantID, name) })
	if err != nil && !already && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		r.mu.Lock()
		r.removeMemberLocked(participantID, roomID)
		r.mu.Unlock()
	}
	return err
}

// StartSpin asks the room to spin the wheel. Only the host may spin.
func (r *Registry) StartSpin(ctx context.Context, roomID, participantID string) error {
	return r.dispatch(ctx, roomID, func(room *Room) error { return room.handleStartSpin(participantID) })
}

// Bid places the next legal bid on behalf of participantID
func (r *Registry) Bid(ctx context.Context, roomID, participantID string) error {
	return r.dispatch(ctx, roomID, func(room *Room) error { return room.handleBid(participantID) })
}

// Skip records participantID's concession on the current turn
func (r *Registry) Skip(ctx context.Context, roomID, participantID string) error {
	return r.dispatch(ctx, roomID, func(room *Room) error {
		room.handleSkip(participantID)
		return nil
	})
}

// UniversalSkip lets the host end the current turn with no winner
func (r *Registry) UniversalSkip(ctx context.Context, roomID, participantID string) error {
	return r.dispatch(ctx, roomID, func(room *Room) error { return room.handleUniversalSkip(participantID) })
}

// Disconnect removes participantID from every room it is in. Rooms left
// empty are torn down. Each leave is queued on its room before Disconnect
// waits, so it still runs if ctx expires first.
func (r *Registry) Disconnect(ctx context.Context, participantID string) {
	r.mu.Lock()
	roomIDs := r.members[participantID]
	delete(r.members, participantID)
	rooms := make([]*Room, 0, len(roomIDs))
	for id := range roomIDs {
		if room, ok := r.rooms[id]; ok {
			rooms = append(rooms, room)
		}
	}
	r.mu.Unlock()

	for _, room := range rooms {
		left := make(chan struct{})
		queued := room.post(func() {
			defer close(left)
			if room.handleLeave(participantID) {
				r.forget(room)
			}
		})
		if !queued {
			r.forget(room)
			continue
		}

		select {
		case <-left:
		case <-room.done:
			r.forget(room)
		case <-ctx.Done():
			log.Warn().
				Err(ctx.Err()).
				Str("room_id", room.id).
				Str("participant_id", participantID).
				Msg("leave still queued after disconnect deadline")
		}
	}
}

// Snapshot returns the current state of a room
func (r *Registry) Snapshot(ctx context.Context, roomID string) (RoomSnapshot, error) {
	var snap RoomSnapshot
	err := r.dispatch(ctx, roomID, func(room *Room) error {
		snap = room.snapshot()
		return nil
	})
	return snap, err
}

// ListRooms returns a summary of every live room ordered by room id
func (r *Registry) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		var s RoomSummary
		err := room.do(ctx, func() error {
			s = room.summary()
			return nil
		})
		if errors.Is(err, ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].RoomID < summaries[j].RoomID })
	return summaries, nil
}

// RoomCount returns the number of live rooms
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close tears down every room and waits for their actors to exit
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()

	r.mu.Lock()
	r.rooms = make(map[string]*Room)
	r.members = make(map[string]map[string]struct{})
	r.mu.Unlock()
}

func (r *Registry) dispatch(ctx context.Context, roomID string, fn func(*Room) error) error {
	room, err := r.lookup(roomID)
	if err != nil {
		return err
	}
	return r.call(ctx, room, func() error { return fn(room) })
}

// call runs fn on the room's actor. A registered room whose actor has already
// exited is inconsistent; it is dropped and reported as not found.
func (r *Registry) call(ctx context.Context, room *Room, fn func() error) error {
	err := room.do(ctx, fn)
	if errors.Is(err, ErrRoomNotFound) && room.closed() {
		r.mu.RLock()
		registered := r.rooms[room.id] == room
		r.mu.RUnlock()
		if registered {
			log.Error().Str("room_id", room.id).Msg("registered room has no running actor")
			r.forget(room)
		}
	}
	return err
}

func (r *Registry) lookup(roomID string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (r *Registry) forget(room *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[room.id] != room {
		return
	}
	delete(r.rooms, room.id)
	for pid := range r.members {
		r.removeMemberLocked(pid, room.id)
	}
}

func (r *Registry) addMemberLocked(participantID, roomID string) {
	ids, ok := r.members[participantID]
	if !ok {
		ids = make(map[string]struct{})
		r.members[participantID] = ids
	}
	ids[roomID] = struct{}{}
}

func (r *Registry) removeMemberLocked(participantID, roomID string) {
	ids := r.members[participantID]
	delete(ids, roomID)
	if len(ids) == 0 {
		delete(r.members, participantID)
	}
}

func (r *Registry) nextSeed() int64 {
	r.seedMu.Lock()
	defer r.seedMu.Unlock()
	return r.seeds.Int63()
}
