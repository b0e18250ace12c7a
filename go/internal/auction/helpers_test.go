package auction

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionwheel/go/internal/auction/events"
	"github.com/mcdev12/auctionwheel/go/internal/models"
)

type delivery struct {
	to  []string
	msg OutboundMessage
}

// recordingNotifier keeps every message it is asked to deliver
type recordingNotifier struct {
	mu   sync.Mutex
	sent []delivery
}

func (n *recordingNotifier) Send(participantID string, msg OutboundMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, delivery{to: []string{participantID}, msg: msg})
}

func (n *recordingNotifier) Broadcast(participantIDs []string, msg OutboundMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, delivery{to: participantIDs, msg: msg})
}

func (n *recordingNotifier) deliveries() []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]delivery, len(n.sent))
	copy(out, n.sent)
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

// lastState returns the most recent roomState snapshot
func (n *recordingNotifier) lastState(t *testing.T) RoomSnapshot {
	t.Helper()
	sent := n.deliveries()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].msg.Type == MessageRoomState {
			snap, ok := sent[i].msg.Data.(RoomSnapshot)
			require.True(t, ok)
			return snap
		}
	}
	require.FailNow(t, "no roomState message sent")
	return RoomSnapshot{}
}

func (n *recordingNotifier) countType(typ MessageType) int {
	count := 0
	for _, d := range n.deliveries() {
		if d.msg.Type == typ {
			count++
		}
	}
	return count
}

type emitted struct {
	eventType events.EventType
	roomID    string
	payload   any
}

type recordingSink struct {
	mu     sync.Mutex
	events []emitted
}

func (s *recordingSink) Emit(eventType events.EventType, roomID string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, emitted{eventType: eventType, roomID: roomID, payload: payload})
}

func (s *recordingSink) ofType(eventType events.EventType) []emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []emitted
	for _, e := range s.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func testCatalog() []models.Item {
	return []models.Item{
		{Name: "Haaland", Category: "CF", BasePrice: 50},
		{Name: "Kane", Category: "CF", BasePrice: 40},
		{Name: "Mbappe", Category: "CF", BasePrice: 60},
	}
}

// testConfig reveals synchronously and only spins the CF slice so tests are
// deterministic
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RevealDelay = 0
	cfg.Categories = []string{"CF"}
	return cfg
}

type roomFixture struct {
	room   *Room
	notify *recordingNotifier
	sink   *recordingSink
	clock  *clockwork.FakeClock
}

func newTestRoom(t *testing.T, cfg Config, catalog []models.Item) roomFixture {
	t.Helper()
	f := roomFixture{
		notify: &recordingNotifier{},
		sink:   &recordingSink{},
		clock:  clockwork.NewFakeClock(),
	}
	f.room = newRoom("ROOM01", cfg, catalog, f.clock, rand.New(rand.NewSource(1)), f.notify, f.sink)
	require.NoError(t, f.room.open("host", "Alice"))
	t.Cleanup(f.room.timers.cancel)
	return f
}

func (f roomFixture) join(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.room.handleJoin(id, "name-"+id))
	}
}

// surface spins and reveals the next item
func (f roomFixture) surface(t *testing.T) *models.Item {
	t.Helper()
	require.NoError(t, f.room.handleStartSpin(f.room.hostID))
	require.Equal(t, StateNoBidWindow, f.room.state)
	require.NotNil(t, f.room.currentItem)
	return f.room.currentItem
}

// expire delivers ticks until the armed timer runs out
func (f roomFixture) expire(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000 && f.room.timers.armed() != timerNone; i++ {
		f.room.handleTick(f.room.timers.gen)
	}
	require.Equal(t, timerNone, f.room.timers.armed())
}

// requireConsistent checks the structural invariants of a room
func requireConsistent(t *testing.T, r *Room) {
	t.Helper()
	require.Equal(t, r.currentBid == 0, r.currentBidderID == "", "bid and bidder must be set together")
	require.Equal(t, r.auctionActive(), r.currentItem != nil)

	switch r.state {
	case StateNoBidWindow:
		require.Equal(t, timerNoBid, r.timers.armed())
	case StateActiveBidding:
		require.Equal(t, timerBid, r.timers.armed())
	default:
		require.Equal(t, timerNone, r.timers.armed())
	}

	for _, id := range r.ledger.IDs() {
		p, _ := r.ledger.Get(id)
		require.LessOrEqual(t, len(p.Roster), r.cfg.RosterCap)
		require.GreaterOrEqual(t, p.Budget, 0)
		for _, entry := range p.Roster {
			require.False(t, r.pool.Contains(entry.ItemName), "%s is both won and in the pool", entry.ItemName)
		}
	}
	if r.currentItem != nil {
		require.False(t, r.pool.Contains(r.currentItem.Name))
	}
}
