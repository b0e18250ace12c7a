package auction

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/auction/events"
	"github.com/mcdev12/auctionwheel/go/internal/auction/ledger"
	"github.com/mcdev12/auctionwheel/go/internal/auction/pool"
	"github.com/mcdev12/auctionwheel/go/internal/models"
)

// State is the auction state of a room
type State int

const (
	StateWaitingForSpin State = iota
	StateSpinning
	StateNoBidWindow
	StateActiveBidding
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateWaitingForSpin:
		return "waiting_for_spin"
	case StateSpinning:
		return "spinning"
	case StateNoBidWindow:
		return "no_bid_window"
	case StateActiveBidding:
		return "active_bidding"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Room is one auction session. Every field is owned by the room's actor
// goroutine; handlers below must only be called from it (or, in tests, from a
// room whose actor was never started).
type Room struct {
	id        string
	sessionID string
	cfg       Config
	clock     clockwork.Clock
	rng       *rand.Rand
	notify    Notifier
	sink      EventSink

	hostID string
	ledger *ledger.Ledger
	pool   *pool.Pool
	state  State

	currentItem     *models.Item
	currentCategory string
	currentBid      int
	currentBidderID string
	concessions     map[string]struct{}
	eventLog        []string

	pending     *pool.Selection
	spinGen     uint64
	revealTimer clockwork.Timer
	timers      *timerPair

	inbox chan func()
	done  chan struct{}
}

func newRoom(id string, cfg Config, catalog []models.Item, clock clockwork.Clock, rng *rand.Rand, notify Notifier, sink EventSink) *Room {
	if sink == nil {
		sink = nopSink{}
	}
	inboxSize := cfg.InboxSize
	if inboxSize <= 0 {
		inboxSize = DefaultConfig().InboxSize
	}

	r := &Room{
		id:          id,
		sessionID:   uuid.NewString(),
		cfg:         cfg,
		clock:       clock,
		rng:         rng,
		notify:      notify,
		sink:        sink,
		ledger:      ledger.New(cfg.RoomCapacity, cfg.StartingBudget),
		pool:        pool.New(catalog),
		state:       StateWaitingForSpin,
		concessions: make(map[string]struct{}),
		inbox:       make(chan func(), inboxSize),
		done:        make(chan struct{}),
	}
	r.timers = newTimerPair(clock, cfg.TickInterval, cfg.NoBidTicks, cfg.BidTicks, r.deliverTick)
	return r
}

// ID returns the room id
func (r *Room) ID() string {
	return r.id
}

func (r *Room) auctionActive() bool {
	return r.state == StateNoBidWindow || r.state == StateActiveBidding
}

// open registers the creator as the first participant and host
func (r *Room) open(hostID, name string) error {
	host, _, err := r.ledger.Join(hostID, name)
	if err != nil {
		return fmt.Errorf("failed to seat host: %w", err)
	}
	r.hostID = hostID
	r.appendLog("%s joined the room", host.Name)

	r.notify.Send(hostID, OutboundMessage{Type: MessageRoomCreated, RoomID: r.id})
	r.broadcast()

	r.sink.Emit(events.EventTypeRoomOpened, r.id, events.RoomOpenedPayload{
		RoomID:    r.id,
		SessionID: r.sessionID,
		HostID:    hostID,
		PoolSize:  r.pool.Len(),
		OpenedAt:  r.clock.Now().UTC(),
	})
	log.Info().
		Str("room_id", r.id).
		Str("session_id", r.sessionID).
		Str("host_id", hostID).
		Int("pool_size", r.pool.Len()).
		Msg("room opened")
	return nil
}

func (r *Room) handleJoin(participantID, name string) error {
	p, created, err := r.ledger.Join(participantID, name)
	if errors.Is(err, ledger.ErrFull) {
		return ErrRoomFull
	}
	if err != nil {
		return err
	}

	r.notify.Send(participantID, OutboundMessage{Type: MessageRoomJoined, RoomID: r.id})
	if !created {
		// Re-join: catch the participant up without touching the room.
		r.notify.Send(participantID, OutboundMessage{Type: MessageRoomState, RoomID: r.id, Data: r.snapshot()})
		return nil
	}

	r.appendLog("%s joined the room", p.Name)
	r.broadcast()
	return nil
}

func (r *Room) handleStartSpin(participantID string) error {
	if participantID != r.hostID {
		return ErrNotHost
	}
	if r.state != StateWaitingForSpin {
		r.rejected(participantID, "start_spin")
		return nil
	}
	if r.pool.Len() == 0 {
		r.appendLog("No players left in pool")
		r.broadcast()
		return nil
	}

	sel := r.pool.SelectNext(r.rng, r.cfg.Categories)
	r.pending = &sel
	r.state = StateSpinning
	r.spinGen++
	r.broadcast()
	r.notify.Broadcast(r.ledger.IDs(), OutboundMessage{
		Type:   MessageTurnRevealed,
		RoomID: r.id,
		Data:   TurnReveal{Category: sel.Category, Index: sel.CategoryIndex},
	})

	if r.cfg.RevealDelay <= 0 {
		r.reveal()
		return nil
	}
	gen := r.spinGen
	r.revealTimer = r.clock.AfterFunc(r.cfg.RevealDelay, func() {
		r.post(func() { r.handleReveal(gen) })
	})
	return nil
}

func (r *Room) handleReveal(gen uint64) {
	if gen != r.spinGen || r.state != StateSpinning {
		return
	}
	r.reveal()
}

// reveal surfaces the pending selection and opens the no-bid window
func (r *Room) reveal() {
	sel := r.pending
	r.pending = nil
	r.revealTimer = nil

	if sel == nil || sel.Item == nil {
		r.state = StateWaitingForSpin
		category := ""
		if sel != nil {
			category = sel.Category
		}
		r.appendLog("No %s players left in pool", category)
		r.broadcast()
		return
	}

	r.currentItem = sel.Item
	r.currentCategory = sel.Category
	r.currentBid = 0
	r.currentBidderID = ""
	clear(r.concessions)
	r.state = StateNoBidWindow
	r.appendLog("Wheel picked position %s → %s (%dM)", sel.Category, sel.Item.Name, sel.Item.BasePrice)
	r.timers.arm(timerNoBid)
	r.broadcast()
}

func (r *Room) handleBid(participantID string) error {
	if !r.auctionActive() {
		r.rejected(participantID, "bid")
		return nil
	}
	p, ok := r.ledger.Get(participantID)
	if !ok || len(p.Roster) >= r.cfg.RosterCap || r.currentBidderID == participantID {
		r.rejected(participantID, "bid")
		return nil
	}

	next := NextBid(r.currentBid, r.currentItem.BasePrice)
	if p.Budget < next {
		return ErrInsufficientBudget
	}

	r.currentBid = next
	r.currentBidderID = participantID
	clear(r.concessions)
	r.timers.arm(timerBid)
	r.state = StateActiveBidding
	r.appendLog("%s bid %dM for %s", p.Name, next, r.currentItem.Name)
	r.broadcast()
	return nil
}

func (r *Room) handleSkip(participantID string) {
	if !r.auctionActive() {
		r.rejected(participantID, "skip")
		return
	}
	p, ok := r.ledger.Get(participantID)
	if !ok {
		r.rejected(participantID, "skip")
		return
	}
	if _, conceded := r.concessions[participantID]; conceded {
		return
	}

	r.concessions[participantID] = struct{}{}
	r.appendLog("%s skipped %s", p.Name, r.currentItem.Name)
	if r.cfg.ResolveOnFullConcession && r.allConceded() {
		r.resolveTurn(events.ReasonConcession)
	}
	r.broadcast()
}

func (r *Room) handleUniversalSkip(participantID string) error {
	if participantID != r.hostID {
		return ErrNotHost
	}
	if !r.auctionActive() {
		return ErrNoActiveAuction
	}
	r.resolveTurn(events.ReasonHostSkip)
	r.broadcast()
	return nil
}

// handleTick applies a timer tick and rebroadcasts so the countdown is visible
func (r *Room) handleTick(gen uint64) {
	current, expired := r.timers.tick(gen)
	if !current {
		return
	}
	if expired {
		r.resolveTurn(events.ReasonTimer)
	}
	r.broadcast()
}

// handleLeave removes a participant and reports whether the room closed
func (r *Room) handleLeave(participantID string) bool {
	if _, ok := r.ledger.Remove(participantID); !ok {
		return false
	}
	delete(r.concessions, participantID)
	r.appendLog("A player disconnected")

	if r.ledger.Len() == 0 {
		r.close()
		return true
	}

	if participantID == r.hostID {
		r.hostID, _ = r.ledger.First()
		if host, ok := r.ledger.Get(r.hostID); ok {
			r.appendLog("%s is now host", host.Name)
		}
	}

	// The leaver may have been the only participant still holding out.
	if r.auctionActive() && r.cfg.ResolveOnFullConcession && len(r.concessions) > 0 && r.allConceded() {
		r.resolveTurn(events.ReasonConcession)
	}
	r.broadcast()
	return false
}

// resolveTurn ends the current turn. It does not broadcast; callers do.
func (r *Room) resolveTurn(reason events.Reason) {
	if r.currentItem == nil {
		r.assertf("resolve with no current item in state %s", r.state)
		return
	}
	item := *r.currentItem
	payload := events.TurnResolvedPayload{
		RoomID:    r.id,
		SessionID: r.sessionID,
		ItemName:  item.Name,
		Category:  r.currentCategory,
		BasePrice: item.BasePrice,
		Outcome:   events.OutcomeUnsold,
		Reason:    reason,
	}

	switch {
	case reason == events.ReasonHostSkip:
		r.appendLog("Host skipped %s", item.Name)
	case r.currentBidderID == "":
		r.appendLog("%s was unsold", item.Name)
	default:
		winner, ok := r.ledger.Get(r.currentBidderID)
		switch {
		case !ok:
			r.appendLog("Winner disconnected; %s unsold", item.Name)
		case winner.Budget < r.currentBid || len(winner.Roster) >= r.cfg.RosterCap:
			r.assertf("bidder %s cannot pay %d for %s (budget %d, roster %d)",
				winner.ID, r.currentBid, item.Name, winner.Budget, len(winner.Roster))
			r.appendLog("%s was unsold", item.Name)
		default:
			ledger.ApplyWin(winner, item, r.currentBid)
			r.appendLog("%s won %s for %dM", winner.Name, item.Name, r.currentBid)
			payload.Outcome = events.OutcomeSold
			payload.WinnerID = winner.ID
			payload.WinnerName = winner.Name
			payload.Price = r.currentBid
		}
	}

	if payload.Outcome == events.OutcomeUnsold && r.cfg.ReofferUnsold {
		r.pool.Requeue(item)
	}

	r.currentItem = nil
	r.currentCategory = ""
	r.currentBid = 0
	r.currentBidderID = ""
	clear(r.concessions)
	r.timers.reset()
	r.state = StateWaitingForSpin

	payload.ResolvedAt = r.clock.Now().UTC()
	r.sink.Emit(events.EventTypeTurnResolved, r.id, payload)
	log.Info().
		Str("room_id", r.id).
		Str("item", item.Name).
		Str("outcome", string(payload.Outcome)).
		Str("reason", string(reason)).
		Int("price", payload.Price).
		Msg("turn resolved")
}

// close tears the room down. Timers are cancelled and any tick or reveal
// still in flight becomes a no-op.
func (r *Room) close() {
	r.timers.cancel()
	stopAndDrainTimer(r.revealTimer)
	r.revealTimer = nil
	r.pending = nil
	r.spinGen++
	r.currentItem = nil
	r.currentBid = 0
	r.currentBidderID = ""
	r.state = StateClosed

	r.sink.Emit(events.EventTypeRoomClosed, r.id, events.RoomClosedPayload{
		RoomID:    r.id,
		SessionID: r.sessionID,
		ClosedAt:  r.clock.Now().UTC(),
	})
	log.Info().Str("room_id", r.id).Msg("room closed")
}

func (r *Room) allConceded() bool {
	if r.ledger.Len() == 0 {
		return false
	}
	for _, id := range r.ledger.IDs() {
		if _, ok := r.concessions[id]; !ok {
			return false
		}
	}
	return true
}

func (r *Room) broadcast() {
	r.notify.Broadcast(r.ledger.IDs(), OutboundMessage{
		Type:   MessageRoomState,
		RoomID: r.id,
		Data:   r.snapshot(),
	})
}

func (r *Room) appendLog(format string, args ...any) {
	r.eventLog = append(r.eventLog, fmt.Sprintf(format, args...))
}

func (r *Room) rejected(participantID, action string) {
	log.Debug().
		Str("room_id", r.id).
		Str("participant_id", participantID).
		Str("action", action).
		Str("state", r.state.String()).
		Msg("action ignored")
}

func (r *Room) assertf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error().Str("room_id", r.id).Msg("invariant violated: " + msg)
	if r.cfg.DevMode {
		panic(msg)
	}
}
