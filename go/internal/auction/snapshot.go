package auction

import "github.com/mcdev12/auctionwheel/go/internal/models"

// RoomSnapshot is the complete broadcast state of a room. A new snapshot is
// built for every broadcast and shares no memory with the room.
type RoomSnapshot struct {
	RoomID          string                        `json:"roomId"`
	Participants    map[string]models.Participant `json:"participants"`
	HostID          string                        `json:"hostId"`
	CurrentItem     *models.Item                  `json:"currentItem"`
	CurrentCategory *string                       `json:"currentCategory"`
	CurrentBid      int                           `json:"currentBid"`
	CurrentBidderID *string                       `json:"currentBidderId"`
	NextBid         int                           `json:"nextBid"`
	NoBidTimeLeft   int                           `json:"noBidTimeLeft"`
	BidTimeLeft     int                           `json:"bidTimeLeft"`
	AuctionActive   bool                          `json:"auctionActive"`
	SpinInProgress  bool                          `json:"spinInProgress"`
	PoolSize        int                           `json:"poolSize"`
	Log             []string                      `json:"log"`
}

// RoomSummary is the short form used when listing rooms
type RoomSummary struct {
	RoomID         string         `json:"roomId"`
	HostID         string         `json:"hostId"`
	Participants   int            `json:"participants"`
	AuctionActive  bool           `json:"auctionActive"`
	PoolSize       int            `json:"poolSize"`
	PoolByCategory map[string]int `json:"poolByCategory"`
}

func (r *Room) snapshot() RoomSnapshot {
	s := RoomSnapshot{
		RoomID:         r.id,
		Participants:   make(map[string]models.Participant, r.ledger.Len()),
		HostID:         r.hostID,
		CurrentBid:     r.currentBid,
		NoBidTimeLeft:  r.timers.noBidLeft,
		BidTimeLeft:    r.timers.bidLeft,
		AuctionActive:  r.auctionActive(),
		SpinInProgress: r.state == StateSpinning,
		PoolSize:       r.pool.Len(),
		Log:            make([]string, len(r.eventLog)),
	}
	copy(s.Log, r.eventLog)

	for _, id := range r.ledger.IDs() {
		p, _ := r.ledger.Get(id)
		s.Participants[id] = p.Clone()
	}
	if r.currentItem != nil {
		item := *r.currentItem
		category := r.currentCategory
		s.CurrentItem = &item
		s.CurrentCategory = &category
		s.NextBid = NextBid(r.currentBid, item.BasePrice)
	}
	if r.currentBidderID != "" {
		bidder := r.currentBidderID
		s.CurrentBidderID = &bidder
	}
	return s
}

func (r *Room) summary() RoomSummary {
	return RoomSummary{
		RoomID:         r.id,
		HostID:         r.hostID,
		Participants:   r.ledger.Len(),
		AuctionActive:  r.auctionActive(),
		PoolSize:       r.pool.Len(),
		PoolByCategory: r.pool.CountByCategory(),
	}
}
