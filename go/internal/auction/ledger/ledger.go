package ledger

import (
	"errors"

	"github.com/mcdev12/auctionwheel/go/internal/models"
)

// ErrFull is returned when the ledger is already at capacity
var ErrFull = errors.New("ledger full")

// Ledger tracks a room's participants in join order
type Ledger struct {
	capacity     int
	startBudget  int
	order        []string
	participants map[string]*models.Participant
}

// New creates an empty ledger. capacity bounds the number of participants and
// startBudget is credited to every participant on join.
func New(capacity, startBudget int) *Ledger {
	return &Ledger{
		capacity:     capacity,
		startBudget:  startBudget,
		participants: make(map[string]*models.Participant),
	}
}

// Join adds a participant. Joining with an id that is already present is a
// no-op that returns the existing entry and created=false.
func (l *Ledger) Join(id, name string) (p *models.Participant, created bool, err error) {
	if existing, ok := l.participants[id]; ok {
		return existing, false, nil
	}
	if len(l.order) >= l.capacity {
		return nil, false, ErrFull
	}

	p = &models.Participant{
		ID:     id,
		Name:   name,
		Budget: l.startBudget,
		Roster: []models.RosterEntry{},
	}
	l.participants[id] = p
	l.order = append(l.order, id)
	return p, true, nil
}

// Remove deletes a participant; its budget and roster are discarded
func (l *Ledger) Remove(id string) (*models.Participant, bool) {
	p, ok := l.participants[id]
	if !ok {
		return nil, false
	}
	delete(l.participants, id)
	for i, pid := range l.order {
		if pid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Get returns the participant with the given id
func (l *Ledger) Get(id string) (*models.Participant, bool) {
	p, ok := l.participants[id]
	return p, ok
}

// Len returns the number of participants
func (l *Ledger) Len() int {
	return len(l.order)
}

// IDs returns participant ids in join order
func (l *Ledger) IDs() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// First returns the earliest-joined remaining participant id
func (l *Ledger) First() (string, bool) {
	if len(l.order) == 0 {
		return "", false
	}
	return l.order[0], true
}

// ApplyWin debits price from the participant and appends the item to its
// roster. It performs no validation; the caller checks budget and roster cap.
func ApplyWin(p *models.Participant, item models.Item, price int) {
	p.Budget -= price
	p.Roster = append(p.Roster, models.RosterEntry{ItemName: item.Name, Price: price})
}
