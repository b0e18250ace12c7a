package models

// RosterEntry records one item won at auction
type RosterEntry struct {
	ItemName string `json:"itemName"`
	Price    int    `json:"price"`
}

// Participant is a member of an auction room
type Participant struct {
	ID     string        `json:"-"`
	Name   string        `json:"name"`
	Budget int           `json:"budget"`
	Roster []RosterEntry `json:"roster"`
}

// Clone returns a deep copy safe to hand to other goroutines
func (p *Participant) Clone() Participant {
	c := *p
	c.Roster = make([]RosterEntry, len(p.Roster))
	copy(c.Roster, p.Roster)
	return c
}
