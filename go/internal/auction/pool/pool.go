package pool

import (
	"math/rand"

	"github.com/mcdev12/auctionwheel/go/internal/models"
)

// Pool is a room's working set of items that have not yet been offered.
// Items only ever leave the pool; Requeue is the single way back in and is
// used only when unsold items are re-offered.
type Pool struct {
	items []models.Item
}

// Selection is the outcome of one spin
type Selection struct {
	Category      string
	CategoryIndex int
	Item          *models.Item // nil when the category had no candidates
}

// New returns a pool holding a private copy of catalog
func New(catalog []models.Item) *Pool {
	items := make([]models.Item, len(catalog))
	copy(items, catalog)
	return &Pool{items: items}
}

// Len returns the number of items left in the pool
func (p *Pool) Len() int {
	return len(p.items)
}

// Contains reports whether an item with the given name is still in the pool
func (p *Pool) Contains(name string) bool {
	for _, it := range p.items {
		if it.Name == name {
			return true
		}
	}
	return false
}

// Items returns a copy of the remaining items in pool order
func (p *Pool) Items() []models.Item {
	out := make([]models.Item, len(p.items))
	copy(out, p.items)
	return out
}

// CountByCategory returns how many items of each category remain
func (p *Pool) CountByCategory() map[string]int {
	counts := make(map[string]int)
	for _, it := range p.items {
		counts[it.Category]++
	}
	return counts
}

// SelectNext spins the wheel over categories, then picks uniformly at random
// among the pool's items in the chosen category and removes it. An empty
// category yields a Selection with a nil Item and leaves the pool untouched.
func (p *Pool) SelectNext(rng *rand.Rand, categories []string) Selection {
	if len(categories) == 0 {
		return Selection{CategoryIndex: -1}
	}
	idx := rng.Intn(len(categories))
	sel := p.SelectInCategory(rng, categories[idx])
	sel.CategoryIndex = idx
	return sel
}

// SelectInCategory picks and removes a random item from the given category
func (p *Pool) SelectInCategory(rng *rand.Rand, category string) Selection {
	sel := Selection{Category: category, CategoryIndex: -1}

	var candidates []int
	for i, it := range p.items {
		if it.Category == category {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return sel
	}

	pos := candidates[rng.Intn(len(candidates))]
	item := p.items[pos]
	p.items = append(p.items[:pos], p.items[pos+1:]...)
	sel.Item = &item
	return sel
}

// Requeue appends an item back to the tail of the pool
func (p *Pool) Requeue(item models.Item) {
	p.items = append(p.items, item)
}
