package models

// Item is a draftable football player. Items are immutable once loaded and
// identified by Name, which must be unique within a catalog.
type Item struct {
	Name      string `json:"name"`
	Category  string `json:"category"` // 'GK', 'CB', 'CM', etc.
	BasePrice int    `json:"basePrice"`
}
